// Package config provides unified configuration loading for gemini-zotero.
// Supports YAML files, .env files, environment variables and programmatic overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

// Config holds all configuration for the pipeline and its outer surfaces.
type Config struct {
	API           APIConfig                   `yaml:"api"`
	Generation    domain.GenerationParameters `yaml:"generation"`
	Upload        UploadConfig                `yaml:"upload"`
	Insight       InsightConfig               `yaml:"insight"`
	Templates     TemplatesConfig             `yaml:"templates"`
	History       HistoryConfig               `yaml:"history"`
	Batch         BatchConfig                 `yaml:"batch"`
	Server        ServerConfig                `yaml:"server"`
	Observability ObservabilityConfig         `yaml:"observability"`
}

// APIConfig holds the provider credential and transport settings.
type APIConfig struct {
	Key      string        `yaml:"key"`
	Model    string        `yaml:"model"`
	Endpoint string        `yaml:"endpoint"`
	ProxyURL string        `yaml:"proxy_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// UploadConfig holds upload protocol settings.
type UploadConfig struct {
	PollInterval      time.Duration `yaml:"poll_interval"`
	ProcessingTimeout time.Duration `yaml:"processing_timeout"`
	DisplayName       string        `yaml:"display_name"`
}

// InsightConfig holds the image stage settings of the insight workflow.
type InsightConfig struct {
	ImageModel  string `yaml:"image_model"`
	AspectRatio string `yaml:"aspect_ratio"`
	ImageSize   string `yaml:"image_size"`
}

// TemplatesConfig selects the default analysis template.
type TemplatesConfig struct {
	Default    string `yaml:"default"`
	CustomPath string `yaml:"custom_path"` // optional YAML file of extra templates
}

// HistoryConfig holds conversation history storage settings.
type HistoryConfig struct {
	Driver      string      `yaml:"driver"` // memory, file or redis
	Path        string      `yaml:"path"`
	MaxMessages int         `yaml:"max_messages"`
	Redis       RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// BatchConfig holds batch analysis pacing and retry settings.
type BatchConfig struct {
	Delay          time.Duration `yaml:"delay"`
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads .env files, then the YAML file at path (optional), then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads the given .env files without overriding variables that
// are already set. Missing files are ignored.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// DefaultConfig returns a configuration with the plugin's default preferences.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Model:   "gemini-3-flash-preview",
			Timeout: 5 * time.Minute,
		},
		Generation: domain.DefaultGenerationParameters(),
		Upload: UploadConfig{
			PollInterval:      2 * time.Second,
			ProcessingTimeout: 60 * time.Second,
			DisplayName:       "document.pdf",
		},
		Insight: InsightConfig{
			ImageModel:  "gemini-3-pro-image-preview",
			AspectRatio: "16:9",
			ImageSize:   "2K",
		},
		Templates: TemplatesConfig{
			Default: "quick_summary",
		},
		History: HistoryConfig{
			Driver:      "file",
			Path:        defaultHistoryPath(),
			MaxMessages: 50,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "gemini-zotero:history:",
			},
		},
		Batch: BatchConfig{
			Delay:          500 * time.Millisecond,
			MaxAttempts:    3,
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     30 * time.Second,
		},
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8086,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     10 * time.Minute,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   9 * time.Minute,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   100 << 20,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

func defaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".gemini-zotero-history.json"
	}
	return filepath.Join(dir, "gemini-zotero", "history.json")
}

// Validate checks the configuration for errors. A missing API key is not an
// error here; commands that talk to the provider reject it when the client is built.
func (c *Config) Validate() error {
	if err := c.Generation.Validate(); err != nil {
		return err
	}

	if c.API.Model == "" {
		return domain.ConfigurationError("api.model must not be empty", nil)
	}

	if c.API.Timeout < 0 {
		return domain.ConfigurationError("api.timeout must not be negative", nil)
	}

	if c.API.ProxyURL != "" {
		u, err := url.Parse(c.API.ProxyURL)
		if err != nil {
			return domain.ConfigurationError("invalid api.proxy_url", err)
		}
		switch u.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return domain.ConfigurationError(fmt.Sprintf("unsupported proxy scheme: %s", u.Scheme), nil)
		}
	}

	if c.Upload.PollInterval <= 0 || c.Upload.ProcessingTimeout <= 0 {
		return domain.ConfigurationError("upload intervals must be positive", nil)
	}

	switch c.History.Driver {
	case "memory", "file", "redis":
	default:
		return domain.ConfigurationError(fmt.Sprintf("invalid history driver: %s", c.History.Driver), nil)
	}

	if c.History.MaxMessages < 1 {
		return domain.ConfigurationError("history.max_messages must be positive", nil)
	}

	if c.Batch.MaxAttempts < 1 {
		return domain.ConfigurationError("batch.max_attempts must be at least 1", nil)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return domain.ConfigurationError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	return nil
}

// HasAPIKey reports whether a credential is configured.
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.API.Key) != ""
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.API.Key = v
	}

	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.API.Model = v
	}

	if v := os.Getenv("GEMINI_API_ENDPOINT"); v != "" {
		cfg.API.Endpoint = v
	}

	if v := os.Getenv("GEMINI_PROXY_URL"); v != "" {
		cfg.API.ProxyURL = v
	}

	if v := os.Getenv("GEMINI_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = d
		}
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.History.Driver = "redis"
		// Parse redis://[:password@]host:port[/db] format
		if u, err := url.Parse(v); err == nil && u.Host != "" {
			cfg.History.Redis.Addr = u.Host
			if pw, ok := u.User.Password(); ok {
				cfg.History.Redis.Password = pw
			}
			if db, err := strconv.Atoi(strings.TrimPrefix(u.Path, "/")); err == nil {
				cfg.History.Redis.DB = db
			}
		} else {
			cfg.History.Redis.Addr = strings.TrimPrefix(v, "redis://")
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
