package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string
	MaxMessages int
}

// RedisStore keeps each session as a Redis list of JSON-encoded turns.
type RedisStore struct {
	client *redis.Client
	prefix string
	max    int
}

// redisEntry is one list element.
type redisEntry struct {
	ID      string      `json:"id"`
	Created time.Time   `json:"created"`
	Turn    domain.Turn `json:"turn"`
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, domain.ConfigurationError("redis ping failed", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "gemini-zotero:history:"
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		max:    limitOrDefault(cfg.MaxMessages),
	}, nil
}

// Load returns the session's turns, oldest first.
func (s *RedisStore) Load(ctx context.Context, key string) ([]domain.Turn, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	vals, err := s.client.LRange(ctx, s.prefix+key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	turns := make([]domain.Turn, 0, len(vals))
	for _, v := range vals {
		var e redisEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, domain.ParseError("corrupt history entry", err)
		}
		turns = append(turns, e.Turn)
	}
	// LTRIM may cut between a question and its answer
	return fromFirstUser(turns), nil
}

// Append pushes turns and trims the list in one transaction.
func (s *RedisStore) Append(ctx context.Context, key string, turns ...domain.Turn) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(turns))
	now := time.Now().UTC()
	for _, t := range domain.TextOnly(turns) {
		data, err := json.Marshal(redisEntry{ID: uuid.NewString(), Created: now, Turn: t})
		if err != nil {
			return domain.IOError("encode history entry", err)
		}
		values = append(values, data)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.prefix+key, values...)
	pipe.LTrim(ctx, s.prefix+key, int64(-s.max), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

// Clear deletes the session list.
func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
