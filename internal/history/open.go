package history

import (
	"context"
	"fmt"

	"github.com/replynow20/gemini-zotero/internal/config"
	"github.com/replynow20/gemini-zotero/internal/domain"
)

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(cfg.MaxMessages), nil
	case "file", "":
		return NewFileStore(cfg.Path, cfg.MaxMessages)
	case "redis":
		return NewRedisStore(ctx, RedisConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			Prefix:      cfg.Redis.Prefix,
			MaxMessages: cfg.MaxMessages,
		})
	default:
		return nil, domain.ConfigurationError(fmt.Sprintf("invalid history driver: %s", cfg.Driver), nil)
	}
}
