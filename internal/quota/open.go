package quota

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sozercan/episode-finder/internal/config"
)

// Open builds the store selected by cfg.Store.
func Open(ctx context.Context, cfg config.QuotaConfig) (Store, error) {
	switch cfg.Store {
	case "memory", "":
		slog.Warn("using in-memory quota store; counts reset on restart")
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.KeyPrefix,
		})
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported quota store %q", cfg.Store)
	}
}
