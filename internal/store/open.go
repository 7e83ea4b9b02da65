package store

import (
	"context"
	"fmt"

	"github.com/ashureev/juice-coach/internal/config"
	"github.com/redis/go-redis/v9"
)

// Open builds the configured KV backend and verifies it is reachable.
func Open(ctx context.Context, cfg config.StoreConfig) (KV, error) {
	var (
		kv  KV
		err error
	)
	switch cfg.Backend {
	case config.BackendSQLite:
		kv, err = NewSQLite(cfg.DBPath)
	case config.BackendRedis:
		kv, err = NewRedis(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.RedisNamespace)
	case config.BackendMemory:
		kv = NewMemory()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	if err := kv.Ping(ctx); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.Backend, err)
	}
	return kv, nil
}
