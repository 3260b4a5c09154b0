package history

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/tariff-reconciler/internal/config"
)

// Open creates the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile:
		return NewFileStore(cfg.Path), nil
	case config.BackendSQLite:
		store, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendRedis:
		store, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKey)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
