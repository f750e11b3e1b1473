package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-mis/internal/domain/auth"
	"github.com/xenking/restaurant-mis/internal/storage"
	"github.com/xenking/restaurant-mis/internal/storage/file"
	"github.com/xenking/restaurant-mis/internal/storage/memory"
	"github.com/xenking/restaurant-mis/internal/storage/postgres"
)

// Backend is an opened storage port together with the API keys it serves.
type Backend struct {
	Port    storage.Port
	APIKeys auth.Repository
	Close   func()
}

// OpenStorage opens the configured storage driver. With PostgreSQL, API keys
// are read from the api_keys table; otherwise from AdminKeyHashes.
func OpenStorage(ctx context.Context, lg *zap.Logger, cfg *Config) (*Backend, error) {
	static := func() auth.Repository {
		keys := make([]auth.APIKeyInfo, len(cfg.AdminKeyHashes))
		for i, h := range cfg.AdminKeyHashes {
			keys[i] = auth.APIKeyInfo{ID: h[:min(8, len(h))], KeyHash: h, Name: "config"}
		}
		return auth.NewStaticRepository(keys...)
	}

	switch cfg.Storage.Driver {
	case DriverMemory:
		lg.Warn("Using in-memory storage, data is lost on restart")
		return &Backend{Port: memory.New(), APIKeys: static(), Close: func() {}}, nil
	case DriverFile:
		store, err := file.New(cfg.Storage.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "open file storage")
		}
		lg.Info("Using file storage", zap.String("dir", cfg.Storage.Dir))
		return &Backend{Port: store, APIKeys: static(), Close: func() {}}, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		lg.Info("Using PostgreSQL storage")
		return &Backend{
			Port:    postgres.NewStore(pool),
			APIKeys: postgres.NewAPIKeyRepository(pool),
			Close:   pool.Close,
		}, nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
