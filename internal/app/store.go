package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"dormride/internal/config"
	internalRedis "dormride/internal/redis"
	"dormride/internal/repository"
	"dormride/internal/repository/file"
	"dormride/internal/repository/postgres"
)

// NewDatasetStore returns the document store selected by cfg.Backend. db
// and redisClient are only required by the backends that use them.
func NewDatasetStore(ctx context.Context, cfg config.StoreConfig, db *sql.DB, redisClient *redis.Client) (repository.DatasetStore, error) {
	switch cfg.Backend {
	case config.StoreBackendFile:
		return file.NewDatasetStore(cfg.FilePath), nil

	case config.StoreBackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("store backend %q requires a database connection", cfg.Backend)
		}
		store := postgres.NewDatasetStore(db, cfg.Document)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case config.StoreBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("store backend %q requires REDIS_ENABLED=true", cfg.Backend)
		}
		return internalRedis.NewDatasetStore(redisClient, cfg.Document), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
