// Package storage opens the repositories of the configured backend.
package storage

import (
	"context"
	"fmt"

	"github.com/sponsorwall/backend/internal/config"
	"github.com/sponsorwall/backend/internal/db"
	"github.com/sponsorwall/backend/internal/repositories"
	"github.com/sponsorwall/backend/internal/repositories/postgres"
	"github.com/sponsorwall/backend/internal/repositories/sqlite"
	"go.uber.org/zap"
)

// Open connects to the backend named by cfg.StorageDriver. The returned
// func releases the connection.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (repositories.Store, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(db.DriverPostgres, cfg.PostgresDSN, log); err != nil {
				return repositories.Store{}, nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
		if err != nil {
			return repositories.Store{}, nil, err
		}
		return postgres.NewStore(pool), pool.Close, nil

	case config.StorageDriverSQLite:
		sdb, err := sqlite.Open(cfg.SQLitePath, log)
		if err != nil {
			return repositories.Store{}, nil, err
		}
		log.Info("sqlite storage opened", zap.String("path", cfg.SQLitePath))
		return sdb.Store(), func() { _ = sdb.Close() }, nil

	default:
		return repositories.Store{}, nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
