package main

import (
	"context"
	"fmt"

	"github.com/aliskhannn/flashquiz-bot/internal/config"
	"github.com/aliskhannn/flashquiz-bot/internal/infra/postgres"
	pgrepo "github.com/aliskhannn/flashquiz-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/flashquiz-bot/internal/infra/sqlite"
	"github.com/aliskhannn/flashquiz-bot/internal/service"
)

// store is the storage backend selected by storage.driver.
type store interface {
	service.ResponseSink
	service.SubmissionHistory
	Close()
}

type postgresStore struct {
	*pgrepo.SubmissionRepository
	close func()
}

func (s postgresStore) Close() { s.close() }

type sqliteStore struct {
	*sqlite.Store
}

func (s sqliteStore) Close() { _ = s.Store.Close() }

func openStorage(ctx context.Context, cfg *config.Config) (store, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqliteStore{Store: s}, nil

	default:
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return nil, err
		}

		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		repo := pgrepo.NewSubmissionRepository(pool, postgres.NewTransactor(pool))
		return postgresStore{SubmissionRepository: repo, close: pool.Close}, nil
	}
}
