package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zatekoja/apprating/internal/domain/providers"
	"github.com/zatekoja/apprating/internal/infrastructure/clients/postgres"
	redisclient "github.com/zatekoja/apprating/internal/infrastructure/clients/redis"
	"github.com/zatekoja/apprating/internal/infrastructure/clients/sqlite"
	"github.com/zatekoja/apprating/pkg/config"
)

// Backend is an opened key-value store plus the connections behind it
type Backend struct {
	Store providers.KVStore
	// Redis is set when the store itself runs on Redis
	Redis *redisclient.Client

	closers []func() error
}

// Close releases every connection the backend opened
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open connects to the backend selected by cfg.Store.Backend
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		return &Backend{Store: NewMemoryStore()}, nil

	case config.StoreBackendSQLite:
		client, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		store, err := NewSQLStore(ctx, client.DB(), DialectSQLite)
		if err != nil {
			client.Close()
			return nil, err
		}
		return &Backend{Store: store, closers: []func() error{client.Close}}, nil

	case config.StoreBackendPostgres:
		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		store, err := NewSQLStore(ctx, client.DB(), DialectPostgres)
		if err != nil {
			client.Close()
			return nil, err
		}
		return &Backend{Store: store, closers: []func() error{client.Close}}, nil

	case config.StoreBackendRedis:
		client, err := redisclient.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: NewRedisStore(client), Redis: client, closers: []func() error{client.Close}}, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
