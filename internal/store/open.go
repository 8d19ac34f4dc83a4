package store

import (
	"context"
	"fmt"

	"github.com/ppiankov/aivis/internal/model"
)

// Open builds the store selected by cfg.Driver
func Open(ctx context.Context, cfg model.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case model.StoreDriverMemory:
		return NewMemory(), nil

	case model.StoreDriverSQLite, "":
		path := cfg.SQLitePath
		if path == "" {
			path = "aivis.db"
		}
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil

	case model.StoreDriverPostgres:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("store.postgres_url is empty")
		}
		if cfg.MigrateOnStart {
			if err := Migrate(cfg.PostgresURL, "up", 0); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		s, err := NewPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store driver: %s (supported: memory, sqlite, postgres)", cfg.Driver)
	}
}
