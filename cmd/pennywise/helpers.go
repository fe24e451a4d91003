package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/mtobin/pennywise/internal/config"
	"github.com/mtobin/pennywise/internal/service"
	"github.com/mtobin/pennywise/internal/storage"
)

// initStorage opens the configured database and brings the schema current.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/pennywise/pennywise.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
