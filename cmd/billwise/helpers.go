package main

import (
	"context"
	"fmt"

	"github.com/billwise/billwise/internal/config"
	"github.com/billwise/billwise/internal/service"
	"github.com/billwise/billwise/internal/storage"
	"github.com/spf13/viper"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// requireUserID resolves the user to operate on from the --user flag or
// the user.id config key.
func requireUserID() (string, error) {
	userID := viper.GetString("user.id")
	if userID == "" {
		return "", fmt.Errorf("no user specified: pass --user or set user.id in config")
	}
	return userID, nil
}
