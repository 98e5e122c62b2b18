package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hollisreid/fraudwatch/internal/common"
	"github.com/hollisreid/fraudwatch/internal/service"
	"github.com/hollisreid/fraudwatch/internal/storage"
)

// defaultDBPath is used when no database path is configured.
const defaultDBPath = "$HOME/.local/share/fraudwatch/fraudwatch.db"

// expandPath expands ~ and environment variables in a file path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// initStorage opens the configured database and brings its schema up
// to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	dbPath = expandPath(dbPath)
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("%w: db.path resolved to an empty string", common.ErrMissingConfig)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
