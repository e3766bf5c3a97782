// Package factory opens the storage backend named in configuration.
package factory

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/steveyegge/redline/internal/config"
	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/storage/mysql"
	"github.com/steveyegge/redline/internal/storage/sqlite"
)

// Opener opens one kind of backend.
type Opener func(ctx context.Context, cfg config.Storage, logger *slog.Logger) (storage.Storage, error)

var openers = map[string]Opener{
	config.BackendSQLite: openSQLite,
	config.BackendMySQL:  openMySQL,
}

func openSQLite(ctx context.Context, cfg config.Storage, logger *slog.Logger) (storage.Storage, error) {
	return sqlite.New(ctx, cfg.SQLite.Path, logger)
}

func openMySQL(ctx context.Context, cfg config.Storage, logger *slog.Logger) (storage.Storage, error) {
	m := cfg.MySQL
	return mysql.New(ctx, mysql.Config{
		Host:     m.Host,
		Port:     m.Port,
		User:     m.User,
		Password: m.Password,
		Database: m.Database,
		TLS:      m.TLS,
	}, logger)
}

// RegisterBackend adds or replaces the opener for name. Call it during
// init, before New runs.
func RegisterBackend(name string, open Opener) {
	openers[name] = open
}

// Backends returns the registered backend names in order.
func Backends() []string {
	return slices.Sorted(maps.Keys(openers))
}

// New opens the backend named by cfg.Backend, sqlite when empty.
func New(ctx context.Context, cfg config.Storage, logger *slog.Logger) (storage.Storage, error) {
	name := cfg.Backend
	if name == "" {
		name = config.BackendSQLite
	}
	open, ok := openers[name]
	if !ok {
		return nil, fmt.Errorf("unknown storage backend: %s (supported: %v)", name, Backends())
	}
	store, err := open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", name, err)
	}
	return store, nil
}
