package factory

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/redline/internal/config"
	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/testutil/teststore"
)

func TestNewOpensSQLiteByDefault(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rl.db")

	store, err := New(ctx, config.Storage{SQLite: config.SQLiteConfig{Path: path}}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.FileExists(t, path)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), config.Storage{Backend: "postgres"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage backend: postgres (supported: [mysql sqlite])`)
}

func TestRegisterBackend(t *testing.T) {
	fake := teststore.New(t)
	boom := errors.New("boom")
	RegisterBackend("fake", func(context.Context, config.Storage, *slog.Logger) (storage.Storage, error) {
		return fake, nil
	})
	RegisterBackend("broken", func(context.Context, config.Storage, *slog.Logger) (storage.Storage, error) {
		return nil, boom
	})
	t.Cleanup(func() {
		delete(openers, "fake")
		delete(openers, "broken")
	})

	assert.Equal(t, []string{"broken", "fake", "mysql", "sqlite"}, Backends())

	store, err := New(context.Background(), config.Storage{Backend: "fake"}, nil)
	require.NoError(t, err)
	assert.Same(t, fake, store)

	_, err = New(context.Background(), config.Storage{Backend: "broken"}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "open broken storage")
}
