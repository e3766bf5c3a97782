package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/storage/sqlite"
	"github.com/steveyegge/redline/internal/testutil/teststore"
	"github.com/steveyegge/redline/internal/types"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "nested", "rl.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestConformance(t *testing.T) {
	teststore.RunConformance(t, func(t *testing.T) storage.Storage {
		return newTestStore(t)
	})
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(ctx, ":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	fx := teststore.Seed(t, store)

	// The single pooled connection must still allow a transaction.
	err = store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return tx.DeleteAll(ctx)
	})
	require.NoError(t, err)
	teststore.AssertContents(t, store, teststore.Fixture{})

	assert.Equal(t, ":memory:", store.Path())
	assert.NotEmpty(t, fx.Users)
}

func TestPragmas(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var mode string
	require.NoError(t, store.DB().QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, store.DB().QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestForeignKeysEnforced(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	issue := types.Issue{
		ID: "i1", ProjectID: "missing", Tracker: types.TrackerBug, Subject: "Orphan",
		Status: types.StatusNew, Priority: types.PriorityNormal, AuthorID: "nobody",
		CreatedAt: teststore.Base, UpdatedAt: teststore.Base,
	}
	assert.Error(t, store.CreateIssue(ctx, &issue))
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rl.db")

	store, err := sqlite.New(ctx, path, nil)
	require.NoError(t, err)
	fx := teststore.Seed(t, store)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "second Close is a no-op")

	reopened, err := sqlite.New(ctx, path, nil)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	teststore.AssertContents(t, reopened, fx)
}

func TestConcurrentTransactions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	teststore.Seed(t, store)

	// Writers serialize behind BEGIN IMMEDIATE; each sees a consistent table.
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- store.RunInTransaction(ctx, func(tx storage.Transaction) error {
				if err := tx.DeleteAll(ctx); err != nil {
					return err
				}
				u := types.User{ID: "w", Email: "w@example.com", FirstName: "Wu", LastName: "Xi", Role: types.RoleAdmin, CreatedAt: teststore.Base}
				return tx.InsertUser(ctx, &u)
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, sqlite.IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, sqlite.IsBusy(errors.New("no such table: users")))
	assert.True(t, sqlite.IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")))
	assert.False(t, sqlite.IsUniqueViolation(errors.New("FOREIGN KEY constraint failed")))
}
