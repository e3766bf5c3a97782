// Package sqlstore implements storage.Storage over database/sql.
//
// The SQL is shared by every backend and only uses "?" placeholders. Each
// backend supplies a Dialect with its schema, transaction start and error
// classification.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/steveyegge/redline/internal/debug"
	"github.com/steveyegge/redline/internal/storage"
)

// Verify Store implements storage.Storage at compile time
var _ storage.Storage = (*Store)(nil)

// Dialect describes what differs between SQL backends.
type Dialect struct {
	// Name identifies the backend in logs and errors.
	Name string

	// Schema holds idempotent DDL statements run on open, in order.
	Schema []string

	// BeginSQL, when set, starts transactions with this raw statement on a
	// dedicated connection (e.g. "BEGIN IMMEDIATE") instead of BeginTx.
	BeginSQL string

	// IsUniqueViolation reports whether err is a unique or primary key
	// constraint failure.
	IsUniqueViolation func(err error) bool

	// IsRetryable reports whether err is transient (busy database, dropped
	// connection, serialization failure).
	IsRetryable func(err error) bool

	// MaxRetryElapsed bounds the total retry time for transient errors.
	MaxRetryElapsed time.Duration
}

// Store is the shared SQL storage implementation.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
	closed  atomic.Bool
}

// querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New wraps an open database and creates the schema. A nil logger
// discards output.
func New(ctx context.Context, db *sql.DB, dialect Dialect, logger *slog.Logger) (*Store, error) {
	if dialect.IsUniqueViolation == nil {
		dialect.IsUniqueViolation = func(error) bool { return false }
	}
	if dialect.IsRetryable == nil {
		dialect.IsRetryable = func(error) bool { return false }
	}
	s := &Store{db: db, dialect: dialect, logger: debug.OrDiscard(logger)}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Schema {
		err := s.withRetry(ctx, func() error {
			_, err := s.db.ExecContext(ctx, stmt)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to initialize %s schema: %w", s.dialect.Name, err)
		}
	}
	return nil
}

// DB exposes the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Backend returns the dialect name.
func (s *Store) Backend() string {
	return s.dialect.Name
}

// Close closes the database. Calling it more than once is a no-op.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func (s *Store) newBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxElapsedTime = s.dialect.MaxRetryElapsed
	if bo.MaxElapsedTime == 0 {
		bo.MaxElapsedTime = 5 * time.Second
	}
	return bo
}

// withRetry runs op, retrying transient errors with exponential backoff.
func (s *Store) withRetry(ctx context.Context, op func() error) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if s.dialect.IsRetryable(err) {
			s.logger.Debug("retrying after transient error",
				"backend", s.dialect.Name, "attempt", attempt, "error", err)
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(s.newBackoff(), ctx))
}

// exec runs a single statement against the pool with retry.
func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := s.withRetry(ctx, func() error {
		var err error
		result, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	return result, err
}
