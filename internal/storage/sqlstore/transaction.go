package sqlstore

import (
	"context"
	"fmt"

	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/types"
)

// Verify txStore implements storage.Transaction at compile time
var _ storage.Transaction = (*txStore)(nil)

// txStore implements storage.Transaction on one open transaction.
type txStore struct {
	q     querier
	store *Store
}

// txHandle is an open transaction regardless of how it was started.
type txHandle struct {
	q        querier
	commit   func() error
	rollback func() error
	release  func()
}

// RunInTransaction executes fn within a database transaction.
//
// Transaction lifecycle:
//  1. Begin (BeginTx, or the dialect's raw BEGIN on a dedicated connection)
//  2. Execute fn with the Transaction interface
//  3. On success: COMMIT
//  4. On error or panic: ROLLBACK
//
// Transient failures (busy database, dropped connection) retry the whole
// attempt with backoff, so fn must be safe to run again.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	return s.withTx(ctx, func(q querier) error {
		return fn(&txStore{q: q, store: s})
	})
}

func (s *Store) withTx(ctx context.Context, fn func(q querier) error) error {
	return s.withRetry(ctx, func() error {
		return s.runTransactionOnce(ctx, fn)
	})
}

func (s *Store) runTransactionOnce(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.release()

	// Rolls back on error and while unwinding a panic; the panic itself
	// continues to the caller.
	committed := false
	defer func() {
		if !committed {
			if err := tx.rollback(); err != nil {
				s.logger.Debug("rollback failed", "backend", s.dialect.Name, "error", err)
			}
		}
	}()

	if err := fn(tx.q); err != nil {
		return err
	}
	if err := tx.commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) begin(ctx context.Context) (*txHandle, error) {
	if s.dialect.BeginSQL == "" {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		return &txHandle{q: tx, commit: tx.Commit, rollback: tx.Rollback, release: func() {}}, nil
	}

	// database/sql's BeginTx cannot select a transaction mode, so raw
	// statements run on a dedicated connection instead.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, s.dialect.BeginSQL); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &txHandle{
		q: conn,
		commit: func() error {
			_, err := conn.ExecContext(ctx, "COMMIT")
			return err
		},
		rollback: func() error {
			// Background context so rollback completes even if ctx is cancelled
			_, err := conn.ExecContext(context.Background(), "ROLLBACK")
			return err
		},
		release: func() { _ = conn.Close() },
	}, nil
}

// DeleteAll empties every table, children first.
func (t *txStore) DeleteAll(ctx context.Context) error {
	for _, table := range []string{"comments", "time_entries", "issues", "projects", "users"} {
		if _, err := t.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return t.store.dbErr(err, "delete all %s", table)
		}
	}
	return nil
}

// InsertUser stores the user under its given id. The email is lowercased
// as CreateUser does, so a case-only duplicate is a conflict.
func (t *txStore) InsertUser(ctx context.Context, user *types.User) error {
	user.Email = storage.NormalizeEmail(user.Email)
	return t.store.dbErr(insertUser(ctx, t.q, user), "insert user %s", user.ID)
}

// InsertProject stores the project under its given id, with the
// identifier lowercased.
func (t *txStore) InsertProject(ctx context.Context, project *types.Project) error {
	project.Identifier = storage.NormalizeIdentifier(project.Identifier)
	return t.store.dbErr(insertProject(ctx, t.q, project), "insert project %s", project.ID)
}

func (t *txStore) InsertIssue(ctx context.Context, issue *types.Issue) error {
	return t.store.dbErr(insertIssue(ctx, t.q, issue), "insert issue %s", issue.ID)
}

func (t *txStore) InsertTimeEntry(ctx context.Context, entry *types.TimeEntry) error {
	return t.store.dbErr(insertTimeEntry(ctx, t.q, entry), "insert time entry %s", entry.ID)
}

func (t *txStore) InsertComment(ctx context.Context, comment *types.Comment) error {
	return t.store.dbErr(insertComment(ctx, t.q, comment), "insert comment %s", comment.ID)
}
