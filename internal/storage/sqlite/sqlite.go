// Package sqlite opens the SQLite storage backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/steveyegge/redline/internal/storage/sqlstore"
)

// Store is the SQLite-backed storage.
type Store struct {
	*sqlstore.Store
	path string
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// New opens (creating if needed) the database at path. ":memory:" opens a
// private in-memory database.
func New(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	isInMemory := path == ":memory:" ||
		(strings.HasPrefix(path, "file:") && strings.Contains(path, "mode=memory"))

	var connStr string
	switch {
	case path == ":memory:":
		// WAL does not apply to in-memory databases
		connStr = "file::memory:?_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
	case strings.HasPrefix(path, "file:"):
		connStr = path
	default:
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
		}
		connStr = "file:" + path + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if isInMemory {
		// Every connection to :memory: gets its own database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		// WAL allows one writer and many readers.
		db.SetMaxOpenConns(runtime.NumCPU() + 1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	inner, err := sqlstore.New(ctx, db, Dialect(), logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner, path: path}, nil
}

// Dialect returns the SQLite dialect.
func Dialect() sqlstore.Dialect {
	return sqlstore.Dialect{
		Name:              "sqlite",
		Schema:            schema,
		BeginSQL:          "BEGIN IMMEDIATE",
		IsUniqueViolation: isUniqueViolation,
		IsRetryable:       isBusy,
		MaxRetryElapsed:   5 * time.Second,
	}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isBusy reports SQLITE_BUSY and SQLITE_LOCKED, the only SQLite errors
// worth retrying.
func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
