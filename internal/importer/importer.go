// Package importer replaces the contents of a store with an export
// snapshot.
//
// An import is all-or-nothing: the snapshot is checked with
// export.ValidateExportData first, and only a fully valid snapshot reaches
// the store. The delete and every insert then run in one transaction, so a
// failed write leaves the previous data in place.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/steveyegge/redline/internal/debug"
	"github.com/steveyegge/redline/internal/export"
	"github.com/steveyegge/redline/internal/storage"
)

// Options contains import configuration
type Options struct {
	DryRun  bool         // Validate and decode without touching the store
	Lenient bool         // Accept JSONC (comments, trailing commas)
	Logger  *slog.Logger // Optional; nil discards
}

// Result contains statistics about the import operation
type Result struct {
	Users       int           `json:"users"`
	Projects    int           `json:"projects"`
	Issues      int           `json:"issues"`
	TimeEntries int           `json:"timeEntries"`
	Comments    int           `json:"comments"`
	DryRun      bool          `json:"dryRun"`
	Duration    time.Duration `json:"-"`
}

// Total is the number of records written (or that would be written).
func (r *Result) Total() int {
	return r.Users + r.Projects + r.Issues + r.TimeEntries + r.Comments
}

// ValidationError means the snapshot was rejected before any write.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PersistenceError means the replace transaction failed and was rolled
// back. Err is the underlying storage error.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("import failed, previous data kept: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Import validates data and, unless opts.DryRun is set, replaces every
// record in store with the snapshot's records. Original ids and timestamps
// are kept.
//
// Errors are *ValidationError when the snapshot is rejected and
// *PersistenceError when the write fails; use errors.As to tell them apart.
func Import(ctx context.Context, store storage.Storage, data []byte, opts Options) (*Result, error) {
	logger := debug.OrDiscard(opts.Logger)
	start := time.Now()

	raw, err := export.DecodeRaw(data, opts.Lenient)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if check := export.ValidateExportData(raw); !check.Valid {
		logger.Debug("snapshot rejected", "error", check.Error)
		return nil, &ValidationError{Message: check.Error}
	}
	snap, err := export.Decode(data, opts.Lenient)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	d := snap.Data
	logger.Debug("snapshot validated",
		"users", len(d.Users), "projects", len(d.Projects), "issues", len(d.Issues),
		"timeEntries", len(d.TimeEntries), "comments", len(d.Comments))

	if opts.DryRun {
		return &Result{
			Users:       len(d.Users),
			Projects:    len(d.Projects),
			Issues:      len(d.Issues),
			TimeEntries: len(d.TimeEntries),
			Comments:    len(d.Comments),
			DryRun:      true,
			Duration:    time.Since(start),
		}, nil
	}

	result := &Result{}
	err = store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		// The transaction may be retried; count from zero on each attempt.
		*result = Result{}
		return replaceAll(ctx, tx, d, result)
	})
	if err != nil {
		logger.Warn("import rolled back", "error", err)
		return nil, &PersistenceError{Err: err}
	}

	result.Duration = time.Since(start)
	logger.Debug("import committed", "records", result.Total(), "duration", result.Duration)
	return result, nil
}

// replaceAll deletes every row and inserts d in foreign key order.
func replaceAll(ctx context.Context, tx storage.Transaction, d export.Data, result *Result) error {
	if err := tx.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear existing data: %w", err)
	}

	for i := range d.Users {
		if err := tx.InsertUser(ctx, &d.Users[i]); err != nil {
			return err
		}
		result.Users++
	}
	for i := range d.Projects {
		if err := tx.InsertProject(ctx, &d.Projects[i]); err != nil {
			return err
		}
		result.Projects++
	}
	for i := range d.Issues {
		if err := tx.InsertIssue(ctx, &d.Issues[i]); err != nil {
			return err
		}
		result.Issues++
	}
	for i := range d.TimeEntries {
		if err := tx.InsertTimeEntry(ctx, &d.TimeEntries[i]); err != nil {
			return err
		}
		result.TimeEntries++
	}
	for i := range d.Comments {
		if err := tx.InsertComment(ctx, &d.Comments[i]); err != nil {
			return err
		}
		result.Comments++
	}
	return nil
}
