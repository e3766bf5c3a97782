// Package export produces and checks full-database snapshots.
//
// A snapshot is a single JSON document holding every user, project, issue,
// time entry and comment. ValidateExportData is the consistency gate the
// importer runs before it replaces the database with a snapshot's contents.
package export

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/types"
)

// FormatVersion is the only snapshot version this build reads and writes.
const FormatVersion = 1

// Snapshot is the top-level export document.
type Snapshot struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Data       Data      `json:"data"`
}

// Data holds the five record tables of a snapshot.
type Data struct {
	Users       []types.User      `json:"users"`
	Projects    []types.Project   `json:"projects"`
	Issues      []types.Issue     `json:"issues"`
	TimeEntries []types.TimeEntry `json:"timeEntries"`
	Comments    []types.Comment   `json:"comments"`
}

// Counts reports the number of records per table, keyed by JSON name.
func (d Data) Counts() map[string]int {
	return map[string]int{
		"users":       len(d.Users),
		"projects":    len(d.Projects),
		"issues":      len(d.Issues),
		"timeEntries": len(d.TimeEntries),
		"comments":    len(d.Comments),
	}
}

// normalize replaces nil tables with empty ones so they encode as [].
func (d Data) normalize() Data {
	if d.Users == nil {
		d.Users = []types.User{}
	}
	if d.Projects == nil {
		d.Projects = []types.Project{}
	}
	if d.Issues == nil {
		d.Issues = []types.Issue{}
	}
	if d.TimeEntries == nil {
		d.TimeEntries = []types.TimeEntry{}
	}
	if d.Comments == nil {
		d.Comments = []types.Comment{}
	}
	return d
}

// Build reads every table from r and returns a snapshot stamped with
// clock.Now(). The tables are loaded concurrently.
func Build(ctx context.Context, r storage.Reader, clock types.Clock) (*Snapshot, error) {
	var data Data
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		users, err := r.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		data.Users = users
		return nil
	})
	g.Go(func() error {
		projects, err := r.ListProjects(gctx)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		data.Projects = projects
		return nil
	})
	g.Go(func() error {
		issues, err := r.ListIssues(gctx)
		if err != nil {
			return fmt.Errorf("failed to list issues: %w", err)
		}
		data.Issues = issues
		return nil
	})
	g.Go(func() error {
		entries, err := r.ListTimeEntries(gctx)
		if err != nil {
			return fmt.Errorf("failed to list time entries: %w", err)
		}
		data.TimeEntries = entries
		return nil
	})
	g.Go(func() error {
		comments, err := r.ListComments(gctx)
		if err != nil {
			return fmt.Errorf("failed to list comments: %w", err)
		}
		data.Comments = comments
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Snapshot{
		Version:    FormatVersion,
		ExportedAt: clock.Now().UTC(),
		Data:       data.normalize(),
	}, nil
}
