// Package storage defines the persistence interface for tracker records.
//
// The shared SQL implementation lives in the sqlstore sub-package; sqlite
// and mysql supply the dialects. Consumers depend on the interfaces here so
// that wrappers (telemetry, tests) can be substituted.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/steveyegge/redline/internal/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint
// (duplicate id, email or project identifier).
var ErrConflict = errors.New("conflict")

// ErrInUse is returned when deleting a record that other records still
// reference.
var ErrInUse = errors.New("record in use")

// Reader lists every record of each kind. Lists are ordered by creation
// time, then id.
type Reader interface {
	ListUsers(ctx context.Context) ([]types.User, error)
	ListProjects(ctx context.Context) ([]types.Project, error)
	ListIssues(ctx context.Context) ([]types.Issue, error)
	ListTimeEntries(ctx context.Context) ([]types.TimeEntry, error)
	ListComments(ctx context.Context) ([]types.Comment, error)
}

// Storage is the interface satisfied by *sqlstore.Store.
type Storage interface {
	Reader

	// Users
	CreateUser(ctx context.Context, user *types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	UpdateUser(ctx context.Context, user *types.User) error
	DeleteUser(ctx context.Context, id string) error

	// Projects
	CreateProject(ctx context.Context, project *types.Project) error
	GetProject(ctx context.Context, id string) (*types.Project, error)
	GetProjectByIdentifier(ctx context.Context, identifier string) (*types.Project, error)
	UpdateProject(ctx context.Context, project *types.Project) error
	DeleteProject(ctx context.Context, id string) error

	// Issues
	CreateIssue(ctx context.Context, issue *types.Issue) error
	GetIssue(ctx context.Context, id string) (*types.Issue, error)
	ListIssuesByProject(ctx context.Context, projectID string) ([]types.Issue, error)
	UpdateIssue(ctx context.Context, issue *types.Issue) error
	DeleteIssue(ctx context.Context, id string) error

	// Time entries
	CreateTimeEntry(ctx context.Context, entry *types.TimeEntry) error
	GetTimeEntry(ctx context.Context, id string) (*types.TimeEntry, error)
	ListTimeEntriesByIssue(ctx context.Context, issueID string) ([]types.TimeEntry, error)
	UpdateTimeEntry(ctx context.Context, entry *types.TimeEntry) error
	DeleteTimeEntry(ctx context.Context, id string) error

	// Comments
	CreateComment(ctx context.Context, comment *types.Comment) error
	GetComment(ctx context.Context, id string) (*types.Comment, error)
	ListCommentsByIssue(ctx context.Context, issueID string) ([]types.Comment, error)
	UpdateComment(ctx context.Context, comment *types.Comment) error
	DeleteComment(ctx context.Context, id string) error

	// Transactions
	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error

	// Lifecycle
	Close() error
}

// Transaction is the bulk-write surface used by import.
//
// # Transaction Semantics
//
//   - All operations share one database connection
//   - Changes are not visible to other connections until commit
//   - If fn returns an error, the transaction is rolled back
//   - If fn panics, the transaction is rolled back and the panic re-raised
//   - On successful return from fn, the transaction is committed
//
// Insert methods preserve ids and timestamps. Emails and project
// identifiers are lowercased as the Create methods do, so uniqueness holds
// regardless of case.
//
// # Example Usage
//
//	err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
//	    if err := tx.DeleteAll(ctx); err != nil {
//	        return err // Triggers rollback
//	    }
//	    return tx.InsertUser(ctx, &user) // nil triggers commit
//	})
type Transaction interface {
	DeleteAll(ctx context.Context) error
	InsertUser(ctx context.Context, user *types.User) error
	InsertProject(ctx context.Context, project *types.Project) error
	InsertIssue(ctx context.Context, issue *types.Issue) error
	InsertTimeEntry(ctx context.Context, entry *types.TimeEntry) error
	InsertComment(ctx context.Context, comment *types.Comment) error
}

// NormalizeIdentifier lowercases and trims a project identifier.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
