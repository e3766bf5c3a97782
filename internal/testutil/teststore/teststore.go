// Package teststore provides storage helpers shared by storage, export and
// importer tests.
//
// New opens an isolated SQLite store per test; RunConformance exercises any
// storage.Storage implementation through the interface so every backend is
// held to the same behavior.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    store := teststore.New(t)
//	    fx := teststore.Seed(t, store)
//	    ...
//	}
package teststore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/storage/sqlite"
	"github.com/steveyegge/redline/internal/types"
)

// New creates an isolated SQLite-backed storage.Storage for a single test.
// The store and its directory are cleaned up when the test completes.
func New(t testing.TB) storage.Storage {
	t.Helper()

	path := filepath.Join(t.TempDir(), "redline.db")
	store, err := sqlite.New(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("teststore: failed to create SQLite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Base is the creation time of every fixture record.
var Base = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

// Fixture is a small, referentially complete data set.
type Fixture struct {
	Users       []types.User
	Projects    []types.Project
	Issues      []types.Issue
	TimeEntries []types.TimeEntry
	Comments    []types.Comment
}

// NewFixture builds the fixture records without storing them.
//
//	users:    u1 (admin), u2 (developer)
//	projects: p1 "web"
//	issues:   i1 bug assigned to u2 with a due date and estimate, i2 task unassigned
//	entries:  t1 on i1 by u2
//	comments: c1 on i1 by u1
func NewFixture() Fixture {
	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	estimate := 4.5
	assignee := "u2"
	at := func(minutes int) time.Time { return Base.Add(time.Duration(minutes) * time.Minute) }

	return Fixture{
		Users: []types.User{
			{ID: "u1", Email: "ann@example.com", FirstName: "Ann", LastName: "Lee", Role: types.RoleAdmin, CreatedAt: at(0)},
			{ID: "u2", Email: "bob@example.com", FirstName: "Bob", LastName: "Ray", Role: types.RoleDeveloper, CreatedAt: at(1)},
		},
		Projects: []types.Project{
			{ID: "p1", Name: "Website", Identifier: "web", Description: "Public site", Status: types.ProjectActive, CreatedAt: at(2), UpdatedAt: at(2)},
		},
		Issues: []types.Issue{
			{
				ID: "i1", ProjectID: "p1", Tracker: types.TrackerBug, Subject: "Login fails",
				Description: "500 on submit", Status: types.StatusInProgress, Priority: types.PriorityHigh,
				DueDate: &due, EstimatedHours: &estimate, AuthorID: "u1", AssigneeID: &assignee,
				CreatedAt: at(3), UpdatedAt: at(10),
			},
			{
				ID: "i2", ProjectID: "p1", Tracker: types.TrackerTask, Subject: "Write docs",
				Status: types.StatusNew, Priority: types.PriorityNormal, AuthorID: "u2",
				CreatedAt: at(4), UpdatedAt: at(4),
			},
		},
		TimeEntries: []types.TimeEntry{
			{ID: "t1", IssueID: "i1", UserID: "u2", Hours: 1.5, ActivityType: types.ActivityDevelopment,
				SpentOn: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Comments: "investigated", CreatedAt: at(5)},
		},
		Comments: []types.Comment{
			{ID: "c1", IssueID: "i1", AuthorID: "u1", Content: "Can reproduce", CreatedAt: at(6), UpdatedAt: at(6)},
		},
	}
}

// Seed stores NewFixture through the regular create methods and returns it.
func Seed(t testing.TB, store storage.Storage) Fixture {
	t.Helper()
	ctx := context.Background()
	fx := NewFixture()

	for i := range fx.Users {
		if err := store.CreateUser(ctx, &fx.Users[i]); err != nil {
			t.Fatalf("teststore: create user: %v", err)
		}
	}
	for i := range fx.Projects {
		if err := store.CreateProject(ctx, &fx.Projects[i]); err != nil {
			t.Fatalf("teststore: create project: %v", err)
		}
	}
	for i := range fx.Issues {
		if err := store.CreateIssue(ctx, &fx.Issues[i]); err != nil {
			t.Fatalf("teststore: create issue: %v", err)
		}
	}
	for i := range fx.TimeEntries {
		if err := store.CreateTimeEntry(ctx, &fx.TimeEntries[i]); err != nil {
			t.Fatalf("teststore: create time entry: %v", err)
		}
	}
	for i := range fx.Comments {
		if err := store.CreateComment(ctx, &fx.Comments[i]); err != nil {
			t.Fatalf("teststore: create comment: %v", err)
		}
	}
	return fx
}
