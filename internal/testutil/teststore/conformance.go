package teststore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/types"
)

// RunConformance runs the shared storage behavior suite. open must return
// an empty store; it is called once per subtest.
func RunConformance(t *testing.T, open func(t *testing.T) storage.Storage) {
	ctx := context.Background()

	t.Run("ListsReturnWhatWasCreated", func(t *testing.T) {
		store := open(t)
		fx := Seed(t, store)
		AssertContents(t, store, fx)
	})

	t.Run("GetMissingIsNotFound", func(t *testing.T) {
		store := open(t)
		_, err := store.GetUser(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetProject(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetIssue(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetTimeEntry(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetComment(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("EmailUniqueIgnoringCase", func(t *testing.T) {
		store := open(t)
		Seed(t, store)

		dup := types.User{ID: "u9", Email: " ANN@Example.com ", FirstName: "Ann", LastName: "Other", Role: types.RoleReporter, CreatedAt: Base}
		err := store.CreateUser(ctx, &dup)
		assert.ErrorIs(t, err, storage.ErrConflict)

		u, err := store.GetUserByEmail(ctx, "BOB@EXAMPLE.COM")
		require.NoError(t, err)
		assert.Equal(t, "u2", u.ID)
	})

	t.Run("IdentifierStoredLowercase", func(t *testing.T) {
		store := open(t)
		p := types.Project{ID: "p9", Name: "API", Identifier: " API ", Status: types.ProjectActive, CreatedAt: Base, UpdatedAt: Base}
		require.NoError(t, store.CreateProject(ctx, &p))

		got, err := store.GetProjectByIdentifier(ctx, "Api")
		require.NoError(t, err)
		assert.Equal(t, "api", got.Identifier)

		clash := types.Project{ID: "p10", Name: "Api two", Identifier: "api", Status: types.ProjectActive, CreatedAt: Base, UpdatedAt: Base}
		assert.ErrorIs(t, store.CreateProject(ctx, &clash), storage.ErrConflict)
	})

	t.Run("UpdateIssue", func(t *testing.T) {
		store := open(t)
		fx := Seed(t, store)

		issue := fx.Issues[0]
		issue.Status = types.StatusResolved
		issue.AssigneeID = nil
		issue.DueDate = nil
		issue.UpdatedAt = Base.Add(time.Hour)
		require.NoError(t, store.UpdateIssue(ctx, &issue))

		got, err := store.GetIssue(ctx, issue.ID)
		require.NoError(t, err)
		if diff := cmp.Diff(issue, *got); diff != "" {
			t.Errorf("GetIssue() after update mismatch (-want +got):\n%s", diff)
		}

		// Writing identical values still counts as a match
		require.NoError(t, store.UpdateIssue(ctx, &issue))

		missing := issue
		missing.ID = "nope"
		assert.ErrorIs(t, store.UpdateIssue(ctx, &missing), storage.ErrNotFound)
	})

	t.Run("UpdateOtherRecords", func(t *testing.T) {
		store := open(t)
		fx := Seed(t, store)

		u := fx.Users[1]
		u.Email = "Robert@Example.com"
		u.FirstName = "Robert"
		require.NoError(t, store.UpdateUser(ctx, &u))
		gotU, err := store.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "robert@example.com", gotU.Email)

		p := fx.Projects[0]
		p.Status = types.ProjectArchived
		p.UpdatedAt = Base.Add(time.Hour)
		require.NoError(t, store.UpdateProject(ctx, &p))
		gotP, err := store.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, types.ProjectArchived, gotP.Status)

		e := fx.TimeEntries[0]
		e.Hours = 2.25
		require.NoError(t, store.UpdateTimeEntry(ctx, &e))
		gotE, err := store.GetTimeEntry(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 2.25, gotE.Hours)

		c := fx.Comments[0]
		c.Content = "Fixed upstream"
		c.UpdatedAt = Base.Add(2 * time.Hour)
		require.NoError(t, store.UpdateComment(ctx, &c))
		gotC, err := store.GetComment(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Fixed upstream", gotC.Content)
		assert.True(t, gotC.UpdatedAt.Equal(c.UpdatedAt))
	})

	t.Run("DeleteUserInUse", func(t *testing.T) {
		store := open(t)
		Seed(t, store)

		assert.ErrorIs(t, store.DeleteUser(ctx, "u1"), storage.ErrInUse)
		assert.ErrorIs(t, store.DeleteUser(ctx, "nope"), storage.ErrNotFound)

		free := types.User{ID: "u3", Email: "cy@example.com", FirstName: "Cy", LastName: "Ng", Role: types.RoleReporter, CreatedAt: Base}
		require.NoError(t, store.CreateUser(ctx, &free))
		require.NoError(t, store.DeleteUser(ctx, "u3"))
	})

	t.Run("DeleteIssueCascades", func(t *testing.T) {
		store := open(t)
		Seed(t, store)

		require.NoError(t, store.DeleteIssue(ctx, "i1"))
		entries, err := store.ListTimeEntriesByIssue(ctx, "i1")
		require.NoError(t, err)
		assert.Empty(t, entries)
		comments, err := store.ListCommentsByIssue(ctx, "i1")
		require.NoError(t, err)
		assert.Empty(t, comments)

		issues, err := store.ListIssues(ctx)
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, "i2", issues[0].ID)

		assert.ErrorIs(t, store.DeleteIssue(ctx, "i1"), storage.ErrNotFound)
	})

	t.Run("DeleteProjectCascades", func(t *testing.T) {
		store := open(t)
		Seed(t, store)

		require.NoError(t, store.DeleteProject(ctx, "p1"))
		issues, err := store.ListIssuesByProject(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, issues)
		entries, err := store.ListTimeEntries(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
		comments, err := store.ListComments(ctx)
		require.NoError(t, err)
		assert.Empty(t, comments)

		// Users are not owned by projects
		users, err := store.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("TransactionCommits", func(t *testing.T) {
		store := open(t)
		Seed(t, store)

		only := types.User{ID: "x1", Email: "x@example.com", FirstName: "Xi", LastName: "Yu", Role: types.RoleAdmin, CreatedAt: Base}
		err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
			if err := tx.DeleteAll(ctx); err != nil {
				return err
			}
			return tx.InsertUser(ctx, &only)
		})
		require.NoError(t, err)

		AssertContents(t, store, Fixture{Users: []types.User{only}})
	})

	t.Run("TransactionRollsBackOnError", func(t *testing.T) {
		store := open(t)
		fx := Seed(t, store)

		boom := errors.New("boom")
		err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
			if err := tx.DeleteAll(ctx); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		AssertContents(t, store, fx)
	})

	t.Run("TransactionRollsBackOnConflict", func(t *testing.T) {
		store := open(t)
		fx := Seed(t, store)

		err := store.RunInTransaction(ctx, func(tx storage.Transaction) error {
			if err := tx.DeleteAll(ctx); err != nil {
				return err
			}
			a := types.User{ID: "d1", Email: "dup@example.com", FirstName: "Da", LastName: "Ve", Role: types.RoleAdmin, CreatedAt: Base}
			b := a
			b.ID = "d2"
			if err := tx.InsertUser(ctx, &a); err != nil {
				return err
			}
			return tx.InsertUser(ctx, &b)
		})
		assert.ErrorIs(t, err, storage.ErrConflict)
		AssertContents(t, store, fx)
	})

	t.Run("TransactionInsertLowercasesKeys", func(t *testing.T) {
		store := open(t)

		u := types.User{ID: "m1", Email: "Mixed@Example.COM", FirstName: "Mi", LastName: "Xed", Role: types.RoleAdmin, CreatedAt: Base}
		p := types.Project{ID: "m2", Name: "Web", Identifier: "Web", Status: types.ProjectActive, CreatedAt: Base, UpdatedAt: Base}
		require.NoError(t, store.RunInTransaction(ctx, func(tx storage.Transaction) error {
			if err := tx.InsertUser(ctx, &u); err != nil {
				return err
			}
			return tx.InsertProject(ctx, &p)
		}))

		gotU, err := store.GetUserByEmail(ctx, "mixed@example.com")
		require.NoError(t, err)
		assert.Equal(t, "mixed@example.com", gotU.Email)
		gotP, err := store.GetProjectByIdentifier(ctx, "web")
		require.NoError(t, err)
		assert.Equal(t, "web", gotP.Identifier)

		err = store.RunInTransaction(ctx, func(tx storage.Transaction) error {
			dup := types.User{ID: "m3", Email: "MIXED@example.com", FirstName: "Du", LastName: "Pe", Role: types.RoleReporter, CreatedAt: Base}
			return tx.InsertUser(ctx, &dup)
		})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("TransactionRollsBackOnPanic", func(t *testing.T) {
		store := open(t)
		fx := Seed(t, store)

		assert.Panics(t, func() {
			_ = store.RunInTransaction(ctx, func(tx storage.Transaction) error {
				_ = tx.DeleteAll(ctx)
				panic("mid-import")
			})
		})
		AssertContents(t, store, fx)
	})
}

// AssertContents fails the test unless the store holds exactly want.
func AssertContents(t testing.TB, store storage.Reader, want Fixture) {
	t.Helper()
	ctx := context.Background()

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	issues, err := store.ListIssues(ctx)
	require.NoError(t, err)
	entries, err := store.ListTimeEntries(ctx)
	require.NoError(t, err)
	comments, err := store.ListComments(ctx)
	require.NoError(t, err)

	got := Fixture{Users: users, Projects: projects, Issues: issues, TimeEntries: entries, Comments: comments}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("store contents mismatch (-want +got):\n%s", diff)
	}
}
