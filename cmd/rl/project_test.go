package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/redline/internal/query"
	"github.com/steveyegge/redline/internal/types"
)

func TestProjectCreateSuggestsIdentifier(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.mustRun("--json", "project", "create", "Web")
	p := decodeJSON[types.Project](t, res.stdout)
	assert.Equal(t, "x-1", p.ID)
	assert.Equal(t, "web-2", p.Identifier)
	assert.Equal(t, types.ProjectActive, p.Status)

	res = h.mustRun("project", "create", "The Mobile App", "-d", "iOS and Android")
	assert.Contains(t, res.stdout, "Created project mobile-app (The Mobile App)")
}

func TestProjectCreateRejectsTakenIdentifier(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.run("project", "create", "--name", "Another site", "-i", "WEB")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "  identifier: Identifier is already taken")

	res = h.run("project", "create", "Name", "--name", "Other")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "not both")
}

func TestProjectListAndUpdate(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.mustRun("--json", "project", "update", "web", "--status", "archived", "--name", "Website v2")
	p := decodeJSON[types.Project](t, res.stdout)
	assert.Equal(t, types.ProjectArchived, p.Status)
	assert.Equal(t, "Website v2", p.Name)
	assert.True(t, p.UpdatedAt.Equal(testNow))

	res = h.mustRun("--json", "project", "list", "--status", "active")
	assert.Empty(t, decodeJSON[[]types.Project](t, res.stdout))

	res = h.mustRun("project", "list")
	assert.Contains(t, res.stdout, "Website v2")

	res = h.run("project", "update", "web", "--status", "paused")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `invalid project status "paused"`)
}

func TestProjectStats(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.mustRun("--json", "project", "stats", "web")
	stats := decodeJSON[query.ProjectStatistics](t, res.stdout)
	assert.Equal(t, 2, stats.TotalIssues)
	assert.Equal(t, 2, stats.OpenIssues)
	assert.Equal(t, 0, stats.ClosedIssues)
	assert.Equal(t, 0.0, stats.Progress)
	assert.Equal(t, 1, stats.ByTracker[types.TrackerBug])
	assert.Equal(t, 1, stats.ByTracker[types.TrackerTask])
	assert.Equal(t, 0, stats.ByTracker[types.TrackerFeature])

	h.mustRun("issue", "update", "i2", "--status", "closed")
	res = h.mustRun("--json", "project", "show", "web")
	detail := decodeJSON[projectDetail](t, res.stdout)
	assert.Equal(t, 1, detail.Stats.ClosedIssues)
	assert.Equal(t, 50.0, detail.Stats.Progress)

	res = h.mustRun("project", "stats", "web")
	assert.Contains(t, res.stdout, "Total:    2")
}

func TestProjectDelete(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.run("project", "delete", "web")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Would delete project web (Website) and 2 issues")

	h.mustRun("project", "delete", "web", "--force")
	res = h.mustRun("--json", "issue", "list")
	assert.Empty(t, decodeJSON[[]types.Issue](t, res.stdout))
}

func TestUserCommands(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.mustRun("--json", "user", "list", "--role", "developer")
	users := decodeJSON[[]types.User](t, res.stdout)
	require.Len(t, users, 1)
	assert.Equal(t, "bob@example.com", users[0].Email)

	res = h.mustRun("--json", "user", "create", "--email", " Cat@Example.com ", "--first", "Cat", "--last", "Moss", "--role", "reporter")
	created := decodeJSON[types.User](t, res.stdout)
	assert.Equal(t, "x-1", created.ID)
	assert.Equal(t, "cat@example.com", created.Email)

	res = h.mustRun("--json", "user", "list", "--sort", "firstName-asc")
	var names []string
	for _, u := range decodeJSON[[]types.User](t, res.stdout) {
		names = append(names, u.FirstName)
	}
	assert.Equal(t, []string{"Ann", "Bob", "Cat"}, names)

	res = h.mustRun("--json", "user", "update", "bob@example.com", "--role", "manager")
	assert.Equal(t, types.RoleManager, decodeJSON[types.User](t, res.stdout).Role)

	// Keeping your own email is not a conflict.
	h.mustRun("user", "update", "bob@example.com", "--email", "BOB@example.com")

	res = h.mustRun("user", "delete", "cat@example.com")
	assert.Contains(t, res.stdout, "Deleted user cat@example.com")
}

func TestUserCreateRejectsDuplicateEmail(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.run("user", "create", "--email", "ANN@example.com", "--first", "Ann", "--last", "Other", "--role", "admin")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "  email: Email is already in use")

	res = h.run("user", "create", "--email", "not-an-email", "--first", "A", "--role", "boss")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "  email: Invalid email address")
	assert.Contains(t, res.stderr, "  firstName: First name must be at least 2 characters")
	assert.Contains(t, res.stderr, "  lastName: Last name is required")
	assert.Contains(t, res.stderr, `  role: invalid role "boss"`)
}

func TestUserDeleteInUse(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.run("user", "delete", "bob@example.com")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Hint: reassign or delete")

	res = h.run("--json", "user", "delete", "u2")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "in_use", decodeJSON[map[string]any](t, res.stderr)["code"])
}
