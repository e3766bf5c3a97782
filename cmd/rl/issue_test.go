package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/redline/internal/types"
)

func issueIDs(issues []types.Issue) []string {
	ids := make([]string, 0, len(issues))
	for _, issue := range issues {
		ids = append(ids, issue.ID)
	}
	return ids
}

func TestIssueListFilters(t *testing.T) {
	h := newHarness(t)
	h.seed()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"default order is priority desc", nil, []string{"i1", "i2"}},
		{"unassigned", []string{"--assignee", "none"}, []string{"i2"}},
		{"assignee by email", []string{"--assignee", "BOB@example.com"}, []string{"i1"}},
		{"status", []string{"--status", "new"}, []string{"i2"}},
		{"status list", []string{"--status", "new,in_progress"}, []string{"i1", "i2"}},
		{"overdue", []string{"--overdue"}, []string{"i1"}},
		{"query", []string{"--query", "priority>normal"}, []string{"i1"}},
		{"query with groups", []string{"--query", "(tracker=bug OR tracker=task) AND assignee=none"}, []string{"i2"}},
		{"sort", []string{"--sort", "created-desc"}, []string{"i2", "i1"}},
		{"project and tracker", []string{"--project", "WEB", "--tracker", "task"}, []string{"i2"}},
		{"closed", []string{"--closed"}, []string{}},
		{"search ignores case", []string{"--search", "LOGIN"}, []string{"i1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--json", "issue", "list"}, tt.args...)
			res := h.mustRun(args...)
			assert.Equal(t, tt.want, issueIDs(decodeJSON[[]types.Issue](t, res.stdout)))
		})
	}
}

func TestIssueListRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.run("issue", "list", "--status", "pending")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `invalid status "pending"`)

	res = h.run("issue", "list", "--query", "color=red")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "invalid query")

	res = h.run("issue", "list", "--open", "--closed")
	assert.Equal(t, 1, res.code)
}

func TestIssueListTable(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.mustRun("issue", "list")
	assert.Contains(t, res.stdout, "Login fails")
	assert.Contains(t, res.stdout, "Write docs")
	assert.Contains(t, res.stdout, "Bob Ray")
	assert.Contains(t, res.stdout, "2 issues")

	res = h.mustRun("issue", "list", "--closed")
	assert.Equal(t, "No issues found.\n", res.stdout)
}

func TestIssueCreateAndUpdate(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.mustRun("--json", "--actor", "ann@example.com", "issue", "create", "Crash on save",
		"--project", "web", "-t", "bug", "-p", "urgent", "--due", "2024-03-10", "--estimate", "3h")
	created := decodeJSON[types.Issue](t, res.stdout)
	assert.Equal(t, "x-1", created.ID)
	assert.Equal(t, "p1", created.ProjectID)
	assert.Equal(t, "u1", created.AuthorID)
	assert.Equal(t, types.StatusNew, created.Status)
	assert.Equal(t, types.PriorityUrgent, created.Priority)
	require.NotNil(t, created.DueDate)
	assert.True(t, created.DueDate.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, created.EstimatedHours)
	assert.Equal(t, 3.0, *created.EstimatedHours)
	assert.True(t, created.CreatedAt.Equal(testNow))

	res = h.mustRun("--json", "issue", "update", "x-1", "--status", "resolved", "--assignee", "bob@example.com", "--due", "none")
	updated := decodeJSON[types.Issue](t, res.stdout)
	assert.Equal(t, types.StatusResolved, updated.Status)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, "u2", *updated.AssigneeID)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, "Crash on save", updated.Subject)

	res = h.mustRun("--json", "issue", "show", "x-1")
	detail := decodeJSON[issueDetail](t, res.stdout)
	assert.Equal(t, types.StatusResolved, detail.Issue.Status)
	assert.False(t, detail.Overdue)
	assert.Empty(t, detail.Comments)
}

func TestIssueCreateDefaultsPriority(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.mustRun("--actor", "bob@example.com", "issue", "create", "--project", "web", "-t", "feature", "--subject", "Dark mode")
	assert.Contains(t, res.stdout, "Created issue x-1: Dark mode")

	res = h.mustRun("--json", "issue", "show", "x-1")
	detail := decodeJSON[issueDetail](t, res.stdout)
	assert.Equal(t, types.PriorityNormal, detail.Issue.Priority)
	assert.Equal(t, "u2", detail.Issue.AuthorID)
}

func TestIssueCreateReportsEveryField(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.run("--actor", "ann@example.com", "issue", "create", "ab", "--project", "web", "-p", "critical")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: invalid issue")
	assert.Contains(t, res.stderr, "  subject: Subject must be at least 3 characters")
	assert.Contains(t, res.stderr, "  tracker: Tracker is required")
	assert.Contains(t, res.stderr, `  priority: invalid priority "critical"`)

	res = h.run("--json", "--actor", "ann@example.com", "issue", "create", "--project", "web", "-t", "bug", "--estimate=-2")
	assert.Equal(t, 1, res.code)
	got := decodeJSON[map[string]any](t, res.stderr)
	assert.Equal(t, "invalid_form", got["code"])
	fields, ok := got["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Subject is required", fields["subject"])
	assert.Equal(t, "Estimated hours must be greater than 0", fields["estimatedHours"])

	res = h.mustRun("--json", "issue", "list")
	assert.Len(t, decodeJSON[[]types.Issue](t, res.stdout), 2)
}

func TestIssueCreateNeedsActor(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.run("issue", "create", "Something broke", "--project", "web", "-t", "bug")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: no acting user")
	assert.Contains(t, res.stderr, "Hint: pass --actor")

	res = h.run("--actor", "nobody@example.com", "issue", "create", "Something broke", "--project", "web", "-t", "bug")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "resolving actor")
}

func TestIssueUpdateNeedsAField(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.run("issue", "update", "i1")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "nothing to update")
}

func TestIssueShow(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.mustRun("--json", "issue", "show", "i1")
	detail := decodeJSON[issueDetail](t, res.stdout)
	assert.Equal(t, "Login fails", detail.Issue.Subject)
	assert.True(t, detail.Overdue)
	assert.Equal(t, 1.5, detail.SpentHours)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "Can reproduce", detail.Comments[0].Content)
	require.Len(t, detail.TimeEntries, 1)

	res = h.mustRun("issue", "show", "i1")
	assert.Contains(t, res.stdout, "Login fails")
	assert.Contains(t, res.stdout, "Can reproduce")
	assert.Contains(t, res.stdout, "500 on submit")

	res = h.run("issue", "show", "i")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "ambiguous")

	res = h.run("--json", "issue", "show", "nope")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "not_found", decodeJSON[map[string]any](t, res.stderr)["code"])
}

func TestIssueDelete(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.run("issue", "delete", "i1")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Would delete issue i1: Login fails")
	assert.Contains(t, res.stderr, "with 1 comment and 1 time entry")
	h.mustRun("issue", "show", "i1")

	res = h.mustRun("issue", "delete", "i1", "--force")
	assert.Contains(t, res.stdout, "Deleted issue i1")

	res = h.run("issue", "show", "i1")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "not found")

	res = h.mustRun("--json", "time", "list")
	assert.Empty(t, decodeJSON[[]types.TimeEntry](t, res.stdout))
}
