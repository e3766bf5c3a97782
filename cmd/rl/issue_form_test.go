package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/redline/internal/types"
)

func TestIssueFormInputBuild(t *testing.T) {
	in := &issueFormInput{
		project:  "p1",
		tracker:  "Bug",
		subject:  "  Login fails  ",
		priority: "high",
		assignee: "u2",
		due:      "2024-03-15",
		estimate: "2.5",
	}
	form, errs := in.build(testNow)
	require.Empty(t, errs)
	assert.Equal(t, "p1", form.ProjectID)
	assert.Equal(t, types.TrackerBug, form.Tracker)
	assert.Equal(t, "Login fails", form.Subject)
	assert.Equal(t, types.PriorityHigh, form.Priority)
	require.NotNil(t, form.AssigneeID)
	assert.Equal(t, "u2", *form.AssigneeID)
	require.NotNil(t, form.DueDate)
	assert.Equal(t, "2024-03-15", form.DueDate.Format("2006-01-02"))
	require.NotNil(t, form.EstimatedHours)
	assert.Equal(t, 2.5, *form.EstimatedHours)

	form, errs = (&issueFormInput{project: "p1", tracker: "task", subject: "Docs", due: " "}).build(testNow)
	require.Empty(t, errs)
	assert.Nil(t, form.AssigneeID)
	assert.Nil(t, form.DueDate)
	assert.Nil(t, form.EstimatedHours)
}

func TestIssueFormInputReportsEveryField(t *testing.T) {
	in := &issueFormInput{tracker: "epic", subject: "ab", due: "zzz", estimate: "-1"}
	_, errs := in.build(testNow)
	assert.Equal(t, "Project is required", errs["projectId"])
	assert.Contains(t, errs["tracker"], `invalid tracker "epic"`)
	assert.Equal(t, "Subject must be at least 3 characters", errs["subject"])
	assert.Contains(t, errs["dueDate"], `invalid date "zzz"`)
	assert.Contains(t, errs, "estimatedHours")
}

func TestIssueFormFieldCheck(t *testing.T) {
	in := &issueFormInput{project: "p1", tracker: "bug"}
	checkSubject := in.check("subject", &in.subject, testNow)

	err := checkSubject("")
	require.Error(t, err)
	assert.Equal(t, "Subject is required", err.Error())

	require.NoError(t, checkSubject("Login fails"))
	assert.Equal(t, "Login fails", in.subject)

	// Another field's error does not block this one.
	in.project = ""
	require.NoError(t, checkSubject("Still fine"))
	assert.EqualError(t, in.check("projectId", &in.project, testNow)(""), "Project is required")
}

func TestIssueCreateFormNeedsTerminal(t *testing.T) {
	h := newHarness(t)
	h.seed()

	res := h.run("--actor", "ann@example.com", "issue", "create", "--form", "--project", "web")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "--form needs an interactive terminal")
	assert.Contains(t, res.stderr, "Hint: pass the fields as flags instead")

	res = h.mustRun("--json", "issue", "list")
	assert.Len(t, decodeJSON[[]types.Issue](t, res.stdout), 2)
}
