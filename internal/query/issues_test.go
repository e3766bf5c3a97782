package query

import (
	"slices"
	"testing"
	"time"

	"github.com/steveyegge/redline/internal/types"
)

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ids(issues []types.Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.ID
	}
	return out
}

func sampleIssues() []types.Issue {
	return []types.Issue{
		{
			ID: "i1", ProjectID: "p1", Tracker: types.TrackerBug, Subject: "Login fails",
			Description: "500 on submit", Status: types.StatusNew, Priority: types.PriorityHigh,
			AuthorID: "u1", AssigneeID: ptr("u2"), DueDate: ptr(day(2024, 3, 1)),
			CreatedAt: day(2024, 1, 1), UpdatedAt: day(2024, 1, 5),
		},
		{
			ID: "i2", ProjectID: "p1", Tracker: types.TrackerFeature, Subject: "Add export",
			Status: types.StatusInProgress, Priority: types.PriorityNormal, AuthorID: "u1",
			CreatedAt: day(2024, 1, 2), UpdatedAt: day(2024, 1, 3),
		},
		{
			ID: "i3", ProjectID: "p2", Tracker: types.TrackerSupport, Subject: "billing question",
			Description: "Customer asks about LOGIN", Status: types.StatusResolved,
			Priority: types.PriorityImmediate, AuthorID: "u2", AssigneeID: ptr("u1"),
			DueDate: ptr(day(2024, 1, 20)), CreatedAt: day(2024, 1, 3), UpdatedAt: day(2024, 1, 4),
		},
		{
			ID: "i4", ProjectID: "p2", Tracker: types.TrackerTask, Subject: "Clean up",
			Status: types.StatusClosed, Priority: types.PriorityLow, AuthorID: "u2",
			DueDate: ptr(day(2023, 12, 1)), CreatedAt: day(2024, 1, 4), UpdatedAt: day(2024, 1, 10),
		},
		{
			ID: "i5", ProjectID: "p1", Tracker: types.TrackerBug, Subject: "Crash on start",
			Status: types.StatusRejected, Priority: types.PriorityUrgent, AuthorID: "u1",
			CreatedAt: day(2024, 1, 5), UpdatedAt: day(2024, 1, 6),
		},
	}
}

func TestFilterIssues(t *testing.T) {
	issues := sampleIssues()

	tests := []struct {
		name    string
		filters IssueFilters
		want    []string
	}{
		{"no filters", IssueFilters{}, []string{"i1", "i2", "i3", "i4", "i5"}},
		{"single status", IssueFilters{Status: []types.Status{types.StatusNew}}, []string{"i1"}},
		{"status set", IssueFilters{Status: []types.Status{types.StatusClosed, types.StatusRejected}}, []string{"i4", "i5"}},
		{"priority", IssueFilters{Priority: []types.Priority{types.PriorityLow, types.PriorityHigh}}, []string{"i1", "i4"}},
		{"tracker", IssueFilters{Tracker: []types.Tracker{types.TrackerBug}}, []string{"i1", "i5"}},
		{"project", IssueFilters{ProjectID: []string{"p2"}}, []string{"i3", "i4"}},
		{"unassigned", IssueFilters{Assignee: Unassigned()}, []string{"i2", "i4", "i5"}},
		{"assigned to", IssueFilters{Assignee: AssignedTo("u1")}, []string{"i3"}},
		{"search subject or description", IssueFilters{Search: "login"}, []string{"i1", "i3"}},
		{"search id", IssueFilters{Search: "I4"}, []string{"i4"}},
		{"search trimmed", IssueFilters{Search: "  crash  "}, []string{"i5"}},
		{"whitespace search ignored", IssueFilters{Search: "   "}, []string{"i1", "i2", "i3", "i4", "i5"}},
		{"combined", IssueFilters{ProjectID: []string{"p1"}, Tracker: []types.Tracker{types.TrackerBug}, Assignee: Unassigned()}, []string{"i5"}},
		{"no match", IssueFilters{Status: []types.Status{types.Status("bogus")}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterIssues(issues, tt.filters))
			if !slices.Equal(got, tt.want) {
				t.Errorf("FilterIssues() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterIssuesIdempotentAndPure(t *testing.T) {
	issues := sampleIssues()
	before := ids(issues)
	f := IssueFilters{ProjectID: []string{"p1"}, Search: "o"}

	once := FilterIssues(issues, f)
	twice := FilterIssues(once, f)
	if !slices.Equal(ids(once), ids(twice)) {
		t.Errorf("not idempotent: %v then %v", ids(once), ids(twice))
	}
	if !slices.Equal(ids(issues), before) {
		t.Errorf("input modified: %v", ids(issues))
	}
}

func TestSortIssues(t *testing.T) {
	issues := sampleIssues()

	tests := []struct {
		name string
		sort types.IssueSort
		want []string
	}{
		{"priority desc", types.IssueSort{Field: types.IssueSortPriority, Direction: types.SortDesc}, []string{"i3", "i5", "i1", "i2", "i4"}},
		{"priority asc", types.IssueSort{Field: types.IssueSortPriority, Direction: types.SortAsc}, []string{"i4", "i2", "i1", "i5", "i3"}},
		{"status asc", types.IssueSort{Field: types.IssueSortStatus, Direction: types.SortAsc}, []string{"i1", "i2", "i3", "i4", "i5"}},
		{"created desc", types.IssueSort{Field: types.IssueSortCreatedAt, Direction: types.SortDesc}, []string{"i5", "i4", "i3", "i2", "i1"}},
		{"updated asc", types.IssueSort{Field: types.IssueSortUpdatedAt, Direction: types.SortAsc}, []string{"i2", "i3", "i1", "i5", "i4"}},
		{"due asc nil last", types.IssueSort{Field: types.IssueSortDueDate, Direction: types.SortAsc}, []string{"i4", "i3", "i1", "i2", "i5"}},
		{"due desc nil last", types.IssueSort{Field: types.IssueSortDueDate, Direction: types.SortDesc}, []string{"i1", "i3", "i4", "i2", "i5"}},
		{"subject asc collated", types.IssueSort{Field: types.IssueSortSubject, Direction: types.SortAsc}, []string{"i2", "i3", "i4", "i5", "i1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(SortIssues(issues, tt.sort))
			if !slices.Equal(got, tt.want) {
				t.Errorf("SortIssues(%s) = %v, want %v", tt.sort, got, tt.want)
			}
		})
	}

	if !slices.Equal(ids(issues), []string{"i1", "i2", "i3", "i4", "i5"}) {
		t.Errorf("SortIssues modified its input: %v", ids(issues))
	}
}

func TestSortIssuesPriorityDescFirstIsMax(t *testing.T) {
	sorted := SortIssues(sampleIssues(), types.IssueSort{Field: types.IssueSortPriority, Direction: types.SortDesc})
	for _, issue := range sorted {
		if issue.Priority.Rank() > sorted[0].Priority.Rank() {
			t.Fatalf("first issue %s is not the most urgent", sorted[0].ID)
		}
	}
}

func TestSortIssuesStable(t *testing.T) {
	issues := []types.Issue{
		{ID: "a", Priority: types.PriorityNormal},
		{ID: "b", Priority: types.PriorityHigh},
		{ID: "c", Priority: types.PriorityNormal},
		{ID: "d", Priority: types.PriorityNormal},
	}
	got := ids(SortIssues(issues, types.IssueSort{Field: types.IssueSortPriority, Direction: types.SortAsc}))
	want := []string{"a", "c", "d", "b"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestOpenAndClosedIssues(t *testing.T) {
	issues := sampleIssues()
	if got := ids(OpenIssues(issues)); !slices.Equal(got, []string{"i1", "i2", "i3"}) {
		t.Errorf("OpenIssues = %v", got)
	}
	if got := ids(ClosedIssues(issues)); !slices.Equal(got, []string{"i4", "i5"}) {
		t.Errorf("ClosedIssues = %v", got)
	}
}

func TestIssueByID(t *testing.T) {
	issues := sampleIssues()
	issue, ok := IssueByID(issues, "i3")
	if !ok || issue.Subject != "billing question" {
		t.Errorf("IssueByID(i3) = %+v, %v", issue, ok)
	}
	if _, ok := IssueByID(issues, "nope"); ok {
		t.Error("IssueByID(nope) should not be found")
	}
}

func TestDeleteIssue(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		issues := sampleIssues()
		out, found := DeleteIssue(issues, "i2")
		if !found {
			t.Fatal("expected found")
		}
		if len(out) != len(issues)-1 {
			t.Fatalf("expected %d issues, got %d", len(issues)-1, len(out))
		}
		if !slices.Equal(ids(out), []string{"i1", "i3", "i4", "i5"}) {
			t.Errorf("got %v", ids(out))
		}
		if !slices.Equal(ids(issues), []string{"i1", "i2", "i3", "i4", "i5"}) {
			t.Errorf("input modified: %v", ids(issues))
		}
	})

	t.Run("absent", func(t *testing.T) {
		issues := sampleIssues()
		out, found := DeleteIssue(issues, "missing")
		if found {
			t.Fatal("expected not found")
		}
		if !slices.Equal(ids(out), ids(issues)) {
			t.Errorf("got %v", ids(out))
		}
	})

	t.Run("first match only", func(t *testing.T) {
		issues := []types.Issue{{ID: "x", Subject: "one"}, {ID: "x", Subject: "two"}}
		out, found := DeleteIssue(issues, "x")
		if !found || len(out) != 1 || out[0].Subject != "two" {
			t.Errorf("got %+v, %v", out, found)
		}
	})
}

func TestIsOverdue(t *testing.T) {
	clock := types.FixedClock(time.Date(2024, 2, 1, 15, 0, 0, 0, time.UTC))

	tests := []struct {
		name  string
		issue types.Issue
		want  bool
	}{
		{"no due date", types.Issue{Status: types.StatusNew}, false},
		{"due yesterday open", types.Issue{Status: types.StatusNew, DueDate: ptr(day(2024, 1, 31))}, true},
		{"due today", types.Issue{Status: types.StatusNew, DueDate: ptr(day(2024, 2, 1))}, false},
		{"due yesterday resolved", types.Issue{Status: types.StatusResolved, DueDate: ptr(day(2024, 1, 31))}, true},
		{"due yesterday closed", types.Issue{Status: types.StatusClosed, DueDate: ptr(day(2024, 1, 31))}, false},
		{"due yesterday rejected", types.Issue{Status: types.StatusRejected, DueDate: ptr(day(2024, 1, 31))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(tt.issue, clock); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := ids(OverdueIssues(sampleIssues(), clock)); !slices.Equal(got, []string{"i3"}) {
		t.Errorf("OverdueIssues = %v", got)
	}
}
