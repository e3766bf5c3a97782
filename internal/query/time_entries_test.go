package query

import (
	"slices"
	"testing"
	"time"

	"github.com/steveyegge/redline/internal/types"
)

func sampleEntries() []types.TimeEntry {
	return []types.TimeEntry{
		{ID: "t1", IssueID: "i1", UserID: "u1", Hours: 2, ActivityType: types.ActivityDevelopment,
			SpentOn: day(2024, 1, 10), Comments: "Fixed the login bug", CreatedAt: day(2024, 1, 10)},
		{ID: "t2", IssueID: "i2", UserID: "u2", Hours: 1.5, ActivityType: types.ActivityTesting,
			SpentOn: time.Date(2024, 1, 12, 18, 30, 0, 0, time.UTC), Comments: "regression run", CreatedAt: day(2024, 1, 13)},
		{ID: "t3", IssueID: "i1", UserID: "u2", Hours: 4, ActivityType: types.ActivityDevelopment,
			SpentOn: day(2024, 1, 15), Comments: "", CreatedAt: day(2024, 1, 11)},
		{ID: "t4", IssueID: "i3", UserID: "u1", Hours: 0.5, ActivityType: types.ActivityDesign,
			SpentOn: day(2024, 1, 8), Comments: "Login mockups", CreatedAt: day(2024, 1, 9)},
	}
}

func entryIDs(entries []types.TimeEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestFilterTimeEntries(t *testing.T) {
	entries := sampleEntries()
	tests := []struct {
		name    string
		filters TimeEntryFilters
		want    []string
	}{
		{"none", TimeEntryFilters{}, []string{"t1", "t2", "t3", "t4"}},
		{"issue", TimeEntryFilters{IssueID: "i1"}, []string{"t1", "t3"}},
		{"user", TimeEntryFilters{UserID: "u1"}, []string{"t1", "t4"}},
		{"activity", TimeEntryFilters{ActivityType: types.ActivityDevelopment}, []string{"t1", "t3"}},
		{"from is start of day inclusive", TimeEntryFilters{From: ptr(time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC))}, []string{"t1", "t2", "t3"}},
		{"to is end of day inclusive", TimeEntryFilters{To: ptr(day(2024, 1, 12))}, []string{"t1", "t2", "t4"}},
		{"range", TimeEntryFilters{From: ptr(day(2024, 1, 9)), To: ptr(day(2024, 1, 12))}, []string{"t1", "t2"}},
		{"search comments only", TimeEntryFilters{Search: "LOGIN"}, []string{"t1", "t4"}},
		{"search does not match ids", TimeEntryFilters{Search: "t3"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryIDs(FilterTimeEntries(entries, tt.filters)); !slices.Equal(got, tt.want) {
				t.Errorf("FilterTimeEntries() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortTimeEntries(t *testing.T) {
	entries := sampleEntries()
	tests := []struct {
		name  string
		field types.TimeEntrySortField
		dir   types.SortDirection
		want  []string
	}{
		{"defaults to spentOn desc", "", "", []string{"t3", "t2", "t1", "t4"}},
		{"spentOn asc", types.TimeEntrySortSpentOn, types.SortAsc, []string{"t4", "t1", "t2", "t3"}},
		{"hours desc", types.TimeEntrySortHours, types.SortDesc, []string{"t3", "t1", "t2", "t4"}},
		{"createdAt asc", types.TimeEntrySortCreatedAt, types.SortAsc, []string{"t4", "t1", "t3", "t2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryIDs(SortTimeEntries(entries, tt.field, tt.dir)); !slices.Equal(got, tt.want) {
				t.Errorf("SortTimeEntries() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTotalHours(t *testing.T) {
	if got := TotalHours(nil); got != 0 {
		t.Errorf("TotalHours(nil) = %v", got)
	}
	if got := TotalHours(sampleEntries()); got != 8 {
		t.Errorf("TotalHours = %v, want 8", got)
	}
}

func TestTimeEntryGrouping(t *testing.T) {
	byIssue := TimeEntriesByIssue(sampleEntries())
	if len(byIssue) != 3 {
		t.Fatalf("expected 3 issue groups, got %d", len(byIssue))
	}
	if got := entryIDs(byIssue["i1"]); !slices.Equal(got, []string{"t1", "t3"}) {
		t.Errorf("byIssue[i1] = %v", got)
	}

	byUser := TimeEntriesByUser(sampleEntries())
	if got := entryIDs(byUser["u2"]); !slices.Equal(got, []string{"t2", "t3"}) {
		t.Errorf("byUser[u2] = %v", got)
	}
	if got := entryIDs(byUser["u1"]); !slices.Equal(got, []string{"t1", "t4"}) {
		t.Errorf("byUser[u1] = %v", got)
	}
}
