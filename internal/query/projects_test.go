package query

import (
	"slices"
	"testing"

	"github.com/steveyegge/redline/internal/types"
)

func TestFilterProjects(t *testing.T) {
	projects := []types.Project{
		{ID: "p1", Name: "Website", Identifier: "web", Description: "Marketing site", Status: types.ProjectActive},
		{ID: "p2", Name: "Billing", Identifier: "billing", Description: "Invoices", Status: types.ProjectArchived},
		{ID: "p3", Name: "Mobile", Identifier: "mobile-app", Description: "iOS and Android", Status: types.ProjectClosed},
	}

	tests := []struct {
		name    string
		filters ProjectFilters
		want    []string
	}{
		{"none", ProjectFilters{}, []string{"p1", "p2", "p3"}},
		{"status", ProjectFilters{Status: []types.ProjectStatus{types.ProjectActive, types.ProjectClosed}}, []string{"p1", "p3"}},
		{"search name", ProjectFilters{Search: "bill"}, []string{"p2"}},
		{"search description", ProjectFilters{Search: "ANDROID"}, []string{"p3"}},
		{"search identifier", ProjectFilters{Search: "web"}, []string{"p1"}},
		{"search and status", ProjectFilters{Search: "i", Status: []types.ProjectStatus{types.ProjectArchived}}, []string{"p2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range FilterProjects(projects, tt.filters) {
				got = append(got, p.ID)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("FilterProjects() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProjectStatsEmpty(t *testing.T) {
	stats := ProjectStats("p1", nil)
	if stats.TotalIssues != 0 || stats.OpenIssues != 0 || stats.ClosedIssues != 0 || stats.Progress != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	for _, tr := range types.AllTrackers() {
		count, ok := stats.ByTracker[tr]
		if !ok || count != 0 {
			t.Errorf("ByTracker[%s] = %d, %v; want 0, true", tr, count, ok)
		}
	}
	if len(stats.ByTracker) != 4 {
		t.Errorf("ByTracker has %d keys, want 4", len(stats.ByTracker))
	}
}

func TestProjectStats(t *testing.T) {
	stats := ProjectStats("p1", sampleIssues())

	// p1 holds i1 (new bug), i2 (in_progress feature), i5 (rejected bug).
	if stats.TotalIssues != 3 {
		t.Errorf("TotalIssues = %d, want 3", stats.TotalIssues)
	}
	if stats.OpenIssues != 2 {
		t.Errorf("OpenIssues = %d, want 2", stats.OpenIssues)
	}
	if stats.ClosedIssues != 1 {
		t.Errorf("ClosedIssues = %d, want 1", stats.ClosedIssues)
	}
	want := 100.0 / 3.0
	if stats.Progress != want {
		t.Errorf("Progress = %v, want %v", stats.Progress, want)
	}
	if stats.ByTracker[types.TrackerBug] != 2 || stats.ByTracker[types.TrackerFeature] != 1 || stats.ByTracker[types.TrackerTask] != 0 {
		t.Errorf("ByTracker = %v", stats.ByTracker)
	}
}

func TestProjectStatsResolvedCountsClosed(t *testing.T) {
	// p2 holds i3 (resolved) and i4 (closed).
	stats := ProjectStats("p2", sampleIssues())
	if stats.OpenIssues != 0 || stats.ClosedIssues != 2 || stats.Progress != 100 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
