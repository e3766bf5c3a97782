package query

import (
	"slices"

	"github.com/steveyegge/redline/internal/types"
)

// ProjectFilters selects projects.
type ProjectFilters struct {
	Status []types.ProjectStatus
	Search string
}

// FilterProjects returns projects matching the filters in original order.
// Search covers name, description and identifier.
func FilterProjects(projects []types.Project, f ProjectFilters) []types.Project {
	search := normalizeSearch(f.Search)
	out := make([]types.Project, 0, len(projects))
	for _, p := range projects {
		if len(f.Status) > 0 && !slices.Contains(f.Status, p.Status) {
			continue
		}
		if search != "" && !containsAny(search, p.Name, p.Description, p.Identifier) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ProjectStatistics summarizes the issues of one project.
type ProjectStatistics struct {
	TotalIssues  int                   `json:"totalIssues"`
	OpenIssues   int                   `json:"openIssues"`
	ClosedIssues int                   `json:"closedIssues"`
	Progress     float64               `json:"progress"`
	ByTracker    map[types.Tracker]int `json:"byTracker"`
}

// ProjectStats counts the issues belonging to projectID. Open means new or
// in_progress; resolved counts as closed here. Progress is the closed
// percentage, 0 for a project without issues. ByTracker always carries
// every tracker.
func ProjectStats(projectID string, issues []types.Issue) ProjectStatistics {
	stats := ProjectStatistics{ByTracker: make(map[types.Tracker]int, 4)}
	for _, tr := range types.AllTrackers() {
		stats.ByTracker[tr] = 0
	}

	for _, issue := range issues {
		if issue.ProjectID != projectID {
			continue
		}
		stats.TotalIssues++
		switch issue.Status {
		case types.StatusNew, types.StatusInProgress:
			stats.OpenIssues++
		case types.StatusClosed, types.StatusResolved, types.StatusRejected:
			stats.ClosedIssues++
		}
		if _, ok := stats.ByTracker[issue.Tracker]; ok {
			stats.ByTracker[issue.Tracker]++
		}
	}

	if stats.TotalIssues > 0 {
		stats.Progress = float64(stats.ClosedIssues) / float64(stats.TotalIssues) * 100
	}
	return stats
}
