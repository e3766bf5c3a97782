package query

import (
	"cmp"
	"slices"
	"time"

	"github.com/steveyegge/redline/internal/types"
)

// TimeEntryFilters selects time entries. Empty strings and nil bounds do
// not filter.
type TimeEntryFilters struct {
	IssueID      string
	UserID       string
	ActivityType types.ActivityType
	From         *time.Time
	To           *time.Time
	Search       string
}

// FilterTimeEntries returns entries matching the filters in original order.
// From and To are whole-day inclusive bounds. Search matches comments only.
func FilterTimeEntries(entries []types.TimeEntry, f TimeEntryFilters) []types.TimeEntry {
	search := normalizeSearch(f.Search)
	var from, to time.Time
	if f.From != nil {
		from = types.StartOfDay(*f.From)
	}
	if f.To != nil {
		to = types.EndOfDay(*f.To)
	}

	out := make([]types.TimeEntry, 0, len(entries))
	for _, e := range entries {
		if f.IssueID != "" && e.IssueID != f.IssueID {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.ActivityType != "" && e.ActivityType != f.ActivityType {
			continue
		}
		if f.From != nil && e.SpentOn.Before(from) {
			continue
		}
		if f.To != nil && e.SpentOn.After(to) {
			continue
		}
		if search != "" && !containsAny(search, e.Comments) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SortTimeEntries returns a stably sorted copy. The zero field sorts by
// spentOn and the zero direction is descending.
func SortTimeEntries(entries []types.TimeEntry, field types.TimeEntrySortField, dir types.SortDirection) []types.TimeEntry {
	if field == "" {
		field = types.TimeEntrySortSpentOn
	}
	if dir == "" {
		dir = types.SortDesc
	}
	mult := dir.Multiplier()
	out := slices.Clone(entries)

	switch field {
	case types.TimeEntrySortSpentOn:
		slices.SortStableFunc(out, func(a, b types.TimeEntry) int { return mult * a.SpentOn.Compare(b.SpentOn) })
	case types.TimeEntrySortHours:
		slices.SortStableFunc(out, func(a, b types.TimeEntry) int { return mult * cmp.Compare(a.Hours, b.Hours) })
	case types.TimeEntrySortCreatedAt:
		slices.SortStableFunc(out, func(a, b types.TimeEntry) int { return mult * a.CreatedAt.Compare(b.CreatedAt) })
	}
	return out
}

// TotalHours sums the hours of entries.
func TotalHours(entries []types.TimeEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Hours
	}
	return total
}

// TimeEntriesByIssue groups entries by issue id, preserving order within
// each group.
func TimeEntriesByIssue(entries []types.TimeEntry) map[string][]types.TimeEntry {
	return groupEntries(entries, func(e types.TimeEntry) string { return e.IssueID })
}

// TimeEntriesByUser groups entries by user id, preserving order within
// each group.
func TimeEntriesByUser(entries []types.TimeEntry) map[string][]types.TimeEntry {
	return groupEntries(entries, func(e types.TimeEntry) string { return e.UserID })
}

func groupEntries(entries []types.TimeEntry, key func(types.TimeEntry) string) map[string][]types.TimeEntry {
	groups := make(map[string][]types.TimeEntry)
	for _, e := range entries {
		k := key(e)
		groups[k] = append(groups[k], e)
	}
	return groups
}
