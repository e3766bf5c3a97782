package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/steveyegge/redline/internal/types"
)

// AssigneeFilter is a tri-state assignee constraint. The zero value does
// not filter.
type AssigneeFilter struct {
	set bool
	id  *string
}

// Unassigned keeps only issues without an assignee.
func Unassigned() AssigneeFilter {
	return AssigneeFilter{set: true}
}

// AssignedTo keeps only issues assigned to the given user.
func AssignedTo(userID string) AssigneeFilter {
	return AssigneeFilter{set: true, id: &userID}
}

// IsSet reports whether the filter constrains anything.
func (a AssigneeFilter) IsSet() bool { return a.set }

func (a AssigneeFilter) matches(issue types.Issue) bool {
	if !a.set {
		return true
	}
	if a.id == nil {
		return issue.AssigneeID == nil
	}
	return issue.AssigneeID != nil && *issue.AssigneeID == *a.id
}

// IssueFilters selects issues. Empty slices do not filter; non-empty
// slices require membership.
type IssueFilters struct {
	Status    []types.Status
	Priority  []types.Priority
	Tracker   []types.Tracker
	ProjectID []string
	Assignee  AssigneeFilter
	Search    string
}

// OpenStatuses are the statuses OpenIssues keeps.
var OpenStatuses = []types.Status{types.StatusNew, types.StatusInProgress, types.StatusResolved}

// ClosedStatuses are the statuses ClosedIssues keeps.
var ClosedStatuses = []types.Status{types.StatusClosed, types.StatusRejected}

// FilterIssues returns the issues matching every filter, in their original
// order. The input is not modified.
func FilterIssues(issues []types.Issue, f IssueFilters) []types.Issue {
	search := normalizeSearch(f.Search)
	out := make([]types.Issue, 0, len(issues))
	for _, issue := range issues {
		if len(f.Status) > 0 && !slices.Contains(f.Status, issue.Status) {
			continue
		}
		if len(f.Priority) > 0 && !slices.Contains(f.Priority, issue.Priority) {
			continue
		}
		if len(f.Tracker) > 0 && !slices.Contains(f.Tracker, issue.Tracker) {
			continue
		}
		if len(f.ProjectID) > 0 && !slices.Contains(f.ProjectID, issue.ProjectID) {
			continue
		}
		if !f.Assignee.matches(issue) {
			continue
		}
		if search != "" && !containsAny(search, issue.Subject, issue.Description, issue.ID) {
			continue
		}
		out = append(out, issue)
	}
	return out
}

// SortIssues returns a sorted copy of issues. The sort is stable. Issues
// without a due date sort last under dueDate in either direction.
func SortIssues(issues []types.Issue, s types.IssueSort) []types.Issue {
	out := slices.Clone(issues)
	mult := s.Direction.Multiplier()

	var cmpFn func(a, b types.Issue) int
	switch s.Field {
	case types.IssueSortPriority:
		cmpFn = func(a, b types.Issue) int { return mult * cmp.Compare(a.Priority.Rank(), b.Priority.Rank()) }
	case types.IssueSortStatus:
		cmpFn = func(a, b types.Issue) int { return mult * cmp.Compare(a.Status.Rank(), b.Status.Rank()) }
	case types.IssueSortCreatedAt:
		cmpFn = func(a, b types.Issue) int { return mult * a.CreatedAt.Compare(b.CreatedAt) }
	case types.IssueSortUpdatedAt:
		cmpFn = func(a, b types.Issue) int { return mult * a.UpdatedAt.Compare(b.UpdatedAt) }
	case types.IssueSortDueDate:
		cmpFn = func(a, b types.Issue) int {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return 0
			case a.DueDate == nil:
				return 1
			case b.DueDate == nil:
				return -1
			}
			return mult * a.DueDate.Compare(*b.DueDate)
		}
	case types.IssueSortSubject:
		c := newCollator()
		cmpFn = func(a, b types.Issue) int { return mult * c.compare(a.Subject, b.Subject) }
	default:
		return out
	}

	slices.SortStableFunc(out, cmpFn)
	return out
}

// OpenIssues keeps issues whose status is new, in_progress or resolved.
func OpenIssues(issues []types.Issue) []types.Issue {
	return FilterIssues(issues, IssueFilters{Status: OpenStatuses})
}

// ClosedIssues keeps issues whose status is closed or rejected.
func ClosedIssues(issues []types.Issue) []types.Issue {
	return FilterIssues(issues, IssueFilters{Status: ClosedStatuses})
}

// IssueByID finds the first issue with the given id.
func IssueByID(issues []types.Issue, id string) (types.Issue, bool) {
	for _, issue := range issues {
		if issue.ID == id {
			return issue, true
		}
	}
	return types.Issue{}, false
}

// DeleteIssue returns a new slice without the first issue matching id and
// whether such an issue existed. The input slice is never modified.
func DeleteIssue(issues []types.Issue, id string) ([]types.Issue, bool) {
	idx := slices.IndexFunc(issues, func(i types.Issue) bool { return i.ID == id })
	if idx < 0 {
		return slices.Clone(issues), false
	}
	out := make([]types.Issue, 0, len(issues)-1)
	out = append(out, issues[:idx]...)
	out = append(out, issues[idx+1:]...)
	return out, true
}

// IsOverdue reports whether an open issue's due date falls before today.
func IsOverdue(issue types.Issue, clock types.Clock) bool {
	if issue.DueDate == nil || !issue.Status.IsOpen() {
		return false
	}
	return issue.DueDate.Before(types.StartOfDay(clock.Now()))
}

// OverdueIssues keeps the issues IsOverdue accepts.
func OverdueIssues(issues []types.Issue, clock types.Clock) []types.Issue {
	out := make([]types.Issue, 0)
	for _, issue := range issues {
		if IsOverdue(issue, clock) {
			out = append(out, issue)
		}
	}
	return out
}

func normalizeSearch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// containsAny reports whether any field contains needle, ignoring case.
// needle must already be lowercased.
func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
