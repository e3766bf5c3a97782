package types

import (
	"fmt"
	"strings"
)

// SortDirection orders results ascending or descending.
type SortDirection string

// Sort direction constants
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Multiplier returns +1 for ascending and -1 for descending. A comparator
// result multiplied by it yields the requested direction.
func (d SortDirection) Multiplier() int {
	if d == SortDesc {
		return -1
	}
	return 1
}

// IssueSortField names the issue attribute to sort on.
type IssueSortField string

// Issue sort fields
const (
	IssueSortPriority  IssueSortField = "priority"
	IssueSortStatus    IssueSortField = "status"
	IssueSortCreatedAt IssueSortField = "createdAt"
	IssueSortUpdatedAt IssueSortField = "updatedAt"
	IssueSortDueDate   IssueSortField = "dueDate"
	IssueSortSubject   IssueSortField = "subject"
)

// IssueSort is a single-field issue ordering.
type IssueSort struct {
	Field     IssueSortField
	Direction SortDirection
}

// DefaultIssueSort orders by priority, most urgent first.
func DefaultIssueSort() IssueSort {
	return IssueSort{Field: IssueSortPriority, Direction: SortDesc}
}

// String encodes the sort as a "field-dir" token.
func (s IssueSort) String() string {
	return string(s.Field) + "-" + string(s.Direction)
}

// UserSortField names the user attribute to sort on.
type UserSortField string

// User sort fields
const (
	UserSortFirstName UserSortField = "firstName"
	UserSortLastName  UserSortField = "lastName"
	UserSortEmail     UserSortField = "email"
	UserSortRole      UserSortField = "role"
	UserSortCreatedAt UserSortField = "createdAt"
)

// TimeEntrySortField names the time entry attribute to sort on.
// The zero value means spentOn.
type TimeEntrySortField string

// Time entry sort fields
const (
	TimeEntrySortSpentOn   TimeEntrySortField = "spentOn"
	TimeEntrySortHours     TimeEntrySortField = "hours"
	TimeEntrySortCreatedAt TimeEntrySortField = "createdAt"
)

// ParseIssueSort converts a CLI token such as "priority-desc" or "due:asc"
// into an IssueSort. A bare field name sorts ascending.
func ParseIssueSort(raw string) (IssueSort, error) {
	field, dir, err := splitSortToken(raw)
	if err != nil {
		return IssueSort{}, err
	}
	var f IssueSortField
	switch field {
	case "priority":
		f = IssueSortPriority
	case "status":
		f = IssueSortStatus
	case "created", "createdat", "created_at":
		f = IssueSortCreatedAt
	case "updated", "updatedat", "updated_at":
		f = IssueSortUpdatedAt
	case "due", "duedate", "due_date":
		f = IssueSortDueDate
	case "subject", "title":
		f = IssueSortSubject
	default:
		return IssueSort{}, fmt.Errorf("unknown issue sort field %q (valid: priority, status, created, updated, due, subject)", field)
	}
	return IssueSort{Field: f, Direction: dir}, nil
}

// ParseUserSort converts a CLI token such as "lastName-asc" into a user
// sort field and direction.
func ParseUserSort(raw string) (UserSortField, SortDirection, error) {
	field, dir, err := splitSortToken(raw)
	if err != nil {
		return "", "", err
	}
	switch field {
	case "first", "firstname", "first_name":
		return UserSortFirstName, dir, nil
	case "last", "lastname", "last_name":
		return UserSortLastName, dir, nil
	case "email":
		return UserSortEmail, dir, nil
	case "role":
		return UserSortRole, dir, nil
	case "created", "createdat", "created_at":
		return UserSortCreatedAt, dir, nil
	}
	return "", "", fmt.Errorf("unknown user sort field %q (valid: firstName, lastName, email, role, created)", field)
}

// ParseTimeEntrySort converts a CLI token such as "hours-desc" into a time
// entry sort field and direction. A bare field name sorts descending, the
// default for time entries.
func ParseTimeEntrySort(raw string) (TimeEntrySortField, SortDirection, error) {
	field, dir, err := splitSortToken(raw)
	if err != nil {
		return "", "", err
	}
	if !strings.ContainsAny(raw, ":-") {
		dir = SortDesc
	}
	switch field {
	case "spent", "spenton", "spent_on", "date":
		return TimeEntrySortSpentOn, dir, nil
	case "hours":
		return TimeEntrySortHours, dir, nil
	case "created", "createdat", "created_at":
		return TimeEntrySortCreatedAt, dir, nil
	}
	return "", "", fmt.Errorf("unknown time entry sort field %q (valid: spentOn, hours, created)", field)
}

// splitSortToken lowercases and splits "field-dir" / "field:dir".
func splitSortToken(raw string) (string, SortDirection, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		return "", "", fmt.Errorf("empty sort order")
	}
	field, dirPart := token, "asc"
	if idx := strings.IndexAny(token, ":-"); idx >= 0 {
		field = strings.TrimSpace(token[:idx])
		dirPart = strings.TrimSpace(token[idx+1:])
	}
	dir, err := parseSortDirection(dirPart)
	if err != nil {
		return "", "", err
	}
	return field, dir, nil
}

func parseSortDirection(raw string) (SortDirection, error) {
	switch raw {
	case "asc", "ascending":
		return SortAsc, nil
	case "desc", "descending":
		return SortDesc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q (valid: asc, desc)", raw)
}
