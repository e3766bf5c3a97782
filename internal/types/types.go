// Package types defines the records held by the tracker and the closed
// enumerations that classify them.
package types

import (
	"fmt"
	"strings"
	"time"
)

// User is a person who can author, be assigned to, and log time against issues.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// FullName returns "First Last".
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Project groups issues under a URL-safe identifier.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Identifier  string        `json:"identifier"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Issue is a unit of tracked work inside a project.
type Issue struct {
	ID             string     `json:"id"`
	Tracker        Tracker    `json:"tracker"`
	Subject        string     `json:"subject"`
	Description    string     `json:"description"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	DueDate        *time.Time `json:"dueDate"`
	EstimatedHours *float64   `json:"estimatedHours"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ProjectID      string     `json:"projectId"`
	AuthorID       string     `json:"authorId"`
	AssigneeID     *string    `json:"assigneeId"`
}

// IsAssigned reports whether the issue has an assignee.
func (i Issue) IsAssigned() bool {
	return i.AssigneeID != nil && *i.AssigneeID != ""
}

// Validate checks the invariants every stored issue must satisfy.
func (i Issue) Validate() error {
	if i.ProjectID == "" {
		return fmt.Errorf("project is required")
	}
	if !i.Tracker.IsValid() {
		return fmt.Errorf("invalid tracker: %s", i.Tracker)
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	if !i.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", i.Priority)
	}
	if i.EstimatedHours != nil && *i.EstimatedHours <= 0 {
		return fmt.Errorf("estimated hours must be greater than 0 (got %v)", *i.EstimatedHours)
	}
	return nil
}

// TimeEntry records hours a user spent on an issue on a given day.
type TimeEntry struct {
	ID           string       `json:"id"`
	Hours        float64      `json:"hours"`
	Comments     string       `json:"comments"`
	ActivityType ActivityType `json:"activityType"`
	SpentOn      time.Time    `json:"spentOn"`
	CreatedAt    time.Time    `json:"createdAt"`
	IssueID      string       `json:"issueId"`
	UserID       string       `json:"userId"`
}

// Comment is a note attached to an issue.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IssueID   string    `json:"issueId"`
	AuthorID  string    `json:"authorId"`
}

// Role is a user's permission level.
type Role string

// Role constants
const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleDeveloper Role = "developer"
	RoleReporter  Role = "reporter"
)

// AllRoles returns the roles in display order.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleDeveloper, RoleReporter}
}

// IsValid checks if the role value is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDeveloper, RoleReporter:
		return true
	}
	return false
}

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

// Project status constants
const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
	ProjectClosed   ProjectStatus = "closed"
)

// AllProjectStatuses returns the project statuses in display order.
func AllProjectStatuses() []ProjectStatus {
	return []ProjectStatus{ProjectActive, ProjectArchived, ProjectClosed}
}

// IsValid checks if the project status value is valid
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectActive, ProjectArchived, ProjectClosed:
		return true
	}
	return false
}

// Tracker categorizes an issue.
type Tracker string

// Tracker constants
const (
	TrackerBug     Tracker = "bug"
	TrackerFeature Tracker = "feature"
	TrackerSupport Tracker = "support"
	TrackerTask    Tracker = "task"
)

// AllTrackers returns the trackers in display order.
func AllTrackers() []Tracker {
	return []Tracker{TrackerBug, TrackerFeature, TrackerSupport, TrackerTask}
}

// IsValid checks if the tracker value is valid
func (t Tracker) IsValid() bool {
	switch t {
	case TrackerBug, TrackerFeature, TrackerSupport, TrackerTask:
		return true
	}
	return false
}

// Status represents the current state of an issue
type Status string

// Issue status constants
const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusRejected   Status = "rejected"
)

// AllStatuses returns the statuses in workflow order.
func AllStatuses() []Status {
	return []Status{StatusNew, StatusInProgress, StatusResolved, StatusClosed, StatusRejected}
}

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved, StatusClosed, StatusRejected:
		return true
	}
	return false
}

// Rank places the status on the fixed workflow scale (new=1 .. rejected=5).
// Unknown values rank 0.
func (s Status) Rank() int {
	switch s {
	case StatusNew:
		return 1
	case StatusInProgress:
		return 2
	case StatusResolved:
		return 3
	case StatusClosed:
		return 4
	case StatusRejected:
		return 5
	}
	return 0
}

// IsOpen reports whether work on the issue can still happen.
// Resolved counts as open here; project statistics use a narrower set.
func (s Status) IsOpen() bool {
	return s != StatusClosed && s != StatusRejected
}

// Priority is the urgency of an issue.
type Priority string

// Priority constants
const (
	PriorityLow       Priority = "low"
	PriorityNormal    Priority = "normal"
	PriorityHigh      Priority = "high"
	PriorityUrgent    Priority = "urgent"
	PriorityImmediate Priority = "immediate"
)

// AllPriorities returns the priorities from lowest to highest.
func AllPriorities() []Priority {
	return []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent, PriorityImmediate}
}

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	return p.Rank() > 0
}

// Rank places the priority on the fixed scale (low=1 .. immediate=5).
// Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityNormal:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	case PriorityImmediate:
		return 5
	}
	return 0
}

// ActivityType classifies logged time.
type ActivityType string

// Activity type constants
const (
	ActivityDesign        ActivityType = "design"
	ActivityDevelopment   ActivityType = "development"
	ActivityTesting       ActivityType = "testing"
	ActivityDocumentation ActivityType = "documentation"
	ActivitySupport       ActivityType = "support"
	ActivityManagement    ActivityType = "management"
	ActivityOther         ActivityType = "other"
)

// AllActivityTypes returns the activity types in display order.
func AllActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityDesign, ActivityDevelopment, ActivityTesting, ActivityDocumentation,
		ActivitySupport, ActivityManagement, ActivityOther,
	}
}

// IsValid checks if the activity type is one of the known values.
// Time entry forms accept any non-empty value; this is for display and filtering.
func (a ActivityType) IsValid() bool {
	switch a {
	case ActivityDesign, ActivityDevelopment, ActivityTesting, ActivityDocumentation,
		ActivitySupport, ActivityManagement, ActivityOther:
		return true
	}
	return false
}
