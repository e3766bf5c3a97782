package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/redline/internal/idgen"
	"github.com/steveyegge/redline/internal/types"
)

// Subject length bounds, in characters.
const (
	MinSubjectLength = 3
	MaxSubjectLength = 255
)

// IssueForm is the user-editable part of an issue.
type IssueForm struct {
	ProjectID      string
	Tracker        types.Tracker
	Subject        string
	Description    string
	Priority       types.Priority
	AssigneeID     *string
	DueDate        *time.Time
	EstimatedHours *float64
}

// ValidateIssueForm checks an issue form. Priority has no rule; it is
// defaulted on construction.
func ValidateIssueForm(form IssueForm) FieldErrors {
	errs := FieldErrors{}

	if form.ProjectID == "" {
		errs["projectId"] = "Project is required"
	}
	if form.Tracker == "" {
		errs["tracker"] = "Tracker is required"
	}

	switch n := runeLen(form.Subject); {
	case form.Subject == "":
		errs["subject"] = "Subject is required"
	case n < MinSubjectLength:
		errs["subject"] = fmt.Sprintf("Subject must be at least %d characters", MinSubjectLength)
	case n > MaxSubjectLength:
		errs["subject"] = fmt.Sprintf("Subject must be less than %d characters", MaxSubjectLength)
	}

	if form.EstimatedHours != nil && *form.EstimatedHours <= 0 {
		errs["estimatedHours"] = "Estimated hours must be greater than 0"
	}

	return errs
}

// NewIssueFromForm builds a new issue. Status is always new, priority
// defaults to normal, and both timestamps are set to the same instant.
func NewIssueFromForm(form IssueForm, authorID string, ids idgen.Generator, clock types.Clock) types.Issue {
	now := clock.Now()
	priority := form.Priority
	if priority == "" {
		priority = types.PriorityNormal
	}
	return types.Issue{
		ID:             ids.NewID(),
		ProjectID:      form.ProjectID,
		Tracker:        form.Tracker,
		Subject:        strings.TrimSpace(form.Subject),
		Description:    strings.TrimSpace(form.Description),
		Status:         types.StatusNew,
		Priority:       priority,
		AssigneeID:     trimmedPtr(form.AssigneeID),
		AuthorID:       authorID,
		DueDate:        form.DueDate,
		EstimatedHours: form.EstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// UpdateIssueFromForm applies a form to an existing issue. The id, author,
// status and creation time are carried over; updatedAt is refreshed.
func UpdateIssueFromForm(existing types.Issue, form IssueForm, clock types.Clock) types.Issue {
	priority := form.Priority
	if priority == "" {
		priority = existing.Priority
	}
	return types.Issue{
		ID:             existing.ID,
		ProjectID:      form.ProjectID,
		Tracker:        form.Tracker,
		Subject:        strings.TrimSpace(form.Subject),
		Description:    strings.TrimSpace(form.Description),
		Status:         existing.Status,
		Priority:       priority,
		AssigneeID:     trimmedPtr(form.AssigneeID),
		AuthorID:       existing.AuthorID,
		DueDate:        form.DueDate,
		EstimatedHours: form.EstimatedHours,
		CreatedAt:      existing.CreatedAt,
		UpdatedAt:      clock.Now(),
	}
}

// IssueFormFrom fills a form with an issue's current values.
func IssueFormFrom(issue types.Issue) IssueForm {
	return IssueForm{
		ProjectID:      issue.ProjectID,
		Tracker:        issue.Tracker,
		Subject:        issue.Subject,
		Description:    issue.Description,
		Priority:       issue.Priority,
		AssigneeID:     issue.AssigneeID,
		DueDate:        issue.DueDate,
		EstimatedHours: issue.EstimatedHours,
	}
}

// ChangeIssueStatus moves an issue to a new workflow status. Status is not
// part of the edit form, so this is the only way to change it.
func ChangeIssueStatus(existing types.Issue, status types.Status, clock types.Clock) (types.Issue, error) {
	if !status.IsValid() {
		return existing, fmt.Errorf("invalid status: %s", status)
	}
	existing.Status = status
	existing.UpdatedAt = clock.Now()
	return existing, nil
}
