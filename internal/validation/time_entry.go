package validation

import (
	"strings"
	"time"

	"github.com/steveyegge/redline/internal/idgen"
	"github.com/steveyegge/redline/internal/types"
)

// MaxHoursPerEntry caps a single time entry.
const MaxHoursPerEntry = 24

// TimeEntryForm is the user-editable part of a time entry. Hours and
// SpentOn are pointers so "missing" differs from "zero".
type TimeEntryForm struct {
	IssueID      string
	Hours        *float64
	ActivityType types.ActivityType
	SpentOn      *time.Time
	Comments     string
}

// ValidateTimeEntryForm checks a time entry form. Any non-empty activity
// type is accepted.
func ValidateTimeEntryForm(form TimeEntryForm) FieldErrors {
	errs := FieldErrors{}

	if form.IssueID == "" {
		errs["issueId"] = "Issue is required"
	}

	switch {
	case form.Hours == nil:
		errs["hours"] = "Hours is required"
	case *form.Hours <= 0:
		errs["hours"] = "Hours must be greater than 0"
	case *form.Hours > MaxHoursPerEntry:
		errs["hours"] = "Hours cannot exceed 24"
	}

	if form.ActivityType == "" {
		errs["activityType"] = "Activity type is required"
	}
	if form.SpentOn == nil {
		errs["spentOn"] = "Date is required"
	}

	return errs
}

// NewTimeEntryFromForm builds a time entry logged by userID. SpentOn is
// stored as midnight UTC of its calendar day. The form must have passed
// ValidateTimeEntryForm.
func NewTimeEntryFromForm(form TimeEntryForm, userID string, ids idgen.Generator, clock types.Clock) types.TimeEntry {
	return types.TimeEntry{
		ID:           ids.NewID(),
		IssueID:      form.IssueID,
		UserID:       userID,
		Hours:        *form.Hours,
		ActivityType: types.ActivityType(strings.TrimSpace(string(form.ActivityType))),
		SpentOn:      dateOnly(*form.SpentOn),
		Comments:     strings.TrimSpace(form.Comments),
		CreatedAt:    clock.Now(),
	}
}

// UpdateTimeEntryFromForm applies a form to an existing entry. The id,
// user and creation time are carried over.
func UpdateTimeEntryFromForm(existing types.TimeEntry, form TimeEntryForm) types.TimeEntry {
	updated := existing
	updated.IssueID = form.IssueID
	if form.Hours != nil {
		updated.Hours = *form.Hours
	}
	updated.ActivityType = types.ActivityType(strings.TrimSpace(string(form.ActivityType)))
	if form.SpentOn != nil {
		updated.SpentOn = dateOnly(*form.SpentOn)
	}
	updated.Comments = strings.TrimSpace(form.Comments)
	return updated
}

// TimeEntryFormFrom fills a form with an entry's current values.
func TimeEntryFormFrom(e types.TimeEntry) TimeEntryForm {
	hours, spentOn := e.Hours, e.SpentOn
	return TimeEntryForm{
		IssueID:      e.IssueID,
		Hours:        &hours,
		ActivityType: e.ActivityType,
		SpentOn:      &spentOn,
		Comments:     e.Comments,
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
