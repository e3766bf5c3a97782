package validation

import (
	"regexp"
	"strings"

	"github.com/steveyegge/redline/internal/idgen"
	"github.com/steveyegge/redline/internal/types"
)

var (
	identifierStartRe   = regexp.MustCompile(`^[a-z]`)
	identifierPatternRe = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

// ProjectForm is the user-editable part of a project.
type ProjectForm struct {
	Name        string
	Identifier  string
	Description string
	Status      types.ProjectStatus
}

// ValidateProjectForm checks a project form. The start-with-letter check
// runs before the full pattern so "123project" gets the specific message.
// Lowercasing identifiers is left to storage.
func ValidateProjectForm(form ProjectForm) FieldErrors {
	errs := FieldErrors{}

	switch n := runeLen(form.Name); {
	case form.Name == "":
		errs["name"] = "Name is required"
	case n < 2:
		errs["name"] = "Name must be at least 2 characters"
	case n > 100:
		errs["name"] = "Name must be less than 100 characters"
	}

	switch n := runeLen(form.Identifier); {
	case form.Identifier == "":
		errs["identifier"] = "Identifier is required"
	case n < 2:
		errs["identifier"] = "Identifier must be at least 2 characters"
	case n > idgen.MaxIdentifierLength:
		errs["identifier"] = "Identifier must be less than 50 characters"
	case !identifierStartRe.MatchString(form.Identifier):
		errs["identifier"] = "Identifier must start with a letter"
	case !identifierPatternRe.MatchString(form.Identifier):
		errs["identifier"] = "Identifier can only contain lowercase letters, numbers, and hyphens"
	}

	if form.Status == "" {
		errs["status"] = "Status is required"
	}

	return errs
}

// NewProjectFromForm builds a new project. Status defaults to active.
func NewProjectFromForm(form ProjectForm, ids idgen.Generator, clock types.Clock) types.Project {
	now := clock.Now()
	status := form.Status
	if status == "" {
		status = types.ProjectActive
	}
	return types.Project{
		ID:          ids.NewID(),
		Name:        strings.TrimSpace(form.Name),
		Identifier:  strings.TrimSpace(form.Identifier),
		Description: strings.TrimSpace(form.Description),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateProjectFromForm applies a form to an existing project.
func UpdateProjectFromForm(existing types.Project, form ProjectForm, clock types.Clock) types.Project {
	status := form.Status
	if status == "" {
		status = existing.Status
	}
	return types.Project{
		ID:          existing.ID,
		Name:        strings.TrimSpace(form.Name),
		Identifier:  strings.TrimSpace(form.Identifier),
		Description: strings.TrimSpace(form.Description),
		Status:      status,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   clock.Now(),
	}
}

// ProjectFormFrom fills a form with a project's current values.
func ProjectFormFrom(p types.Project) ProjectForm {
	return ProjectForm{Name: p.Name, Identifier: p.Identifier, Description: p.Description, Status: p.Status}
}
