package validation

import (
	"regexp"
	"strings"

	"github.com/steveyegge/redline/internal/idgen"
	"github.com/steveyegge/redline/internal/types"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserForm is the user-editable part of a user.
type UserForm struct {
	Email     string
	FirstName string
	LastName  string
	Role      types.Role
}

// UserFormOptions carries the context needed for the uniqueness check.
// ExcludeEmail is the current email of the user being edited.
type UserFormOptions struct {
	ExistingEmails []string
	ExcludeEmail   string
}

// ValidateUserForm checks a user form. Email uniqueness ignores case.
func ValidateUserForm(form UserForm, opts UserFormOptions) FieldErrors {
	errs := FieldErrors{}

	switch {
	case form.Email == "":
		errs["email"] = "Email is required"
	case !emailRe.MatchString(form.Email):
		errs["email"] = "Invalid email address"
	case emailTaken(form.Email, opts):
		errs["email"] = "Email is already in use"
	}

	checkName(errs, "firstName", "First name", form.FirstName)
	checkName(errs, "lastName", "Last name", form.LastName)

	if form.Role == "" {
		errs["role"] = "Role is required"
	}

	return errs
}

func checkName(errs FieldErrors, field, label, value string) {
	switch {
	case value == "":
		errs[field] = label + " is required"
	case runeLen(value) < 2:
		errs[field] = label + " must be at least 2 characters"
	}
}

func emailTaken(email string, opts UserFormOptions) bool {
	for _, existing := range opts.ExistingEmails {
		if !strings.EqualFold(existing, email) {
			continue
		}
		if opts.ExcludeEmail != "" && strings.EqualFold(existing, opts.ExcludeEmail) {
			continue
		}
		return true
	}
	return false
}

// NewUserFromForm builds a new user with a lowercased email.
func NewUserFromForm(form UserForm, ids idgen.Generator, clock types.Clock) types.User {
	return types.User{
		ID:        ids.NewID(),
		Email:     strings.ToLower(strings.TrimSpace(form.Email)),
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Role:      form.Role,
		CreatedAt: clock.Now(),
	}
}

// UpdateUserFromForm applies a form to an existing user. Users carry no
// update timestamp.
func UpdateUserFromForm(existing types.User, form UserForm) types.User {
	return types.User{
		ID:        existing.ID,
		Email:     strings.ToLower(strings.TrimSpace(form.Email)),
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Role:      form.Role,
		CreatedAt: existing.CreatedAt,
	}
}

// UserFormFrom fills a form with a user's current values.
func UserFormFrom(u types.User) UserForm {
	return UserForm{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role}
}
