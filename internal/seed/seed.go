// Package seed loads users and projects from a TOML file into a store.
//
// Seed files are meant for bootstrapping a fresh tracker:
//
//	[[users]]
//	email = "ann@example.com"
//	first_name = "Ann"
//	last_name = "Lee"
//	role = "admin"
//
//	[[projects]]
//	name = "Website"
//	identifier = "web"   # optional, derived from name when empty
//	status = "active"    # optional, defaults to active
//
// Records whose email or identifier already exists are skipped, so a seed
// file can be applied repeatedly.
package seed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/steveyegge/redline/internal/idgen"
	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/types"
	"github.com/steveyegge/redline/internal/validation"
)

// File is a parsed seed file.
type File struct {
	Users    []User    `toml:"users"`
	Projects []Project `toml:"projects"`
}

// User is one [[users]] entry.
type User struct {
	Email     string `toml:"email"`
	FirstName string `toml:"first_name"`
	LastName  string `toml:"last_name"`
	Role      string `toml:"role"`
}

// Project is one [[projects]] entry.
type Project struct {
	Name        string `toml:"name"`
	Identifier  string `toml:"identifier"`
	Description string `toml:"description"`
	Status      string `toml:"status"`
}

// Result counts what Apply did.
type Result struct {
	UsersCreated    int `json:"usersCreated"`
	UsersSkipped    int `json:"usersSkipped"`
	ProjectsCreated int `json:"projectsCreated"`
	ProjectsSkipped int `json:"projectsSkipped"`
}

// RecordError reports an invalid seed record.
type RecordError struct {
	Kind   string // "user" or "project"
	Index  int
	Fields validation.FieldErrors
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("invalid %s at index %d: %s", e.Kind, e.Index, e.Fields.Error())
}

// Load parses a seed file. Unknown keys are rejected so typos do not
// silently drop data.
func Load(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("seed file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return &f, nil
}

// Apply creates the file's users then projects. It stops at the first
// invalid record; records created before it are kept.
func Apply(ctx context.Context, store storage.Storage, f *File, ids idgen.Generator, clock types.Clock) (*Result, error) {
	result := &Result{}

	for i, u := range f.Users {
		created, err := applyUser(ctx, store, i, u, ids, clock)
		if err != nil {
			return result, err
		}
		if created {
			result.UsersCreated++
		} else {
			result.UsersSkipped++
		}
	}

	for i, p := range f.Projects {
		created, err := applyProject(ctx, store, i, p, ids, clock)
		if err != nil {
			return result, err
		}
		if created {
			result.ProjectsCreated++
		} else {
			result.ProjectsSkipped++
		}
	}

	return result, nil
}

func applyUser(ctx context.Context, store storage.Storage, index int, u User, ids idgen.Generator, clock types.Clock) (bool, error) {
	if email := strings.TrimSpace(u.Email); email != "" {
		exists, err := found(store.GetUserByEmail(ctx, email))
		if err != nil || exists {
			return false, err
		}
	}

	form := validation.UserForm{
		Email:     strings.TrimSpace(u.Email),
		FirstName: strings.TrimSpace(u.FirstName),
		LastName:  strings.TrimSpace(u.LastName),
	}
	var roleErr error
	if u.Role != "" {
		form.Role, roleErr = validation.ParseRole(u.Role)
	}
	errs := validation.ValidateUserForm(form, validation.UserFormOptions{})
	if roleErr != nil {
		errs["role"] = roleErr.Error()
	}
	if len(errs) > 0 {
		return false, &RecordError{Kind: "user", Index: index, Fields: errs}
	}

	user := validation.NewUserFromForm(form, ids, clock)
	if err := store.CreateUser(ctx, &user); err != nil {
		return false, fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}
	return true, nil
}

func applyProject(ctx context.Context, store storage.Storage, index int, p Project, ids idgen.Generator, clock types.Clock) (bool, error) {
	form := validation.ProjectForm{
		Name:        strings.TrimSpace(p.Name),
		Identifier:  strings.TrimSpace(p.Identifier),
		Description: strings.TrimSpace(p.Description),
		Status:      types.ProjectActive,
	}

	if form.Identifier == "" && form.Name != "" {
		// A project already holding the plain derived identifier under the
		// same name was seeded earlier.
		existing, err := store.GetProjectByIdentifier(ctx, idgen.SuggestIdentifier(form.Name, nil))
		if err == nil && strings.EqualFold(existing.Name, form.Name) {
			return false, nil
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return false, err
		}

		var lookupErr error
		form.Identifier = idgen.SuggestIdentifier(form.Name, func(id string) bool {
			exists, err := found(store.GetProjectByIdentifier(ctx, id))
			if err != nil {
				lookupErr = err
			}
			return exists
		})
		if lookupErr != nil {
			return false, lookupErr
		}
	} else if form.Identifier != "" {
		exists, err := found(store.GetProjectByIdentifier(ctx, storage.NormalizeIdentifier(form.Identifier)))
		if err != nil || exists {
			return false, err
		}
	}

	var statusErr error
	if p.Status != "" {
		form.Status, statusErr = validation.ParseProjectStatus(p.Status)
	}
	errs := validation.ValidateProjectForm(form)
	if statusErr != nil {
		errs["status"] = statusErr.Error()
	}
	if len(errs) > 0 {
		return false, &RecordError{Kind: "project", Index: index, Fields: errs}
	}

	project := validation.NewProjectFromForm(form, ids, clock)
	if err := store.CreateProject(ctx, &project); err != nil {
		return false, fmt.Errorf("failed to create project %s: %w", project.Identifier, err)
	}
	return true, nil
}

// found turns a lookup result into an existence flag; ErrNotFound is not
// an error here.
func found[T any](_ *T, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
