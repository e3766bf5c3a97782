package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/redline/internal/query"
	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/types"
	"github.com/steveyegge/redline/internal/ui"
	"github.com/steveyegge/redline/internal/validation"
)

func (a *app) newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		GroupID: "tracking",
		Short:   "Manage users",
	}
	cmd.AddCommand(
		a.newUserListCmd(),
		a.newUserCreateCmd(),
		a.newUserUpdateCmd(),
		a.newUserDeleteCmd(),
	)
	return cmd
}

func (a *app) newUserListCmd() *cobra.Command {
	var roles []string
	var search, sortBy string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := validation.ParseList(roles, validation.ParseRole)
			if err != nil {
				return err
			}
			field, dir := types.UserSortLastName, types.SortAsc
			if sortBy != "" {
				if field, dir, err = types.ParseUserSort(sortBy); err != nil {
					return err
				}
			}
			users, err := a.store.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			users = query.SortUsers(query.FilterUsers(users, query.UserFilters{Role: parsed, Search: search}), field, dir)
			if a.jsonOutput {
				a.outputJSON(nonNil(users))
				return nil
			}
			if len(users) == 0 {
				a.printf("No users found.\n")
				return nil
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.ID, u.FullName(), u.Email, string(u.Role)})
			}
			return a.page(ui.Table([]string{"id", "name", "email", "role"}, rows))
		},
	}
	cmd.Flags().StringSliceVarP(&roles, "role", "r", nil, "Role (admin, manager, developer, reporter)")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive text in name or email")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort as field-dir: firstName, lastName, email, role, created (default lastName-asc)")
	return cmd
}

type userFlags struct {
	email     string
	firstName string
	lastName  string
	role      string
}

func (fl *userFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&fl.email, "email", "e", "", "Email address")
	f.StringVar(&fl.firstName, "first", "", "First name")
	f.StringVar(&fl.lastName, "last", "", "Last name")
	f.StringVarP(&fl.role, "role", "r", "", "Role (admin, manager, developer, reporter)")
}

func (fl *userFlags) apply(cmd *cobra.Command, form *validation.UserForm) validation.FieldErrors {
	errs := validation.FieldErrors{}
	changed := cmd.Flags().Changed
	if changed("email") {
		form.Email = strings.TrimSpace(fl.email)
	}
	if changed("first") {
		form.FirstName = strings.TrimSpace(fl.firstName)
	}
	if changed("last") {
		form.LastName = strings.TrimSpace(fl.lastName)
	}
	if changed("role") {
		form.Role = parseInto(errs, "role", fl.role, validation.ParseRole)
	}
	return errs
}

func emails(users []types.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Email
	}
	return out
}

func (a *app) newUserCreateCmd() *cobra.Command {
	var fl userFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long: `Create a user.

Example:
  rl user create --email ann@example.com --first Ann --last Lee --role admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			existing, err := a.store.ListUsers(ctx)
			if err != nil {
				return err
			}
			var form validation.UserForm
			parseErrs := fl.apply(cmd, &form)
			opts := validation.UserFormOptions{ExistingEmails: emails(existing)}
			if err := checkForm("user", mergeErrors(validation.ValidateUserForm(form, opts), parseErrs)); err != nil {
				return err
			}
			user := validation.NewUserFromForm(form, a.ids, a.clock)
			if err := a.store.CreateUser(ctx, &user); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			if a.jsonOutput {
				a.outputJSON(user)
				return nil
			}
			a.printf("%s Created user %s <%s>\n", ui.RenderPassIcon(), user.FullName(), user.Email)
			return nil
		},
	}
	fl.register(cmd)
	return cmd
}

func (a *app) newUserUpdateCmd() *cobra.Command {
	var fl userFlags
	cmd := &cobra.Command{
		Use:   "update <email-or-id>",
		Short: "Update a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !anyChanged(cmd, "email", "first", "last", "role") {
				return withHint(errors.New("nothing to update"), "pass --email, --first, --last or --role")
			}
			current, err := a.resolveUser(ctx, args[0])
			if err != nil {
				return err
			}
			all, err := a.store.ListUsers(ctx)
			if err != nil {
				return err
			}
			form := validation.UserFormFrom(*current)
			parseErrs := fl.apply(cmd, &form)
			opts := validation.UserFormOptions{ExistingEmails: emails(all), ExcludeEmail: current.Email}
			if err := checkForm("user", mergeErrors(validation.ValidateUserForm(form, opts), parseErrs)); err != nil {
				return err
			}
			updated := validation.UpdateUserFromForm(*current, form)
			if err := a.store.UpdateUser(ctx, &updated); err != nil {
				return fmt.Errorf("update user %s: %w", updated.ID, err)
			}
			if a.jsonOutput {
				a.outputJSON(updated)
				return nil
			}
			a.printf("%s Updated user %s <%s>\n", ui.RenderPassIcon(), updated.FullName(), updated.Email)
			return nil
		},
	}
	fl.register(cmd)
	return cmd
}

func (a *app) newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <email-or-id>",
		Short: "Delete a user who has no issues, time entries or comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := a.resolveUser(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteUser(ctx, u.ID); err != nil {
				if errors.Is(err, storage.ErrInUse) {
					return withHint(err, "reassign or delete the user's issues, time entries and comments first")
				}
				return err
			}
			if a.jsonOutput {
				a.outputJSON(map[string]string{"deleted": u.ID})
				return nil
			}
			a.printf("%s Deleted user %s\n", ui.RenderPassIcon(), u.Email)
			return nil
		},
	}
}
