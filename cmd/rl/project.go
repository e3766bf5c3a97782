package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/redline/internal/idgen"
	"github.com/steveyegge/redline/internal/query"
	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/types"
	"github.com/steveyegge/redline/internal/ui"
	"github.com/steveyegge/redline/internal/validation"
)

func (a *app) newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		GroupID: "tracking",
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		a.newProjectListCmd(),
		a.newProjectShowCmd(),
		a.newProjectCreateCmd(),
		a.newProjectUpdateCmd(),
		a.newProjectDeleteCmd(),
		a.newProjectStatsCmd(),
	)
	return cmd
}

func (a *app) newProjectListCmd() *cobra.Command {
	var status []string
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			statuses, err := validation.ParseList(status, validation.ParseProjectStatus)
			if err != nil {
				return err
			}
			projects, err := a.store.ListProjects(ctx)
			if err != nil {
				return err
			}
			projects = query.FilterProjects(projects, query.ProjectFilters{Status: statuses, Search: search})
			if a.jsonOutput {
				a.outputJSON(nonNil(projects))
				return nil
			}
			if len(projects) == 0 {
				a.printf("No projects found.\n")
				return nil
			}
			rows := make([][]string, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, []string{
					p.Identifier,
					p.Name,
					ui.RenderProjectStatus(p.Status),
					ui.Truncate(p.Description, 50),
				})
			}
			return a.page(ui.Table([]string{"identifier", "name", "status", "description"}, rows))
		},
	}
	cmd.Flags().StringSliceVarP(&status, "status", "s", nil, "Status (active, archived, closed)")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive text in name, identifier or description")
	return cmd
}

type projectDetail struct {
	Project types.Project           `json:"project"`
	Stats   query.ProjectStatistics `json:"stats"`
}

func (a *app) projectDetail(ctx context.Context, ref string) (*projectDetail, error) {
	p, err := a.resolveProject(ctx, ref)
	if err != nil {
		return nil, err
	}
	issues, err := a.store.ListIssuesByProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &projectDetail{Project: *p, Stats: query.ProjectStats(p.ID, issues)}, nil
}

func (a *app) newProjectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.projectDetail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				a.outputJSON(d)
				return nil
			}
			var b strings.Builder
			p := d.Project
			fmt.Fprintf(&b, "%s %s\n", ui.RenderAccent(p.Identifier), ui.RenderBold(p.Name))
			fmt.Fprintf(&b, "%s\n", ui.RenderSeparator())
			fmt.Fprintf(&b, "%-10s %s\n", "ID:", p.ID)
			fmt.Fprintf(&b, "%-10s %s\n", "Status:", ui.RenderProjectStatus(p.Status))
			fmt.Fprintf(&b, "%-10s %s\n", "Created:", formatTime(p.CreatedAt))
			fmt.Fprintf(&b, "%-10s %s\n", "Updated:", formatTime(p.UpdatedAt))
			fmt.Fprintf(&b, "%-10s %d open, %d closed of %d (%.0f%% done)\n", "Issues:",
				d.Stats.OpenIssues, d.Stats.ClosedIssues, d.Stats.TotalIssues, d.Stats.Progress)
			if p.Description != "" {
				fmt.Fprintf(&b, "\n%s\n", ui.RenderMarkdown(p.Description, ui.TerminalWidth(80)))
			}
			return a.page(b.String())
		},
	}
}

func (a *app) newProjectStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <project>",
		Short: "Show issue counts and progress for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.projectDetail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				a.outputJSON(d.Stats)
				return nil
			}
			s := d.Stats
			a.printf("%s %s\n", ui.RenderCategory("Project"), d.Project.Identifier)
			a.printf("  Total:    %d\n", s.TotalIssues)
			a.printf("  Open:     %d\n", s.OpenIssues)
			a.printf("  Closed:   %d\n", s.ClosedIssues)
			a.printf("  Progress: %s\n", progressBar(s.Progress, 20))
			a.printf("%s\n", ui.RenderCategory("By tracker"))
			for _, tr := range types.AllTrackers() {
				a.printf("  %-8s %d\n", tr, s.ByTracker[tr])
			}
			return nil
		},
	}
}

// progressBar renders pct (0..100) as a fixed-width bar with the number.
func progressBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	filled = min(max(filled, 0), width)
	return ui.RenderPass(strings.Repeat("█", filled)) +
		ui.RenderMuted(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %.0f%%", pct)
}

type projectFlags struct {
	name        string
	identifier  string
	description string
	status      string
}

func (fl *projectFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&fl.name, "name", "n", "", "Project name")
	f.StringVarP(&fl.identifier, "identifier", "i", "", "URL-safe identifier (derived from the name when omitted)")
	f.StringVarP(&fl.description, "description", "d", "", "Description")
	f.StringVarP(&fl.status, "status", "s", "", "Status (active, archived, closed)")
}

func (fl *projectFlags) apply(cmd *cobra.Command, form *validation.ProjectForm) validation.FieldErrors {
	errs := validation.FieldErrors{}
	changed := cmd.Flags().Changed
	if changed("name") {
		form.Name = strings.TrimSpace(fl.name)
	}
	if changed("identifier") {
		form.Identifier = storage.NormalizeIdentifier(fl.identifier)
	}
	if changed("description") {
		form.Description = fl.description
	}
	if changed("status") {
		form.Status = parseInto(errs, "status", fl.status, validation.ParseProjectStatus)
	}
	return errs
}

// identifierTaken reports a conflict as a form error instead of a storage
// error.
func identifierTaken(err error) error {
	if errors.Is(err, storage.ErrConflict) {
		return checkForm("project", validation.FieldErrors{"identifier": "Identifier is already taken"})
	}
	return err
}

func (a *app) newProjectCreateCmd() *cobra.Command {
	var fl projectFlags
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a project",
		Long: `Create a project. Without --identifier one is derived from the name,
skipping stop words and adding a numeric suffix on collision.

Examples:
  rl project create "The Mobile App"          # identifier: mobile-app
  rl project create --name Website -i web`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				if cmd.Flags().Changed("name") {
					return errors.New("give the name as an argument or with --name, not both")
				}
				_ = cmd.Flags().Set("name", args[0])
			}

			form := validation.ProjectForm{Status: types.ProjectActive}
			parseErrs := fl.apply(cmd, &form)
			if form.Identifier == "" && form.Name != "" {
				var lookupErr error
				form.Identifier = idgen.SuggestIdentifier(form.Name, func(id string) bool {
					_, err := a.store.GetProjectByIdentifier(ctx, id)
					if err != nil && !errors.Is(err, storage.ErrNotFound) {
						lookupErr = err
					}
					return err == nil
				})
				if lookupErr != nil {
					return lookupErr
				}
			}
			if err := checkForm("project", mergeErrors(validation.ValidateProjectForm(form), parseErrs)); err != nil {
				return err
			}

			project := validation.NewProjectFromForm(form, a.ids, a.clock)
			if err := a.store.CreateProject(ctx, &project); err != nil {
				return identifierTaken(err)
			}
			if a.jsonOutput {
				a.outputJSON(project)
				return nil
			}
			a.printf("%s Created project %s (%s)\n", ui.RenderPassIcon(), ui.RenderAccent(project.Identifier), project.Name)
			return nil
		},
	}
	fl.register(cmd)
	return cmd
}

func (a *app) newProjectUpdateCmd() *cobra.Command {
	var fl projectFlags
	cmd := &cobra.Command{
		Use:   "update <project>",
		Short: "Update a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !anyChanged(cmd, "name", "identifier", "description", "status") {
				return withHint(errors.New("nothing to update"), "pass --name, --identifier, --description or --status")
			}
			existing, err := a.resolveProject(ctx, args[0])
			if err != nil {
				return err
			}
			form := validation.ProjectFormFrom(*existing)
			parseErrs := fl.apply(cmd, &form)
			if err := checkForm("project", mergeErrors(validation.ValidateProjectForm(form), parseErrs)); err != nil {
				return err
			}
			updated := validation.UpdateProjectFromForm(*existing, form, a.clock)
			if err := a.store.UpdateProject(ctx, &updated); err != nil {
				return identifierTaken(err)
			}
			if a.jsonOutput {
				a.outputJSON(updated)
				return nil
			}
			a.printf("%s Updated project %s\n", ui.RenderPassIcon(), ui.RenderAccent(updated.Identifier))
			return nil
		},
	}
	fl.register(cmd)
	return cmd
}

func (a *app) newProjectDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <project>",
		Short: "Delete a project with all of its issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := a.resolveProject(ctx, args[0])
			if err != nil {
				return err
			}
			if !force {
				issues, err := a.store.ListIssuesByProject(ctx, p.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stderr, "%s Would delete project %s (%s) and %s\n",
					ui.RenderWarnIcon(), p.Identifier, p.Name, plural(len(issues), "issue"))
				fmt.Fprintf(a.stderr, "Use --force to delete.\n")
				return &silentError{code: exitFailure}
			}
			if err := a.store.DeleteProject(ctx, p.ID); err != nil {
				return fmt.Errorf("delete project %s: %w", p.Identifier, err)
			}
			if a.jsonOutput {
				a.outputJSON(map[string]string{"deleted": p.ID})
				return nil
			}
			a.printf("%s Deleted project %s\n", ui.RenderPassIcon(), p.Identifier)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without the preview")
	return cmd
}
