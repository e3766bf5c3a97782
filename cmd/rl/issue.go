package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/redline/internal/query"
	"github.com/steveyegge/redline/internal/types"
	"github.com/steveyegge/redline/internal/ui"
	"github.com/steveyegge/redline/internal/validation"
)

func (a *app) newIssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issue",
		Aliases: []string{"issues"},
		GroupID: "tracking",
		Short:   "List, show and edit issues",
	}
	cmd.AddCommand(
		a.newIssueListCmd(),
		a.newIssueShowCmd(),
		a.newIssueCreateCmd(),
		a.newIssueUpdateCmd(),
		a.newIssueDeleteCmd(),
	)
	return cmd
}

type issueListOptions struct {
	status   []string
	priority []string
	tracker  []string
	project  []string
	assignee string
	search   string
	sort     string
	query    string
	open     bool
	closed   bool
	overdue  bool
}

func (a *app) newIssueListCmd() *cobra.Command {
	var opts issueListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues",
		Long: `List issues matching the given filters.

Repeated or comma-separated values match any of them. Filters combine with AND.

Examples:
  rl issue list --status new,in_progress --priority urgent
  rl issue list --project web --assignee none
  rl issue list --overdue --sort due
  rl issue list --query 'priority>=high AND updated>-7d'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			issues, err := a.listIssues(ctx, opts)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				a.outputJSON(nonNil(issues))
				return nil
			}
			if len(issues) == 0 {
				a.printf("No issues found.\n")
				return nil
			}
			n, err := a.loadNames(ctx)
			if err != nil {
				return err
			}
			return a.page(a.renderIssueTable(issues, n) + "\n" + plural(len(issues), "issue") + "\n")
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&opts.status, "status", "s", nil, "Status (new, in_progress, resolved, closed, rejected)")
	f.StringSliceVarP(&opts.priority, "priority", "p", nil, "Priority (low, normal, high, urgent, immediate)")
	f.StringSliceVarP(&opts.tracker, "tracker", "t", nil, "Tracker (bug, feature, support, task)")
	f.StringSliceVar(&opts.project, "project", nil, "Project identifier or id")
	f.StringVarP(&opts.assignee, "assignee", "a", "", "Assignee email or id, 'me', or 'none' for unassigned")
	f.StringVar(&opts.search, "search", "", "Case-insensitive text in subject, description or id")
	f.StringVar(&opts.sort, "sort", "", "Sort as field-dir: priority, status, created, updated, due, subject (default priority-desc)")
	f.StringVar(&opts.query, "query", "", "Query expression, e.g. 'status=new AND priority>high'")
	f.BoolVar(&opts.open, "open", false, "Only open issues (new, in_progress, resolved)")
	f.BoolVar(&opts.closed, "closed", false, "Only closed issues (closed, rejected)")
	f.BoolVar(&opts.overdue, "overdue", false, "Only open issues past their due date")
	cmd.MarkFlagsMutuallyExclusive("open", "closed")
	return cmd
}

func (a *app) issueFilters(ctx context.Context, opts issueListOptions) (query.IssueFilters, error) {
	var f query.IssueFilters
	var err error
	if f.Status, err = validation.ParseList(opts.status, validation.ParseStatus); err != nil {
		return f, err
	}
	if f.Priority, err = validation.ParseList(opts.priority, validation.ParsePriority); err != nil {
		return f, err
	}
	if f.Tracker, err = validation.ParseList(opts.tracker, validation.ParseTracker); err != nil {
		return f, err
	}
	f.ProjectID, err = validation.ParseList(opts.project, func(ref string) (string, error) {
		p, err := a.resolveProject(ctx, ref)
		if err != nil {
			return "", err
		}
		return p.ID, nil
	})
	if err != nil {
		return f, err
	}

	switch ref := strings.TrimSpace(opts.assignee); {
	case ref == "":
	case isNone(ref):
		f.Assignee = query.Unassigned()
	case ref == "me":
		u, err := a.currentUser(ctx)
		if err != nil {
			return f, err
		}
		f.Assignee = query.AssignedTo(u.ID)
	default:
		u, err := a.resolveUser(ctx, ref)
		if err != nil {
			return f, err
		}
		f.Assignee = query.AssignedTo(u.ID)
	}
	f.Search = opts.search
	return f, nil
}

// listIssues applies the list options in order: field filters, the
// open/closed/overdue views, the query expression, then the sort.
func (a *app) listIssues(ctx context.Context, opts issueListOptions) ([]types.Issue, error) {
	filters, err := a.issueFilters(ctx, opts)
	if err != nil {
		return nil, err
	}
	sortBy := types.DefaultIssueSort()
	if opts.sort != "" {
		if sortBy, err = types.ParseIssueSort(opts.sort); err != nil {
			return nil, err
		}
	}

	issues, err := a.store.ListIssues(ctx)
	if err != nil {
		return nil, err
	}
	issues = query.FilterIssues(issues, filters)
	switch {
	case opts.open:
		issues = query.OpenIssues(issues)
	case opts.closed:
		issues = query.ClosedIssues(issues)
	}
	if opts.overdue {
		issues = query.OverdueIssues(issues, a.clock)
	}
	if opts.query != "" {
		result, err := query.EvaluateAt(opts.query, a.clock.Now())
		if err != nil {
			return nil, fmt.Errorf("invalid query: %w", err)
		}
		issues = result.Apply(issues)
	}
	return query.SortIssues(issues, sortBy), nil
}

func (a *app) renderIssueTable(issues []types.Issue, n *names) string {
	subjectWidth := max(ui.TerminalWidth(120)-90, 30)
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		due := formatDate(issue.DueDate)
		if query.IsOverdue(issue, a.clock) {
			due = ui.RenderFail(due)
		}
		rows = append(rows, []string{
			issue.ID,
			n.project(issue.ProjectID),
			string(issue.Tracker),
			ui.RenderStatus(issue.Status),
			ui.RenderPriority(issue.Priority),
			n.assignee(issue.AssigneeID),
			due,
			ui.Truncate(issue.Subject, subjectWidth),
		})
	}
	return ui.Table([]string{"id", "project", "tracker", "status", "priority", "assignee", "due", "subject"}, rows)
}

type issueDetail struct {
	Issue       types.Issue       `json:"issue"`
	Overdue     bool              `json:"overdue"`
	SpentHours  float64           `json:"spentHours"`
	Comments    []types.Comment   `json:"comments"`
	TimeEntries []types.TimeEntry `json:"timeEntries"`
}

func (a *app) newIssueShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <issue-id>",
		Short: "Show an issue with its comments and logged time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			issue, err := a.resolveIssue(ctx, args[0])
			if err != nil {
				return err
			}
			comments, err := a.store.ListCommentsByIssue(ctx, issue.ID)
			if err != nil {
				return err
			}
			entries, err := a.store.ListTimeEntriesByIssue(ctx, issue.ID)
			if err != nil {
				return err
			}
			detail := issueDetail{
				Issue:       *issue,
				Overdue:     query.IsOverdue(*issue, a.clock),
				SpentHours:  query.TotalHours(entries),
				Comments:    nonNil(comments),
				TimeEntries: nonNil(entries),
			}
			if a.jsonOutput {
				a.outputJSON(detail)
				return nil
			}
			n, err := a.loadNames(ctx)
			if err != nil {
				return err
			}
			return a.page(renderIssueDetail(detail, n))
		},
	}
}

func renderIssueDetail(d issueDetail, n *names) string {
	var b strings.Builder
	issue := d.Issue
	fmt.Fprintf(&b, "%s %s\n", ui.RenderAccent(issue.ID), ui.RenderBold(issue.Subject))
	fmt.Fprintf(&b, "%s\n", ui.RenderSeparator())
	field := func(label, value string) {
		fmt.Fprintf(&b, "%-10s %s\n", label+":", value)
	}
	field("Project", n.project(issue.ProjectID))
	field("Tracker", string(issue.Tracker))
	field("Status", ui.RenderStatus(issue.Status))
	field("Priority", ui.RenderPriority(issue.Priority))
	field("Author", n.user(issue.AuthorID))
	field("Assignee", n.assignee(issue.AssigneeID))
	due := formatDate(issue.DueDate)
	if d.Overdue {
		due += " " + ui.RenderFail("(overdue)")
	}
	field("Due", due)
	field("Estimate", formatOptionalHours(issue.EstimatedHours))
	field("Spent", formatHours(d.SpentHours))
	field("Created", formatTime(issue.CreatedAt))
	field("Updated", formatTime(issue.UpdatedAt))
	if issue.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", ui.RenderMarkdown(issue.Description, ui.TerminalWidth(80)))
	}
	if len(d.Comments) > 0 {
		fmt.Fprintf(&b, "\n%s\n", ui.RenderCategory("Comments"))
		for _, c := range d.Comments {
			fmt.Fprintf(&b, "[%s] at %s\n", n.user(c.AuthorID), formatTime(c.CreatedAt))
			for _, line := range strings.Split(c.Content, "\n") {
				fmt.Fprintf(&b, "  %s\n", line)
			}
		}
	}
	return b.String()
}

var issueFieldFlags = []string{
	"project", "tracker", "subject", "description", "priority", "assignee", "due", "estimate", "status",
}

// issueFlags are the editable fields shared by create and update.
type issueFlags struct {
	project     string
	tracker     string
	subject     string
	description string
	priority    string
	assignee    string
	due         string
	estimate    string
}

func (fl *issueFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&fl.project, "project", "", "Project identifier or id")
	f.StringVarP(&fl.tracker, "tracker", "t", "", "Tracker (bug, feature, support, task)")
	f.StringVar(&fl.subject, "subject", "", "Subject line")
	f.StringVarP(&fl.description, "description", "d", "", "Description")
	f.StringVarP(&fl.priority, "priority", "p", "", "Priority (low, normal, high, urgent, immediate)")
	f.StringVarP(&fl.assignee, "assignee", "a", "", "Assignee email or id ('none' to clear)")
	f.StringVar(&fl.due, "due", "", "Due date: YYYY-MM-DD, +3d, 'next friday' ('none' to clear)")
	f.StringVar(&fl.estimate, "estimate", "", "Estimated hours ('none' to clear)")
}

// apply copies the flags the user set onto form. Parse failures are
// collected in the returned FieldErrors.
func (fl *issueFlags) apply(ctx context.Context, a *app, cmd *cobra.Command, form *validation.IssueForm) (validation.FieldErrors, error) {
	errs := validation.FieldErrors{}
	changed := cmd.Flags().Changed

	if changed("project") {
		p, err := a.resolveProject(ctx, fl.project)
		if err != nil {
			return nil, err
		}
		form.ProjectID = p.ID
	}
	if changed("tracker") {
		form.Tracker = parseInto(errs, "tracker", fl.tracker, validation.ParseTracker)
	}
	if changed("subject") {
		form.Subject = strings.TrimSpace(fl.subject)
	}
	if changed("description") {
		form.Description = fl.description
	}
	if changed("priority") {
		form.Priority = parseInto(errs, "priority", fl.priority, validation.ParsePriority)
	}
	if changed("assignee") {
		if isNone(fl.assignee) {
			form.AssigneeID = nil
		} else {
			u, err := a.resolveUser(ctx, fl.assignee)
			if err != nil {
				return nil, err
			}
			form.AssigneeID = &u.ID
		}
	}
	if changed("due") {
		form.DueDate = parseInto(errs, "dueDate", fl.due, dayParser(a.clock.Now()))
	}
	if changed("estimate") {
		form.EstimatedHours = parseInto(errs, "estimatedHours", fl.estimate, parseHoursFlag)
	}
	return errs, nil
}

func (a *app) newIssueCreateCmd() *cobra.Command {
	var fl issueFlags
	var interactive bool
	cmd := &cobra.Command{
		Use:   "create [subject]",
		Short: "Create an issue",
		Long: `Create an issue in a project. The acting user becomes the author.

Examples:
  rl issue create "Login page returns 500" --project web --tracker bug -p high
  rl issue create --project web -t task --subject "Write release notes" --due +1w
  rl issue create --form --project web`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				if cmd.Flags().Changed("subject") {
					return errors.New("give the subject as an argument or with --subject, not both")
				}
				_ = cmd.Flags().Set("subject", args[0])
			}
			author, err := a.currentUser(ctx)
			if err != nil {
				return err
			}

			var form validation.IssueForm
			if interactive {
				in, err := fl.prefill(ctx, a, cmd.Flags().Changed)
				if err != nil {
					return err
				}
				if form, err = a.runIssueForm(ctx, in); err != nil {
					if errors.Is(err, errFormCancelled) {
						fmt.Fprintln(a.stderr, "Issue creation cancelled.")
						return nil
					}
					return err
				}
			} else {
				parseErrs, err := fl.apply(ctx, a, cmd, &form)
				if err != nil {
					return err
				}
				if err := checkForm("issue", mergeErrors(validation.ValidateIssueForm(form), parseErrs)); err != nil {
					return err
				}
			}

			issue := validation.NewIssueFromForm(form, author.ID, a.ids, a.clock)
			if err := a.store.CreateIssue(ctx, &issue); err != nil {
				return fmt.Errorf("create issue: %w", err)
			}
			if a.jsonOutput {
				a.outputJSON(issue)
				return nil
			}
			a.printf("%s Created issue %s: %s\n", ui.RenderPassIcon(), ui.RenderAccent(issue.ID), issue.Subject)
			return nil
		},
	}
	fl.register(cmd)
	cmd.Flags().BoolVar(&interactive, "form", false, "Fill in the issue in an interactive form")
	return cmd
}

func (a *app) newIssueUpdateCmd() *cobra.Command {
	var fl issueFlags
	var status string
	cmd := &cobra.Command{
		Use:   "update <issue-id>",
		Short: "Update an issue's fields or status",
		Long: `Update an issue. Only the flags you pass are changed.

Examples:
  rl issue update c1a2 --status in_progress --assignee bob@example.com
  rl issue update c1a2 --due none --estimate 6`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !anyChanged(cmd, issueFieldFlags...) {
				return withHint(errors.New("nothing to update"), "pass at least one field flag, see 'rl issue update --help'")
			}
			existing, err := a.resolveIssue(ctx, args[0])
			if err != nil {
				return err
			}

			form := validation.IssueFormFrom(*existing)
			parseErrs, err := fl.apply(ctx, a, cmd, &form)
			if err != nil {
				return err
			}
			var newStatus types.Status
			if cmd.Flags().Changed("status") {
				newStatus = parseInto(parseErrs, "status", status, validation.ParseStatus)
			}
			if err := checkForm("issue", mergeErrors(validation.ValidateIssueForm(form), parseErrs)); err != nil {
				return err
			}

			updated := validation.UpdateIssueFromForm(*existing, form, a.clock)
			if newStatus != "" {
				if updated, err = validation.ChangeIssueStatus(updated, newStatus, a.clock); err != nil {
					return err
				}
			}
			if err := a.store.UpdateIssue(ctx, &updated); err != nil {
				return fmt.Errorf("update issue %s: %w", updated.ID, err)
			}
			if a.jsonOutput {
				a.outputJSON(updated)
				return nil
			}
			a.printf("%s Updated issue %s\n", ui.RenderPassIcon(), ui.RenderAccent(updated.ID))
			return nil
		},
	}
	fl.register(cmd)
	cmd.Flags().StringVarP(&status, "status", "s", "", "Status (new, in_progress, resolved, closed, rejected)")
	return cmd
}

func (a *app) newIssueDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <issue-id>",
		Short: "Delete an issue with its comments and time entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			issue, err := a.resolveIssue(ctx, args[0])
			if err != nil {
				return err
			}
			if !force {
				comments, err := a.store.ListCommentsByIssue(ctx, issue.ID)
				if err != nil {
					return err
				}
				entries, err := a.store.ListTimeEntriesByIssue(ctx, issue.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stderr, "%s Would delete issue %s: %s\n", ui.RenderWarnIcon(), issue.ID, issue.Subject)
				fmt.Fprintf(a.stderr, "  with %s and %s\n", plural(len(comments), "comment"), plural(len(entries), "time entry"))
				fmt.Fprintf(a.stderr, "Use --force to delete.\n")
				return &silentError{code: exitFailure}
			}
			if err := a.store.DeleteIssue(ctx, issue.ID); err != nil {
				return fmt.Errorf("delete issue %s: %w", issue.ID, err)
			}
			if a.jsonOutput {
				a.outputJSON(map[string]string{"deleted": issue.ID})
				return nil
			}
			a.printf("%s Deleted issue %s\n", ui.RenderPassIcon(), issue.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without the preview")
	return cmd
}

func anyChanged(cmd *cobra.Command, flags ...string) bool {
	for _, name := range flags {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// nonNil turns a nil slice into an empty one so JSON output is [] not null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
