package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/redline/internal/query"
	"github.com/steveyegge/redline/internal/types"
	"github.com/steveyegge/redline/internal/ui"
	"github.com/steveyegge/redline/internal/validation"
)

func (a *app) newTimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "time",
		GroupID: "tracking",
		Short:   "Log and report time spent on issues",
	}
	cmd.AddCommand(a.newTimeListCmd(), a.newTimeLogCmd(), a.newTimeUpdateCmd(), a.newTimeDeleteCmd())
	return cmd
}

type timeListOptions struct {
	issue    string
	user     string
	activity string
	from     string
	to       string
	search   string
	sort     string
	group    string
	total    bool
}

// timeGroup is one block of grouped time entries.
type timeGroup struct {
	Key        string            `json:"key"`
	Label      string            `json:"label"`
	TotalHours float64           `json:"totalHours"`
	Entries    []types.TimeEntry `json:"entries"`
}

func (a *app) newTimeListCmd() *cobra.Command {
	var opts timeListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time entries",
		Long: `List time entries, newest first.

Examples:
  rl time list --user me --from -7d
  rl time list --issue c1a2 --total
  rl time list --from 2024-03-01 --to 2024-03-31 --group user`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			filters := query.TimeEntryFilters{
				ActivityType: types.ActivityType(strings.ToLower(strings.TrimSpace(opts.activity))),
				Search:       opts.search,
			}
			var err error
			now := a.clock.Now()
			if opts.from != "" {
				if filters.From, err = dayParser(now)(opts.from); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}
			if opts.to != "" {
				if filters.To, err = dayParser(now)(opts.to); err != nil {
					return fmt.Errorf("--to: %w", err)
				}
			}
			if opts.issue != "" {
				issue, err := a.resolveIssue(ctx, opts.issue)
				if err != nil {
					return err
				}
				filters.IssueID = issue.ID
			}
			if opts.user != "" {
				var u *types.User
				if opts.user == "me" {
					u, err = a.currentUser(ctx)
				} else {
					u, err = a.resolveUser(ctx, opts.user)
				}
				if err != nil {
					return err
				}
				filters.UserID = u.ID
			}
			var field types.TimeEntrySortField
			var dir types.SortDirection
			if opts.sort != "" {
				if field, dir, err = types.ParseTimeEntrySort(opts.sort); err != nil {
					return err
				}
			}

			entries, err := a.store.ListTimeEntries(ctx)
			if err != nil {
				return err
			}
			entries = query.SortTimeEntries(query.FilterTimeEntries(entries, filters), field, dir)

			n, err := a.loadNames(ctx)
			if err != nil {
				return err
			}
			subjects, err := a.issueSubjects(cmd)
			if err != nil {
				return err
			}

			switch opts.group {
			case "":
				return a.printTimeEntries(entries, opts.total, n, subjects)
			case "issue", "user":
				return a.printTimeGroups(groupTimeEntries(entries, opts.group, n, subjects), opts.total)
			default:
				return fmt.Errorf("invalid --group %q (valid: issue, user)", opts.group)
			}
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.issue, "issue", "", "Issue id")
	f.StringVar(&opts.user, "user", "", "User email or id, or 'me'")
	f.StringVar(&opts.activity, "activity", "", "Activity type")
	f.StringVar(&opts.from, "from", "", "First day, inclusive (YYYY-MM-DD, -7d, 'last monday')")
	f.StringVar(&opts.to, "to", "", "Last day, inclusive")
	f.StringVar(&opts.search, "search", "", "Case-insensitive text in comments")
	f.StringVar(&opts.sort, "sort", "", "Sort as field-dir: spentOn, hours, created (default spentOn-desc)")
	f.StringVar(&opts.group, "group", "", "Group by issue or user")
	f.BoolVar(&opts.total, "total", false, "Print the total hours")
	return cmd
}

func (a *app) issueSubjects(cmd *cobra.Command) (map[string]string, error) {
	issues, err := a.store.ListIssues(cmd.Context())
	if err != nil {
		return nil, err
	}
	subjects := make(map[string]string, len(issues))
	for _, issue := range issues {
		subjects[issue.ID] = issue.Subject
	}
	return subjects, nil
}

func groupTimeEntries(entries []types.TimeEntry, by string, n *names, subjects map[string]string) []timeGroup {
	var grouped map[string][]types.TimeEntry
	var label func(string) string
	if by == "user" {
		grouped = query.TimeEntriesByUser(entries)
		label = n.user
	} else {
		grouped = query.TimeEntriesByIssue(entries)
		label = func(id string) string { return id + " " + subjects[id] }
	}

	groups := make([]timeGroup, 0, len(grouped))
	for key, items := range grouped {
		groups = append(groups, timeGroup{
			Key:        key,
			Label:      label(key),
			TotalHours: query.TotalHours(items),
			Entries:    items,
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Label < groups[j].Label })
	return groups
}

func timeEntryRows(entries []types.TimeEntry, n *names, subjects map[string]string) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.SpentOn.UTC().Format("2006-01-02"),
			formatHours(e.Hours),
			string(e.ActivityType),
			n.user(e.UserID),
			e.IssueID,
			ui.Truncate(subjects[e.IssueID], 30),
			ui.Truncate(e.Comments, 40),
		})
	}
	return rows
}

var timeEntryHeader = []string{"date", "hours", "activity", "user", "issue", "subject", "comments"}

func (a *app) printTimeEntries(entries []types.TimeEntry, total bool, n *names, subjects map[string]string) error {
	if a.jsonOutput {
		if total {
			a.outputJSON(map[string]any{"entries": nonNil(entries), "totalHours": query.TotalHours(entries)})
		} else {
			a.outputJSON(nonNil(entries))
		}
		return nil
	}
	if len(entries) == 0 {
		a.printf("No time entries found.\n")
		return nil
	}
	out := ui.Table(timeEntryHeader, timeEntryRows(entries, n, subjects))
	if total {
		out += fmt.Sprintf("\nTotal: %s\n", ui.RenderBold(formatHours(query.TotalHours(entries))))
	}
	return a.page(out)
}

func (a *app) printTimeGroups(groups []timeGroup, total bool) error {
	if a.jsonOutput {
		if total {
			var sum float64
			for _, g := range groups {
				sum += g.TotalHours
			}
			a.outputJSON(map[string]any{"groups": groups, "totalHours": sum})
		} else {
			a.outputJSON(groups)
		}
		return nil
	}
	if len(groups) == 0 {
		a.printf("No time entries found.\n")
		return nil
	}
	var b strings.Builder
	var sum float64
	for _, g := range groups {
		sum += g.TotalHours
		fmt.Fprintf(&b, "%s  %s\n", ui.RenderCategory(g.Label), formatHours(g.TotalHours))
		for _, e := range g.Entries {
			fmt.Fprintf(&b, "  %s  %-6s %-14s %s\n",
				e.SpentOn.UTC().Format("2006-01-02"), formatHours(e.Hours), e.ActivityType, ui.Truncate(e.Comments, 50))
		}
		b.WriteString("\n")
	}
	if total {
		fmt.Fprintf(&b, "Total: %s\n", ui.RenderBold(formatHours(sum)))
	}
	return a.page(b.String())
}

func (a *app) newTimeLogCmd() *cobra.Command {
	var hours, activity, date, comments string
	cmd := &cobra.Command{
		Use:   "log <issue-id>",
		Short: "Log time against an issue as the acting user",
		Long: `Log time against an issue as the acting user.

Examples:
  rl time log c1a2 --hours 1.5 --activity development
  rl time log c1a2 --hours 2 --activity testing --date yesterday -m "regression run"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			issue, err := a.resolveIssue(ctx, args[0])
			if err != nil {
				return err
			}

			parseErrs := validation.FieldErrors{}
			form := validation.TimeEntryForm{
				IssueID:      issue.ID,
				ActivityType: types.ActivityType(strings.ToLower(strings.TrimSpace(activity))),
				Comments:     comments,
			}
			if cmd.Flags().Changed("hours") {
				form.Hours = parseInto(parseErrs, "hours", hours, parseHoursFlag)
			}
			form.SpentOn = parseInto(parseErrs, "spentOn", date, dayParser(a.clock.Now()))
			if err := checkForm("time entry", mergeErrors(validation.ValidateTimeEntryForm(form), parseErrs)); err != nil {
				return err
			}

			if _, err := validation.ParseActivityType(activity); err != nil {
				a.warn("%v; logging it as a custom activity", err)
			}

			entry := validation.NewTimeEntryFromForm(form, user.ID, a.ids, a.clock)
			if err := a.store.CreateTimeEntry(ctx, &entry); err != nil {
				return fmt.Errorf("log time: %w", err)
			}
			if a.jsonOutput {
				a.outputJSON(entry)
				return nil
			}
			a.printf("%s Logged %s of %s on %s for %s\n", ui.RenderPassIcon(),
				formatHours(entry.Hours), entry.ActivityType, issue.ID, entry.SpentOn.Format("2006-01-02"))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&hours, "hours", "", "Hours spent (0 < hours <= 24)")
	f.StringVar(&activity, "activity", "", "Activity: design, development, testing, documentation, support, management, other")
	f.StringVar(&date, "date", "today", "Day the time was spent")
	f.StringVarP(&comments, "message", "m", "", "Comment")
	return cmd
}

func (a *app) newTimeUpdateCmd() *cobra.Command {
	var issueRef, hours, activity, date, comments string
	cmd := &cobra.Command{
		Use:   "update <entry-id>",
		Short: "Change a logged time entry",
		Long: `Change a logged time entry. Only the flags you pass are changed.

Examples:
  rl time update t1 --hours 2.5
  rl time update t1 --issue c1a2 --date yesterday -m "moved from the wrong issue"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !anyChanged(cmd, "issue", "hours", "activity", "date", "message") {
				return withHint(errors.New("nothing to update"), "pass at least one of --issue, --hours, --activity, --date, -m")
			}
			existing, err := a.store.GetTimeEntry(ctx, args[0])
			if err != nil {
				return err
			}

			parseErrs := validation.FieldErrors{}
			form := validation.TimeEntryFormFrom(*existing)
			if cmd.Flags().Changed("issue") {
				issue, err := a.resolveIssue(ctx, issueRef)
				if err != nil {
					return err
				}
				form.IssueID = issue.ID
			}
			if cmd.Flags().Changed("hours") {
				form.Hours = parseInto(parseErrs, "hours", hours, parseHoursFlag)
			}
			if cmd.Flags().Changed("activity") {
				form.ActivityType = types.ActivityType(strings.ToLower(strings.TrimSpace(activity)))
			}
			if cmd.Flags().Changed("date") {
				form.SpentOn = parseInto(parseErrs, "spentOn", date, dayParser(a.clock.Now()))
			}
			if cmd.Flags().Changed("message") {
				form.Comments = comments
			}
			if err := checkForm("time entry", mergeErrors(validation.ValidateTimeEntryForm(form), parseErrs)); err != nil {
				return err
			}
			if cmd.Flags().Changed("activity") {
				if _, err := validation.ParseActivityType(activity); err != nil {
					a.warn("%v; logging it as a custom activity", err)
				}
			}

			entry := validation.UpdateTimeEntryFromForm(*existing, form)
			if err := a.store.UpdateTimeEntry(ctx, &entry); err != nil {
				return fmt.Errorf("update time entry: %w", err)
			}
			if a.jsonOutput {
				a.outputJSON(entry)
				return nil
			}
			a.printf("%s Updated %s: %s of %s on %s for %s\n", ui.RenderPassIcon(), entry.ID,
				formatHours(entry.Hours), entry.ActivityType, entry.IssueID, entry.SpentOn.Format("2006-01-02"))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&issueRef, "issue", "", "Move the entry to another issue")
	f.StringVar(&hours, "hours", "", "Hours spent (0 < hours <= 24)")
	f.StringVar(&activity, "activity", "", "Activity type")
	f.StringVar(&date, "date", "", "Day the time was spent")
	f.StringVarP(&comments, "message", "m", "", "Comment")
	return cmd
}

func (a *app) newTimeDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete a time entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entry, err := a.store.GetTimeEntry(ctx, args[0])
			if err != nil {
				return err
			}
			if !force {
				fmt.Fprintf(a.stderr, "%s Would delete time entry %s: %s of %s on %s for %s\n", ui.RenderWarnIcon(), entry.ID,
					formatHours(entry.Hours), entry.ActivityType, entry.IssueID, entry.SpentOn.Format("2006-01-02"))
				fmt.Fprintf(a.stderr, "Use --force to delete.\n")
				return &silentError{code: exitFailure}
			}
			if err := a.store.DeleteTimeEntry(ctx, entry.ID); err != nil {
				return fmt.Errorf("delete time entry %s: %w", entry.ID, err)
			}
			if a.jsonOutput {
				a.outputJSON(map[string]string{"deleted": entry.ID})
				return nil
			}
			a.printf("%s Deleted time entry %s\n", ui.RenderPassIcon(), entry.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without the preview")
	return cmd
}
