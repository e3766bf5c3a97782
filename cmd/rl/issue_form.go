package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/steveyegge/redline/internal/types"
	"github.com/steveyegge/redline/internal/validation"
)

// issueFormInput holds the raw text of the interactive issue form. Project
// and assignee are ids picked from a list.
type issueFormInput struct {
	project     string
	tracker     string
	subject     string
	description string
	priority    string
	assignee    string
	due         string
	estimate    string
}

// build turns the input into an IssueForm and reports every invalid field,
// parse failures included.
func (in *issueFormInput) build(now time.Time) (validation.IssueForm, validation.FieldErrors) {
	parseErrs := validation.FieldErrors{}
	form := validation.IssueForm{
		ProjectID:   in.project,
		Subject:     strings.TrimSpace(in.subject),
		Description: in.description,
	}
	if in.tracker != "" {
		form.Tracker = parseInto(parseErrs, "tracker", in.tracker, validation.ParseTracker)
	}
	if in.priority != "" {
		form.Priority = parseInto(parseErrs, "priority", in.priority, validation.ParsePriority)
	}
	if in.assignee != "" {
		id := in.assignee
		form.AssigneeID = &id
	}
	if strings.TrimSpace(in.due) != "" {
		form.DueDate = parseInto(parseErrs, "dueDate", in.due, dayParser(now))
	}
	if strings.TrimSpace(in.estimate) != "" {
		form.EstimatedHours = parseInto(parseErrs, "estimatedHours", in.estimate, parseHoursFlag)
	}
	return form, mergeErrors(validation.ValidateIssueForm(form), parseErrs)
}

// check validates one field as it is edited: it stores the new value in
// dst and returns that field's error, if any.
func (in *issueFormInput) check(field string, dst *string, now time.Time) func(string) error {
	return func(v string) error {
		*dst = v
		_, errs := in.build(now)
		if msg, ok := errs[field]; ok {
			return errors.New(msg)
		}
		return nil
	}
}

// prefill copies the flags the user set into the form input.
func (fl *issueFlags) prefill(ctx context.Context, a *app, changed func(string) bool) (*issueFormInput, error) {
	in := &issueFormInput{
		tracker:     fl.tracker,
		subject:     fl.subject,
		description: fl.description,
		priority:    fl.priority,
		due:         fl.due,
		estimate:    fl.estimate,
	}
	if in.priority == "" {
		in.priority = string(types.PriorityNormal)
	}
	if changed("project") {
		p, err := a.resolveProject(ctx, fl.project)
		if err != nil {
			return nil, err
		}
		in.project = p.ID
	}
	if changed("assignee") && !isNone(fl.assignee) {
		u, err := a.resolveUser(ctx, fl.assignee)
		if err != nil {
			return nil, err
		}
		in.assignee = u.ID
	}
	return in, nil
}

// runIssueForm shows the interactive issue form and returns the filled
// IssueForm. Each field is checked by the same validator as the flags.
func (a *app) runIssueForm(ctx context.Context, in *issueFormInput) (validation.IssueForm, error) {
	if !a.stdinIsTTY() {
		return validation.IssueForm{}, withHint(errors.New("--form needs an interactive terminal"),
			"pass the fields as flags instead, see 'rl issue create --help'")
	}
	projects, err := a.store.ListProjects(ctx)
	if err != nil {
		return validation.IssueForm{}, err
	}
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return validation.IssueForm{}, err
	}

	projectOpts := make([]huh.Option[string], 0, len(projects))
	for _, p := range projects {
		if p.Status == types.ProjectActive {
			projectOpts = append(projectOpts, huh.NewOption(fmt.Sprintf("%s (%s)", p.Name, p.Identifier), p.ID))
		}
	}
	if len(projectOpts) == 0 {
		return validation.IssueForm{}, withHint(errors.New("no active projects"), "create one with 'rl project create'")
	}
	assigneeOpts := []huh.Option[string]{huh.NewOption("Nobody", "")}
	for _, u := range users {
		assigneeOpts = append(assigneeOpts, huh.NewOption(fmt.Sprintf("%s <%s>", u.FullName(), u.Email), u.ID))
	}
	trackerOpts := make([]huh.Option[string], 0, len(types.AllTrackers()))
	for _, t := range types.AllTrackers() {
		trackerOpts = append(trackerOpts, huh.NewOption(string(t), string(t)))
	}
	priorityOpts := make([]huh.Option[string], 0, len(types.AllPriorities()))
	for _, p := range types.AllPriorities() {
		priorityOpts = append(priorityOpts, huh.NewOption(string(p), string(p)))
	}

	now := a.clock.Now()
	confirmed := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Project").
				Options(projectOpts...).
				Value(&in.project).
				Validate(in.check("projectId", &in.project, now)),
			huh.NewSelect[string]().
				Title("Tracker").
				Options(trackerOpts...).
				Value(&in.tracker).
				Validate(in.check("tracker", &in.tracker, now)),
			huh.NewInput().
				Title("Subject").
				Description(fmt.Sprintf("%d to %d characters", validation.MinSubjectLength, validation.MaxSubjectLength)).
				Value(&in.subject).
				Validate(in.check("subject", &in.subject, now)),
			huh.NewText().
				Title("Description").
				CharLimit(10000).
				Value(&in.description),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOpts...).
				Value(&in.priority),
			huh.NewSelect[string]().
				Title("Assignee").
				Options(assigneeOpts...).
				Value(&in.assignee),
			huh.NewInput().
				Title("Due date").
				Description("YYYY-MM-DD, +3d or 'next friday' (optional)").
				Value(&in.due).
				Validate(in.check("dueDate", &in.due, now)),
			huh.NewInput().
				Title("Estimated hours").
				Description("Optional").
				Value(&in.estimate).
				Validate(in.check("estimatedHours", &in.estimate, now)),
			huh.NewConfirm().
				Title("Create this issue?").
				Affirmative("Create").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithInput(a.stdin).WithOutput(a.stderr)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return validation.IssueForm{}, errFormCancelled
		}
		return validation.IssueForm{}, fmt.Errorf("issue form: %w", err)
	}
	if !confirmed {
		return validation.IssueForm{}, errFormCancelled
	}

	issueForm, errs := in.build(now)
	if err := checkForm("issue", errs); err != nil {
		return validation.IssueForm{}, err
	}
	return issueForm, nil
}

var errFormCancelled = errors.New("issue creation cancelled")
