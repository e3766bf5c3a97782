package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/types"
)

// resolveUser finds a user by email or id.
func (a *app) resolveUser(ctx context.Context, ref string) (*types.User, error) {
	ref = strings.TrimSpace(ref)
	if strings.Contains(ref, "@") {
		u, err := a.store.GetUserByEmail(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", ref, err)
		}
		return u, nil
	}
	u, err := a.store.GetUser(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", ref, err)
	}
	return u, nil
}

// resolveProject finds a project by identifier, then by id.
func (a *app) resolveProject(ctx context.Context, ref string) (*types.Project, error) {
	p, err := a.store.GetProjectByIdentifier(ctx, storage.NormalizeIdentifier(ref))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	p, err = a.store.GetProject(ctx, strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", ref, err)
	}
	return p, nil
}

// resolveIssue finds an issue by id or by an unambiguous id prefix.
func (a *app) resolveIssue(ctx context.Context, ref string) (*types.Issue, error) {
	ref = strings.TrimSpace(ref)
	issue, err := a.store.GetIssue(ctx, ref)
	if err == nil {
		return issue, nil
	}
	if !errors.Is(err, storage.ErrNotFound) || ref == "" {
		return nil, fmt.Errorf("issue %s: %w", ref, err)
	}

	all, err := a.store.ListIssues(ctx)
	if err != nil {
		return nil, err
	}
	var matches []types.Issue
	for _, candidate := range all {
		if strings.HasPrefix(candidate.ID, ref) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("issue %s: %w", ref, storage.ErrNotFound)
	case 1:
		return &matches[0], nil
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return nil, fmt.Errorf("issue id %q is ambiguous: %s", ref, strings.Join(ids, ", "))
}

// names maps ids to display labels for listings.
type names struct {
	users    map[string]string
	projects map[string]string
}

func (a *app) loadNames(ctx context.Context) (*names, error) {
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := a.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	n := &names{
		users:    make(map[string]string, len(users)),
		projects: make(map[string]string, len(projects)),
	}
	for _, u := range users {
		n.users[u.ID] = u.FullName()
	}
	for _, p := range projects {
		n.projects[p.ID] = p.Identifier
	}
	return n, nil
}

func (n *names) user(id string) string {
	if name, ok := n.users[id]; ok {
		return name
	}
	return id
}

func (n *names) assignee(id *string) string {
	if id == nil {
		return "-"
	}
	return n.user(*id)
}

func (n *names) project(id string) string {
	if ident, ok := n.projects[id]; ok {
		return ident
	}
	return id
}
