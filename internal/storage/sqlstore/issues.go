package sqlstore

import (
	"context"
	"database/sql"

	"github.com/steveyegge/redline/internal/types"
)

const issueColumns = `id, project_id, tracker, subject, description, status, priority,
	due_date, estimated_hours, author_id, assignee_id, created_at, updated_at`

func insertIssue(ctx context.Context, q querier, i *types.Issue) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO issues (`+issueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, i.ID, i.ProjectID, string(i.Tracker), i.Subject, i.Description, string(i.Status), string(i.Priority),
		nullableTime(i.DueDate), nullableFloat(i.EstimatedHours), i.AuthorID, nullableString(i.AssigneeID),
		formatTime(i.CreatedAt), formatTime(i.UpdatedAt))
	return err
}

func scanIssue(row scanner) (types.Issue, error) {
	var (
		i                         types.Issue
		tracker, status, priority string
		dueDate, assigneeID       sql.NullString
		estimatedHours            sql.NullFloat64
		createdAt, updatedAt      string
	)
	if err := row.Scan(&i.ID, &i.ProjectID, &tracker, &i.Subject, &i.Description, &status, &priority,
		&dueDate, &estimatedHours, &i.AuthorID, &assigneeID, &createdAt, &updatedAt); err != nil {
		return types.Issue{}, err
	}
	i.Tracker = types.Tracker(tracker)
	i.Status = types.Status(status)
	i.Priority = types.Priority(priority)
	i.EstimatedHours = floatPtr(estimatedHours)
	i.AssigneeID = stringPtr(assigneeID)

	var err error
	if i.DueDate, err = timePtr(dueDate); err != nil {
		return types.Issue{}, err
	}
	if i.CreatedAt, err = parseTime(createdAt); err != nil {
		return types.Issue{}, err
	}
	if i.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return types.Issue{}, err
	}
	return i, nil
}

// CreateIssue inserts an issue.
func (s *Store) CreateIssue(ctx context.Context, issue *types.Issue) error {
	err := s.withRetry(ctx, func() error { return insertIssue(ctx, s.db, issue) })
	return s.dbErr(err, "create issue %s", issue.ID)
}

// GetIssue loads an issue by id.
func (s *Store) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	i, err := scanIssue(s.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id))
	if err != nil {
		return nil, s.dbErr(err, "get issue %s", id)
	}
	return &i, nil
}

// ListIssues returns every issue.
func (s *Store) ListIssues(ctx context.Context) ([]types.Issue, error) {
	return s.listIssues(ctx, `SELECT `+issueColumns+` FROM issues ORDER BY created_at, id`)
}

// ListIssuesByProject returns the issues of one project.
func (s *Store) ListIssuesByProject(ctx context.Context, projectID string) ([]types.Issue, error) {
	return s.listIssues(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE project_id = ? ORDER BY created_at, id`, projectID)
}

func (s *Store) listIssues(ctx context.Context, query string, args ...any) ([]types.Issue, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.dbErr(err, "list issues")
	}
	issues, err := collect(rows, scanIssue)
	return issues, s.dbErr(err, "list issues")
}

// UpdateIssue overwrites every mutable column. Callers build the record
// with validation.UpdateIssueFromForm or ChangeIssueStatus.
func (s *Store) UpdateIssue(ctx context.Context, issue *types.Issue) error {
	res, err := s.exec(ctx, `
		UPDATE issues SET project_id = ?, tracker = ?, subject = ?, description = ?, status = ?,
			priority = ?, due_date = ?, estimated_hours = ?, assignee_id = ?, updated_at = ?
		WHERE id = ?
	`, issue.ProjectID, string(issue.Tracker), issue.Subject, issue.Description, string(issue.Status),
		string(issue.Priority), nullableTime(issue.DueDate), nullableFloat(issue.EstimatedHours),
		nullableString(issue.AssigneeID), formatTime(issue.UpdatedAt), issue.ID)
	if err != nil {
		return s.dbErr(err, "update issue %s", issue.ID)
	}
	return expectRow(res, "update issue "+issue.ID)
}

// DeleteIssue removes an issue with its time entries and comments.
func (s *Store) DeleteIssue(ctx context.Context, id string) error {
	return s.withTx(ctx, func(q querier) error {
		for _, stmt := range []string{
			`DELETE FROM comments WHERE issue_id = ?`,
			`DELETE FROM time_entries WHERE issue_id = ?`,
		} {
			if _, err := q.ExecContext(ctx, stmt, id); err != nil {
				return s.dbErr(err, "delete issue %s", id)
			}
		}
		res, err := q.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
		if err != nil {
			return s.dbErr(err, "delete issue %s", id)
		}
		return expectRow(res, "delete issue "+id)
	})
}
