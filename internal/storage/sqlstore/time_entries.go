package sqlstore

import (
	"context"

	"github.com/steveyegge/redline/internal/types"
)

const timeEntryColumns = `id, issue_id, user_id, hours, activity_type, spent_on, comments, created_at`

func insertTimeEntry(ctx context.Context, q querier, e *types.TimeEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO time_entries (`+timeEntryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.IssueID, e.UserID, e.Hours, string(e.ActivityType), formatTime(e.SpentOn),
		e.Comments, formatTime(e.CreatedAt))
	return err
}

func scanTimeEntry(row scanner) (types.TimeEntry, error) {
	var (
		e                  types.TimeEntry
		activityType       string
		spentOn, createdAt string
	)
	if err := row.Scan(&e.ID, &e.IssueID, &e.UserID, &e.Hours, &activityType, &spentOn, &e.Comments, &createdAt); err != nil {
		return types.TimeEntry{}, err
	}
	e.ActivityType = types.ActivityType(activityType)
	var err error
	if e.SpentOn, err = parseTime(spentOn); err != nil {
		return types.TimeEntry{}, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return types.TimeEntry{}, err
	}
	return e, nil
}

// CreateTimeEntry inserts a time entry.
func (s *Store) CreateTimeEntry(ctx context.Context, entry *types.TimeEntry) error {
	err := s.withRetry(ctx, func() error { return insertTimeEntry(ctx, s.db, entry) })
	return s.dbErr(err, "create time entry %s", entry.ID)
}

// GetTimeEntry loads a time entry by id.
func (s *Store) GetTimeEntry(ctx context.Context, id string) (*types.TimeEntry, error) {
	e, err := scanTimeEntry(s.db.QueryRowContext(ctx,
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE id = ?`, id))
	if err != nil {
		return nil, s.dbErr(err, "get time entry %s", id)
	}
	return &e, nil
}

// ListTimeEntries returns every time entry.
func (s *Store) ListTimeEntries(ctx context.Context) ([]types.TimeEntry, error) {
	return s.listTimeEntries(ctx, `SELECT `+timeEntryColumns+` FROM time_entries ORDER BY created_at, id`)
}

// ListTimeEntriesByIssue returns the time logged against one issue.
func (s *Store) ListTimeEntriesByIssue(ctx context.Context, issueID string) ([]types.TimeEntry, error) {
	return s.listTimeEntries(ctx,
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE issue_id = ? ORDER BY created_at, id`, issueID)
}

func (s *Store) listTimeEntries(ctx context.Context, query string, args ...any) ([]types.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.dbErr(err, "list time entries")
	}
	entries, err := collect(rows, scanTimeEntry)
	return entries, s.dbErr(err, "list time entries")
}

// UpdateTimeEntry overwrites a time entry's editable fields.
func (s *Store) UpdateTimeEntry(ctx context.Context, entry *types.TimeEntry) error {
	res, err := s.exec(ctx, `
		UPDATE time_entries SET issue_id = ?, hours = ?, activity_type = ?, spent_on = ?, comments = ?
		WHERE id = ?
	`, entry.IssueID, entry.Hours, string(entry.ActivityType), formatTime(entry.SpentOn), entry.Comments, entry.ID)
	if err != nil {
		return s.dbErr(err, "update time entry %s", entry.ID)
	}
	return expectRow(res, "update time entry "+entry.ID)
}

// DeleteTimeEntry removes a time entry.
func (s *Store) DeleteTimeEntry(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return s.dbErr(err, "delete time entry %s", id)
	}
	return expectRow(res, "delete time entry "+id)
}
