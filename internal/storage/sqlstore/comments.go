package sqlstore

import (
	"context"

	"github.com/steveyegge/redline/internal/types"
)

const commentColumns = `id, issue_id, author_id, content, created_at, updated_at`

func insertComment(ctx context.Context, q querier, c *types.Comment) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO comments (`+commentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.IssueID, c.AuthorID, c.Content, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	return err
}

func scanComment(row scanner) (types.Comment, error) {
	var (
		c                    types.Comment
		createdAt, updatedAt string
	)
	if err := row.Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.Content, &createdAt, &updatedAt); err != nil {
		return types.Comment{}, err
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return types.Comment{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return types.Comment{}, err
	}
	return c, nil
}

// CreateComment inserts a comment.
func (s *Store) CreateComment(ctx context.Context, comment *types.Comment) error {
	err := s.withRetry(ctx, func() error { return insertComment(ctx, s.db, comment) })
	return s.dbErr(err, "create comment %s", comment.ID)
}

// GetComment loads a comment by id.
func (s *Store) GetComment(ctx context.Context, id string) (*types.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
	if err != nil {
		return nil, s.dbErr(err, "get comment %s", id)
	}
	return &c, nil
}

// ListComments returns every comment.
func (s *Store) ListComments(ctx context.Context) ([]types.Comment, error) {
	return s.listComments(ctx, `SELECT `+commentColumns+` FROM comments ORDER BY created_at, id`)
}

// ListCommentsByIssue returns an issue's comments, oldest first.
func (s *Store) ListCommentsByIssue(ctx context.Context, issueID string) ([]types.Comment, error) {
	return s.listComments(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE issue_id = ? ORDER BY created_at, id`, issueID)
}

func (s *Store) listComments(ctx context.Context, query string, args ...any) ([]types.Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.dbErr(err, "list comments")
	}
	comments, err := collect(rows, scanComment)
	return comments, s.dbErr(err, "list comments")
}

// UpdateComment replaces a comment's content and updated_at.
func (s *Store) UpdateComment(ctx context.Context, comment *types.Comment) error {
	res, err := s.exec(ctx, `UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`,
		comment.Content, formatTime(comment.UpdatedAt), comment.ID)
	if err != nil {
		return s.dbErr(err, "update comment %s", comment.ID)
	}
	return expectRow(res, "update comment "+comment.ID)
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return s.dbErr(err, "delete comment %s", id)
	}
	return expectRow(res, "delete comment "+id)
}
