package sqlstore

import (
	"context"
	"fmt"

	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/types"
)

const userColumns = `id, email, first_name, last_name, role, created_at`

func insertUser(ctx context.Context, q querier, u *types.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.FirstName, u.LastName, string(u.Role), formatTime(u.CreatedAt))
	return err
}

func scanUser(row scanner) (types.User, error) {
	var (
		u         types.User
		role      string
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &role, &createdAt); err != nil {
		return types.User{}, err
	}
	u.Role = types.Role(role)
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return types.User{}, err
	}
	return u, nil
}

// CreateUser inserts a user. The email is stored lowercased.
func (s *Store) CreateUser(ctx context.Context, user *types.User) error {
	user.Email = storage.NormalizeEmail(user.Email)
	err := s.withRetry(ctx, func() error { return insertUser(ctx, s.db, user) })
	return s.dbErr(err, "create user %s", user.ID)
}

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*types.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, s.dbErr(err, "get user %s", id)
	}
	return &u, nil
}

// GetUserByEmail loads a user by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, storage.NormalizeEmail(email)))
	if err != nil {
		return nil, s.dbErr(err, "get user by email %s", email)
	}
	return &u, nil
}

// ListUsers returns every user.
func (s *Store) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, s.dbErr(err, "list users")
	}
	users, err := collect(rows, scanUser)
	return users, s.dbErr(err, "list users")
}

// UpdateUser overwrites a user's editable fields.
func (s *Store) UpdateUser(ctx context.Context, user *types.User) error {
	user.Email = storage.NormalizeEmail(user.Email)
	res, err := s.exec(ctx, `
		UPDATE users SET email = ?, first_name = ?, last_name = ?, role = ?
		WHERE id = ?
	`, user.Email, user.FirstName, user.LastName, string(user.Role), user.ID)
	if err != nil {
		return s.dbErr(err, "update user %s", user.ID)
	}
	return expectRow(res, "update user "+user.ID)
}

// DeleteUser removes a user. It fails with storage.ErrInUse while the user
// is referenced by any issue, time entry or comment.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.withTx(ctx, func(q querier) error {
		var refs int
		err := q.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM issues WHERE author_id = ? OR assignee_id = ?) +
				(SELECT COUNT(*) FROM time_entries WHERE user_id = ?) +
				(SELECT COUNT(*) FROM comments WHERE author_id = ?)
		`, id, id, id, id).Scan(&refs)
		if err != nil {
			return s.dbErr(err, "count references to user %s", id)
		}
		if refs > 0 {
			return fmt.Errorf("delete user %s: %w (%d references)", id, storage.ErrInUse, refs)
		}
		res, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return s.dbErr(err, "delete user %s", id)
		}
		return expectRow(res, "delete user "+id)
	})
}
