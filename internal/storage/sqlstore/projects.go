package sqlstore

import (
	"context"

	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/types"
)

const projectColumns = `id, name, identifier, description, status, created_at, updated_at`

func insertProject(ctx context.Context, q querier, p *types.Project) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Identifier, p.Description, string(p.Status),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return err
}

func scanProject(row scanner) (types.Project, error) {
	var (
		p                    types.Project
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Identifier, &p.Description, &status, &createdAt, &updatedAt); err != nil {
		return types.Project{}, err
	}
	p.Status = types.ProjectStatus(status)
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return types.Project{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return types.Project{}, err
	}
	return p, nil
}

// CreateProject inserts a project. The identifier is stored lowercased.
func (s *Store) CreateProject(ctx context.Context, project *types.Project) error {
	project.Identifier = storage.NormalizeIdentifier(project.Identifier)
	err := s.withRetry(ctx, func() error { return insertProject(ctx, s.db, project) })
	return s.dbErr(err, "create project %s", project.ID)
}

// GetProject loads a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*types.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, s.dbErr(err, "get project %s", id)
	}
	return &p, nil
}

// GetProjectByIdentifier loads a project by its identifier.
func (s *Store) GetProjectByIdentifier(ctx context.Context, identifier string) (*types.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE identifier = ?`, storage.NormalizeIdentifier(identifier)))
	if err != nil {
		return nil, s.dbErr(err, "get project %s", identifier)
	}
	return &p, nil
}

// ListProjects returns every project.
func (s *Store) ListProjects(ctx context.Context) ([]types.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, s.dbErr(err, "list projects")
	}
	projects, err := collect(rows, scanProject)
	return projects, s.dbErr(err, "list projects")
}

// UpdateProject overwrites a project's editable fields and updated_at.
func (s *Store) UpdateProject(ctx context.Context, project *types.Project) error {
	project.Identifier = storage.NormalizeIdentifier(project.Identifier)
	res, err := s.exec(ctx, `
		UPDATE projects SET name = ?, identifier = ?, description = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, project.Name, project.Identifier, project.Description, string(project.Status),
		formatTime(project.UpdatedAt), project.ID)
	if err != nil {
		return s.dbErr(err, "update project %s", project.ID)
	}
	return expectRow(res, "update project "+project.ID)
}

// DeleteProject removes a project with its issues and their time entries
// and comments.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.withTx(ctx, func(q querier) error {
		for _, stmt := range []string{
			`DELETE FROM comments WHERE issue_id IN (SELECT id FROM issues WHERE project_id = ?)`,
			`DELETE FROM time_entries WHERE issue_id IN (SELECT id FROM issues WHERE project_id = ?)`,
			`DELETE FROM issues WHERE project_id = ?`,
		} {
			if _, err := q.ExecContext(ctx, stmt, id); err != nil {
				return s.dbErr(err, "delete project %s", id)
			}
		}
		res, err := q.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return s.dbErr(err, "delete project %s", id)
		}
		return expectRow(res, "delete project "+id)
	})
}
