package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"chatbeto.app/archivist/common/id"
	"chatbeto.app/archivist/internal/model"
)

type projectStore struct {
	db DBTX
}

const projectColumns = `id, name, description, is_starred, external_id, created_at`

// GetOrCreate inserts the project if the name is new and then reads it back.
// Two importers racing on the same name both land on the single row the
// unique constraint lets through.
func (s *projectStore) GetOrCreate(ctx context.Context, name string) (*model.Project, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO projects (id, name, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING`,
		id.New(), name, "Project: "+name,
	)
	if err != nil {
		return nil, fmt.Errorf("creating project %q: %w", name, err)
	}

	row := s.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE name = $1`, name)
	proj, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("reading project %q: %w", name, err)
	}
	return proj, nil
}

func (s *projectStore) GetByID(ctx context.Context, projectID int64) (*model.Project, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID)
	proj, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return proj, nil
}

func (s *projectStore) ListWithCounts(ctx context.Context) ([]ProjectWithCount, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.name, p.description, p.is_starred, p.external_id, p.created_at,
		       count(c.id)
		FROM projects p
		LEFT JOIN conversations c ON c.project_id = p.id
		GROUP BY p.id, p.name, p.description, p.is_starred, p.external_id, p.created_at
		ORDER BY count(c.id) DESC, p.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectWithCount
	for rows.Next() {
		var pc ProjectWithCount
		err := rows.Scan(
			&pc.Project.ID, &pc.Project.Name, &pc.Project.Description,
			&pc.Project.Starred, &pc.Project.ExternalID, &pc.Project.CreatedAt,
			&pc.Conversations,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var proj model.Project
	err := row.Scan(
		&proj.ID, &proj.Name, &proj.Description,
		&proj.Starred, &proj.ExternalID, &proj.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &proj, nil
}
