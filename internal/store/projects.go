package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/immersive-lab/lab-api/internal/models"
)

// ProjectStore persists research projects.
type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

const projectColumns = `id, title, description, COALESCE(summary,''), status, COALESCE(members,''), created_by, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Summary, &p.Status, &p.Members, &p.CreatedByID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns one page of projects, optionally filtered by status, newest
// first.
func (s *ProjectStore) List(ctx context.Context, status models.ProjectStatus, page, size int) (*models.ProjectPage, error) {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 10
	}

	var total int64
	if status != "" {
		if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM projects WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, err
		}
	} else {
		if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM projects`).Scan(&total); err != nil {
			return nil, err
		}
	}

	where := ``
	args := []any{size, page * size}
	if status != "" {
		where = `WHERE status = $3`
		args = append(args, status)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects `+where+`
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &models.ProjectPage{
		Content:       projects,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

func (s *ProjectStore) Get(ctx context.Context, id int64) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

func (s *ProjectStore) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (title, description, summary, status, members, created_by)
		VALUES ($1, $2, NULLIF($3,''), $4, NULLIF($5,''), $6)
		RETURNING `+projectColumns+`
	`, p.Title, p.Description, p.Summary, p.Status, p.Members, p.CreatedByID)
	return scanProject(row)
}

func (s *ProjectStore) Update(ctx context.Context, p *models.Project) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE projects
		SET title = $2, description = $3, summary = NULLIF($4,''), status = $5,
			members = NULLIF($6,''), updated_at = now()
		WHERE id = $1
		RETURNING `+projectColumns+`
	`, p.ID, p.Title, p.Description, p.Summary, p.Status, p.Members)
	return scanProject(row)
}

// UpdateStatus changes only the lifecycle state.
func (s *ProjectStore) UpdateStatus(ctx context.Context, id int64, status models.ProjectStatus) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE projects SET status = $2, updated_at = now() WHERE id = $1
		RETURNING `+projectColumns+`
	`, id, status)
	return scanProject(row)
}

func (s *ProjectStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}
