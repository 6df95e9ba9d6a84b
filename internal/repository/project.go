package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
)

// ProjectRepository — интерфейс CRUD для таблицы projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*model.Project, error)
	List(ctx context.Context) ([]*model.Project, error)
	Create(ctx context.Context, p *model.Project) error
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id string) error
	// Stats возвращает количество миссий по каждому проекту.
	Stats(ctx context.Context) ([]*model.ProjectStats, error)
}

type projectRepo struct {
	db DBTX
}

// NewProjectRepository создаёт репозиторий проектов.
func NewProjectRepository(db DBTX) ProjectRepository {
	return &projectRepo{db: db}
}

const projectColumns = `id, name, code, client_name, created_at, updated_at`

func scanProject(row pgx.Row) (*model.Project, error) {
	p := &model.Project{}
	err := row.Scan(&p.ID, &p.Name, &p.Code, &p.ClientName, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1`, projectColumns)

	p, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения проекта: %w", err)
	}
	return p, nil
}

func (r *projectRepo) List(ctx context.Context) ([]*model.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects ORDER BY name`, projectColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка проектов: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования проекта: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *projectRepo) Create(ctx context.Context, p *model.Project) error {
	query := `
		INSERT INTO projects (id, name, code, client_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query, p.ID, p.Name, p.Code, p.ClientName).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: проект с кодом %q уже существует", ErrConflict, p.Code)
		}
		return fmt.Errorf("ошибка создания проекта: %w", err)
	}
	return nil
}

func (r *projectRepo) Update(ctx context.Context, p *model.Project) error {
	query := `
		UPDATE projects
		SET name = $2, code = $3, client_name = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query, p.ID, p.Name, p.Code, p.ClientName).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: проект с кодом %q уже существует", ErrConflict, p.Code)
		}
		return fmt.Errorf("ошибка обновления проекта: %w", err)
	}
	return nil
}

func (r *projectRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "projects", id)
}

func (r *projectRepo) Stats(ctx context.Context) ([]*model.ProjectStats, error) {
	query := `
		SELECT p.id, p.name, p.code, COUNT(m.id)
		FROM projects p
		LEFT JOIN missions m ON m.project_id = p.id
		GROUP BY p.id, p.name, p.code
		ORDER BY p.name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики проектов: %w", err)
	}
	defer rows.Close()

	result := make([]*model.ProjectStats, 0)
	for rows.Next() {
		s := &model.ProjectStats{}
		if err := rows.Scan(&s.ProjectID, &s.Name, &s.Code, &s.MissionCount); err != nil {
			return nil, fmt.Errorf("ошибка сканирования статистики проекта: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
