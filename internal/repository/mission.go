package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
)

// MissionRepository — интерфейс CRUD для таблицы missions.
// При чтении миссия дополняется названием и кодом проекта.
type MissionRepository interface {
	GetByID(ctx context.Context, id string) (*model.Mission, error)
	// List возвращает миссии; projectID != nil — только миссии проекта.
	List(ctx context.Context, projectID *string) ([]*model.Mission, error)
	Create(ctx context.Context, m *model.Mission) error
	Update(ctx context.Context, m *model.Mission) error
	Delete(ctx context.Context, id string) error
}

type missionRepo struct {
	db DBTX
}

// NewMissionRepository создаёт репозиторий миссий.
func NewMissionRepository(db DBTX) MissionRepository {
	return &missionRepo{db: db}
}

const missionSelect = `
	SELECT m.id, m.name, m.description, m.start_date, m.end_date, m.project_id,
		p.name, p.code, m.created_at, m.updated_at
	FROM missions m
	LEFT JOIN projects p ON p.id = m.project_id`

func scanMission(row pgx.Row) (*model.Mission, error) {
	m := &model.Mission{}
	err := row.Scan(
		&m.ID, &m.Name, &m.Description, &m.StartDate, &m.EndDate, &m.ProjectID,
		&m.ProjectName, &m.ProjectCode, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

func (r *missionRepo) GetByID(ctx context.Context, id string) (*model.Mission, error) {
	m, err := scanMission(r.db.QueryRow(ctx, missionSelect+` WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения миссии: %w", err)
	}
	return m, nil
}

func (r *missionRepo) List(ctx context.Context, projectID *string) ([]*model.Mission, error) {
	query := missionSelect
	var args []any
	if projectID != nil {
		query += ` WHERE m.project_id = $1`
		args = append(args, *projectID)
	}
	query += ` ORDER BY m.start_date NULLS LAST, m.name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка миссий: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Mission, 0)
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования миссии: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *missionRepo) Create(ctx context.Context, m *model.Mission) error {
	query := `
		INSERT INTO missions (id, name, description, start_date, end_date, project_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		m.ID, m.Name, m.Description, m.StartDate, m.EndDate, m.ProjectID,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "ошибка создания миссии")
	}
	return nil
}

func (r *missionRepo) Update(ctx context.Context, m *model.Mission) error {
	query := `
		UPDATE missions
		SET name = $2, description = $3, start_date = $4, end_date = $5,
			project_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		m.ID, m.Name, m.Description, m.StartDate, m.EndDate, m.ProjectID,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError(err, "ошибка обновления миссии")
	}
	return nil
}

func (r *missionRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "missions", id)
}
