package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
)

// TravelRequestRepository — интерфейс доступа к таблице travel_requests.
type TravelRequestRepository interface {
	// GetByID возвращает заявку по UUID.
	GetByID(ctx context.Context, id string) (*model.TravelRequest, error)
	// List возвращает заявки по фильтру; OwnerID сравнивается с requester_id.
	List(ctx context.Context, f RequestFilter) ([]*model.TravelRequest, error)
	// Create сохраняет новую заявку.
	Create(ctx context.Context, tr *model.TravelRequest) error
	// Update перезаписывает все поля заявки, если её статус и время изменения
	// совпадают с prev. Иначе ErrStale.
	Update(ctx context.Context, tr *model.TravelRequest, prev Revision) error
	// UpdateStatus безусловно устанавливает статус.
	UpdateStatus(ctx context.Context, id, status string) error
	// CompareAndSetStatus устанавливает next, только если текущий статус равен expected,
	// и возвращает новое время изменения. ok = false, если статус успел измениться.
	CompareAndSetStatus(ctx context.Context, id, expected, next string) (updatedAt time.Time, ok bool, err error)
	// Delete удаляет заявку.
	Delete(ctx context.Context, id string) error
}

type travelRequestRepo struct {
	db DBTX
}

// NewTravelRequestRepository создаёт репозиторий заявок на командировку.
func NewTravelRequestRepository(db DBTX) TravelRequestRepository {
	return &travelRequestRepo{db: db}
}

const travelColumns = `id, type, destination, secondary_destination, objective,
	departure_date, return_date, visa_required, status, duration, version,
	requester_id, project_id, mission_id, created_at, updated_at`

func scanTravelRequest(row pgx.Row) (*model.TravelRequest, error) {
	tr := &model.TravelRequest{}
	err := row.Scan(
		&tr.ID, &tr.Type, &tr.Destination, &tr.SecondaryDestination, &tr.Objective,
		&tr.DepartureDate, &tr.ReturnDate, &tr.VisaRequired, &tr.Status, &tr.Duration, &tr.Version,
		&tr.RequesterID, &tr.ProjectID, &tr.MissionID, &tr.CreatedAt, &tr.UpdatedAt,
	)
	return tr, err
}

func (r *travelRequestRepo) GetByID(ctx context.Context, id string) (*model.TravelRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM travel_requests WHERE id = $1`, travelColumns)

	tr, err := scanTravelRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения заявки на командировку: %w", err)
	}
	return tr, nil
}

func (r *travelRequestRepo) List(ctx context.Context, f RequestFilter) ([]*model.TravelRequest, error) {
	where, args := buildRequestWhere(f, "status", "requester_id")
	query := fmt.Sprintf(`
		SELECT %s
		FROM travel_requests
		%s
		ORDER BY created_at DESC`, travelColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка заявок на командировку: %w", err)
	}
	defer rows.Close()

	result := make([]*model.TravelRequest, 0)
	for rows.Next() {
		tr, err := scanTravelRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки на командировку: %w", err)
		}
		result = append(result, tr)
	}
	return result, rows.Err()
}

func (r *travelRequestRepo) Create(ctx context.Context, tr *model.TravelRequest) error {
	query := `
		INSERT INTO travel_requests (id, type, destination, secondary_destination, objective,
			departure_date, return_date, visa_required, status, duration, version,
			requester_id, project_id, mission_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		tr.ID, tr.Type, tr.Destination, tr.SecondaryDestination, tr.Objective,
		tr.DepartureDate, tr.ReturnDate, tr.VisaRequired, tr.Status, tr.Duration, tr.Version,
		tr.RequesterID, tr.ProjectID, tr.MissionID,
	).Scan(&tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "ошибка создания заявки на командировку")
	}
	return nil
}

func (r *travelRequestRepo) Update(ctx context.Context, tr *model.TravelRequest, prev Revision) error {
	query := `
		UPDATE travel_requests
		SET type = $2, destination = $3, secondary_destination = $4, objective = $5,
			departure_date = $6, return_date = $7, visa_required = $8, status = $9,
			duration = $10, version = $11, requester_id = $12, project_id = $13,
			mission_id = $14, updated_at = NOW()
		WHERE id = $1 AND status = $15 AND updated_at = $16
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		tr.ID, tr.Type, tr.Destination, tr.SecondaryDestination, tr.Objective,
		tr.DepartureDate, tr.ReturnDate, tr.VisaRequired, tr.Status,
		tr.Duration, tr.Version, tr.RequesterID, tr.ProjectID, tr.MissionID,
		prev.Status, prev.UpdatedAt,
	).Scan(&tr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staleOrMissing(ctx, r.db, "travel_requests", tr.ID)
		}
		return mapWriteError(err, "ошибка обновления заявки на командировку")
	}
	return nil
}

func (r *travelRequestRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return updateStatus(ctx, r.db, "travel_requests", id, status)
}

func (r *travelRequestRepo) CompareAndSetStatus(ctx context.Context, id, expected, next string) (time.Time, bool, error) {
	return compareAndSetStatus(ctx, r.db, "travel_requests", id, expected, next)
}

func (r *travelRequestRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "travel_requests", id)
}

// --- общие операции над таблицами заявок ---

// buildRequestWhere строит WHERE по RequestFilter.
// statusCol и ownerCol — выражения колонок в запросе.
func buildRequestWhere(f RequestFilter, statusCol, ownerCol string) (string, []any) {
	var where string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		if where == "" {
			where = "WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, len(args))
	}

	if f.Status != "" {
		add("UPPER("+statusCol+") = UPPER($%d)", f.Status)
	}
	if f.OwnerID != "" {
		add(ownerCol+" = $%d", f.OwnerID)
	}
	return where, args
}

func updateStatus(ctx context.Context, db DBTX, table, id, status string) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $2, updated_at = NOW() WHERE id = $1`, table)
	tag, err := db.Exec(ctx, query, id, status)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("ошибка обновления статуса (%s)", table))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func compareAndSetStatus(ctx context.Context, db DBTX, table, id, expected, next string) (time.Time, bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING updated_at`, table)
	var updatedAt time.Time
	err := db.QueryRow(ctx, query, id, expected, next).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, mapWriteError(err, fmt.Sprintf("ошибка смены статуса (%s)", table))
	}
	return updatedAt, true, nil
}

// staleOrMissing различает причину, по которой условный UPDATE не затронул строк.
func staleOrMissing(ctx context.Context, db DBTX, table, id string) error {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("ошибка проверки записи (%s): %w", table, err)
	}
	if exists {
		return ErrStale
	}
	return ErrNotFound
}

func deleteByID(ctx context.Context, db DBTX, table, id string) error {
	tag, err := db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: на запись %s ссылаются другие данные", ErrConflict, table)
		}
		return fmt.Errorf("ошибка удаления (%s): %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// mapWriteError переводит ошибки ограничений PostgreSQL в ошибки репозитория.
func mapWriteError(err error, msg string) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", ErrInvalidReference, msg)
	case isCheckViolation(err), isStringTooLong(err):
		return fmt.Errorf("%w: %s", ErrConstraint, msg)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
