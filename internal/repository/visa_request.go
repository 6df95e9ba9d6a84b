package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
)

// VisaRequestRepository — интерфейс доступа к таблице visa_requests.
type VisaRequestRepository interface {
	// GetByID возвращает заявку по UUID.
	GetByID(ctx context.Context, id string) (*model.VisaRequest, error)
	// List возвращает заявки по фильтру; OwnerID — владелец паспорта.
	List(ctx context.Context, f RequestFilter) ([]*model.VisaRequest, error)
	// Create сохраняет новую заявку.
	Create(ctx context.Context, vr *model.VisaRequest) error
	// Update перезаписывает все поля заявки, если её статус и время изменения
	// совпадают с prev. Иначе ErrStale.
	Update(ctx context.Context, vr *model.VisaRequest, prev Revision) error
	// UpdateStatus безусловно устанавливает статус.
	UpdateStatus(ctx context.Context, id, status string) error
	// CompareAndSetStatus устанавливает next, только если текущий статус равен expected.
	CompareAndSetStatus(ctx context.Context, id, expected, next string) (updatedAt time.Time, ok bool, err error)
	// Delete удаляет заявку.
	Delete(ctx context.Context, id string) error
}

type visaRequestRepo struct {
	db DBTX
}

// NewVisaRequestRepository создаёт репозиторий визовых заявок.
func NewVisaRequestRepository(db DBTX) VisaRequestRepository {
	return &visaRequestRepo{db: db}
}

const visaColumns = `v.id, v.mission_purpose, v.date_of_mission, v.country_of_first_mission,
	v.country_issuing_visa, v.traveler_type, v.passport_id, v.passport_number,
	v.issue_date, v.expiry_date, v.issuing_country, v.issued_by, v.status,
	v.created_at, v.updated_at`

func scanVisaRequest(row pgx.Row) (*model.VisaRequest, error) {
	vr := &model.VisaRequest{}
	err := row.Scan(
		&vr.ID, &vr.MissionPurpose, &vr.DateOfMission, &vr.CountryOfFirstMission,
		&vr.CountryIssuingVisa, &vr.TravelerType, &vr.PassportID, &vr.PassportNumber,
		&vr.IssueDate, &vr.ExpiryDate, &vr.IssuingCountry, &vr.IssuedBy, &vr.Status,
		&vr.CreatedAt, &vr.UpdatedAt,
	)
	return vr, err
}

func (r *visaRequestRepo) GetByID(ctx context.Context, id string) (*model.VisaRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM visa_requests v WHERE v.id = $1`, visaColumns)

	vr, err := scanVisaRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения визовой заявки: %w", err)
	}
	return vr, nil
}

func (r *visaRequestRepo) List(ctx context.Context, f RequestFilter) ([]*model.VisaRequest, error) {
	where, args := buildRequestWhere(f, "v.status", "p.owner_id")
	query := fmt.Sprintf(`
		SELECT %s
		FROM visa_requests v
		JOIN passports p ON p.id = v.passport_id
		%s
		ORDER BY v.created_at DESC`, visaColumns, where)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка визовых заявок: %w", err)
	}
	defer rows.Close()

	result := make([]*model.VisaRequest, 0)
	for rows.Next() {
		vr, err := scanVisaRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования визовой заявки: %w", err)
		}
		result = append(result, vr)
	}
	return result, rows.Err()
}

func (r *visaRequestRepo) Create(ctx context.Context, vr *model.VisaRequest) error {
	query := `
		INSERT INTO visa_requests (id, mission_purpose, date_of_mission, country_of_first_mission,
			country_issuing_visa, traveler_type, passport_id, passport_number,
			issue_date, expiry_date, issuing_country, issued_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		vr.ID, vr.MissionPurpose, vr.DateOfMission, vr.CountryOfFirstMission,
		vr.CountryIssuingVisa, vr.TravelerType, vr.PassportID, vr.PassportNumber,
		vr.IssueDate, vr.ExpiryDate, vr.IssuingCountry, vr.IssuedBy, vr.Status,
	).Scan(&vr.CreatedAt, &vr.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "ошибка создания визовой заявки")
	}
	return nil
}

func (r *visaRequestRepo) Update(ctx context.Context, vr *model.VisaRequest, prev Revision) error {
	query := `
		UPDATE visa_requests
		SET mission_purpose = $2, date_of_mission = $3, country_of_first_mission = $4,
			country_issuing_visa = $5, traveler_type = $6, passport_id = $7,
			passport_number = $8, issue_date = $9, expiry_date = $10,
			issuing_country = $11, issued_by = $12, status = $13, updated_at = NOW()
		WHERE id = $1 AND status = $14 AND updated_at = $15
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		vr.ID, vr.MissionPurpose, vr.DateOfMission, vr.CountryOfFirstMission,
		vr.CountryIssuingVisa, vr.TravelerType, vr.PassportID, vr.PassportNumber,
		vr.IssueDate, vr.ExpiryDate, vr.IssuingCountry, vr.IssuedBy, vr.Status,
		prev.Status, prev.UpdatedAt,
	).Scan(&vr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staleOrMissing(ctx, r.db, "visa_requests", vr.ID)
		}
		return mapWriteError(err, "ошибка обновления визовой заявки")
	}
	return nil
}

func (r *visaRequestRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return updateStatus(ctx, r.db, "visa_requests", id, status)
}

func (r *visaRequestRepo) CompareAndSetStatus(ctx context.Context, id, expected, next string) (time.Time, bool, error) {
	return compareAndSetStatus(ctx, r.db, "visa_requests", id, expected, next)
}

func (r *visaRequestRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "visa_requests", id)
}
