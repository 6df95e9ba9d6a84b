package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
)

// PassportRepository — интерфейс CRUD для таблицы passports.
type PassportRepository interface {
	GetByID(ctx context.Context, id string) (*model.Passport, error)
	// ListByOwner возвращает паспорта пользователя.
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Passport, error)
	Create(ctx context.Context, p *model.Passport) error
	Update(ctx context.Context, p *model.Passport) error
	Delete(ctx context.Context, id string) error
}

type passportRepo struct {
	db DBTX
}

// NewPassportRepository создаёт репозиторий паспортов.
func NewPassportRepository(db DBTX) PassportRepository {
	return &passportRepo{db: db}
}

const passportColumns = `id, passport_number, issue_date, expiry_date, issuing_country,
	issued_by, owner_id, created_at, updated_at`

func scanPassport(row pgx.Row) (*model.Passport, error) {
	p := &model.Passport{}
	err := row.Scan(
		&p.ID, &p.PassportNumber, &p.IssueDate, &p.ExpiryDate, &p.IssuingCountry,
		&p.IssuedBy, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *passportRepo) GetByID(ctx context.Context, id string) (*model.Passport, error) {
	query := fmt.Sprintf(`SELECT %s FROM passports WHERE id = $1`, passportColumns)

	p, err := scanPassport(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения паспорта: %w", err)
	}
	return p, nil
}

func (r *passportRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Passport, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM passports
		WHERE owner_id = $1
		ORDER BY created_at DESC`, passportColumns)

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка паспортов: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Passport, 0)
	for rows.Next() {
		p, err := scanPassport(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования паспорта: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *passportRepo) Create(ctx context.Context, p *model.Passport) error {
	query := `
		INSERT INTO passports (id, passport_number, issue_date, expiry_date,
			issuing_country, issued_by, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.PassportNumber, p.IssueDate, p.ExpiryDate,
		p.IssuingCountry, p.IssuedBy, p.OwnerID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "ошибка создания паспорта")
	}
	return nil
}

// Update не меняет владельца паспорта.
func (r *passportRepo) Update(ctx context.Context, p *model.Passport) error {
	query := `
		UPDATE passports
		SET passport_number = $2, issue_date = $3, expiry_date = $4,
			issuing_country = $5, issued_by = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING owner_id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.PassportNumber, p.IssueDate, p.ExpiryDate, p.IssuingCountry, p.IssuedBy,
	).Scan(&p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return mapWriteError(err, "ошибка обновления паспорта")
	}
	return nil
}

func (r *passportRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "passports", id)
}
