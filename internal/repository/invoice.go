package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/woodsbury/decimal128"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
)

// InvoiceRepository — интерфейс доступа к таблице invoices.
// Денежные значения передаются в PostgreSQL текстом и приводятся к NUMERIC.
type InvoiceRepository interface {
	GetByID(ctx context.Context, id string) (*model.Invoice, error)
	GetByTravelRequestID(ctx context.Context, travelRequestID string) (*model.Invoice, error)
	List(ctx context.Context) ([]*model.Invoice, error)
	Create(ctx context.Context, inv *model.Invoice) error
	Delete(ctx context.Context, id string) error
}

type invoiceRepo struct {
	db DBTX
}

// NewInvoiceRepository создаёт репозиторий счетов.
func NewInvoiceRepository(db DBTX) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, travel_request_id, traveler_name, traveler_email,
	ticket_price::text, hotel_price_per_night::text, per_diem_rate::text,
	nights, travel_days, hotel_total::text, per_diem_total::text, total_amount::text,
	currency, created_at`

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	inv := &model.Invoice{}
	var ticket, hotel, perDiem, hotelTotal, perDiemTotal, total string
	if err := row.Scan(
		&inv.ID, &inv.TravelRequestID, &inv.TravelerName, &inv.TravelerEmail,
		&ticket, &hotel, &perDiem,
		&inv.Nights, &inv.TravelDays, &hotelTotal, &perDiemTotal, &total,
		&inv.Currency, &inv.CreatedAt,
	); err != nil {
		return nil, err
	}

	amounts := []struct {
		src string
		dst *decimal128.Decimal
	}{
		{ticket, &inv.TicketPrice},
		{hotel, &inv.HotelPricePerNight},
		{perDiem, &inv.PerDiemRate},
		{hotelTotal, &inv.HotelTotal},
		{perDiemTotal, &inv.PerDiemTotal},
		{total, &inv.TotalAmount},
	}
	for _, a := range amounts {
		d, err := decimal128.Parse(a.src)
		if err != nil {
			return nil, fmt.Errorf("некорректная сумма %q: %w", a.src, err)
		}
		*a.dst = d
	}
	return inv, nil
}

func (r *invoiceRepo) getOne(ctx context.Context, where string, arg string) (*model.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s = $1`, invoiceColumns, where)

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения счёта: %w", err)
	}
	return inv, nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id string) (*model.Invoice, error) {
	return r.getOne(ctx, "id", id)
}

func (r *invoiceRepo) GetByTravelRequestID(ctx context.Context, travelRequestID string) (*model.Invoice, error) {
	return r.getOne(ctx, "travel_request_id", travelRequestID)
}

func (r *invoiceRepo) List(ctx context.Context) ([]*model.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices ORDER BY created_at DESC`, invoiceColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка счетов: %w", err)
	}
	defer rows.Close()

	result := make([]*model.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования счёта: %w", err)
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}

func (r *invoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	query := `
		INSERT INTO invoices (id, travel_request_id, traveler_name, traveler_email,
			ticket_price, hotel_price_per_night, per_diem_rate,
			nights, travel_days, hotel_total, per_diem_total, total_amount, currency)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric,
			$8, $9, $10::numeric, $11::numeric, $12::numeric, $13)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		inv.ID, inv.TravelRequestID, inv.TravelerName, inv.TravelerEmail,
		inv.TicketPrice.String(), inv.HotelPricePerNight.String(), inv.PerDiemRate.String(),
		inv.Nights, inv.TravelDays,
		inv.HotelTotal.String(), inv.PerDiemTotal.String(), inv.TotalAmount.String(),
		inv.Currency,
	).Scan(&inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: счёт по заявке %s уже выставлен", ErrConflict, inv.TravelRequestID)
		}
		return mapWriteError(err, "ошибка создания счёта")
	}
	return nil
}

func (r *invoiceRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "invoices", id)
}
