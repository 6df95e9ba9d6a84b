// invoices.go — счета по одобренным командировкам.
//
// Расчёт:
//
//	nights       = дни между датой отъезда и возвращения
//	travel_days  = nights + 1
//	hotel_total  = hotel_price_per_night × nights
//	per_diem     = per_diem_rate × travel_days
//	total        = ticket_price + hotel_total + per_diem
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/woodsbury/decimal128"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/rbac"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/workflow"
	"github.com/tayeb-bk/Stage-Ver/internal/repository"
)

// InvoiceInput — тарифы для выставления счёта.
type InvoiceInput struct {
	TravelRequestID    string
	TicketPrice        decimal128.Decimal
	HotelPricePerNight decimal128.Decimal
	PerDiemRate        decimal128.Decimal
}

// InvoiceService — выставление и чтение счетов.
type InvoiceService struct {
	invoices repository.InvoiceRepository
	requests repository.TravelRequestRepository
	users    repository.UserRepository
	roles    []rbac.Role
	currency string
	logger   *slog.Logger
}

// NewInvoiceService создаёт сервис счетов. roles — роли, которым доступны
// выставление и удаление счетов.
func NewInvoiceService(
	invoices repository.InvoiceRepository,
	requests repository.TravelRequestRepository,
	users repository.UserRepository,
	roles []rbac.Role,
	currency string,
	logger *slog.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices: invoices,
		requests: requests,
		users:    users,
		roles:    roles,
		currency: currency,
		logger:   logger.With(slog.String("component", "invoice_service")),
	}
}

// Generate выставляет счёт по заявке. Заявка должна быть в статусе APPROVED
// и иметь обе даты; второй счёт по той же заявке — ErrConflict.
func (s *InvoiceService) Generate(ctx context.Context, actor *model.User, in InvoiceInput) (*model.Invoice, error) {
	if err := rbac.Require(actor, s.roles...); err != nil {
		return nil, err
	}

	for _, d := range []decimal128.Decimal{in.TicketPrice, in.HotelPricePerNight, in.PerDiemRate} {
		if d.Cmp(decimal128.FromInt64(0)) < 0 {
			return nil, fmt.Errorf("%w: суммы не могут быть отрицательными", ErrValidation)
		}
	}

	tr, err := s.requests.GetByID(ctx, in.TravelRequestID)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("заявка %s", in.TravelRequestID))
	}
	if !workflow.MatchStatus(tr.Status, workflow.StatusApproved) {
		return nil, fmt.Errorf("%w: счёт выставляется только по одобренной заявке (статус %s)",
			ErrStateConflict, tr.Status)
	}
	if tr.DepartureDate == nil || tr.ReturnDate == nil {
		return nil, fmt.Errorf("%w: у заявки не заданы даты поездки", ErrValidation)
	}

	inv := &model.Invoice{
		ID:                 uuid.New().String(),
		TravelRequestID:    tr.ID,
		TicketPrice:        in.TicketPrice,
		HotelPricePerNight: in.HotelPricePerNight,
		PerDiemRate:        in.PerDiemRate,
		Currency:           s.currency,
	}
	calculate(inv, model.DaysBetween(*tr.DepartureDate, *tr.ReturnDate))

	if tr.RequesterID != nil {
		traveler, err := s.users.GetByID(ctx, *tr.RequesterID)
		switch {
		case err == nil:
			inv.TravelerName = traveler.FullName()
			if traveler.Email != nil {
				inv.TravelerEmail = *traveler.Email
			}
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}

	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, mapRepoError(err, "счёт")
	}

	s.logger.Info("Счёт выставлен",
		slog.String("id", inv.ID),
		slog.String("travel_request_id", inv.TravelRequestID),
		slog.String("total", inv.TotalAmount.String()),
	)
	return inv, nil
}

// calculate заполняет вычисляемые поля счёта.
func calculate(inv *model.Invoice, nights int) {
	if nights < 0 {
		nights = 0
	}
	inv.Nights = nights
	inv.TravelDays = nights + 1
	inv.HotelTotal = inv.HotelPricePerNight.Mul(decimal128.FromInt64(int64(inv.Nights)))
	inv.PerDiemTotal = inv.PerDiemRate.Mul(decimal128.FromInt64(int64(inv.TravelDays)))
	inv.TotalAmount = inv.TicketPrice.Add(inv.HotelTotal).Add(inv.PerDiemTotal)
}

func (s *InvoiceService) Get(ctx context.Context, id string) (*model.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	return inv, mapRepoError(err, fmt.Sprintf("счёт %s", id))
}

func (s *InvoiceService) List(ctx context.Context) ([]*model.Invoice, error) {
	return s.invoices.List(ctx)
}

func (s *InvoiceService) Delete(ctx context.Context, actor *model.User, id string) error {
	if err := rbac.Require(actor, s.roles...); err != nil {
		return err
	}
	if err := s.invoices.Delete(ctx, id); err != nil {
		return mapRepoError(err, fmt.Sprintf("счёт %s", id))
	}
	s.logger.Info("Счёт удалён", slog.String("id", id))
	return nil
}
