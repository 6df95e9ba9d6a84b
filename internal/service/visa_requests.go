// visa_requests.go — заявки на визу.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/rbac"
	"github.com/tayeb-bk/Stage-Ver/internal/repository"
)

// VisaRequestInput — поля визовой заявки, задаваемые пользователем.
// Пустые поля паспорта заполняются из паспорта PassportID.
type VisaRequestInput struct {
	MissionPurpose        string
	DateOfMission         *time.Time
	CountryOfFirstMission string
	CountryIssuingVisa    string
	TravelerType          string
	PassportID            string
	PassportNumber        string
	IssueDate             *time.Time
	ExpiryDate            *time.Time
	IssuingCountry        string
	IssuedBy              string
	// Status — при обновлении заменяет статус, если задан
	// (только для ролей согласования)
	Status *string
}

// VisaRequestService — создание, изменение и чтение визовых заявок.
type VisaRequestService struct {
	workflow    *RequestWorkflow[*model.VisaRequest]
	requests    repository.VisaRequestRepository
	passports   repository.PassportRepository
	statusRoles []rbac.Role
	logger      *slog.Logger
}

// NewVisaRequestService создаёт сервис визовых заявок.
func NewVisaRequestService(
	wf *RequestWorkflow[*model.VisaRequest],
	requests repository.VisaRequestRepository,
	passports repository.PassportRepository,
	statusRoles []rbac.Role,
	logger *slog.Logger,
) *VisaRequestService {
	return &VisaRequestService{
		workflow:    wf,
		requests:    requests,
		passports:   passports,
		statusRoles: statusRoles,
		logger:      logger.With(slog.String("component", "visa_service")),
	}
}

// Create подаёт визовую заявку. Паспорт должен существовать
// (для MEMBER — принадлежать ему), иначе ErrNotFound.
func (s *VisaRequestService) Create(ctx context.Context, actor *model.User, in VisaRequestInput) (*model.VisaRequest, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	vr := &model.VisaRequest{ID: uuid.New().String()}
	applyVisaInput(vr, in)

	return s.workflow.Submit(ctx, vr, func(vr *model.VisaRequest) error {
		pp, err := s.passport(ctx, actor, vr.PassportID)
		if err != nil {
			return err
		}
		fillFromPassport(vr, pp)
		return nil
	})
}

// Update перезаписывает поля заявки. Статус сохраняется, если не задан новый.
// Параллельное изменение заявки после чтения даёт ErrStateConflict.
func (s *VisaRequestService) Update(ctx context.Context, actor *model.User, id string, in VisaRequestInput) (*model.VisaRequest, error) {
	vr, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	prev := repository.Revision{Status: vr.Status, UpdatedAt: vr.UpdatedAt}

	status, err := overrideStatus(actor, vr.Status, in.Status, s.statusRoles)
	if err != nil {
		return nil, err
	}

	applyVisaInput(vr, in)
	vr.Status = status

	pp, err := s.passport(ctx, actor, vr.PassportID)
	if err != nil {
		return nil, err
	}
	fillFromPassport(vr, pp)

	if err := s.requests.Update(ctx, vr, prev); err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("визовая заявка %s", id))
	}

	s.logger.Info("Визовая заявка обновлена", slog.String("id", vr.ID))
	return vr, nil
}

// Get возвращает заявку. MEMBER видит только заявки на свои паспорта.
func (s *VisaRequestService) Get(ctx context.Context, actor *model.User, id string) (*model.VisaRequest, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	vr, err := s.workflow.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if isMember(actor) {
		if _, err := s.passport(ctx, actor, vr.PassportID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: визовая заявка %s", ErrNotFound, id)
			}
			return nil, err
		}
	}
	return vr, nil
}

// List возвращает заявки: MEMBER — на свои паспорта, остальные роли — все.
func (s *VisaRequestService) List(ctx context.Context, actor *model.User) ([]*model.VisaRequest, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	var f repository.RequestFilter
	if isMember(actor) {
		f.OwnerID = actor.ID
	}
	return s.workflow.list(ctx, f)
}

// Delete удаляет заявку. Отсутствующая заявка ошибкой не считается.
func (s *VisaRequestService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return s.workflow.Delete(ctx, id)
}

// passport возвращает паспорт, доступный actor.
func (s *VisaRequestService) passport(ctx context.Context, actor *model.User, id string) (*model.Passport, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: passport_id обязателен", ErrValidation)
	}
	pp, err := s.passports.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("паспорт %s", id))
	}
	if isMember(actor) && pp.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: паспорт %s", ErrNotFound, id)
	}
	return pp, nil
}

func applyVisaInput(vr *model.VisaRequest, in VisaRequestInput) {
	vr.MissionPurpose = in.MissionPurpose
	vr.DateOfMission = in.DateOfMission
	vr.CountryOfFirstMission = in.CountryOfFirstMission
	vr.CountryIssuingVisa = in.CountryIssuingVisa
	vr.TravelerType = in.TravelerType
	vr.PassportID = in.PassportID
	vr.PassportNumber = in.PassportNumber
	vr.IssueDate = in.IssueDate
	vr.ExpiryDate = in.ExpiryDate
	vr.IssuingCountry = in.IssuingCountry
	vr.IssuedBy = in.IssuedBy
}

func fillFromPassport(vr *model.VisaRequest, pp *model.Passport) {
	if vr.PassportNumber == "" {
		vr.PassportNumber = pp.PassportNumber
	}
	if vr.IssueDate == nil {
		vr.IssueDate = pp.IssueDate
	}
	if vr.ExpiryDate == nil {
		vr.ExpiryDate = pp.ExpiryDate
	}
	if vr.IssuingCountry == "" {
		vr.IssuingCountry = pp.IssuingCountry
	}
	if vr.IssuedBy == "" {
		vr.IssuedBy = pp.IssuedBy
	}
}
