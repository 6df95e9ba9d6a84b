// travel_requests.go — заявки на командировку.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/rbac"
	"github.com/tayeb-bk/Stage-Ver/internal/repository"
)

// TravelRequestInput — поля заявки, задаваемые пользователем.
type TravelRequestInput struct {
	Type                 string
	Destination          string
	SecondaryDestination string
	Objective            string
	DepartureDate        *time.Time
	ReturnDate           *time.Time
	VisaRequired         bool
	// RequesterID — автор заявки; по умолчанию — текущий пользователь
	RequesterID *string
	ProjectID   string
	MissionID   string
	// Status — при обновлении заменяет статус, если задан
	// (только для ролей согласования)
	Status *string
}

// TravelRequestService — создание, изменение и чтение заявок на командировку.
type TravelRequestService struct {
	workflow    *RequestWorkflow[*model.TravelRequest]
	requests    repository.TravelRequestRepository
	projects    repository.ProjectRepository
	missions    repository.MissionRepository
	statusRoles []rbac.Role
	logger      *slog.Logger
}

// NewTravelRequestService создаёт сервис заявок на командировку.
// statusRoles — роли, которым разрешено менять статус через Update.
func NewTravelRequestService(
	wf *RequestWorkflow[*model.TravelRequest],
	requests repository.TravelRequestRepository,
	projects repository.ProjectRepository,
	missions repository.MissionRepository,
	statusRoles []rbac.Role,
	logger *slog.Logger,
) *TravelRequestService {
	return &TravelRequestService{
		workflow:    wf,
		requests:    requests,
		projects:    projects,
		missions:    missions,
		statusRoles: statusRoles,
		logger:      logger.With(slog.String("component", "travel_service")),
	}
}

// Create подаёт новую заявку от имени actor.
func (s *TravelRequestService) Create(ctx context.Context, actor *model.User, in TravelRequestInput) (*model.TravelRequest, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	tr := &model.TravelRequest{
		ID:          uuid.New().String(),
		Version:     1,
		RequesterID: in.RequesterID,
	}
	if tr.RequesterID == nil || *tr.RequesterID == "" {
		id := actor.ID
		tr.RequesterID = &id
	}
	applyTravelInput(tr, in)

	return s.workflow.Submit(ctx, tr, func(tr *model.TravelRequest) error {
		if err := s.checkProjectMission(ctx, tr.ProjectID, tr.MissionID); err != nil {
			return err
		}
		return computeDuration(tr)
	})
}

// Update перезаписывает поля заявки, увеличивает версию и пересчитывает длительность.
// Статус сохраняется, если в in не задан новый. Если заявка изменилась
// после чтения (например, прошла этап согласования), возвращается ErrStateConflict.
func (s *TravelRequestService) Update(ctx context.Context, actor *model.User, id string, in TravelRequestInput) (*model.TravelRequest, error) {
	tr, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	prev := repository.Revision{Status: tr.Status, UpdatedAt: tr.UpdatedAt}

	status, err := overrideStatus(actor, tr.Status, in.Status, s.statusRoles)
	if err != nil {
		return nil, err
	}

	applyTravelInput(tr, in)
	if in.RequesterID != nil && *in.RequesterID != "" {
		tr.RequesterID = in.RequesterID
	}
	tr.Status = status
	tr.Version++

	if err := s.checkProjectMission(ctx, tr.ProjectID, tr.MissionID); err != nil {
		return nil, err
	}
	if err := computeDuration(tr); err != nil {
		return nil, err
	}

	if err := s.requests.Update(ctx, tr, prev); err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("заявка %s", id))
	}

	s.logger.Info("Заявка на командировку обновлена",
		slog.String("id", tr.ID),
		slog.Int("version", tr.Version),
	)
	return tr, nil
}

// Get возвращает заявку. MEMBER видит только собственные заявки.
func (s *TravelRequestService) Get(ctx context.Context, actor *model.User, id string) (*model.TravelRequest, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	tr, err := s.workflow.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if isMember(actor) && (tr.RequesterID == nil || *tr.RequesterID != actor.ID) {
		return nil, fmt.Errorf("%w: заявка %s", ErrNotFound, id)
	}
	return tr, nil
}

// List возвращает заявки: MEMBER — собственные, остальные роли — все.
func (s *TravelRequestService) List(ctx context.Context, actor *model.User) ([]*model.TravelRequest, error) {
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
func (s *TravelRequestService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return s.workflow.Delete(ctx, id)
}

// checkProjectMission проверяет, что проект и миссия существуют и связаны.
func (s *TravelRequestService) checkProjectMission(ctx context.Context, projectID, missionID string) error {
	if projectID == "" || missionID == "" {
		return fmt.Errorf("%w: project_id и mission_id обязательны", ErrValidation)
	}

	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: проект %s не найден", ErrValidation, projectID)
		}
		return err
	}

	m, err := s.missions.GetByID(ctx, missionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: миссия %s не найдена", ErrValidation, missionID)
		}
		return err
	}
	if m.ProjectID == nil || *m.ProjectID != projectID {
		return fmt.Errorf("%w: миссия %s не относится к проекту %s", ErrValidation, missionID, projectID)
	}
	return nil
}

func applyTravelInput(tr *model.TravelRequest, in TravelRequestInput) {
	tr.Type = in.Type
	tr.Destination = in.Destination
	tr.SecondaryDestination = in.SecondaryDestination
	tr.Objective = in.Objective
	tr.DepartureDate = in.DepartureDate
	tr.ReturnDate = in.ReturnDate
	tr.VisaRequired = in.VisaRequired
	tr.ProjectID = in.ProjectID
	tr.MissionID = in.MissionID
}

// computeDuration вычисляет длительность в днях. Без обеих дат длительность не задана.
func computeDuration(tr *model.TravelRequest) error {
	if tr.DepartureDate == nil || tr.ReturnDate == nil {
		tr.Duration = nil
		return nil
	}
	days := model.DaysBetween(*tr.DepartureDate, *tr.ReturnDate)
	if days < 0 {
		return fmt.Errorf("%w: дата возвращения %s раньше даты отъезда %s", ErrValidation,
			tr.ReturnDate.Format(time.DateOnly), tr.DepartureDate.Format(time.DateOnly))
	}
	tr.Duration = &days
	return nil
}

// overrideStatus возвращает статус заявки после Update. Смена статуса
// разрешена только ролям statusRoles; повтор текущего статуса не считается сменой.
func overrideStatus(actor *model.User, current string, requested *string, statusRoles []rbac.Role) (string, error) {
	if requested == nil {
		return current, nil
	}
	next := strings.TrimSpace(*requested)
	if next == "" || next == current {
		return current, nil
	}
	if err := rbac.Require(actor, statusRoles...); err != nil {
		return "", fmt.Errorf("смена статуса на %q: %w", next, err)
	}
	return next, nil
}

func isMember(u *model.User) bool {
	return u.Role == rbac.RoleMember || u.Role == ""
}
