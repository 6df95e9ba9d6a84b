// catalog.go — справочники: проекты, миссии, паспорта.
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

// --- Проекты ---

// ProjectService — проекты. Изменение доступно ролям writeRoles.
type ProjectService struct {
	repo       repository.ProjectRepository
	writeRoles []rbac.Role
	logger     *slog.Logger
}

// NewProjectService создаёт сервис проектов.
func NewProjectService(repo repository.ProjectRepository, writeRoles []rbac.Role, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		repo:       repo,
		writeRoles: writeRoles,
		logger:     logger.With(slog.String("component", "project_service")),
	}
}

func (s *ProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	return p, mapRepoError(err, fmt.Sprintf("проект %s", id))
}

func (s *ProjectService) List(ctx context.Context) ([]*model.Project, error) {
	return s.repo.List(ctx)
}

// Stats возвращает количество миссий по проектам.
func (s *ProjectService) Stats(ctx context.Context) ([]*model.ProjectStats, error) {
	return s.repo.Stats(ctx)
}

func (s *ProjectService) Create(ctx context.Context, actor *model.User, name, code, clientName string) (*model.Project, error) {
	if err := rbac.Require(actor, s.writeRoles...); err != nil {
		return nil, err
	}
	p := &model.Project{ID: uuid.New().String()}
	if err := setProjectFields(p, name, code, clientName); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, mapRepoError(err, "проект")
	}
	s.logger.Info("Проект создан", slog.String("id", p.ID), slog.String("code", p.Code))
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, actor *model.User, id, name, code, clientName string) (*model.Project, error) {
	if err := rbac.Require(actor, s.writeRoles...); err != nil {
		return nil, err
	}
	p := &model.Project{ID: id}
	if err := setProjectFields(p, name, code, clientName); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("проект %s", id))
	}
	return p, nil
}

// Delete удаляет проект. Проект, на который ссылаются заявки, удалить нельзя (ErrConflict).
func (s *ProjectService) Delete(ctx context.Context, actor *model.User, id string) error {
	if err := rbac.Require(actor, s.writeRoles...); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, fmt.Sprintf("проект %s", id))
	}
	s.logger.Info("Проект удалён", slog.String("id", id))
	return nil
}

func setProjectFields(p *model.Project, name, code, clientName string) error {
	p.Name = strings.TrimSpace(name)
	p.Code = strings.TrimSpace(code)
	p.ClientName = strings.TrimSpace(clientName)
	if p.Name == "" || p.Code == "" {
		return fmt.Errorf("%w: name и code обязательны", ErrValidation)
	}
	return nil
}

// --- Миссии ---

// MissionInput — поля миссии.
type MissionInput struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	ProjectID   *string
}

// MissionService — миссии проектов.
type MissionService struct {
	repo     repository.MissionRepository
	projects repository.ProjectRepository
	logger   *slog.Logger
}

// NewMissionService создаёт сервис миссий.
func NewMissionService(repo repository.MissionRepository, projects repository.ProjectRepository, logger *slog.Logger) *MissionService {
	return &MissionService{
		repo:     repo,
		projects: projects,
		logger:   logger.With(slog.String("component", "mission_service")),
	}
}

func (s *MissionService) Get(ctx context.Context, id string) (*model.Mission, error) {
	m, err := s.repo.GetByID(ctx, id)
	return m, mapRepoError(err, fmt.Sprintf("миссия %s", id))
}

// List возвращает миссии; projectID != nil — только миссии проекта.
func (s *MissionService) List(ctx context.Context, projectID *string) ([]*model.Mission, error) {
	return s.repo.List(ctx, projectID)
}

func (s *MissionService) Create(ctx context.Context, in MissionInput) (*model.Mission, error) {
	m := &model.Mission{ID: uuid.New().String()}
	if err := s.apply(ctx, m, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, mapRepoError(err, "миссия")
	}
	// Перечитываем, чтобы получить название и код проекта
	return s.Get(ctx, m.ID)
}

func (s *MissionService) Update(ctx context.Context, id string, in MissionInput) (*model.Mission, error) {
	m := &model.Mission{ID: id}
	if err := s.apply(ctx, m, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("миссия %s", id))
	}
	return s.Get(ctx, id)
}

func (s *MissionService) Delete(ctx context.Context, id string) error {
	return mapRepoError(s.repo.Delete(ctx, id), fmt.Sprintf("миссия %s", id))
}

func (s *MissionService) apply(ctx context.Context, m *model.Mission, in MissionInput) error {
	m.Name = strings.TrimSpace(in.Name)
	m.Description = in.Description
	m.StartDate = in.StartDate
	m.EndDate = in.EndDate
	m.ProjectID = in.ProjectID

	if m.Name == "" {
		return fmt.Errorf("%w: name обязателен", ErrValidation)
	}
	if m.StartDate != nil && m.EndDate != nil && m.EndDate.Before(*m.StartDate) {
		return fmt.Errorf("%w: end_date раньше start_date", ErrValidation)
	}
	if m.ProjectID != nil {
		if _, err := s.projects.GetByID(ctx, *m.ProjectID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: проект %s не найден", ErrValidation, *m.ProjectID)
			}
			return err
		}
	}
	return nil
}

// --- Паспорта ---

// PassportInput — поля паспорта.
type PassportInput struct {
	PassportNumber string
	IssueDate      *time.Time
	ExpiryDate     *time.Time
	IssuingCountry string
	IssuedBy       string
}

// PassportService — паспорта. Пользователь видит и меняет только свои паспорта;
// чужой паспорт для него не существует.
type PassportService struct {
	repo   repository.PassportRepository
	logger *slog.Logger
}

// NewPassportService создаёт сервис паспортов.
func NewPassportService(repo repository.PassportRepository, logger *slog.Logger) *PassportService {
	return &PassportService{
		repo:   repo,
		logger: logger.With(slog.String("component", "passport_service")),
	}
}

func (s *PassportService) Get(ctx context.Context, actor *model.User, id string) (*model.Passport, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("паспорт %s", id))
	}
	if p.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: паспорт %s", ErrNotFound, id)
	}
	return p, nil
}

func (s *PassportService) List(ctx context.Context, actor *model.User) ([]*model.Passport, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return s.repo.ListByOwner(ctx, actor.ID)
}

func (s *PassportService) Create(ctx context.Context, actor *model.User, in PassportInput) (*model.Passport, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	p := &model.Passport{ID: uuid.New().String(), OwnerID: actor.ID}
	if err := applyPassportInput(p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, mapRepoError(err, "паспорт")
	}
	s.logger.Info("Паспорт добавлен", slog.String("id", p.ID), slog.String("owner", p.OwnerID))
	return p, nil
}

func (s *PassportService) Update(ctx context.Context, actor *model.User, id string, in PassportInput) (*model.Passport, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := applyPassportInput(p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, mapRepoError(err, fmt.Sprintf("паспорт %s", id))
	}
	return p, nil
}

// Delete удаляет паспорт. Паспорт с визовыми заявками удалить нельзя (ErrConflict).
func (s *PassportService) Delete(ctx context.Context, actor *model.User, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return mapRepoError(s.repo.Delete(ctx, id), fmt.Sprintf("паспорт %s", id))
}

func applyPassportInput(p *model.Passport, in PassportInput) error {
	p.PassportNumber = strings.TrimSpace(in.PassportNumber)
	p.IssueDate = in.IssueDate
	p.ExpiryDate = in.ExpiryDate
	p.IssuingCountry = in.IssuingCountry
	p.IssuedBy = in.IssuedBy
	if p.PassportNumber == "" {
		return fmt.Errorf("%w: passport_number обязателен", ErrValidation)
	}
	if p.IssueDate != nil && p.ExpiryDate != nil && p.ExpiryDate.Before(*p.IssueDate) {
		return fmt.Errorf("%w: expiry_date раньше issue_date", ErrValidation)
	}
	return nil
}
