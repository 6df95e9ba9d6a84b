// users.go — профиль и администрирование пользователей (локально и в Keycloak).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/rbac"
	"github.com/tayeb-bk/Stage-Ver/internal/keycloak"
	"github.com/tayeb-bk/Stage-Ver/internal/repository"
)

// IdentityAdmin — операции Keycloak Admin API, нужные сервису пользователей.
// Реализуется *keycloak.Client.
type IdentityAdmin interface {
	FindUsersByUsername(ctx context.Context, username string) ([]keycloak.KeycloakUser, error)
	CreateUser(ctx context.Context, u keycloak.NewUser) (string, error)
	GetRealmRole(ctx context.Context, name string) (*keycloak.RoleRepresentation, error)
	AssignRealmRoles(ctx context.Context, userID string, roles []keycloak.RoleRepresentation) error
	DeleteUser(ctx context.Context, id string) error
}

// RegisterInput — данные нового пользователя.
type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	// Role — роль realm; пустая — ROLE_MEMBER
	Role string
}

// UserService — профиль текущего пользователя, регистрация и удаление.
type UserService struct {
	users      repository.UserRepository
	idp        IdentityAdmin
	sync       *IdentitySynchronizer
	adminRoles []rbac.Role
	logger     *slog.Logger
}

// NewUserService создаёт сервис пользователей. sync используется для
// сброса кэша синхронизации удалённых пользователей и может быть nil.
func NewUserService(
	users repository.UserRepository,
	idp IdentityAdmin,
	sync *IdentitySynchronizer,
	adminRoles []rbac.Role,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:      users,
		idp:        idp,
		sync:       sync,
		adminRoles: adminRoles,
		logger:     logger.With(slog.String("component", "user_service")),
	}
}

// Profile возвращает синхронизированного текущего пользователя.
func (s *UserService) Profile(actor *model.User) (*model.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	return actor.Clone(), nil
}

// Register создаёт пользователя в Keycloak, назначает роль realm
// и сохраняет локальную копию.
func (s *UserService) Register(ctx context.Context, actor *model.User, in RegisterInput) (*model.User, error) {
	if err := rbac.Require(actor, s.adminRoles...); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username обязателен", ErrValidation)
	}
	role := rbac.DefaultRole
	if in.Role != "" {
		r, err := rbac.MustParseRole(in.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err) //nolint:errorlint // намеренный двойной wrap
		}
		role = r
	}

	id, err := s.idp.CreateUser(ctx, keycloak.NewUser{
		Username:  username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  in.Password,
	})
	if err != nil {
		if errors.Is(err, keycloak.ErrConflict) {
			return nil, fmt.Errorf("%w: пользователь %s уже существует в Keycloak", ErrConflict, username)
		}
		return nil, fmt.Errorf("%w: %w", ErrIDPUnavailable, err) //nolint:errorlint // намеренный двойной wrap
	}

	kcRole, err := s.idp.GetRealmRole(ctx, role.String())
	if err != nil {
		return nil, fmt.Errorf("%w: роль %s: %w", ErrIDPUnavailable, role, err) //nolint:errorlint // намеренный двойной wrap
	}
	if err := s.idp.AssignRealmRoles(ctx, id, []keycloak.RoleRepresentation{*kcRole}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIDPUnavailable, err) //nolint:errorlint // намеренный двойной wrap
	}

	u := &model.User{
		ID:        id,
		Username:  &username,
		Email:     optional(in.Email),
		FirstName: optional(in.FirstName),
		LastName:  optional(in.LastName),
		Role:      role,
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.String("id", id),
		slog.String("username", username),
		slog.String("role", role.String()),
		slog.String("by", actor.ID),
	)
	return u, nil
}

// Delete удаляет пользователя по username локально и в Keycloak.
// ErrNotFound — если пользователь не найден ни там, ни там.
func (s *UserService) Delete(ctx context.Context, actor *model.User, username string) error {
	if err := rbac.Require(actor, s.adminRoles...); err != nil {
		return err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username обязателен", ErrValidation)
	}
	if actor.Username != nil && strings.EqualFold(*actor.Username, username) {
		return fmt.Errorf("%w: нельзя удалить самого себя", ErrValidation)
	}

	found := false

	local, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if err := s.users.Delete(ctx, local.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if s.sync != nil {
			s.sync.Invalidate(local.ID)
		}
		found = true
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	kcUsers, err := s.idp.FindUsersByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIDPUnavailable, err) //nolint:errorlint // намеренный двойной wrap
	}
	for _, ku := range kcUsers {
		if !strings.EqualFold(ku.Username, username) {
			continue
		}
		if err := s.idp.DeleteUser(ctx, ku.ID); err != nil && !errors.Is(err, keycloak.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrIDPUnavailable, err) //nolint:errorlint // намеренный двойной wrap
		}
		if s.sync != nil {
			s.sync.Invalidate(ku.ID)
		}
		found = true
	}

	if !found {
		return fmt.Errorf("%w: пользователь %s", ErrNotFound, username)
	}

	s.logger.Info("Пользователь удалён",
		slog.String("username", username),
		slog.String("by", actor.ID),
	)
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
