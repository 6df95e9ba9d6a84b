// identity.go — синхронизация пользователя из проверенного токена.
//
// Пользователь идентифицируется subject (sub) и никогда не удаляется
// синхронизацией. Профильные поля обновляются только непустыми значениями
// claims, отличающимися от сохранённых; отсутствие claim поле не очищает.
// Запись в БД выполняется не более одного раза и только при изменениях.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/rbac"
	"github.com/tayeb-bk/Stage-Ver/internal/repository"
)

var userSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tm_user_sync_total",
	Help: "Результаты синхронизации пользователей (created, updated, unchanged, cached).",
}, []string{"result"})

// profile — данные пользователя, извлечённые из claims.
type profile struct {
	username  *string
	email     *string
	firstName *string
	lastName  *string
	role      rbac.Role
}

func extractProfile(claims rbac.TokenClaims) profile {
	opt := func(name string) *string {
		if v, ok := claims.ClaimString(name); ok {
			return &v
		}
		return nil
	}
	return profile{
		username:  opt(rbac.ClaimPreferredUsername),
		email:     opt(rbac.ClaimEmail),
		firstName: opt(rbac.ClaimGivenName),
		lastName:  opt(rbac.ClaimFamilyName),
		role:      rbac.ExtractRole(claims),
	}
}

func (p profile) fingerprint(subject string) string {
	val := func(s *string) string {
		if s == nil {
			return "\x00"
		}
		return *s
	}
	return fingerprint(subject, val(p.username), val(p.email),
		val(p.firstName), val(p.lastName), p.role.String())
}

// mergeInto переносит изменившиеся значения в u. Возвращает true, если u изменён.
func (p profile) mergeInto(u *model.User) bool {
	changed := false
	set := func(dst **string, v *string) {
		if v == nil {
			return
		}
		if *dst == nil || **dst != *v {
			s := *v
			*dst = &s
			changed = true
		}
	}
	set(&u.Username, p.username)
	set(&u.Email, p.email)
	set(&u.FirstName, p.firstName)
	set(&u.LastName, p.lastName)
	if u.Role != p.role {
		u.Role = p.role
		changed = true
	}
	return changed
}

// IdentitySynchronizer — создание и обновление локальной копии пользователя IdP.
type IdentitySynchronizer struct {
	users  repository.UserRepository
	cache  *SyncCache
	logger *slog.Logger
}

// NewIdentitySynchronizer создаёт синхронизатор. cache может быть nil.
func NewIdentitySynchronizer(users repository.UserRepository, cache *SyncCache, logger *slog.Logger) *IdentitySynchronizer {
	return &IdentitySynchronizer{
		users:  users,
		cache:  cache,
		logger: logger.With(slog.String("component", "identity_sync")),
	}
}

// Synchronize возвращает локального пользователя для claims, создавая
// или обновляя запись. Вызовы для одного subject сериализуются.
func (s *IdentitySynchronizer) Synchronize(ctx context.Context, claims rbac.TokenClaims) (*model.User, error) {
	if claims == nil {
		return nil, fmt.Errorf("%w: claims отсутствуют", ErrUnauthenticated)
	}
	subject := strings.TrimSpace(claims.Subject())
	if subject == "" {
		return nil, fmt.Errorf("%w: в токене нет subject", ErrUnauthenticated)
	}

	p := extractProfile(claims)
	fp := p.fingerprint(subject)

	if u, ok := s.cache.Get(subject, fp); ok {
		userSyncTotal.WithLabelValues("cached").Inc()
		return u, nil
	}

	var (
		result  *model.User
		outcome string
	)
	err := s.users.WithSubjectLock(ctx, subject, func(tx repository.UserRepository) error {
		u, err := tx.GetByID(ctx, subject)
		if errors.Is(err, repository.ErrNotFound) {
			u = &model.User{ID: subject}
			p.mergeInto(u)
			if err := tx.Save(ctx, u); err != nil {
				return err
			}
			result, outcome = u, "created"
			return nil
		}
		if err != nil {
			return err
		}

		if p.mergeInto(u) {
			if err := tx.Save(ctx, u); err != nil {
				return err
			}
			outcome = "updated"
		} else {
			outcome = "unchanged"
		}
		result = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка синхронизации пользователя %s: %w", subject, err)
	}

	userSyncTotal.WithLabelValues(outcome).Inc()
	if outcome != "unchanged" {
		s.logger.Info("Пользователь синхронизирован",
			slog.String("subject", subject),
			slog.String("result", outcome),
			slog.String("role", result.Role.String()),
		)
	}

	s.cache.Put(subject, fp, result)
	return result, nil
}

// Invalidate сбрасывает кэш синхронизации subject.
func (s *IdentitySynchronizer) Invalidate(subject string) {
	s.cache.Invalidate(subject)
}
