// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"

	"github.com/tayeb-bk/Stage-Ver/internal/repository"
)

var (
	// ErrUnauthenticated — в токене нет пригодного subject.
	ErrUnauthenticated = errors.New("пользователь не аутентифицирован")
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrStateConflict — операция недопустима в текущем статусе заявки.
	ErrStateConflict = errors.New("операция недопустима в текущем статусе")
	// ErrIDPUnavailable — Identity Provider (Keycloak) недоступен.
	ErrIDPUnavailable = errors.New("Identity Provider недоступен")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
)

// mapRepoError переводит ошибки репозитория в ошибки сервисного слоя.
// Остальные ошибки возвращаются без изменений.
func mapRepoError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, repository.ErrStale):
		return fmt.Errorf("%w: %s изменена после чтения, повторите запрос", ErrStateConflict, what)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err) //nolint:errorlint // намеренный двойной wrap
	case errors.Is(err, repository.ErrInvalidReference):
		return fmt.Errorf("%w: %s ссылается на несуществующую запись", ErrValidation, what)
	case errors.Is(err, repository.ErrConstraint):
		return fmt.Errorf("%w: %w", ErrValidation, err) //nolint:errorlint // намеренный двойной wrap
	default:
		return err
	}
}
