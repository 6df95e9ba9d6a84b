// Пакет model — доменные модели travel-module.
package model

import (
	"time"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/rbac"
)

// User — локальная копия пользователя IdP.
// ID совпадает с sub токена и не меняется после создания.
// Профильные поля nullable: токен может их не содержать.
type User struct {
	// ID — subject (sub) из Keycloak
	ID string
	// Username — preferred_username
	Username *string
	// Email — адрес электронной почты
	Email *string
	// FirstName — given_name
	FirstName *string
	// LastName — family_name
	LastName *string
	// Role — роль, выбранная по приоритету из claims токена
	Role rbac.Role
	// CreatedAt — время первой синхронизации
	CreatedAt time.Time
	// UpdatedAt — время последнего изменения
	UpdatedAt time.Time
}

// PrincipalRole реализует rbac.Principal.
func (u *User) PrincipalRole() rbac.Role {
	if u == nil {
		return ""
	}
	return u.Role
}

// Clone возвращает независимую копию пользователя.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Username = cloneString(u.Username)
	c.Email = cloneString(u.Email)
	c.FirstName = cloneString(u.FirstName)
	c.LastName = cloneString(u.LastName)
	return &c
}

// FullName возвращает "Имя Фамилия" или username, если имя не задано.
func (u *User) FullName() string {
	first, last := deref(u.FirstName), deref(u.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "" || last != "":
		return first + last
	default:
		return deref(u.Username)
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
