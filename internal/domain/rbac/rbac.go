// Пакет rbac — роли пользователей travel-module и правила их определения.
// Роль выбирается из токена IdP по фиксированному приоритету:
// HEAD_MARKET > OFFICER > TMANAGER > PMANAGER > MEMBER.
// Роль всегда сериализуется с префиксом ROLE_ (контракт с форматом claims Keycloak).
package rbac

import (
	"fmt"
	"strings"
)

// Role — роль пользователя в каноническом виде (с префиксом ROLE_).
type Role string

// Префикс пространства имён ролей.
const rolePrefix = "ROLE_"

// Роли в порядке убывания привилегий.
const (
	RoleHeadMarket Role = "ROLE_HEAD_MARKET"
	RoleOfficer    Role = "ROLE_OFFICER"
	RoleTManager   Role = "ROLE_TMANAGER"
	RolePManager   Role = "ROLE_PMANAGER"
	RoleMember     Role = "ROLE_MEMBER"
)

// DefaultRole — роль по умолчанию, если в токене нет распознаваемых ролей.
const DefaultRole = RoleMember

// priority — фиксированный порядок ролей от высшей к низшей.
// Только этот список определяет результат выбора роли.
var priority = []Role{
	RoleHeadMarket,
	RoleOfficer,
	RoleTManager,
	RolePManager,
	RoleMember,
}

// known — множество допустимых ролей для быстрого поиска.
var known = func() map[Role]bool {
	m := make(map[Role]bool, len(priority))
	for _, r := range priority {
		m[r] = true
	}
	return m
}()

// String возвращает каноническое строковое представление роли.
func (r Role) String() string {
	return string(r)
}

// Short возвращает имя роли без префикса (OFFICER, MEMBER, ...).
func (r Role) Short() string {
	return strings.TrimPrefix(string(r), rolePrefix)
}

// IsValid проверяет, является ли значение допустимой ролью.
func (r Role) IsValid() bool {
	return known[r]
}

// Roles возвращает копию списка ролей в порядке приоритета.
func Roles() []Role {
	out := make([]Role, len(priority))
	copy(out, priority)
	return out
}

// ParseRole приводит внешнюю строку роли к значению Role.
// Пробует по очереди: точное совпадение, "ROLE_"+верхний регистр,
// верхний регистр, верхний регистр с заменой '-' и пробелов на '_'
// (с добавлением префикса, если его нет).
// Возвращает false, если ни один вариант не распознан.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if r := Role(s); known[r] {
		return r, true
	}

	upper := strings.ToUpper(s)
	if r := Role(rolePrefix + upper); known[r] {
		return r, true
	}
	if r := Role(upper); known[r] {
		return r, true
	}

	normalized := strings.NewReplacer("-", "_", " ", "_").Replace(upper)
	if !strings.HasPrefix(normalized, rolePrefix) {
		normalized = rolePrefix + normalized
	}
	if r := Role(normalized); known[r] {
		return r, true
	}

	return "", false
}

// MustParseRole — как ParseRole, но возвращает ошибку с перечнем допустимых значений.
// Используется при разборе конфигурации и входных данных API.
func MustParseRole(s string) (Role, error) {
	r, ok := ParseRole(s)
	if !ok {
		return "", fmt.Errorf("недопустимая роль %q, допустимые: %s", s, strings.Join(roleNames(), ", "))
	}
	return r, nil
}

// ParseRoles разбирает список строк ролей; первая нераспознанная строка — ошибка.
func ParseRoles(items []string) ([]Role, error) {
	out := make([]Role, 0, len(items))
	for _, item := range items {
		r, err := MustParseRole(item)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// HighestRole возвращает роль с максимальным приоритетом из набора.
// Если набор пуст или не содержит допустимых ролей — DefaultRole.
func HighestRole(candidates map[Role]bool) Role {
	for _, r := range priority {
		if candidates[r] {
			return r
		}
	}
	return DefaultRole
}

func roleNames() []string {
	names := make([]string, len(priority))
	for i, r := range priority {
		names[i] = string(r)
	}
	return names
}
