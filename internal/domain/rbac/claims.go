// claims.go — извлечение роли из claims токена Keycloak.
package rbac

import "fmt"

// Имена claims, которые читает travel-module.
const (
	ClaimSubject           = "sub"
	ClaimEmail             = "email"
	ClaimGivenName         = "given_name"
	ClaimFamilyName        = "family_name"
	ClaimPreferredUsername = "preferred_username"
	ClaimRealmAccess       = "realm_access"
	ClaimResourceAccess    = "resource_access"
)

// TokenClaims — декодированный набор claims токена.
type TokenClaims interface {
	// Subject возвращает sub или пустую строку.
	Subject() string
	// Claim возвращает значение claim, если оно присутствует.
	Claim(name string) (any, bool)
	// ClaimString возвращает строковое значение claim, если оно присутствует и непустое.
	ClaimString(name string) (string, bool)
}

// ClaimSet — реализация TokenClaims поверх map[string]any
// (в том числе jwt.MapClaims после парсинга токена).
type ClaimSet map[string]any

// Subject возвращает значение claim sub.
func (c ClaimSet) Subject() string {
	s, _ := c.ClaimString(ClaimSubject)
	return s
}

// Claim возвращает значение claim по имени.
func (c ClaimSet) Claim(name string) (any, bool) {
	v, ok := c[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// ClaimString возвращает строковый claim. Нестроковые значения приводятся через fmt.
func (c ClaimSet) ClaimString(name string) (string, bool) {
	v, ok := c.Claim(name)
	if !ok {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	if s == "" {
		return "", false
	}
	return s, true
}

// ExtractRole определяет единственную роль по claims токена.
// Кандидаты — объединение realm_access.roles и roles всех клиентов
// из resource_access. Строки нормализуются через ParseRole,
// нераспознанные отбрасываются. Результат зависит только от фиксированного
// приоритета ролей, а не от порядка claims.
func ExtractRole(claims TokenClaims) Role {
	if claims == nil {
		return DefaultRole
	}

	candidates := make(map[Role]bool)
	add := func(items []string) {
		for _, item := range items {
			if r, ok := ParseRole(item); ok {
				candidates[r] = true
			}
		}
	}

	if realm, ok := claims.Claim(ClaimRealmAccess); ok {
		add(rolesOf(realm))
	}

	if resources, ok := claims.Claim(ClaimResourceAccess); ok {
		if clients, ok := resources.(map[string]any); ok {
			for _, client := range clients {
				add(rolesOf(client))
			}
		}
	}

	return HighestRole(candidates)
}

// rolesOf извлекает список roles из объекта вида {"roles": [...]}.
func rolesOf(v any) []string {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	switch roles := obj["roles"].(type) {
	case []string:
		return roles
	case []any:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
