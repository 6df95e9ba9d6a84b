// gate.go — проверка роли перед изменяющими операциями.
package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAccessDenied — у пользователя нет требуемой роли.
var ErrAccessDenied = errors.New("доступ запрещён")

// Principal — субъект, для которого проверяется роль.
type Principal interface {
	PrincipalRole() Role
}

// Require проверяет, что роль субъекта входит в allowed.
// nil-субъект всегда получает отказ.
func Require(p Principal, allowed ...Role) error {
	if p == nil {
		return fmt.Errorf("%w: субъект не определён", ErrAccessDenied)
	}
	role := p.PrincipalRole()
	for _, r := range allowed {
		if r == role {
			return nil
		}
	}
	return fmt.Errorf("%w: роль %s, требуется %s", ErrAccessDenied, role, joinRoles(allowed))
}

func joinRoles(roles []Role) string {
	if len(roles) == 0 {
		return "(нет допустимых ролей)"
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, " или ")
}
