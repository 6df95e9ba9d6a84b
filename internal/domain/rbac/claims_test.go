package rbac

import "testing"

// realm формирует claim realm_access в том виде, в каком его декодирует encoding/json.
func realm(roles ...string) map[string]any {
	items := make([]any, len(roles))
	for i, r := range roles {
		items[i] = r
	}
	return map[string]any{"roles": items}
}

func TestExtractRole(t *testing.T) {
	tests := []struct {
		name   string
		claims ClaimSet
		want   Role
	}{
		{
			name:   "нет ролей — MEMBER",
			claims: ClaimSet{"sub": "u1"},
			want:   RoleMember,
		},
		{
			name:   "только служебные роли Keycloak — MEMBER",
			claims: ClaimSet{"sub": "u1", "realm_access": realm("offline_access", "uma_authorization", "default-roles-stage")},
			want:   RoleMember,
		},
		{
			name:   "realm роль officer",
			claims: ClaimSet{"realm_access": realm("officer")},
			want:   RoleOfficer,
		},
		{
			name: "роль клиента выше realm роли",
			claims: ClaimSet{
				"realm_access": realm("ROLE_PMANAGER"),
				"resource_access": map[string]any{
					"travel-frontend": realm("head-market"),
				},
			},
			want: RoleHeadMarket,
		},
		{
			name: "объединение нескольких клиентов",
			claims: ClaimSet{
				"resource_access": map[string]any{
					"account":         realm("manage-account", "view-profile"),
					"travel-frontend": realm("tmanager"),
					"travel-backend":  realm("member"),
				},
			},
			want: RoleTManager,
		},
		{
			name:   "срез []string вместо []any",
			claims: ClaimSet{"realm_access": map[string]any{"roles": []string{"member", "officer"}}},
			want:   RoleOfficer,
		},
		{
			name:   "некорректная структура realm_access игнорируется",
			claims: ClaimSet{"realm_access": "officer"},
			want:   RoleMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractRole(tt.claims); got != tt.want {
				t.Errorf("ExtractRole = %q, хотели %q", got, tt.want)
			}
		})
	}
}

// TestExtractRole_OrderIndependent — результат не зависит от порядка ролей в claims.
func TestExtractRole_OrderIndependent(t *testing.T) {
	orders := [][]string{
		{"member", "officer", "pmanager", "head_market", "tmanager"},
		{"head_market", "tmanager", "member", "pmanager", "officer"},
		{"tmanager", "pmanager", "officer", "member", "head-market"},
	}

	for _, roles := range orders {
		claims := ClaimSet{"realm_access": realm(roles...)}
		for i := 0; i < 20; i++ {
			if got := ExtractRole(claims); got != RoleHeadMarket {
				t.Fatalf("ExtractRole(%v) = %q, хотели %q", roles, got, RoleHeadMarket)
			}
		}
	}
}

func TestExtractRole_NilClaims(t *testing.T) {
	if got := ExtractRole(nil); got != DefaultRole {
		t.Errorf("ExtractRole(nil) = %q, хотели %q", got, DefaultRole)
	}
}

func TestClaimSet(t *testing.T) {
	c := ClaimSet{
		"sub":   "subject-1",
		"email": "a@b.c",
		"empty": "",
		"num":   42,
		"null":  nil,
	}

	if c.Subject() != "subject-1" {
		t.Errorf("Subject() = %q", c.Subject())
	}
	if s, ok := c.ClaimString("email"); !ok || s != "a@b.c" {
		t.Errorf("ClaimString(email) = %q, %v", s, ok)
	}
	if _, ok := c.ClaimString("empty"); ok {
		t.Error("пустая строка не должна считаться присутствующим claim")
	}
	if s, ok := c.ClaimString("num"); !ok || s != "42" {
		t.Errorf("ClaimString(num) = %q, %v", s, ok)
	}
	if _, ok := c.Claim("null"); ok {
		t.Error("nil значение не должно считаться присутствующим claim")
	}
	if _, ok := c.Claim("missing"); ok {
		t.Error("отсутствующий claim найден")
	}
}
