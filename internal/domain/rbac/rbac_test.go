package rbac

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Role
		wantOK bool
	}{
		{name: "каноническое значение", input: "ROLE_OFFICER", want: RoleOfficer, wantOK: true},
		{name: "без префикса, нижний регистр", input: "officer", want: RoleOfficer, wantOK: true},
		{name: "с префиксом, смешанный регистр", input: "Role_TManager", want: RoleTManager, wantOK: true},
		{name: "дефис вместо подчёркивания", input: "head-market", want: RoleHeadMarket, wantOK: true},
		{name: "дефис с префиксом", input: "role-head-market", want: RoleHeadMarket, wantOK: true},
		{name: "пробел вместо подчёркивания", input: "Head Market", want: RoleHeadMarket, wantOK: true},
		{name: "пробелы по краям", input: "  member ", want: RoleMember, wantOK: true},
		{name: "неизвестная роль", input: "offline_access", wantOK: false},
		{name: "служебная роль Keycloak", input: "uma_authorization", wantOK: false},
		{name: "пустая строка", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRole(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseRole(%q) ok = %v, хотели %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseRole(%q) = %q, хотели %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestParseRole_RoundTrip — нормализованная роль совпадает с канонической
// и повторно разбирается в то же значение.
func TestParseRole_RoundTrip(t *testing.T) {
	for _, r := range Roles() {
		got, ok := ParseRole(r.String())
		if !ok || got != r {
			t.Errorf("ParseRole(%q) = %q, %v; хотели %q", r.String(), got, ok, r)
		}
	}

	hyphen, ok1 := ParseRole("head-market")
	canonical, ok2 := ParseRole("HEAD_MARKET")
	if !ok1 || !ok2 || hyphen != canonical {
		t.Errorf("head-market (%q) и HEAD_MARKET (%q) должны совпадать", hyphen, canonical)
	}
}

func TestMustParseRole(t *testing.T) {
	if _, err := MustParseRole("pmanager"); err != nil {
		t.Errorf("MustParseRole(pmanager): неожиданная ошибка %v", err)
	}
	if _, err := MustParseRole("root"); err == nil {
		t.Error("MustParseRole(root): ожидалась ошибка")
	}
}

func TestParseRoles(t *testing.T) {
	roles, err := ParseRoles([]string{"officer", "ROLE_HEAD_MARKET"})
	if err != nil {
		t.Fatalf("ParseRoles: неожиданная ошибка %v", err)
	}
	if len(roles) != 2 || roles[0] != RoleOfficer || roles[1] != RoleHeadMarket {
		t.Errorf("ParseRoles = %v", roles)
	}

	if _, err := ParseRoles([]string{"officer", "nobody"}); err == nil {
		t.Error("ParseRoles с неизвестной ролью: ожидалась ошибка")
	}
}

func TestHighestRole(t *testing.T) {
	tests := []struct {
		name       string
		candidates map[Role]bool
		want       Role
	}{
		{name: "пустой набор — роль по умолчанию", candidates: nil, want: RoleMember},
		{name: "одна роль", candidates: map[Role]bool{RolePManager: true}, want: RolePManager},
		{
			name:       "выбирается высшая",
			candidates: map[Role]bool{RoleMember: true, RoleOfficer: true, RoleTManager: true},
			want:       RoleOfficer,
		},
		{
			name:       "head market выше всех",
			candidates: map[Role]bool{RoleHeadMarket: true, RoleOfficer: true},
			want:       RoleHeadMarket,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighestRole(tt.candidates); got != tt.want {
				t.Errorf("HighestRole = %q, хотели %q", got, tt.want)
			}
		})
	}
}

func TestRole_Short(t *testing.T) {
	if got := RoleHeadMarket.Short(); got != "HEAD_MARKET" {
		t.Errorf("Short() = %q, хотели HEAD_MARKET", got)
	}
	if !RoleMember.IsValid() {
		t.Error("ROLE_MEMBER должна быть допустимой")
	}
	if Role("ROLE_ADMIN").IsValid() {
		t.Error("ROLE_ADMIN не должна быть допустимой")
	}
}

// stubPrincipal — субъект с фиксированной ролью.
type stubPrincipal Role

func (s stubPrincipal) PrincipalRole() Role { return Role(s) }

func TestRequire(t *testing.T) {
	tests := []struct {
		name    string
		p       Principal
		allowed []Role
		wantErr bool
	}{
		{name: "роль разрешена", p: stubPrincipal(RoleOfficer), allowed: []Role{RoleOfficer}},
		{name: "одна из нескольких", p: stubPrincipal(RoleTManager), allowed: []Role{RoleOfficer, RoleTManager}},
		{name: "роль не разрешена", p: stubPrincipal(RoleMember), allowed: []Role{RoleOfficer}, wantErr: true},
		{name: "более высокая роль не наследует права", p: stubPrincipal(RoleHeadMarket), allowed: []Role{RoleOfficer}, wantErr: true},
		{name: "nil субъект", p: nil, allowed: []Role{RoleMember}, wantErr: true},
		{name: "пустой список разрешённых", p: stubPrincipal(RoleHeadMarket), allowed: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Require(tt.p, tt.allowed...)
			if tt.wantErr {
				if !errors.Is(err, ErrAccessDenied) {
					t.Errorf("ожидалась ErrAccessDenied, получено %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("неожиданная ошибка: %v", err)
			}
		})
	}
}
