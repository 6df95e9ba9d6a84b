package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{name: "с 1 по 5 число", from: date(2026, 3, 1), to: date(2026, 3, 5), want: 4},
		{name: "один день", from: date(2026, 3, 1), to: date(2026, 3, 1), want: 0},
		{name: "через границу месяца", from: date(2026, 1, 30), to: date(2026, 2, 2), want: 3},
		{name: "обратный порядок", from: date(2026, 3, 5), to: date(2026, 3, 1), want: -4},
		{
			name: "время суток игнорируется",
			from: time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC),
			to:   time.Date(2026, 3, 2, 0, 15, 0, 0, time.UTC),
			want: 1,
		},
		{name: "високосный год", from: date(2028, 2, 28), to: date(2028, 3, 1), want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("DaysBetween = %d, хотели %d", got, tt.want)
			}
		})
	}
}

func strp(s string) *string { return &s }

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{name: "имя и фамилия", user: User{FirstName: strp("Amine"), LastName: strp("Tayeb"), Username: strp("at")}, want: "Amine Tayeb"},
		{name: "только имя", user: User{FirstName: strp("Amine")}, want: "Amine"},
		{name: "только username", user: User{Username: strp("atayeb")}, want: "atayeb"},
		{name: "ничего нет", user: User{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.FullName(); got != tt.want {
				t.Errorf("FullName = %q, хотели %q", got, tt.want)
			}
		})
	}
}

func TestUser_Clone(t *testing.T) {
	u := &User{ID: "u1", Email: strp("a@b.c")}
	c := u.Clone()
	*c.Email = "x@y.z"
	if *u.Email != "a@b.c" {
		t.Errorf("Clone не должен разделять указатели: %q", *u.Email)
	}

	var nilUser *User
	if nilUser.Clone() != nil {
		t.Error("Clone(nil) должен вернуть nil")
	}
	if nilUser.PrincipalRole() != "" {
		t.Error("PrincipalRole(nil) должен вернуть пустую роль")
	}
}
