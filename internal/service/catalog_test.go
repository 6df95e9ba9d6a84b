package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/rbac"
	"github.com/tayeb-bk/Stage-Ver/internal/repository"
)

func TestProjectService_WriteGate(t *testing.T) {
	ctx := context.Background()
	repo := &memProjects{items: map[string]*model.Project{}}
	svc := NewProjectService(repo, []rbac.Role{rbac.RoleHeadMarket, rbac.RolePManager}, testLogger())

	tests := []struct {
		name    string
		actor   *model.User
		wantErr error
	}{
		{name: "HEAD_MARKET", actor: &model.User{ID: "h", Role: rbac.RoleHeadMarket}},
		{name: "PMANAGER", actor: &model.User{ID: "p", Role: rbac.RolePManager}},
		{name: "MEMBER", actor: member("m"), wantErr: rbac.ErrAccessDenied},
		{name: "OFFICER", actor: officer("o"), wantErr: rbac.ErrAccessDenied},
		{name: "без пользователя", actor: nil, wantErr: rbac.ErrAccessDenied},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := string(rune('A' + i))
			_, err := svc.Create(ctx, tt.actor, "Project "+code, code, "ACME")
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Create: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("ожидалась %v, получено: %v", tt.wantErr, err)
			}
		})
	}

	if len(repo.items) != 2 {
		t.Errorf("создано %d проектов, ожидалось 2", len(repo.items))
	}
}

func TestProjectService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewProjectService(&memProjects{items: map[string]*model.Project{}}, []rbac.Role{rbac.RoleHeadMarket}, testLogger())
	head := &model.User{ID: "h", Role: rbac.RoleHeadMarket}

	if _, err := svc.Create(ctx, head, " ", "X", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("пустое имя: ожидалась ErrValidation, получено: %v", err)
	}
	if _, err := svc.Create(ctx, head, "Alpha", "ALP", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, head, "Alpha 2", "ALP", ""); !errors.Is(err, ErrConflict) {
		t.Errorf("дубликат кода: ожидалась ErrConflict, получено: %v", err)
	}
	if err := svc.Delete(ctx, head, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("удаление несуществующего: ожидалась ErrNotFound, получено: %v", err)
	}
}

func TestMissionService_Validation(t *testing.T) {
	ctx := context.Background()
	projects := &memProjects{items: map[string]*model.Project{"p1": {ID: "p1", Name: "Alpha", Code: "ALP"}}}
	svc := NewMissionService(&memMissions{items: map[string]*model.Mission{}}, projects, testLogger())

	tests := []struct {
		name    string
		in      MissionInput
		wantErr error
	}{
		{name: "корректная", in: MissionInput{Name: "Kickoff", ProjectID: strPtr("p1"), StartDate: day(1), EndDate: day(2)}},
		{name: "без проекта", in: MissionInput{Name: "Internal"}},
		{name: "без имени", in: MissionInput{ProjectID: strPtr("p1")}, wantErr: ErrValidation},
		{name: "несуществующий проект", in: MissionInput{Name: "X", ProjectID: strPtr("p9")}, wantErr: ErrValidation},
		{name: "конец раньше начала", in: MissionInput{Name: "X", StartDate: day(5), EndDate: day(1)}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := svc.Create(ctx, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ожидалась %v, получено: %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if m.Name != tt.in.Name {
				t.Errorf("имя = %q", m.Name)
			}
		})
	}
}

func TestPassportService_OwnerScope(t *testing.T) {
	ctx := context.Background()
	svc := NewPassportService(newMemPassports(), testLogger())

	p, err := svc.Create(ctx, member("u1"), PassportInput{PassportNumber: "AB123", IssueDate: day(1), ExpiryDate: day(20)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.OwnerID != "u1" {
		t.Errorf("владелец = %q", p.OwnerID)
	}

	if _, err := svc.Get(ctx, member("u2"), p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("чужой паспорт: ожидалась ErrNotFound, получено: %v", err)
	}
	if _, err := svc.Update(ctx, member("u2"), p.ID, PassportInput{PassportNumber: "ZZ"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("изменение чужого паспорта: ожидалась ErrNotFound, получено: %v", err)
	}
	if err := svc.Delete(ctx, member("u2"), p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("удаление чужого паспорта: ожидалась ErrNotFound, получено: %v", err)
	}

	list, err := svc.List(ctx, member("u2"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("u2 видит %d паспортов", len(list))
	}

	if _, err := svc.Create(ctx, member("u1"), PassportInput{PassportNumber: "CD", IssueDate: day(10), ExpiryDate: day(2)}); !errors.Is(err, ErrValidation) {
		t.Errorf("expiry раньше issue: ожидалась ErrValidation, получено: %v", err)
	}
}

func TestVisaRequestService(t *testing.T) {
	ctx := context.Background()
	passports := newMemPassports()
	passports.items["pp1"] = &model.Passport{
		ID: "pp1", PassportNumber: "AB123", IssuingCountry: "DZ", OwnerID: "u1",
		IssueDate: day(1), ExpiryDate: day(28),
	}
	store := newMemVisa(passports)
	wf := NewRequestWorkflow[*model.VisaRequest]("visa", store, false, testLogger())
	svc := NewVisaRequestService(wf, store, passports, validationRoles, testLogger())

	vr, err := svc.Create(ctx, member("u1"), VisaRequestInput{PassportID: "pp1", CountryIssuingVisa: "FR", Status: strPtr("APPROVED")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if vr.Status != "PENDING" {
		t.Errorf("статус = %q, ожидался PENDING", vr.Status)
	}
	if vr.PassportNumber != "AB123" || vr.IssuingCountry != "DZ" {
		t.Errorf("поля паспорта не заполнены: %+v", vr)
	}

	if _, err := svc.Create(ctx, member("u2"), VisaRequestInput{PassportID: "pp1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("чужой паспорт: ожидалась ErrNotFound, получено: %v", err)
	}
	if _, err := svc.Create(ctx, member("u1"), VisaRequestInput{}); !errors.Is(err, ErrValidation) {
		t.Errorf("без паспорта: ожидалась ErrValidation, получено: %v", err)
	}
	if _, err := svc.Create(ctx, officer("o1"), VisaRequestInput{PassportID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("несуществующий паспорт: ожидалась ErrNotFound, получено: %v", err)
	}

	if _, err := svc.Get(ctx, member("u2"), vr.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("чужая заявка: ожидалась ErrNotFound, получено: %v", err)
	}
	if _, err := svc.Get(ctx, officer("o1"), vr.ID); err != nil {
		t.Errorf("OFFICER: %v", err)
	}

	own, err := svc.List(ctx, member("u1"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(own) != 1 {
		t.Errorf("u1 видит %d заявок, ожидалась 1", len(own))
	}
	other, err := svc.List(ctx, member("u2"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("u2 видит %d заявок, ожидалось 0", len(other))
	}

	if _, err := svc.Update(ctx, member("u1"), vr.ID, VisaRequestInput{PassportID: "pp1", Status: strPtr("APPROVED")}); !errors.Is(err, rbac.ErrAccessDenied) {
		t.Errorf("MEMBER меняет статус: ожидалась ErrAccessDenied, получено: %v", err)
	}
	approved, err := svc.Update(ctx, officer("o1"), vr.ID, VisaRequestInput{PassportID: "pp1", Status: strPtr("APPROVED")})
	if err != nil {
		t.Fatalf("Update(OFFICER): %v", err)
	}
	if approved.Status != "APPROVED" || approved.PassportNumber != "AB123" {
		t.Errorf("после Update: статус %q, паспорт %q", approved.Status, approved.PassportNumber)
	}

	// vr прочитана до смены статуса: запись по ней отклоняется
	staleRead := *vr
	if err := store.Update(ctx, &staleRead, repository.Revision{Status: vr.Status, UpdatedAt: vr.UpdatedAt}); !errors.Is(err, repository.ErrStale) {
		t.Errorf("устаревшая ревизия: ожидалась ErrStale, получено: %v", err)
	}

	if err := svc.Delete(ctx, member("u1"), vr.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, member("u1"), vr.ID); err != nil {
		t.Errorf("повторный Delete: %v", err)
	}
}
