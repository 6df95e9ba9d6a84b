package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tayeb-bk/Stage-Ver/internal/api/middleware"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/rbac"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/workflow"
	"github.com/tayeb-bk/Stage-Ver/internal/repository"
	"github.com/tayeb-bk/Stage-Ver/internal/service"
)

const (
	knownID   = "11111111-1111-4111-8111-111111111111"
	missingID = "22222222-2222-4222-8222-222222222222"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memTravelStore — хранилище заявок на командировку в памяти.
type memTravelStore struct {
	mu    sync.Mutex
	items map[string]*model.TravelRequest
}

func (m *memTravelStore) GetByID(_ context.Context, id string) (*model.TravelRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *tr
	return &c, nil
}

func (m *memTravelStore) List(_ context.Context, f repository.RequestFilter) ([]*model.TravelRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.TravelRequest
	for _, tr := range m.items {
		if f.Status != "" && !strings.EqualFold(tr.Status, f.Status) {
			continue
		}
		c := *tr
		out = append(out, &c)
	}
	return out, nil
}

func (m *memTravelStore) Create(_ context.Context, tr *model.TravelRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *tr
	m.items[tr.ID] = &c
	return nil
}

func (m *memTravelStore) UpdateStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	tr.Status = status
	return nil
}

func (m *memTravelStore) CompareAndSetStatus(_ context.Context, id, expected, next string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.items[id]
	if !ok {
		return time.Time{}, false, repository.ErrNotFound
	}
	if tr.Status != expected {
		return time.Time{}, false, nil
	}
	tr.Status = next
	tr.UpdatedAt = time.Now().UTC()
	return tr.UpdatedAt, true, nil
}

func (m *memTravelStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// memProjects — ProjectRepository в памяти.
type memProjects struct {
	mu    sync.Mutex
	items map[string]*model.Project
}

func (m *memProjects) GetByID(_ context.Context, id string) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *memProjects) List(_ context.Context) ([]*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Project, 0, len(m.items))
	for _, p := range m.items {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (m *memProjects) Create(_ context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Code == p.Code {
			return repository.ErrConflict
		}
	}
	c := *p
	m.items[p.ID] = &c
	return nil
}

func (m *memProjects) Update(_ context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.ID]; !ok {
		return repository.ErrNotFound
	}
	c := *p
	m.items[p.ID] = &c
	return nil
}

func (m *memProjects) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memProjects) Stats(_ context.Context) ([]*model.ProjectStats, error) {
	return nil, nil
}

type testEnv struct {
	router   chi.Router
	requests *memTravelStore
	projects *memProjects
}

// newTestEnv собирает роутер с in-memory хранилищами. Пользователь
// запроса задаётся заголовком X-Test-Role (без заголовка — анонимный).
func newTestEnv(t *testing.T, strict bool) *testEnv {
	t.Helper()
	env := &testEnv{
		requests: &memTravelStore{items: map[string]*model.TravelRequest{
			knownID: {ID: knownID, Status: workflow.StatusPending, Version: 1},
		}},
		projects: &memProjects{items: map[string]*model.Project{}},
	}

	logger := testLogger()
	flow := service.NewRequestWorkflow[*model.TravelRequest]("travel", env.requests, strict, logger)
	h := NewAPIHandler(NewHealthHandler(nil, nil, nil), Services{
		TravelFlow: flow,
		Projects:   service.NewProjectService(env.projects, []rbac.Role{rbac.RoleHeadMarket, rbac.RolePManager}, logger),
	}, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role := r.Header.Get("X-Test-Role"); role != "" {
				u := &model.User{ID: "user-" + role, Role: rbac.Role(role)}
				r = r.WithContext(middleware.WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	})
	HandlerFromMux(h, r, RouteOptions{
		ValidationGate: middleware.RequireRole(rbac.RoleHeadMarket, rbac.RoleOfficer, rbac.RoleTManager),
	})
	env.router = r
	return env
}

func (env *testEnv) do(method, target string, role rbac.Role, body string) *httptest.ResponseRecorder {
	var rdr io.Reader = http.NoBody
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if role != "" {
		req.Header.Set("X-Test-Role", string(role))
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("ответ не является JSON: %v (%s)", err, rec.Body.String())
	}
	return env.Error.Code
}

func TestValidationRoutes(t *testing.T) {
	base := "/api/v1/validation/travel-requests/"

	tests := []struct {
		name       string
		method     string
		target     string
		role       rbac.Role
		wantStatus int
		wantCode   string
	}{
		{"анонимный запрос", http.MethodPost, base + knownID + "/step1?approved=true", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"MEMBER не согласует", http.MethodPost, base + knownID + "/step1?approved=true", rbac.RoleMember, http.StatusForbidden, "FORBIDDEN"},
		{"некорректный id", http.MethodPost, base + "not-a-uuid/step1?approved=true", rbac.RoleOfficer, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"approved не boolean", http.MethodPost, base + knownID + "/step1?approved=maybe", rbac.RoleOfficer, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"approved отсутствует", http.MethodPost, base + knownID + "/step1", rbac.RoleOfficer, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"заявка не найдена", http.MethodPost, base + missingID + "/step1?approved=true", rbac.RoleOfficer, http.StatusNotFound, "NOT_FOUND"},
		{"пустой статус", http.MethodPut, base + knownID + "/status?status=", rbac.RoleOfficer, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false)
			rec := env.do(tt.method, tt.target, tt.role, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("статус = %d, ожидалось %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("код ошибки = %s, ожидалось %s", code, tt.wantCode)
			}
		})
	}
}

func TestValidationFlow(t *testing.T) {
	env := newTestEnv(t, false)
	base := "/api/v1/validation/travel-requests/" + knownID

	steps := []struct {
		target     string
		wantStatus string
	}{
		{base + "/step2?approved=true", workflow.StatusPending},
		{base + "/step1?approved=true", workflow.StatusStep1Approved},
		{base + "/step1?approved=false", workflow.StatusStep1Approved},
		{base + "/step2?approved=true", workflow.StatusApproved},
	}
	for i, s := range steps {
		rec := env.do(http.MethodPost, s.target, rbac.RoleTManager, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("шаг %d: статус = %d (%s)", i, rec.Code, rec.Body.String())
		}
		var got travelRequestResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("шаг %d: %v", i, err)
		}
		if got.Status != s.wantStatus {
			t.Errorf("шаг %d: статус заявки = %s, ожидалось %s", i, got.Status, s.wantStatus)
		}
	}

	rec := env.do(http.MethodGet, "/api/v1/validation/travel-requests?status=approved", rbac.RoleOfficer, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("список: статус = %d", rec.Code)
	}
	var list []travelRequestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != knownID {
		t.Errorf("список APPROVED = %+v", list)
	}

	rec = env.do(http.MethodDelete, base, rbac.RoleOfficer, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("удаление: статус = %d", rec.Code)
	}
	rec = env.do(http.MethodDelete, base, rbac.RoleOfficer, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("повторное удаление: статус = %d, ожидалось 204", rec.Code)
	}
}

func TestValidationStrictMode(t *testing.T) {
	env := newTestEnv(t, true)
	rec := env.do(http.MethodPost, "/api/v1/validation/travel-requests/"+knownID+"/step2?approved=true", rbac.RoleOfficer, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("статус = %d, ожидалось 409 (%s)", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "STATE_CONFLICT" {
		t.Errorf("код ошибки = %s, ожидалось STATE_CONFLICT", code)
	}
}

func TestValidationEmptyList(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(http.MethodGet, "/api/v1/validation/travel-requests?status=REJECTED", rbac.RoleOfficer, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("тело = %s, ожидался пустой массив", body)
	}
}

func TestProjects(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(http.MethodPost, "/api/v1/projects", rbac.RoleMember, `{"name":"Alpha","code":"A-1"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("MEMBER: статус = %d, ожидалось 403", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/v1/projects", rbac.RolePManager, `{"name":"Alpha","code":"A-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("создание: статус = %d (%s)", rec.Code, rec.Body.String())
	}
	var created projectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	rec = env.do(http.MethodPost, "/api/v1/projects", rbac.RolePManager, `{"name":"Beta","code":"A-1"}`)
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "CONFLICT" {
		t.Errorf("дубликат кода: статус = %d (%s)", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/api/v1/projects", rbac.RolePManager, `{"name":" ","code":"B-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("пустое имя: статус = %d, ожидалось 400", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/v1/projects", rbac.RolePManager, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("битый JSON: статус = %d, ожидалось 400", rec.Code)
	}

	rec = env.do(http.MethodGet, "/api/v1/projects/"+created.ID, rbac.RoleMember, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("чтение: статус = %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/api/v1/projects", rbac.RoleMember, "")
	var list []projectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Code != "A-1" {
		t.Errorf("список проектов = %+v", list)
	}

	rec = env.do(http.MethodDelete, "/api/v1/projects/"+missingID, rbac.RoleHeadMarket, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("удаление несуществующего: статус = %d, ожидалось 404", rec.Code)
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"не аутентифицирован", service.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"доступ запрещён", fmt.Errorf("%w: роль", rbac.ErrAccessDenied), http.StatusForbidden, "FORBIDDEN"},
		{"не найдено", fmt.Errorf("%w: заявка", service.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"валидация", fmt.Errorf("%w: даты", service.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"конфликт статуса", fmt.Errorf("%w: step2", service.ErrStateConflict), http.StatusConflict, "STATE_CONFLICT"},
		{"дубликат", service.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"Keycloak", fmt.Errorf("%w: 503", service.ErrIDPUnavailable), http.StatusBadGateway, "IDP_UNAVAILABLE"},
		{"прочее", errors.New("соединение разорвано"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	h := NewAPIHandler(nil, Services{}, testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/api/v1/x", nil), tt.err)
			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидалось %d", rec.Code, tt.wantStatus)
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("код = %s, ожидалось %s", code, tt.wantCode)
			}
		})
	}
}
