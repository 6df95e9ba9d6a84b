// handler.go — основной обработчик API travel-module.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	apierrors "github.com/tayeb-bk/Stage-Ver/internal/api/errors"
	"github.com/tayeb-bk/Stage-Ver/internal/api/middleware"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/domain/rbac"
	"github.com/tayeb-bk/Stage-Ver/internal/service"
)

// Services — сервисный слой, используемый обработчиками.
type Services struct {
	TravelRequests *service.TravelRequestService
	VisaRequests   *service.VisaRequestService
	TravelFlow     *service.RequestWorkflow[*model.TravelRequest]
	VisaFlow       *service.RequestWorkflow[*model.VisaRequest]
	Projects       *service.ProjectService
	Missions       *service.MissionService
	Passports      *service.PassportService
	Invoices       *service.InvoiceService
	Users          *service.UserService
}

// APIHandler — основной обработчик API travel-module.
type APIHandler struct {
	health *HealthHandler
	svc    Services
	logger *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(health *HealthHandler, svc Services, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		health: health,
		svc:    svc,
		logger: logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst. При ошибке пишет 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return false
	}
	return true
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, rbac.ErrAccessDenied):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrStateConflict):
		apierrors.StateConflict(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrIDPUnavailable):
		h.logger.Error("Ошибка Keycloak Admin API",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.IDPUnavailable(w, "Keycloak недоступен")
	default:
		h.logger.Error("Внутренняя ошибка",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// actor возвращает пользователя запроса. Если JWTAuth не отработал —
// пишет 401 и возвращает nil.
func actor(w http.ResponseWriter, r *http.Request) *model.User {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		apierrors.Unauthorized(w, "Пользователь не определён")
	}
	return u
}

// pathID извлекает UUID из path-параметра {id}.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		apierrors.ValidationError(w, "Некорректный параметр id: "+err.Error())
		return "", false
	}
	return id.String(), true
}

// pathUsername извлекает path-параметр {username}.
func pathUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	var username string
	err := runtime.BindStyledParameterWithOptions("simple", "username", chi.URLParam(r, "username"), &username,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || username == "" {
		apierrors.ValidationError(w, "Некорректный параметр username")
		return "", false
	}
	return username, true
}

// queryApproved извлекает обязательный query-параметр approved.
func queryApproved(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var approved bool
	if err := runtime.BindQueryParameter("form", true, true, "approved", r.URL.Query(), &approved); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр approved: "+err.Error())
		return false, false
	}
	return approved, true
}

// queryOptional извлекает необязательный строковый query-параметр.
func queryOptional(w http.ResponseWriter, r *http.Request, name string) (*string, bool) {
	var v *string
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр "+name+": "+err.Error())
		return nil, false
	}
	return v, true
}

// queryRequired извлекает обязательный строковый query-параметр.
func queryRequired(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var v string
	if err := runtime.BindQueryParameter("form", true, true, name, r.URL.Query(), &v); err != nil {
		apierrors.ValidationError(w, "Некорректный параметр "+name+": "+err.Error())
		return "", false
	}
	return v, true
}
