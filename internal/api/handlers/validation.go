// validation.go — обработчики /api/v1/validation/*: двухэтапное согласование
// заявок. Доступ к маршрутам ограничивается middleware.RequireRole.
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
	"github.com/tayeb-bk/Stage-Ver/internal/service"
)

// workflowHandlers — обработчики согласования для одного вида заявок.
type workflowHandlers[R model.Request, D any] struct {
	h    *APIHandler
	flow *service.RequestWorkflow[R]
	dto  func(R) D
}

// mount регистрирует маршруты согласования на r.
func (wh workflowHandlers[R, D]) mount(r chi.Router) {
	r.Get("/", wh.list)
	r.Post("/{id}/step1", wh.step1)
	r.Post("/{id}/step2", wh.step2)
	r.Put("/{id}/status", wh.setStatus)
	r.Delete("/{id}", wh.delete)
}

// list — GET ?status=; без параметра возвращает все заявки.
func (wh workflowHandlers[R, D]) list(w http.ResponseWriter, r *http.Request) {
	status, ok := queryOptional(w, r, "status")
	if !ok {
		return
	}
	s := ""
	if status != nil {
		s = *status
	}
	items, err := wh.flow.ListByStatus(r.Context(), s)
	if err != nil {
		wh.h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(items, wh.dto))
}

func (wh workflowHandlers[R, D]) step1(w http.ResponseWriter, r *http.Request) {
	wh.step(w, r, wh.flow.Step1)
}

func (wh workflowHandlers[R, D]) step2(w http.ResponseWriter, r *http.Request) {
	wh.step(w, r, wh.flow.Step2)
}

func (wh workflowHandlers[R, D]) step(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id string, approved bool) (R, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	approved, ok := queryApproved(w, r)
	if !ok {
		return
	}
	rec, err := apply(r.Context(), id, approved)
	if err != nil {
		wh.h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wh.dto(rec))
}

// setStatus — PUT {id}/status?status= : прямая установка статуса.
func (wh workflowHandlers[R, D]) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	status, ok := queryRequired(w, r, "status")
	if !ok {
		return
	}
	rec, err := wh.flow.UpdateStatus(r.Context(), id, status)
	if err != nil {
		wh.h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wh.dto(rec))
}

func (wh workflowHandlers[R, D]) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := wh.flow.Delete(r.Context(), id); err != nil {
		wh.h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MountTravelValidation регистрирует согласование заявок на командировку.
func (h *APIHandler) MountTravelValidation(r chi.Router) {
	workflowHandlers[*model.TravelRequest, travelRequestResponse]{
		h: h, flow: h.svc.TravelFlow, dto: mapTravelRequest,
	}.mount(r)
}

// MountVisaValidation регистрирует согласование визовых заявок.
func (h *APIHandler) MountVisaValidation(r chi.Router) {
	workflowHandlers[*model.VisaRequest, visaRequestResponse]{
		h: h, flow: h.svc.VisaFlow, dto: mapVisaRequest,
	}.mount(r)
}
