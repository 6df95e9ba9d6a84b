// requests.go — обработчики /api/v1/travel-requests и /api/v1/visa-requests.
// Подача, изменение, чтение и удаление заявок от имени текущего пользователя.
package handlers

import (
	"net/http"
)

// ListTravelRequests — GET /api/v1/travel-requests.
// MEMBER получает только собственные заявки.
func (h *APIHandler) ListTravelRequests(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	items, err := h.svc.TravelRequests.List(r.Context(), u)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(items, mapTravelRequest))
}

// CreateTravelRequest — POST /api/v1/travel-requests.
// Заявка создаётся в статусе PENDING.
func (h *APIHandler) CreateTravelRequest(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	var body travelRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}
	tr, err := h.svc.TravelRequests.Create(r.Context(), u, body.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapTravelRequest(tr))
}

// GetTravelRequest — GET /api/v1/travel-requests/{id}.
func (h *APIHandler) GetTravelRequest(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tr, err := h.svc.TravelRequests.Get(r.Context(), u, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTravelRequest(tr))
}

// UpdateTravelRequest — PUT /api/v1/travel-requests/{id}.
func (h *APIHandler) UpdateTravelRequest(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body travelRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}
	tr, err := h.svc.TravelRequests.Update(r.Context(), u, id, body.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTravelRequest(tr))
}

// DeleteTravelRequest — DELETE /api/v1/travel-requests/{id}.
func (h *APIHandler) DeleteTravelRequest(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.TravelRequests.Delete(r.Context(), u, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVisaRequests — GET /api/v1/visa-requests.
func (h *APIHandler) ListVisaRequests(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	items, err := h.svc.VisaRequests.List(r.Context(), u)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(items, mapVisaRequest))
}

// CreateVisaRequest — POST /api/v1/visa-requests.
// Пустые поля паспорта заполняются из паспорта passport_id.
func (h *APIHandler) CreateVisaRequest(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	var body visaRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}
	vr, err := h.svc.VisaRequests.Create(r.Context(), u, body.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapVisaRequest(vr))
}

// GetVisaRequest — GET /api/v1/visa-requests/{id}.
func (h *APIHandler) GetVisaRequest(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	vr, err := h.svc.VisaRequests.Get(r.Context(), u, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapVisaRequest(vr))
}

// UpdateVisaRequest — PUT /api/v1/visa-requests/{id}.
func (h *APIHandler) UpdateVisaRequest(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body visaRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}
	vr, err := h.svc.VisaRequests.Update(r.Context(), u, id, body.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapVisaRequest(vr))
}

// DeleteVisaRequest — DELETE /api/v1/visa-requests/{id}.
func (h *APIHandler) DeleteVisaRequest(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.VisaRequests.Delete(r.Context(), u, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
