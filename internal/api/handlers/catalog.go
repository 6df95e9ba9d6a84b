// catalog.go — обработчики справочников: проекты, миссии, паспорта.
package handlers

import (
	"net/http"

	"github.com/tayeb-bk/Stage-Ver/internal/domain/model"
)

// --- Проекты ---

// ListProjects — GET /api/v1/projects.
func (h *APIHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Projects.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(items, mapProject))
}

// ProjectStats — GET /api/v1/projects/stats.
func (h *APIHandler) ProjectStats(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Projects.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(items, func(s *model.ProjectStats) projectStatsResponse {
		return projectStatsResponse{
			ProjectID:    s.ProjectID,
			Name:         s.Name,
			Code:         s.Code,
			MissionCount: s.MissionCount,
		}
	}))
}

// GetProject — GET /api/v1/projects/{id}.
func (h *APIHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Projects.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProject(p))
}

// CreateProject — POST /api/v1/projects.
// Доступ: роли TM_PROJECT_WRITE_ROLES (проверяет сервис).
func (h *APIHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	var body projectBody
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := h.svc.Projects.Create(r.Context(), u, body.Name, body.Code, body.ClientName)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapProject(p))
}

// UpdateProject — PUT /api/v1/projects/{id}.
func (h *APIHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body projectBody
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := h.svc.Projects.Update(r.Context(), u, id, body.Name, body.Code, body.ClientName)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProject(p))
}

// DeleteProject — DELETE /api/v1/projects/{id}.
func (h *APIHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Projects.Delete(r.Context(), u, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Миссии ---

// ListMissions — GET /api/v1/missions[?project_id=].
func (h *APIHandler) ListMissions(w http.ResponseWriter, r *http.Request) {
	projectID, ok := queryOptional(w, r, "project_id")
	if !ok {
		return
	}
	items, err := h.svc.Missions.List(r.Context(), projectID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(items, mapMission))
}

// GetMission — GET /api/v1/missions/{id}.
func (h *APIHandler) GetMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.svc.Missions.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapMission(m))
}

// CreateMission — POST /api/v1/missions.
func (h *APIHandler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var body missionBody
	if !decodeJSON(w, r, &body) {
		return
	}
	m, err := h.svc.Missions.Create(r.Context(), body.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapMission(m))
}

// UpdateMission — PUT /api/v1/missions/{id}.
func (h *APIHandler) UpdateMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body missionBody
	if !decodeJSON(w, r, &body) {
		return
	}
	m, err := h.svc.Missions.Update(r.Context(), id, body.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapMission(m))
}

// DeleteMission — DELETE /api/v1/missions/{id}.
func (h *APIHandler) DeleteMission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Missions.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Паспорта ---

// ListPassports — GET /api/v1/passports: паспорта текущего пользователя.
func (h *APIHandler) ListPassports(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	items, err := h.svc.Passports.List(r.Context(), u)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapList(items, mapPassport))
}

// GetPassport — GET /api/v1/passports/{id}.
func (h *APIHandler) GetPassport(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Passports.Get(r.Context(), u, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapPassport(p))
}

// CreatePassport — POST /api/v1/passports.
func (h *APIHandler) CreatePassport(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	var body passportBody
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := h.svc.Passports.Create(r.Context(), u, body.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapPassport(p))
}

// UpdatePassport — PUT /api/v1/passports/{id}.
func (h *APIHandler) UpdatePassport(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body passportBody
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := h.svc.Passports.Update(r.Context(), u, id, body.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapPassport(p))
}

// DeletePassport — DELETE /api/v1/passports/{id}.
func (h *APIHandler) DeletePassport(w http.ResponseWriter, r *http.Request) {
	u := actor(w, r)
	if u == nil {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Passports.Delete(r.Context(), u, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
