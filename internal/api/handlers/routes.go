// routes.go — регистрация маршрутов API на chi-роутере.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteOptions — middleware, навешиваемые на группы маршрутов.
type RouteOptions struct {
	// ValidationGate ограничивает доступ к /api/v1/validation/*
	// (обычно middleware.RequireRole). nil — без ограничения.
	ValidationGate func(http.Handler) http.Handler
}

// HandlerFromMux регистрирует все маршруты обработчика на r.
func HandlerFromMux(h *APIHandler, r chi.Router, opts RouteOptions) {
	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)
	r.Get("/metrics", h.GetMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/profile", h.GetProfile)

		r.Route("/travel-requests", func(r chi.Router) {
			r.Get("/", h.ListTravelRequests)
			r.Post("/", h.CreateTravelRequest)
			r.Get("/{id}", h.GetTravelRequest)
			r.Put("/{id}", h.UpdateTravelRequest)
			r.Delete("/{id}", h.DeleteTravelRequest)
		})
		r.Route("/visa-requests", func(r chi.Router) {
			r.Get("/", h.ListVisaRequests)
			r.Post("/", h.CreateVisaRequest)
			r.Get("/{id}", h.GetVisaRequest)
			r.Put("/{id}", h.UpdateVisaRequest)
			r.Delete("/{id}", h.DeleteVisaRequest)
		})

		r.Route("/validation", func(r chi.Router) {
			if opts.ValidationGate != nil {
				r.Use(opts.ValidationGate)
			}
			r.Route("/travel-requests", h.MountTravelValidation)
			r.Route("/visa-requests", h.MountVisaValidation)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/stats", h.ProjectStats)
			r.Get("/{id}", h.GetProject)
			r.Put("/{id}", h.UpdateProject)
			r.Delete("/{id}", h.DeleteProject)
		})
		r.Route("/missions", func(r chi.Router) {
			r.Get("/", h.ListMissions)
			r.Post("/", h.CreateMission)
			r.Get("/{id}", h.GetMission)
			r.Put("/{id}", h.UpdateMission)
			r.Delete("/{id}", h.DeleteMission)
		})
		r.Route("/passports", func(r chi.Router) {
			r.Get("/", h.ListPassports)
			r.Post("/", h.CreatePassport)
			r.Get("/{id}", h.GetPassport)
			r.Put("/{id}", h.UpdatePassport)
			r.Delete("/{id}", h.DeletePassport)
		})
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Post("/", h.GenerateInvoice)
			r.Get("/{id}", h.GetInvoice)
			r.Delete("/{id}", h.DeleteInvoice)
		})

		r.Post("/users", h.RegisterUser)
		r.Delete("/users/{username}", h.DeleteUser)
	})
}
