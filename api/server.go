/*
server.go - HTTP router and middleware configuration.

Router: chi, same choice and middleware stack as the teacher's
server.go (Logger, Recoverer, RequestID, CORS) generalized from an
employee/policy dashboard's routes to the cash-flow API surface in spec
section 6. Write routes (anything that mutates store state) are gated by
requireAdmin/requireCSRF; read routes are open, matching the spec's
"gate writes, not reads" posture.
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token", "X-CSRF-Token"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/forecast", func(r chi.Router) {
		r.Get("/calendar", h.GetCalendarForecast)
		r.Get("/blended", h.GetBlendedForecast)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin, h.requireCSRF)
			r.Post("/simulate-spend", h.SimulateSpend)
		})
	})

	r.Get("/calendar", h.GetCalendar)

	r.Route("/key-events", func(r chi.Router) {
		r.Get("/", h.ListKeyEvents)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin, h.requireCSRF)
			r.Post("/", h.UpsertKeyEvent)
			r.Delete("/{id}", h.DeleteKeyEvent)
		})
	})

	r.Get("/overview", h.GetOverview)

	r.Route("/q", func(r chi.Router) {
		r.Get("/{query}", h.GetQuery)
		r.Get("/packs/{pack}", h.GetPack)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin, h.requireCSRF)
			r.Post("/export", h.Export)
		})
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.ListAccounts)
		r.Get("/anchors", h.ListAnchors)
		r.Get("/floors", h.ListFloors)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin, h.requireCSRF)
			r.Put("/{id}/anchor", h.UpsertAnchor)
		})
	})

	r.Route("/ingest", func(r chi.Router) {
		r.Use(h.requireAdmin, h.requireCSRF)
		r.Post("/{source}/{mode}", h.RunIngest)
	})

	return r
}
