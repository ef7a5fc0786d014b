package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caioevelyn/giftregistry/internal/observability"
	"github.com/caioevelyn/giftregistry/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter, adminToken string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(RateLimitMiddleware(rl))

	// Guest flow
	r.Post("/v1/guests", h.Identify)
	r.Get("/v1/catalog", h.ListCatalog)
	r.Get("/v1/registry/info", h.RegistryInfo)

	r.Route("/v1/sessions/{guestID}", func(r chi.Router) {
		r.Post("/advance", h.Advance)
		r.Post("/select-item", h.SelectItem)
		r.Delete("/select-item", h.DeselectItem)
		r.Post("/select-pledge", h.SelectPledge)
		r.Delete("/select-pledge", h.DeselectPledge)
	})

	r.Group(func(r chi.Router) {
		r.Use(IdempotencyMiddleware)
		r.Post("/v1/guests/{id}/confirm", h.Confirm)
	})
	r.Post("/v1/guests/{id}/message", h.AttachMessage)

	// Admin surface
	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(AdminAuthMiddleware(adminToken))
		r.Post("/items", h.CreateItem)
		r.Put("/items/{id}", h.UpdateItem)
		r.Delete("/items/{id}", h.DeleteItem)
		r.Get("/guests", h.ListGuests)
		r.Get("/pledges", h.ListPledges)
		r.Get("/summary", h.Summary)
	})

	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
