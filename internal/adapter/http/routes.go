package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/pmreport/internal/middleware"
)

// MountRoutes registers the page, its assets and the session API on r.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/", h.Index)
	r.Handle("/static/*", staticHandler())

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(middleware.SessionID)
			r.Get("/", h.GetSession)
			r.With(h.replay, h.submitLimit).Post("/submissions", h.Submit)
			r.Get("/report", h.DownloadReport)
			r.Get("/ws", h.SessionEvents)
		})
	})
}

func (h *Handlers) submitLimit(next http.Handler) http.Handler {
	if h.SubmitLimiter == nil {
		return next
	}
	return h.SubmitLimiter.Handler(next)
}

func (h *Handlers) replay(next http.Handler) http.Handler {
	if h.Replays == nil {
		return next
	}
	return middleware.Idempotency(h.Replays, h.ReplayTTL)(next)
}
