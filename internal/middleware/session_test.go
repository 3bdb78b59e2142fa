package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/pmreport/internal/logger"
)

func chiRouter(h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(SessionID)
		r.Get("/", h)
	})
	return r
}

func TestSessionIDFromRoute(t *testing.T) {
	var captured string
	r := chiRouter(func(w http.ResponseWriter, req *http.Request) {
		captured = logger.SessionID(req.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/sessions/abc-123", http.NoBody)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if captured != "abc-123" {
		t.Fatalf("expected session ID abc-123 in context, got %q", captured)
	}
}
