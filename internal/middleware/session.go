package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/pmreport/internal/logger"
)

// SessionID copies the {id} route parameter into the request context so that
// log records written while serving the request carry the session.
func SessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chi.URLParam(r, "id"); id != "" {
			r = r.WithContext(logger.WithSessionID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
