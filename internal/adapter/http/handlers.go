package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Strob0t/pmreport/internal/adapter/ws"
	"github.com/Strob0t/pmreport/internal/domain/project"
	"github.com/Strob0t/pmreport/internal/domain/session"
	"github.com/Strob0t/pmreport/internal/middleware"
	"github.com/Strob0t/pmreport/internal/port/cache"
	"github.com/Strob0t/pmreport/internal/report"
	"github.com/Strob0t/pmreport/internal/service"
)

const defaultBodyLimit = 1 << 20 // 1 MB

// Handlers holds the services used by the HTTP handlers.
type Handlers struct {
	Sessions  *service.OrchestratorService
	Reports   *service.ReportService
	Hub       *ws.Hub
	BodyLimit int64
	Filename  string

	// SubmitLimiter throttles submissions per session. Nil disables it.
	SubmitLimiter *middleware.RateLimiter
	// Replays holds responses to submissions sent with an Idempotency-Key.
	// Nil disables replay.
	Replays   cache.Cache
	ReplayTTL time.Duration
}

type sessionResponse struct {
	ID    string        `json:"id"`
	State session.State `json:"state"`
}

// CreateSession handles POST /api/v1/sessions.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, st := h.Sessions.CreateSession(r.Context())
	writeJSON(w, http.StatusCreated, sessionResponse{ID: id, State: st})
}

// GetSession handles GET /api/v1/sessions/{id}.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.Sessions.State(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Submit handles POST /api/v1/sessions/{id}/submissions. The call to the
// project service continues in the background; the response carries the
// Loading state of the new submission.
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[project.Request](w, r, h.bodyLimit())
	if !ok {
		return
	}
	st, err := h.Sessions.Submit(r.Context(), urlParam(r, "id"), req.ProjectDetails)
	if err != nil {
		writeDomainError(w, r, err, "session not found")
		return
	}
	writeJSON(w, http.StatusAccepted, st)
}

// DownloadReport handles GET /api/v1/sessions/{id}/report.
func (h *Handlers) DownloadReport(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Reports.Render(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "session not found")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

// SessionEvents handles GET /api/v1/sessions/{id}/ws. The current state is
// sent first, followed by every later transition.
func (h *Handlers) SessionEvents(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	st, err := h.Sessions.State(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, "session not found")
		return
	}
	initial, err := ws.NewMessage(session.EventState, st)
	if err != nil {
		writeDomainError(w, r, err, "")
		return
	}
	h.Hub.HandleWS(w, r, id, &initial)
}

func (h *Handlers) bodyLimit() int64 {
	if h.BodyLimit > 0 {
		return h.BodyLimit
	}
	return defaultBodyLimit
}

func (h *Handlers) filename() string {
	if h.Filename != "" {
		return h.Filename
	}
	return report.DefaultFile
}
