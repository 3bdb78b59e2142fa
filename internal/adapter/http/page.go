package http

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/Strob0t/pmreport/internal/domain/session"
)

//go:embed templates/index.html.tmpl
var indexTemplate string

//go:embed static
var staticFiles embed.FS

var indexPage = template.Must(template.New("index").Parse(indexTemplate))

// pageData is rendered into the index template.
type pageData struct {
	SessionID   string
	Loading     bool
	Success     bool
	Message     string
	ButtonLabel string
	ReportURL   string
	Filename    string
}

func newPageData(sessionID string, st session.State, filename string) pageData {
	label := "Start Project"
	if st.Phase == session.PhaseLoading {
		label = "Processing..."
	}
	return pageData{
		SessionID:   sessionID,
		Loading:     st.Phase == session.PhaseLoading,
		Success:     st.Phase == session.PhaseSuccess,
		Message:     st.Message,
		ButtonLabel: label,
		ReportURL:   "/api/v1/sessions/" + sessionID + "/report",
		Filename:    filename,
	}
}

// Index serves the page for a new session.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	id, st := h.Sessions.CreateSession(r.Context())

	var buf bytes.Buffer
	if err := indexPage.Execute(&buf, newPageData(id, st, h.filename())); err != nil {
		slog.ErrorContext(r.Context(), "render index page", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// staticHandler serves the embedded page assets under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
