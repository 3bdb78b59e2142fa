package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/pmreport/internal/adapter/otel"
	"github.com/Strob0t/pmreport/internal/adapter/pdf"
	"github.com/Strob0t/pmreport/internal/domain/project"
	"github.com/Strob0t/pmreport/internal/layout"
	"github.com/Strob0t/pmreport/internal/port/cache"
	"github.com/Strob0t/pmreport/internal/report"
)

// ResultSource yields the successful result of a session and the submission
// it belongs to.
type ResultSource interface {
	Result(ctx context.Context, sessionID string) (*project.Result, uint64, error)
}

// Document is a rendered report ready for download.
type Document struct {
	Filename string
	Data     []byte
	Pages    int // zero when served from cache
}

// ReportService renders session results to PDF. Renders are cached per
// submission, and concurrent requests for the same submission share one
// render.
type ReportService struct {
	results  ResultSource
	renderer *report.Renderer
	layout   layout.Config
	filename string

	cache    cache.Cache
	cacheTTL time.Duration
	metrics  *otel.Metrics
	group    singleflight.Group
}

// NewReportService creates a ReportService. An empty filename selects
// report.DefaultFile.
func NewReportService(results ResultSource, cfg layout.Config, filename string) *ReportService {
	if filename == "" {
		filename = report.DefaultFile
	}
	return &ReportService{
		results:  results,
		renderer: report.NewRenderer(cfg),
		layout:   cfg,
		filename: filename,
	}
}

// SetCache enables caching of rendered documents for ttl.
func (s *ReportService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.cacheTTL = ttl
}

// SetMetrics enables metric recording.
func (s *ReportService) SetMetrics(m *otel.Metrics) {
	s.metrics = m
}

// Render returns the report for the session's current result. It fails with
// domain.ErrNoResult unless the session is in Success, and with
// domain.ErrMalformedResponse if the result cannot be laid out.
func (s *ReportService) Render(ctx context.Context, sessionID string) (*Document, error) {
	r, seq, err := s.results.Result(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("report:%s:%d", sessionID, seq)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			slog.DebugContext(ctx, "report served from cache", "key", key)
			return &Document{Filename: s.filename, Data: data}, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		ctx, span := otel.StartRenderSpan(ctx, sessionID)
		defer span.End()

		doc, err := s.RenderResult(ctx, r)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, doc.Data, s.cacheTTL); err != nil {
				slog.WarnContext(ctx, "report cache set failed", "key", key, "error", err)
			}
		}
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// RenderResult lays out r as a PDF without touching any session.
func (s *ReportService) RenderResult(ctx context.Context, r *project.Result) (*Document, error) {
	surface := pdf.NewSurface(s.layout)
	pages, err := s.renderer.Render(r, surface)
	if err != nil {
		return nil, s.renderFailed(ctx, err)
	}
	data, err := surface.Bytes()
	if err != nil {
		return nil, s.renderFailed(ctx, err)
	}

	if s.metrics != nil {
		s.metrics.ReportsRendered.Add(ctx, 1)
		s.metrics.ReportPages.Record(ctx, int64(pages))
	}
	slog.InfoContext(ctx, "report rendered", "pages", pages, "bytes", len(data))
	return &Document{Filename: s.filename, Data: data, Pages: pages}, nil
}

func (s *ReportService) renderFailed(ctx context.Context, err error) error {
	if s.metrics != nil {
		s.metrics.ReportsFailed.Add(ctx, 1)
	}
	slog.WarnContext(ctx, "report render failed", "error", err)
	return err
}
