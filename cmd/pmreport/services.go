package main

import (
	"fmt"

	"github.com/Strob0t/pmreport/internal/adapter/otel"
	"github.com/Strob0t/pmreport/internal/adapter/pmservice"
	"github.com/Strob0t/pmreport/internal/adapter/ristretto"
	"github.com/Strob0t/pmreport/internal/config"
	"github.com/Strob0t/pmreport/internal/layout"
	"github.com/Strob0t/pmreport/internal/port/broadcast"
	"github.com/Strob0t/pmreport/internal/resilience"
	"github.com/Strob0t/pmreport/internal/service"
)

// services bundles the wired application services.
type services struct {
	Breaker  *resilience.Breaker
	Sessions *service.OrchestratorService
	Reports  *service.ReportService
	Cache    *ristretto.Cache
}

// newServices wires the project service client, the orchestrator and the
// report renderer. hub and metrics may be nil.
func newServices(cfg *config.Config, hub broadcast.Broadcaster, metrics *otel.Metrics) (*services, error) {
	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	client := pmservice.NewClient(cfg.PMService.URL, pmservice.NewHTTPClient(cfg.PMService.Timeout))
	client.SetBreaker(breaker)
	client.SetBodyLimit(cfg.PMService.BodyLimit)

	sessions := service.NewOrchestratorService(client, hub, cfg.Sessions.IdleTTL)
	reports := service.NewReportService(sessions, layout.Defaults(), cfg.Report.Filename)
	if metrics != nil {
		sessions.SetMetrics(metrics)
		reports.SetMetrics(metrics)
	}

	s := &services{Breaker: breaker, Sessions: sessions, Reports: reports}

	if cfg.Report.CacheMaxMB > 0 {
		c, err := ristretto.New(cfg.Report.CacheMaxMB << 20)
		if err != nil {
			return nil, fmt.Errorf("report cache: %w", err)
		}
		reports.SetCache(c, cfg.Report.CacheTTL)
		s.Cache = c
	}
	return s, nil
}

// Close releases the shared cache.
func (s *services) Close() {
	if s.Cache != nil {
		s.Cache.Close()
	}
}
