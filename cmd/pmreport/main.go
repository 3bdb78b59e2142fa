package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	pmhttp "github.com/Strob0t/pmreport/internal/adapter/http"
	"github.com/Strob0t/pmreport/internal/adapter/otel"
	"github.com/Strob0t/pmreport/internal/adapter/ws"
	"github.com/Strob0t/pmreport/internal/config"
	"github.com/Strob0t/pmreport/internal/logger"
	"github.com/Strob0t/pmreport/internal/middleware"
	"github.com/Strob0t/pmreport/internal/resilience"
	"github.com/Strob0t/pmreport/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "serve":
			return runServe(args[1:])
		case "report":
			return runReport(args[1:])
		case "help", "--help", "-h":
			printHelp()
			return nil
		}
	}
	return runServe(args)
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: pmreport [command] [options]

Commands:
  serve    Serve the project page and session API (default)
  report   Submit project details once and write the PDF report
  help     Show this help message

Serve options:
  -c, --config PATH      YAML config file (default pmreport.yaml)
  -p, --port PORT        HTTP listen port
  --log-level LEVEL      debug, info, warn or error
  --service-url URL      project-management service endpoint

Report options:
  -details TEXT          project details (prompted or read from stdin when omitted)
  -out FILE              output file (default project_management_result.pdf)
  -config PATH           YAML config file
  -service-url URL       project-management service endpoint

Examples:
  pmreport serve --port 9090
  pmreport report -details "Launch the mobile app" -out report.pdf
  echo "Launch the mobile app" | pmreport report
`)
}

func runServe(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pm_service_url", cfg.PMService.URL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	tel, err := otel.Setup(ctx, otel.Config{
		ServiceName:  cfg.Logging.Service,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Prometheus:   cfg.Telemetry.Prometheus,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Services ---
	hub := ws.NewHub(ws.OriginPatterns(cfg.Server.CORSOrigin)...)
	svc, err := newServices(cfg, hub, metrics)
	if err != nil {
		return err
	}
	defer svc.Close()
	svc.Sessions.AddOnExpire(hub.CloseSession)

	// --- HTTP ---
	handlers := &pmhttp.Handlers{
		Sessions:  svc.Sessions,
		Reports:   svc.Reports,
		Hub:       hub,
		BodyLimit: cfg.PMService.BodyLimit,
		Filename:  cfg.Report.Filename,
	}
	if svc.Cache != nil {
		handlers.Replays = svc.Cache
		handlers.ReplayTTL = cfg.Sessions.IdleTTL
	}
	var limiter *middleware.RateLimiter
	if cfg.Server.SubmitRate > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.SubmitRate, cfg.Server.SubmitBurst, middleware.SessionOrIP)
		handlers.SubmitLimiter = limiter
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(pmhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(pmhttp.SecurityHeaders)
	r.Use(pmhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))

	r.Get("/health", healthHandler(svc.Breaker, svc.Sessions, hub))
	if tel.MetricsHandler != nil {
		r.Handle("/metrics", tel.MetricsHandler)
	}

	pmhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.Sessions.IdleTTL > 0 {
		g.Go(func() error {
			return svc.Sessions.RunSweeper(gctx, cfg.Sessions.SweepInterval)
		})
	}

	if limiter != nil {
		g.Go(func() error {
			return limiter.RunCleanup(gctx, cfg.Sessions.SweepInterval, cfg.Sessions.IdleTTL)
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if drainErr := svc.Sessions.Drain(shutdownCtx); drainErr != nil {
			slog.Warn("in-flight submissions abandoned", "error", drainErr)
		}
		return err
	})

	return g.Wait()
}

// healthHandler returns an http.HandlerFunc that reports service health.
func healthHandler(breaker *resilience.Breaker, sessions *service.OrchestratorService, hub *ws.Hub) http.HandlerFunc {
	type healthStatus struct {
		Status      string `json:"status"`
		PMService   string `json:"pm_service"`
		Sessions    int    `json:"sessions"`
		Connections int    `json:"connections"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{
			Status:      "ok",
			PMService:   string(breaker.State()),
			Sessions:    sessions.SessionCount(),
			Connections: hub.ConnectionCount(),
		}
		if breaker.State() == resilience.StateOpen {
			status.Status = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
