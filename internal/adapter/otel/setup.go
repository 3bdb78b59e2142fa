// Package otel wires OpenTelemetry metrics and tracing for pmreport.
package otel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and shuts down the installed providers.
type ShutdownFunc func(ctx context.Context) error

// Config selects the exporters installed by Setup.
type Config struct {
	ServiceName  string
	OTLPEndpoint string // host:port of an OTLP gRPC collector; empty disables OTLP
	Prometheus   bool
}

// Telemetry is the result of Setup.
type Telemetry struct {
	// MetricsHandler serves the Prometheus scrape endpoint. It is nil when
	// the Prometheus exporter is disabled.
	MetricsHandler http.Handler
	Shutdown       ShutdownFunc
}

// Setup installs global meter and tracer providers according to cfg. With
// no exporter configured the globals stay no-op.
func Setup(ctx context.Context, cfg Config) (*Telemetry, error) {
	t := &Telemetry{Shutdown: func(context.Context) error { return nil }}
	if !cfg.Prometheus && cfg.OTLPEndpoint == "" {
		return t, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	var shutdowns []ShutdownFunc
	metricOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.Prometheus {
		reg := promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(exporter))
		t.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	if cfg.OTLPEndpoint != "" {
		metricExp, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)))

		traceExp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExp),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		)
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	mp := sdkmetric.NewMeterProvider(metricOpts...)
	otel.SetMeterProvider(mp)
	shutdowns = append(shutdowns, mp.Shutdown)

	slog.Info("telemetry initialized",
		"prometheus", cfg.Prometheus,
		"otlp_endpoint", cfg.OTLPEndpoint,
	)

	t.Shutdown = func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}
	return t, nil
}
