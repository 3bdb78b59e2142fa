package otel

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSetupDisabled(t *testing.T) {
	tel, err := Setup(context.Background(), Config{ServiceName: "pmreport"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if tel.MetricsHandler != nil {
		t.Fatal("expected no metrics handler when prometheus is disabled")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestSetupPrometheusServesMetrics(t *testing.T) {
	ctx := context.Background()
	tel, err := Setup(ctx, Config{ServiceName: "pmreport", Prometheus: true})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer func() { _ = tel.Shutdown(ctx) }()

	m, err := NewMetrics()
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.SubmissionsStarted.Add(ctx, 1)

	srv := httptest.NewServer(tel.MetricsHandler)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "pmreport_submissions_started") {
		t.Fatalf("expected submissions counter in scrape output, got:\n%s", body)
	}
}
