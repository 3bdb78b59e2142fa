package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/Strob0t/pmreport/internal/config"
)

func TestNew(t *testing.T) {
	cfg := config.Logging{Level: "debug", Service: "test-svc"}
	l, closer := New(cfg)
	defer closer.Close()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewAsync(t *testing.T) {
	cfg := config.Logging{Level: "debug", Service: "test-svc", Async: true}
	l, closer := New(cfg)
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	closer.Close()
}

func TestServiceAttribute(t *testing.T) {
	var buf bytes.Buffer
	l, closer := NewWithWriter(config.Logging{Level: "info", Service: "pmreport-test"}, &buf)
	l.Info("hello")
	closer.Close()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", buf.String(), err)
	}
	if rec["service"] != "pmreport-test" {
		t.Errorf("expected service attribute, got %v", rec["service"])
	}
	if rec["msg"] != "hello" {
		t.Errorf("expected msg hello, got %v", rec["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, closer := NewWithWriter(config.Logging{Level: "warn", Service: "svc"}, &buf)
	l.Info("dropped")
	closer.Close()

	if buf.Len() != 0 {
		t.Errorf("expected info record to be filtered at warn level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input).String()
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()

	// Empty context returns empty string
	if got := RequestID(ctx); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}

	// Set and retrieve
	ctx = WithRequestID(ctx, "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("expected req-123, got %q", got)
	}
}

func TestSessionIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := SessionID(ctx); got != "" {
		t.Errorf("expected empty session ID, got %q", got)
	}

	ctx = WithSessionID(ctx, "sess-9")
	if got := SessionID(ctx); got != "sess-9" {
		t.Errorf("expected sess-9, got %q", got)
	}
	if got := RequestID(ctx); got != "req-1" {
		t.Errorf("request ID lost: got %q", got)
	}
}

func TestContextIDsOnRecords(t *testing.T) {
	var buf bytes.Buffer
	log, closer := NewWithWriter(config.Logging{Level: "info", Service: "pmreport"}, &buf)
	defer closer.Close()

	ctx := WithSessionID(WithRequestID(context.Background(), "req-7"), "sess-3")
	log.InfoContext(ctx, "submitted")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["request_id"] != "req-7" || rec["session_id"] != "sess-3" {
		t.Fatalf("expected context IDs on record, got %v", rec)
	}
}
