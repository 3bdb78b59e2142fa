package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/pmreport/internal/domain"
	"github.com/Strob0t/pmreport/internal/domain/project"
	"github.com/Strob0t/pmreport/internal/layout"
	"github.com/Strob0t/pmreport/internal/service"
)

type stubResults struct {
	result *project.Result
	seq    uint64
	err    error
}

func (s *stubResults) Result(context.Context, string) (*project.Result, uint64, error) {
	return s.result, s.seq, s.err
}

// countingCache is an in-memory cache.Cache that counts writes.
type countingCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newCountingCache() *countingCache {
	return &countingCache{data: make(map[string][]byte)}
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *countingCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *countingCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func TestReportRender(t *testing.T) {
	svc := service.NewReportService(&stubResults{result: sampleResult(), seq: 1}, layout.Defaults(), "")

	doc, err := svc.Render(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.Filename != "project_management_result.pdf" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}
	if doc.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.Pages)
	}
	if !bytes.HasPrefix(doc.Data, []byte("%PDF-")) {
		t.Fatal("expected PDF data")
	}
}

func TestReportRenderErrors(t *testing.T) {
	tests := []struct {
		name    string
		results *stubResults
		want    error
	}{
		{
			name:    "no result yet",
			results: &stubResults{err: fmt.Errorf("session s1 is loading: %w", domain.ErrNoResult)},
			want:    domain.ErrNoResult,
		},
		{
			name:    "unknown session",
			results: &stubResults{err: fmt.Errorf("session s1: %w", domain.ErrNotFound)},
			want:    domain.ErrNotFound,
		},
		{
			name:    "missing token usage",
			results: &stubResults{result: &project.Result{Raw: strPtr("x"), TasksOutput: &[]project.TaskRecord{}}, seq: 1},
			want:    domain.ErrMalformedResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewReportService(tt.results, layout.Defaults(), "")
			if _, err := svc.Render(context.Background(), "s1"); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReportRenderCachedPerSubmission(t *testing.T) {
	results := &stubResults{result: sampleResult(), seq: 1}
	c := newCountingCache()
	svc := service.NewReportService(results, layout.Defaults(), "custom.pdf")
	svc.SetCache(c, time.Minute)
	ctx := context.Background()

	first, err := svc.Render(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Render(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if c.sets != 1 {
		t.Fatalf("expected one cache write, got %d", c.sets)
	}
	if !bytes.Equal(first.Data, second.Data) || second.Filename != "custom.pdf" {
		t.Fatal("expected cached document returned")
	}

	// A newer submission renders again.
	results.seq = 2
	if _, err := svc.Render(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if c.sets != 2 {
		t.Fatalf("expected re-render for new submission, got %d writes", c.sets)
	}
}

func TestReportRenderConcurrent(t *testing.T) {
	svc := service.NewReportService(&stubResults{result: sampleResult(), seq: 7}, layout.Defaults(), "")
	svc.SetCache(newCountingCache(), time.Minute)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := svc.Render(context.Background(), "s1")
			if err == nil && len(doc.Data) == 0 {
				err = errors.New("empty document")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestRenderResultWithoutSession(t *testing.T) {
	svc := service.NewReportService(nil, layout.Defaults(), "")
	doc, err := svc.RenderResult(context.Background(), sampleResult())
	if err != nil {
		t.Fatalf("RenderResult: %v", err)
	}
	if doc.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.Pages)
	}
}
