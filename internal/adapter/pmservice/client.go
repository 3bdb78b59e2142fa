// Package pmservice provides an HTTP client for the remote project-management
// service.
package pmservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Strob0t/pmreport/internal/domain"
	"github.com/Strob0t/pmreport/internal/domain/project"
	"github.com/Strob0t/pmreport/internal/resilience"
)

// DefaultBodyLimit caps the response body read from the service.
const DefaultBodyLimit = 8 << 20

// Client posts project details to a fixed endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *resilience.Breaker
	bodyLimit  int64
}

// NewHTTPClient returns an *http.Client whose outgoing requests are traced.
// A zero timeout means the call may run indefinitely.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewClient creates a client for the given absolute endpoint URL. A nil
// httpClient uses http.DefaultClient.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		bodyLimit:  DefaultBodyLimit,
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// SetBodyLimit overrides the maximum accepted response size in bytes.
func (c *Client) SetBodyLimit(n int64) {
	if n > 0 {
		c.bodyLimit = n
	}
}

// ManageProject posts {"project_details": ...} and decodes the result. The
// result's shape is not validated here.
func (c *Client) ManageProject(ctx context.Context, req project.Request) (*project.Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal project request: %w", err)
	}

	var result *project.Result
	call := func(ctx context.Context) error {
		data, err := c.doRequest(ctx, body)
		if err != nil {
			return err
		}
		var r project.Result
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		result = &r
		return nil
	}

	if c.breaker != nil {
		err = c.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.bodyLimit+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > c.bodyLimit {
		return nil, fmt.Errorf("response exceeds %d bytes", c.bodyLimit)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("project service error %d: %s", resp.StatusCode, truncate(data, 512))
	}
	return data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
