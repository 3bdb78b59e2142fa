// Package pmservice defines the port interface for the remote
// project-management service.
package pmservice

import (
	"context"

	"github.com/Strob0t/pmreport/internal/domain/project"
)

// Client submits project details and returns the service's structured result.
// Implementations wrap every failure (network, non-2xx status, timeout,
// undecodable body) in domain.ErrTransport.
type Client interface {
	ManageProject(ctx context.Context, req project.Request) (*project.Result, error)
}
