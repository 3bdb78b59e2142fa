// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates that caller-supplied input was rejected.
var ErrValidation = errors.New("validation failed")

// ErrTransport indicates the remote project-management service could not be
// reached or answered with a failure status.
var ErrTransport = errors.New("project service request failed")

// ErrMalformedResponse indicates a result payload that lacks the structure
// required to render a report.
var ErrMalformedResponse = errors.New("malformed response")

// ErrNoResult indicates a report was requested before a submission succeeded.
var ErrNoResult = errors.New("no result available")
