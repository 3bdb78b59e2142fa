package project

import (
	"fmt"

	"github.com/Strob0t/pmreport/internal/domain"
)

// ValidateResult checks that a result carries the structure a report needs.
// The summary is optional; the task list and token counters are not.
func ValidateResult(r *Result) error {
	if r == nil {
		return fmt.Errorf("result is empty: %w", domain.ErrMalformedResponse)
	}
	if r.TasksOutput == nil {
		return fmt.Errorf("tasks_output is missing: %w", domain.ErrMalformedResponse)
	}
	if r.TokenUsage == nil {
		return fmt.Errorf("token_usage is missing: %w", domain.ErrMalformedResponse)
	}
	return nil
}
