// Package project defines the payloads exchanged with the remote
// project-management service.
package project

// FallbackSummary replaces an absent or empty summary in rendered reports.
const FallbackSummary = "No data available."

// Request is the body posted to the remote service.
type Request struct {
	ProjectDetails string `json:"project_details"`
}

// Result is the payload returned by the remote service. Pointer fields keep
// an absent key distinguishable from an empty value.
type Result struct {
	Raw         *string       `json:"raw,omitempty"`
	TasksOutput *[]TaskRecord `json:"tasks_output,omitempty"`
	TokenUsage  *TokenUsage   `json:"token_usage,omitempty"`
}

// TaskRecord is one unit of work reported by the remote service.
type TaskRecord struct {
	Agent          string  `json:"agent"`
	Description    string  `json:"description"`
	ExpectedOutput string  `json:"expected_output"`
	Raw            *string `json:"raw,omitempty"`
}

// TokenUsage holds the token counters of the remote run.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Summary returns the long-form summary, or FallbackSummary when it is absent
// or empty.
func (r *Result) Summary() string {
	if r.Raw == nil || *r.Raw == "" {
		return FallbackSummary
	}
	return *r.Raw
}

// Tasks returns the task records in report order. It returns nil when the
// list is absent.
func (r *Result) Tasks() []TaskRecord {
	if r.TasksOutput == nil {
		return nil
	}
	return *r.TasksOutput
}

// Body returns the task's long-form output and whether there is any to render.
func (t *TaskRecord) Body() (string, bool) {
	if t.Raw == nil || *t.Raw == "" {
		return "", false
	}
	return *t.Raw, true
}
