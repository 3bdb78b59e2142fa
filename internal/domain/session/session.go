// Package session defines the request state machine held for each page session.
package session

import (
	"time"

	"github.com/Strob0t/pmreport/internal/domain/project"
)

// Phase is one of the mutually exclusive request phases.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseSuccess Phase = "success"
)

// EventState is the event type under which state transitions are published
// to observers of a session.
const EventState = "session.state"

// ErrorMessage is the only failure text ever shown to the user.
const ErrorMessage = "There was an error processing your request. Please try again later."

// State is a snapshot of a session's request lifecycle. Seq identifies the
// submission the state belongs to; it is zero while idle.
type State struct {
	Phase     Phase           `json:"phase"`
	Seq       uint64          `json:"seq"`
	Message   string          `json:"message,omitempty"`
	Result    *project.Result `json:"result,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Idle returns the initial state of a new session.
func Idle(now time.Time) State {
	return State{Phase: PhaseIdle, UpdatedAt: now}
}

// Begin returns the Loading state for submission seq. It may be called from
// any phase and clears a previous error or result.
func Begin(seq uint64, now time.Time) State {
	return State{Phase: PhaseLoading, Seq: seq, UpdatedAt: now}
}

// Accepts reports whether a settlement for submission seq may be applied.
// Only the latest submission, still loading, can settle.
func (s State) Accepts(seq uint64) bool {
	return s.Phase == PhaseLoading && s.Seq == seq
}

// Fail returns the Error state for the current submission.
func (s State) Fail(now time.Time) State {
	return State{Phase: PhaseError, Seq: s.Seq, Message: ErrorMessage, UpdatedAt: now}
}

// Succeed returns the Success state for the current submission.
func (s State) Succeed(r *project.Result, now time.Time) State {
	return State{Phase: PhaseSuccess, Seq: s.Seq, Result: r, UpdatedAt: now}
}

// Terminal reports whether the state is Error or Success.
func (s State) Terminal() bool {
	return s.Phase == PhaseError || s.Phase == PhaseSuccess
}
