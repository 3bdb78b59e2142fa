package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/Strob0t/pmreport/internal/adapter/otel"
	"github.com/Strob0t/pmreport/internal/domain"
	"github.com/Strob0t/pmreport/internal/domain/project"
	"github.com/Strob0t/pmreport/internal/domain/session"
	"github.com/Strob0t/pmreport/internal/logger"
	"github.com/Strob0t/pmreport/internal/port/broadcast"
	"github.com/Strob0t/pmreport/internal/port/pmservice"
)

// tracked is the server-side record of one page session.
type tracked struct {
	mu       sync.Mutex
	state    session.State
	seq      uint64             // last issued submission number
	cancel   context.CancelFunc // cancels the in-flight call, if any
	changed  chan struct{}      // closed and replaced on every transition
	lastSeen time.Time
	version  uint64 // bumped on every transition

	pubMu     sync.Mutex // serializes publishing; never held with mu
	published uint64     // version of the last state handed to observers
}

// OrchestratorService holds one request state per session and drives each
// submission to the remote project service through Loading to Success or
// Error. Only the most recent submission of a session may settle it.
type OrchestratorService struct {
	client  pmservice.Client
	hub     broadcast.Broadcaster
	metrics *otel.Metrics
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*tracked
	inflight sync.WaitGroup
	onExpire []func(sessionID string)
}

// NewOrchestratorService creates an OrchestratorService. Sessions not touched
// for idleTTL are removed by Sweep; zero keeps them forever.
func NewOrchestratorService(client pmservice.Client, hub broadcast.Broadcaster, idleTTL time.Duration) *OrchestratorService {
	return &OrchestratorService{
		client:   client,
		hub:      hub,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*tracked),
	}
}

// SetMetrics enables metric recording.
func (s *OrchestratorService) SetMetrics(m *otel.Metrics) {
	s.metrics = m
}

// SetClock overrides the time source.
func (s *OrchestratorService) SetClock(now func() time.Time) {
	s.now = now
}

// AddOnExpire registers a callback invoked after a session is swept.
func (s *OrchestratorService) AddOnExpire(fn func(sessionID string)) {
	s.onExpire = append(s.onExpire, fn)
}

// CreateSession starts a new session in the Idle state.
func (s *OrchestratorService) CreateSession(ctx context.Context) (string, session.State) {
	now := s.now()
	id := uuid.NewString()
	t := &tracked{
		state:    session.Idle(now),
		changed:  make(chan struct{}),
		lastSeen: now,
	}

	s.mu.Lock()
	s.sessions[id] = t
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionsActive.Add(ctx, 1)
	}
	slog.DebugContext(ctx, "session created", "session_id", id)
	return id, t.state
}

// State returns the current state of a session.
func (s *OrchestratorService) State(_ context.Context, sessionID string) (session.State, error) {
	t, err := s.lookup(sessionID)
	if err != nil {
		return session.State{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, nil
}

// Submit moves the session to Loading and sends details to the project
// service in the background. It returns the Loading state, whose Seq
// identifies this submission. An earlier call still in flight is cancelled
// and its outcome discarded. Empty details are forwarded unchanged.
func (s *OrchestratorService) Submit(ctx context.Context, sessionID, details string) (session.State, error) {
	t, err := s.lookup(sessionID)
	if err != nil {
		return session.State{}, err
	}

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	seq := t.seq
	// The call belongs to the session, not to the HTTP request that started it.
	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t.cancel = cancel
	st, v := s.transition(t, session.Begin(seq, s.now()))
	t.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SubmissionsStarted.Add(ctx, 1)
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		s.run(callCtx, sessionID, seq, details)
	}()

	// A settlement published first makes this a no-op.
	s.publish(ctx, sessionID, t, st, v)
	return st, nil
}

// Wait blocks until submission seq of the session has settled or been
// superseded, and returns the state at that point.
func (s *OrchestratorService) Wait(ctx context.Context, sessionID string, seq uint64) (session.State, error) {
	t, err := s.lookup(sessionID)
	if err != nil {
		return session.State{}, err
	}
	for {
		t.mu.Lock()
		st, ch := t.state, t.changed
		t.mu.Unlock()

		if st.Seq != seq || st.Terminal() {
			return st, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// SubmitAndWait runs one submission on a private session and returns its
// terminal state. The private session is removed afterwards.
func (s *OrchestratorService) SubmitAndWait(ctx context.Context, details string) (session.State, error) {
	id, _ := s.CreateSession(ctx)
	defer s.remove(ctx, id)

	st, err := s.Submit(ctx, id, details)
	if err != nil {
		return session.State{}, err
	}
	return s.Wait(ctx, id, st.Seq)
}

// Result returns the result of a session in the Success state together with
// the submission it belongs to.
func (s *OrchestratorService) Result(_ context.Context, sessionID string) (*project.Result, uint64, error) {
	t, err := s.lookup(sessionID)
	if err != nil {
		return nil, 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Phase != session.PhaseSuccess {
		return nil, 0, fmt.Errorf("session %s is %s: %w", sessionID, t.state.Phase, domain.ErrNoResult)
	}
	return t.state.Result, t.state.Seq, nil
}

// SessionCount returns the number of live sessions.
func (s *OrchestratorService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the configured TTL and returns
// how many were removed.
func (s *OrchestratorService) Sweep(ctx context.Context) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)

	// Session locks are taken only after s.mu is released.
	s.mu.Lock()
	candidates := make(map[string]*tracked, len(s.sessions))
	for id, t := range s.sessions {
		candidates[id] = t
	}
	s.mu.Unlock()

	var expired []string
	for id, t := range candidates {
		t.mu.Lock()
		idle := t.lastSeen.Before(cutoff)
		t.mu.Unlock()
		if idle {
			expired = append(expired, id)
		}
	}

	for _, id := range expired {
		s.remove(ctx, id)
		for _, fn := range s.onExpire {
			fn(id)
		}
	}
	if len(expired) > 0 {
		slog.InfoContext(ctx, "expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *OrchestratorService) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Drain waits for in-flight calls to settle or for ctx to end.
func (s *OrchestratorService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OrchestratorService) run(ctx context.Context, sessionID string, seq uint64, details string) {
	ctx = logger.WithSessionID(ctx, sessionID)
	ctx, span := otel.StartSubmissionSpan(ctx, sessionID, seq)
	defer span.End()

	start := time.Now()
	result, err := s.client.ManageProject(ctx, project.Request{ProjectDetails: details})
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "project service call failed")
	}
	s.settle(ctx, sessionID, seq, result, err, elapsed)
}

// settle applies the outcome of submission seq if it is still the latest one.
func (s *OrchestratorService) settle(ctx context.Context, sessionID string, seq uint64, result *project.Result, callErr error, elapsed time.Duration) {
	t, err := s.lookup(sessionID)
	if err != nil {
		slog.DebugContext(ctx, "settlement for removed session dropped", "seq", seq)
		return
	}

	t.mu.Lock()
	if !t.state.Accepts(seq) {
		current := t.state.Seq
		t.mu.Unlock()
		if s.metrics != nil {
			s.metrics.SubmissionsStale.Add(ctx, 1)
		}
		slog.DebugContext(ctx, "stale settlement discarded", "seq", seq, "current_seq", current)
		return
	}
	t.cancel = nil

	var (
		st session.State
		v  uint64
	)

	outcome := "success"
	if callErr != nil {
		outcome = "error"
		// Details stay in the log; the page only ever sees session.ErrorMessage.
		slog.ErrorContext(ctx, "project service call failed",
			"seq", seq,
			"error", callErr,
			"canceled", errors.Is(callErr, context.Canceled),
		)
		st, v = s.transition(t, t.state.Fail(s.now()))
		if s.metrics != nil {
			s.metrics.SubmissionsFailed.Add(ctx, 1)
		}
	} else {
		slog.InfoContext(ctx, "project service call succeeded", "seq", seq, "duration", elapsed)
		st, v = s.transition(t, t.state.Succeed(result, s.now()))
		if s.metrics != nil {
			s.metrics.SubmissionsSucceeded.Add(ctx, 1)
		}
	}
	if s.metrics != nil {
		s.metrics.SubmissionDuration.Record(ctx, elapsed.Seconds(),
			metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	t.mu.Unlock()

	s.publish(ctx, sessionID, t, st, v)
}

// transition stores st and wakes waiters. t.mu must be held. The returned
// version orders the state for publish, which must run after t.mu is
// released.
func (s *OrchestratorService) transition(t *tracked, st session.State) (session.State, uint64) {
	t.state = st
	t.lastSeen = st.UpdatedAt
	t.version++
	close(t.changed)
	t.changed = make(chan struct{})
	return st, t.version
}

// publish hands st to observers unless a newer version already went out, so
// observers never see a session move backwards. A slow observer delays only
// later publishes of the same session.
func (s *OrchestratorService) publish(ctx context.Context, sessionID string, t *tracked, st session.State, version uint64) {
	if s.hub == nil {
		return
	}
	t.pubMu.Lock()
	defer t.pubMu.Unlock()
	if version <= t.published {
		return
	}
	t.published = version
	s.hub.BroadcastToSession(ctx, sessionID, session.EventState, st)
}

func (s *OrchestratorService) lookup(sessionID string) (*tracked, error) {
	s.mu.Lock()
	t, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	t.mu.Lock()
	t.lastSeen = s.now()
	t.mu.Unlock()
	return t, nil
}

func (s *OrchestratorService) remove(ctx context.Context, sessionID string) {
	s.mu.Lock()
	t, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return
	}

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionsActive.Add(ctx, -1)
	}
}
