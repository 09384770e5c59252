package planner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/droproute/droproute/internal/geocoding"
	"github.com/droproute/droproute/internal/routing"
)

// ErrStaleRun is returned when committing a run that a newer run superseded.
var ErrStaleRun = errors.New("planning run superseded by a newer request")

// Result is the outcome of one planning run.
type Result struct {
	Plan      routing.Plan
	Itinerary []geocoding.LocatedPoint
	Err       error
}

// Snapshot is the committed state of a session.
type Snapshot struct {
	RunID       uint64
	Result      Result
	CommittedAt time.Time
}

// Run is a handle on one planning run within a session.
type Run struct {
	ID      uint64
	session *Session
	cancel  context.CancelFunc
}

// Done releases the run's context. Calling it more than once is safe.
func (r *Run) Done() {
	r.cancel()
}

// Session holds the route state of one presentation surface. Only the most
// recently begun run may commit; beginning a run cancels the one before it.
type Session struct {
	ID string

	mu       sync.Mutex
	lastRun  uint64
	active   *Run
	current  *Snapshot
	lastUsed time.Time
	logger   zerolog.Logger
}

// NewSession creates a session with the given ID.
func NewSession(id string, logger zerolog.Logger) *Session {
	return &Session{
		ID:       id,
		lastUsed: time.Now(),
		logger:   logger.With().Str("session_id", id).Logger(),
	}
}

// Begin starts a new run and cancels the previous one. The returned context
// is derived from ctx and is canceled when a newer run begins or when the
// run is done.
func (s *Session) Begin(ctx context.Context) (*Run, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.logger.Debug().Uint64("run_id", s.active.ID).Msg("superseding planning run")
		s.active.cancel()
	}

	s.lastRun++
	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{ID: s.lastRun, session: s, cancel: cancel}
	s.active = run
	s.lastUsed = time.Now()

	return run, runCtx
}

// Commit stores result as the session's current state if run is still the
// active run. A superseded run gets ErrStaleRun and changes nothing.
func (s *Session) Commit(run *Run, result Result) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.session != s || s.active != run {
		s.logger.Info().Uint64("run_id", run.ID).Uint64("active_run_id", s.lastRun).Msg("discarding stale planning result")
		return Snapshot{}, ErrStaleRun
	}

	snap := &Snapshot{RunID: run.ID, Result: result, CommittedAt: time.Now()}
	s.current = snap
	s.active = nil
	s.lastUsed = snap.CommittedAt

	s.logger.Info().
		Uint64("run_id", run.ID).
		Int("legs", len(result.Plan.Legs)).
		Str("status", string(result.Plan.Status())).
		Bool("failed", result.Err != nil).
		Msg("committed planning result")

	return *snap, nil
}

// Current returns the last committed snapshot, if any.
func (s *Session) Current() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Snapshot{}, false
	}
	return *s.current, true
}

// Do begins a run, executes fn with the run's context and commits its
// result.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context) Result) (Snapshot, error) {
	run, runCtx := s.Begin(ctx)
	defer run.Done()

	return s.Commit(run, fn(runCtx))
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Sessions is a registry of sessions keyed by ID.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   zerolog.Logger
}

// NewSessions creates an empty session registry.
func NewSessions(logger zerolog.Logger) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Create creates and registers a new session.
func (r *Sessions) Create() *Session {
	s := NewSession("ses_"+uuid.New().String(), r.logger)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s
}

// Get returns the session with the given ID.
func (r *Sessions) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of registered sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than maxIdle and returns how many
// were removed.
func (r *Sessions) Sweep(now time.Time, maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) > maxIdle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps idle sessions every interval until ctx is done.
func (r *Sessions) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now, maxIdle); n > 0 {
				r.logger.Debug().Int("removed", n).Msg("swept idle planning sessions")
			}
		}
	}
}
