package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
	"github.com/jmalhotra/tripforge/backend/internal/genai"
	"github.com/jmalhotra/tripforge/backend/internal/itinerary"
	"github.com/jmalhotra/tripforge/backend/internal/repo"
)

// SessionState is the observable state of a planner session. Loading is
// not represented: a session only exists once its trip has loaded, and a
// failed load means no session. Error outcomes are returned to the caller
// and the session settles back to StateReady — every failure is retryable.
type SessionState string

const (
	StateReady      SessionState = "ready"
	StateGenerating SessionState = "generating"
	StateSaving     SessionState = "saving"
)

// errSessionClosed wraps domain.ErrNotFound for operations that reach a
// session after it has been torn down.
var errSessionClosed = fmt.Errorf("session closed: %w", domain.ErrNotFound)

// PlannerService owns the planner sessions: one per (owner, trip) pair,
// created lazily from a fresh store read and discarded on teardown. There
// is no cross-session sharing of itinerary state.
type PlannerService struct {
	trips repo.TripRepo
	gen   genai.Generator
	log   *slog.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

type sessionKey struct {
	ownerID string
	tripID  uuid.UUID
}

// NewPlannerService constructs a PlannerService with the given collaborators.
func NewPlannerService(trips repo.TripRepo, gen genai.Generator, log *slog.Logger) *PlannerService {
	if log == nil {
		log = slog.Default()
	}
	return &PlannerService{
		trips:    trips,
		gen:      gen,
		log:      log,
		sessions: make(map[sessionKey]*Session),
	}
}

// Session returns the live session for (ownerID, tripID), loading the trip
// from the store and creating one if none exists. Load failures propagate
// the store error and leave no session behind, so the caller can retry.
func (p *PlannerService) Session(ctx context.Context, ownerID string, tripID uuid.UUID) (*Session, error) {
	key := sessionKey{ownerID: ownerID, tripID: tripID}

	p.mu.Lock()
	if s, ok := p.sessions[key]; ok {
		p.mu.Unlock()
		return s, nil
	}
	p.mu.Unlock()

	// Load outside the service lock — the store read can be slow.
	trip, err := p.trips.GetByID(ctx, ownerID, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.PlannerService.Session: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[key]; ok {
		// Another request created the session while we were loading.
		return s, nil
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		trips:  p.trips,
		gen:    p.gen,
		log:    p.log,
		trip:   trip,
		it:     trip.Itinerary,
		state:  StateReady,
		ctx:    sctx,
		cancel: cancel,
	}
	p.sessions[key] = s
	return s, nil
}

// CloseSession tears down the session for (ownerID, tripID), cancelling any
// in-flight generation or save. Closing a session that does not exist is a
// no-op.
func (p *PlannerService) CloseSession(ownerID string, tripID uuid.UUID) {
	key := sessionKey{ownerID: ownerID, tripID: tripID}

	p.mu.Lock()
	s, ok := p.sessions[key]
	delete(p.sessions, key)
	p.mu.Unlock()

	if ok {
		s.close()
	}
}

// Shutdown closes every live session. Called on server teardown.
func (p *PlannerService) Shutdown() {
	p.mu.Lock()
	sessions := make([]*Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.sessions = make(map[sessionKey]*Session)
	p.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

// Session is the single logical owner of one trip's in-memory itinerary.
// All mutations — generation replacement, manual add, manual remove, save —
// are serialized with respect to each other: triggering Generate while
// generating, or any mutation while an asynchronous step is outstanding,
// is rejected with domain.ErrBusy rather than run in parallel.
type Session struct {
	trips repo.TripRepo
	gen   genai.Generator
	log   *slog.Logger

	// ctx is cancelled on close, aborting the two suspension points
	// (generation round trip, store write) mid-flight.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	trip   domain.Trip // parameter snapshot used to build prompts
	it     domain.Itinerary
	state  SessionState
	closed bool
}

// State returns the session's current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Itinerary returns the current in-memory itinerary in day-number order.
func (s *Session) Itinerary() domain.Itinerary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itinerary.Snapshot(s.it)
}

// Generate builds the prompt from the trip's parameters, performs the
// generation round trip, and on success replaces the in-memory itinerary
// wholesale with the validated result. On any failure the prior itinerary
// is preserved untouched and the error is returned for retry. A result
// arriving after the session was closed is discarded, never applied.
func (s *Session) Generate(ctx context.Context) (domain.Itinerary, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("service.Session.Generate: %w", errSessionClosed)
	}
	if s.state != StateReady {
		s.mu.Unlock()
		return nil, fmt.Errorf("service.Session.Generate: %w", domain.ErrBusy)
	}
	s.state = StateGenerating
	prompt := itinerary.BuildPrompt(s.trip)
	s.mu.Unlock()

	result, err := s.generate(ctx, prompt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateReady
	if s.closed {
		// The owning view is gone; never reconcile a stale result.
		return nil, fmt.Errorf("service.Session.Generate: %w", errSessionClosed)
	}
	if err != nil {
		return nil, fmt.Errorf("service.Session.Generate: %w", err)
	}
	// Store in day-number order so positional addressing (removal by day
	// index) matches what clients see.
	s.it = itinerary.Snapshot(result)
	return s.it, nil
}

// generate runs the round trip and the extract/normalize pipeline without
// holding the session lock.
func (s *Session) generate(ctx context.Context, prompt string) (domain.Itinerary, error) {
	// Bound the round trip by both the caller's deadline and the session's
	// lifetime, so teardown cancels in-flight work.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	v, err := itinerary.Extract(raw)
	if err != nil {
		s.log.Warn("itinerary extraction failed",
			"trip_id", s.trip.ID, "response_len", len(raw))
		return nil, err
	}

	return itinerary.Normalize(v)
}

// AddActivity appends a manual activity to the given day number,
// gap-filling missing days, and returns the assigned activity plus the
// updated itinerary.
func (s *Session) AddActivity(dayNumber int, act domain.Activity) (domain.Activity, domain.Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Activity{}, nil, fmt.Errorf("service.Session.AddActivity: %w", errSessionClosed)
	}
	if s.state != StateReady {
		return domain.Activity{}, nil, fmt.Errorf("service.Session.AddActivity: %w", domain.ErrBusy)
	}

	it, added := itinerary.AddActivity(s.it, dayNumber, act)
	s.it = it
	return added, itinerary.Snapshot(it), nil
}

// RemoveActivity filters the identified activity out of the day at
// position dayIdx. Unknown identifiers and out-of-range indexes are
// no-ops, matching the reconciliation engine.
func (s *Session) RemoveActivity(dayIdx int, activityID string) (domain.Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("service.Session.RemoveActivity: %w", errSessionClosed)
	}
	if s.state != StateReady {
		return nil, fmt.Errorf("service.Session.RemoveActivity: %w", domain.ErrBusy)
	}

	s.it = itinerary.RemoveActivity(s.it, dayIdx, activityID)
	return itinerary.Snapshot(s.it), nil
}

// Save commits the current in-memory itinerary to the trip store as one
// atomic whole-document replacement and returns the stored trip. A failed
// save leaves the in-memory itinerary unchanged and is retryable.
func (s *Session) Save(ctx context.Context) (domain.Trip, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Trip{}, fmt.Errorf("service.Session.Save: %w", errSessionClosed)
	}
	if s.state != StateReady {
		s.mu.Unlock()
		return domain.Trip{}, fmt.Errorf("service.Session.Save: %w", domain.ErrBusy)
	}
	s.state = StateSaving
	owner, tripID := s.trip.OwnerID, s.trip.ID
	snapshot := itinerary.Snapshot(s.it)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	trip, err := s.trips.ReplaceItinerary(ctx, owner, tripID, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateReady
	if s.closed {
		return domain.Trip{}, fmt.Errorf("service.Session.Save: %w", errSessionClosed)
	}
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.Session.Save: %w", err)
	}
	s.trip = trip
	return trip, nil
}

// close cancels in-flight work and marks the session dead. Idempotent.
func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}
