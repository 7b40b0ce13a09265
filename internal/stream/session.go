// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream runs one streaming daemon request at a time per session
// and publishes its typed events to a sink.
package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/djinn-tui/internal/api"
)

// ErrBusy rejects a request submitted while another is in flight. The
// in-flight request is left untouched.
var ErrBusy = errors.New("session busy: request already in flight")

// =============================================================================
// SESSION STATES
// =============================================================================

// State is the session lifecycle position.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateCompleted
	StateFailed
	StateCancelled
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether the state ends a request's lifecycle.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// =============================================================================
// SESSION
// =============================================================================

// Event is one session-attributed stream event, as delivered to the sink.
type Event struct {
	SessionID string
	Label     string
	Event     api.StreamEvent
}

// Sink receives session events. It must be safe for concurrent use; the
// event bus qualifies.
type Sink func(Event)

// RunFunc performs the streaming request, emitting decoded events until the
// stream ends. The client's ChatStream/Pull/Create methods fit directly.
type RunFunc func(ctx context.Context, emit func(api.StreamEvent)) error

// Session is the per-request state machine:
//
//	Idle → Sending → Streaming → {Completed | Failed | Cancelled}
//
// At most one request is in flight; a second submission is rejected with
// ErrBusy. Each request delivers exactly one terminal event (Done, Error,
// or a synthesized Cancelled), and nothing after it. A terminal state
// returns to Idle implicitly on the next Start.
//
// IMPORTANT: Session must be used as a pointer. The mutex guards state
// transitions against the run goroutine.
type Session struct {
	mu     sync.Mutex
	id     string
	label  string
	state  State
	err    error
	cancel context.CancelFunc
	sink   Sink
	seq    int // increments per Start; stale goroutines are ignored
}

// NewSession creates an idle session. The label names the operation for
// display ("chat", "pull mistral:7b").
func NewSession(label string) *Session {
	return &Session{id: uuid.NewString(), label: label}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Label returns the display label.
func (s *Session) Label() string {
	return s.label
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure cause after a Failed terminal state.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateSending || s.state == StateStreaming
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start submits a request. It returns ErrBusy when one is already in
// flight; otherwise run executes on its own goroutine and events flow to
// sink until a terminal event is delivered.
func (s *Session) Start(ctx context.Context, run RunFunc, sink Sink) error {
	s.mu.Lock()
	if s.state == StateSending || s.state == StateStreaming {
		s.mu.Unlock()
		return ErrBusy
	}

	s.state = StateSending
	s.err = nil
	s.sink = sink
	s.seq++
	seq := s.seq

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		err := run(runCtx, func(ev api.StreamEvent) {
			s.deliver(seq, ev)
		})
		s.finish(seq, err)
		cancel()
	}()

	return nil
}

// Cancel aborts the in-flight request, if any. The transition to Cancelled
// happens immediately and the synthesized terminal event is delivered
// before Cancel returns; any bytes still arriving from the wire are
// suppressed.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSending && s.state != StateStreaming {
		return
	}
	s.state = StateCancelled
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.sink(Event{SessionID: s.id, Label: s.label, Event: api.StreamEvent{Kind: api.EventCancelled}})
}

// deliver forwards one decoded event to the sink, dropping events from
// superseded requests and everything after cancellation.
//
// The sink call happens under mu. Unlocking first would open a window for
// Cancel to publish its terminal event and then have this older event land
// after it; holding the lock keeps the published order identical to the
// state-transition order, so the terminal event is always last. The sink
// is a bus publish and never re-enters the session.
func (s *Session) deliver(seq int, ev api.StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != seq || s.state == StateCancelled {
		return
	}
	if s.state == StateSending {
		s.state = StateStreaming
	}
	if ev.Kind == api.EventDone {
		s.state = StateCompleted
		s.cancel = nil
	}
	s.sink(Event{SessionID: s.id, Label: s.label, Event: ev})
}

// finish records the run outcome. A cancelled request already delivered
// its terminal event; an error becomes a Failed state with an Error event.
func (s *Session) finish(seq int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != seq || s.state == StateCancelled {
		return
	}

	if err == nil {
		// Completed was recorded when the Done event was delivered.
		return
	}

	if errors.Is(err, context.Canceled) {
		// Parent context tore the request down without an explicit
		// Cancel call. Synthesize the same terminal event.
		s.state = StateCancelled
		s.sink(Event{SessionID: s.id, Label: s.label, Event: api.StreamEvent{Kind: api.EventCancelled}})
		return
	}

	s.state = StateFailed
	s.err = err
	s.sink(Event{SessionID: s.id, Label: s.label, Event: api.StreamEvent{Kind: api.EventError, Err: err}})
}
