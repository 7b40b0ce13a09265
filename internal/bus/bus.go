// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bus merges the asynchronous event producers (stream sessions,
// log tail, redraw ticks) into one ordered queue for the view controller.
//
// Keyboard input is not routed here; Bubble Tea's own message queue
// delivers it, and the controller interleaves the two queues one event per
// wake-up.
package bus

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/djinn-tui/internal/stream"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("event bus closed")

// =============================================================================
// MESSAGES
// =============================================================================

// Msg is one queued event.
type Msg interface {
	busMsg()
}

// StreamMsg carries a session-attributed stream event.
type StreamMsg struct {
	Event stream.Event
}

// LogLineMsg carries one appended line from the session log tail.
type LogLineMsg struct {
	Line string
}

// TickMsg drives redraw throttling. At most one tick is pending at a time.
type TickMsg struct {
	Time time.Time
}

func (StreamMsg) busMsg()  {}
func (LogLineMsg) busMsg() {}
func (TickMsg) busMsg()    {}

// =============================================================================
// BUS
// =============================================================================

// Redraw ticks above this rate are dropped before they reach the queue.
const defaultTickRate = 30

// Bus is a FIFO queue with a single consumer. Producers push from any
// goroutine; the view controller drains. Every queued event is delivered
// exactly once, in arrival order; ticks are coalesced so a fast redraw
// cycle cannot starve the other producers.
type Bus struct {
	mu         sync.Mutex
	queue      []Msg
	tickQueued bool
	closed     bool

	notify  chan struct{}
	done    chan struct{}
	limiter *rate.Limiter
}

// New creates a bus with the default redraw tick rate.
func New() *Bus {
	return NewWithTickRate(defaultTickRate)
}

// NewWithTickRate creates a bus that admits at most ticksPerSecond redraw
// ticks. A non-positive rate disables throttling (coalescing still holds).
func NewWithTickRate(ticksPerSecond float64) *Bus {
	limit := rate.Limit(ticksPerSecond)
	if ticksPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Bus{
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Publish enqueues an event. Safe for concurrent use.
func (b *Bus) Publish(m Msg) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, m)
	b.mu.Unlock()
	b.signal()
}

// PublishTick enqueues a redraw tick, subject to both rate limiting and
// coalescing: ticks above the configured rate are dropped, and a tick is
// never queued while one is already pending.
func (b *Bus) PublishTick() {
	if !b.limiter.Allow() {
		return
	}

	b.mu.Lock()
	if b.closed || b.tickQueued {
		b.mu.Unlock()
		return
	}
	b.tickQueued = true
	b.queue = append(b.queue, TickMsg{Time: time.Now()})
	b.mu.Unlock()
	b.signal()
}

// Next blocks until an event is available and dequeues it. Only one
// goroutine may call Next.
func (b *Bus) Next(ctx context.Context) (Msg, error) {
	for {
		if m, ok := b.TryNext(); ok {
			return m, nil
		}

		b.mu.Lock()
		closed := b.closed
		b.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}

		select {
		case <-b.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-b.done:
			// Drain anything published before Close.
			if m, ok := b.TryNext(); ok {
				return m, nil
			}
			return nil, ErrClosed
		}
	}
}

// TryNext dequeues an event without blocking.
func (b *Bus) TryNext() (Msg, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return nil, false
	}
	m := b.queue[0]
	b.queue = b.queue[1:]
	if _, ok := m.(TickMsg); ok {
		b.tickQueued = false
	}
	return m, true
}

// Len returns the number of queued events.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Close stops the bus. Events already queued are still drained by Next;
// subsequent publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	close(b.done)
}

func (b *Bus) signal() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}
