// internal/generation/flight.go
package generation

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is the cancellation cause of a generation replaced by a newer one.
var ErrSuperseded = errors.New("GENERATION_SUPERSEDED")

// Flight tracks the generation currently running for each session inside this
// process. Starting a new generation cancels the previous one for the same session.
type Flight struct {
	mu       sync.Mutex
	inflight map[string]*Ticket
}

func NewFlight() *Flight {
	return &Flight{inflight: make(map[string]*Ticket)}
}

// Ticket is one registered generation.
type Ticket struct {
	flight  *Flight
	session string
	ctx     context.Context
	cancel  context.CancelCauseFunc
	once    sync.Once
}

// Begin registers a generation for session. An empty session is never superseded.
func (f *Flight) Begin(parent context.Context, session string) *Ticket {
	ctx, cancel := context.WithCancelCause(parent)
	t := &Ticket{flight: f, session: session, ctx: ctx, cancel: cancel}

	if session == "" {
		return t
	}

	f.mu.Lock()
	prev := f.inflight[session]
	f.inflight[session] = t
	f.mu.Unlock()

	if prev != nil {
		prev.cancel(ErrSuperseded)
	}
	return t
}

// InFlight returns the number of sessions with a running generation.
func (f *Flight) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inflight)
}

// Context is cancelled with ErrSuperseded when a newer generation begins.
func (t *Ticket) Context() context.Context {
	return t.ctx
}

// Current reports whether no newer generation has begun for the session.
func (t *Ticket) Current() bool {
	if t.session == "" {
		return true
	}
	t.flight.mu.Lock()
	defer t.flight.mu.Unlock()
	return t.flight.inflight[t.session] == t
}

// Superseded reports whether the ticket was cancelled by a newer generation.
func (t *Ticket) Superseded() bool {
	return errors.Is(context.Cause(t.ctx), ErrSuperseded)
}

// Done releases the ticket. It is safe to call more than once.
func (t *Ticket) Done() {
	t.once.Do(func() {
		if t.session != "" {
			t.flight.mu.Lock()
			if t.flight.inflight[t.session] == t {
				delete(t.flight.inflight, t.session)
			}
			t.flight.mu.Unlock()
		}
		t.cancel(context.Canceled)
	})
}
