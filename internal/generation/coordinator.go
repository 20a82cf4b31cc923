// internal/generation/coordinator.go
package generation

import (
	"context"

	apperrors "sales-script-workers/internal/common/errors"
)

// Coordinator combines the in-process flight with the optional redis guard.
type Coordinator struct {
	flight *Flight
	guard  *Guard
}

// NewCoordinator accepts a nil guard for single-process deployments.
func NewCoordinator(flight *Flight, guard *Guard) *Coordinator {
	if flight == nil {
		flight = NewFlight()
	}
	return &Coordinator{flight: flight, guard: guard}
}

// Run is one generation registered with the coordinator.
type Run struct {
	ticket  *Ticket
	guard   *Guard
	session string
	id      string
}

// Start registers a generation for session and cancels older ones in this process.
func (c *Coordinator) Start(ctx context.Context, session string) (*Run, error) {
	ticket := c.flight.Begin(ctx, session)
	run := &Run{ticket: ticket, session: session}

	if c.guard != nil && session != "" {
		id, err := c.guard.Claim(ticket.Context(), session)
		if err != nil {
			ticket.Done()
			return nil, apperrors.NewGuardUnavailableError(err)
		}
		run.guard = c.guard
		run.id = id
	}
	return run, nil
}

// Context is cancelled when a newer generation for the same session starts here.
func (r *Run) Context() context.Context {
	return r.ticket.Context()
}

// ID is the guard's generation id; empty without a guard or session.
func (r *Run) ID() string {
	return r.id
}

// Commit returns a GENERATION_SUPERSEDED error when a newer generation started in
// this or another process. Call it before publishing results.
func (r *Run) Commit(ctx context.Context) error {
	if r.ticket.Superseded() || !r.ticket.Current() {
		return apperrors.NewGenerationSupersededError(r.session)
	}
	if r.guard == nil {
		return nil
	}

	ok, err := r.guard.IsCurrent(ctx, r.session, r.id)
	if err != nil {
		return apperrors.NewGuardUnavailableError(err)
	}
	if !ok {
		return apperrors.NewGenerationSupersededError(r.session)
	}
	return nil
}

// Superseded reports whether the run's context was cancelled by a newer generation.
func (r *Run) Superseded() bool {
	return r.ticket.Superseded()
}

// Close releases the in-process registration. The guard record expires on its own.
func (r *Run) Close() {
	r.ticket.Done()
}
