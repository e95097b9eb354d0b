// Package actor implements the actor runtime shared by all four
// optimization tiers: an inbox, a throttle, an error sink, and the large
// neighborhood search (LNS) iteration loop.
//
// Each tier supplies an Algorithm implementation; actor.Runner drives the
// identical loop shape the teacher's pkg/scheduler and pkg/reconciler use
// (ticker + select, log-and-continue on error), dispatched through the
// Algorithm interface into one reusable driver instead of four
// copy-pasted loops.
package actor

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Objective is a tier's scalar (or lexicographic) objective value. Lower
// Better ordering is tier-specific; the runner only ever asks "is this
// candidate better than the incumbent".
type Objective interface {
	Better(other Objective) bool
}

// Algorithm is the operator set every tier implements: schedule (repair),
// unschedule (destroy), calculate_objective_value, incorporate_shared_state
// and publish.
type Algorithm interface {
	// Schedule performs one repair pass over the current (partially
	// destroyed) solution.
	Schedule(ctx context.Context) error
	// Unschedule destroys a neighborhood of the current solution using rng
	// for any random selection.
	Unschedule(ctx context.Context, rng *rand.Rand) error
	// ObjectiveValue scores the current solution.
	ObjectiveValue() Objective
	// IncorporateSharedState folds other tiers' latest published slices
	// into this algorithm's parameters/solution.
	IncorporateSharedState(ctx context.Context) error
	// Publish atomically publishes this tier's current solution slice to
	// the shared snapshot.
	Publish(ctx context.Context) error
	// Checkpoint returns an opaque handle sufficient to restore the
	// solution to its current state via Restore.
	Checkpoint() any
	// Restore rolls the solution back to a previously returned Checkpoint.
	Restore(checkpoint any)
}

// MessageHandler processes a tier-specific request message and returns a
// tier-specific response. Implementations run on the actor's own
// goroutine, so they never race with Schedule/Unschedule.
type MessageHandler interface {
	HandleMessage(ctx context.Context, payload any) (any, error)
}

// Message is one inbox entry: a request payload and the channel its
// response is delivered on.
type Message struct {
	Payload any
	Reply   chan Response
}

// Response is the result of handling one Message.
type Response struct {
	Value any
	Err   error
}

// IterationError is forwarded to the orchestrator's error sink on any
// fallible step, carrying enough context to diagnose it.
type IterationError struct {
	ActorID   string
	Iteration uint64
	Site      string
	Err       error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("actor %s iteration %d at %s: %v", e.ActorID, e.Iteration, e.Site, e.Err)
}

func (e *IterationError) Unwrap() error { return e.Err }

// Runner owns one tier actor's lifecycle: its algorithm, inbox, throttle
// and error sink.
type Runner struct {
	ID         string
	Algorithm  Algorithm
	Handler    MessageHandler
	Throttle   time.Duration
	Inbox      chan Message
	ErrSink    chan<- *IterationError
	stopCh     chan struct{}
	iteration  uint64
	rng        *rand.Rand
}

// NewRunner constructs a Runner with a multi-producer, single-consumer
// inbox sized for typical request bursts.
func NewRunner(id string, alg Algorithm, handler MessageHandler, throttle time.Duration, errSink chan<- *IterationError) *Runner {
	return &Runner{
		ID:        id,
		Algorithm: alg,
		Handler:   handler,
		Throttle:  throttle,
		Inbox:     make(chan Message, 64),
		ErrSink:   errSink,
		stopCh:    make(chan struct{}),
		rng:       rand.New(rand.NewSource(int64(len(id)) + 1)),
	}
}

// Stop closes stopCh, which terminates the actor at the next loop
// boundary.
func (r *Runner) Stop() {
	close(r.stopCh)
}

// Run executes the actor loop until Stop is called. A panic inside the
// loop terminates only this actor: it is recovered, reported to the error
// sink, and Run returns so the orchestrator can notice and respawn.
func (r *Runner) Run(ctx context.Context) {
	defer r.recoverPanic()

	if err := r.Algorithm.Schedule(ctx); err != nil {
		r.reportError("initial-schedule", err)
	} else if err := r.Algorithm.Publish(ctx); err != nil {
		r.reportError("initial-publish", err)
	}

	for {
		r.drainInbox(ctx)

		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-time.After(r.Throttle):
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		}

		r.runIteration(ctx)
	}
}

func (r *Runner) drainInbox(ctx context.Context) {
	for {
		select {
		case msg, ok := <-r.Inbox:
			if !ok {
				return
			}
			r.handleMessage(ctx, msg)
		default:
			return
		}
	}
}

func (r *Runner) handleMessage(ctx context.Context, msg Message) {
	if r.Handler == nil {
		msg.Reply <- Response{Err: fmt.Errorf("actor %s: no message handler registered", r.ID)}
		return
	}
	value, err := r.Handler.HandleMessage(ctx, msg.Payload)
	msg.Reply <- Response{Value: value, Err: err}
}

func (r *Runner) runIteration(ctx context.Context) {
	r.iteration++

	checkpoint := r.Algorithm.Checkpoint()
	before := r.Algorithm.ObjectiveValue()

	if err := r.Algorithm.Unschedule(ctx, r.rng); err != nil {
		r.reportError("unschedule", err)
		r.Algorithm.Restore(checkpoint)
		return
	}
	if err := r.Algorithm.Schedule(ctx); err != nil {
		r.reportError("schedule", err)
		r.Algorithm.Restore(checkpoint)
		return
	}

	after := r.Algorithm.ObjectiveValue()
	if after.Better(before) {
		if err := r.Algorithm.Publish(ctx); err != nil {
			r.reportError("publish", err)
			r.Algorithm.Restore(checkpoint)
		}
	} else {
		r.Algorithm.Restore(checkpoint)
	}

	if err := r.Algorithm.IncorporateSharedState(ctx); err != nil {
		r.reportError("incorporate-shared-state", err)
	}
}

func (r *Runner) reportError(site string, err error) {
	if r.ErrSink == nil {
		return
	}
	ie := &IterationError{ActorID: r.ID, Iteration: r.iteration, Site: site, Err: err}
	select {
	case r.ErrSink <- ie:
	default:
		// error sink full: drop rather than block the actor loop.
	}
}

func (r *Runner) recoverPanic() {
	if rec := recover(); rec != nil {
		r.reportError("panic", fmt.Errorf("%v", rec))
	}
}

// Send enqueues a request on the actor's inbox and blocks for a response
// or ctx cancellation.
func (r *Runner) Send(ctx context.Context, payload any) (any, error) {
	reply := make(chan Response, 1)
	select {
	case r.Inbox <- Message{Payload: payload, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-reply:
		return resp.Value, resp.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
