package sale

import (
	"context"
	"time"

	"batteryshop/pkg/logger"
)

// State is a step of the sale state machine:
// Validating -> CustomerResolved -> PerLineProcessing -> Committing -> Committed | Aborted.
type State string

const (
	StateValidating        State = "validating"
	StateCustomerResolved  State = "customer_resolved"
	StatePerLineProcessing State = "per_line_processing"
	StateCommitting        State = "committing"
	StateCommitted         State = "committed"
	StateAborted           State = "aborted"
)

// Observer is notified of every state transition. line is the 1-based request line
// during PerLineProcessing and 0 otherwise.
type Observer func(from, to State, line int)

type run struct {
	state    State
	started  time.Time
	observer Observer
}

func newRun(observer Observer) *run {
	return &run{state: StateValidating, started: time.Now(), observer: observer}
}

func (r *run) to(ctx context.Context, next State, line int) {
	logger.Debug(ctx, "sale state", "from", r.state, "to", next, "line", line)
	if r.observer != nil {
		r.observer(r.state, next, line)
	}
	r.state = next
}

func (r *run) abort(ctx context.Context, err error) {
	failedIn := r.state
	r.to(ctx, StateAborted, 0)
	logger.Info(ctx, "sale aborted",
		"failed_in", failedIn,
		"error", err,
		"elapsed", time.Since(r.started))
}
