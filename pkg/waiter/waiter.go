package waiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/txm-control/txm-go/pkg/pv"
	"github.com/txm-control/txm-go/pkg/transport"
)

// DefaultInterval is the polling interval used when Config.Interval is zero.
const DefaultInterval = 100 * time.Millisecond

// Waiter errors.
var (
	// ErrTimeout indicates the PV never reached the target before the deadline.
	ErrTimeout = errors.New("wait timed out")

	// ErrCancelled indicates the caller cancelled the wait.
	ErrCancelled = errors.New("wait cancelled")

	// ErrTransportFailed indicates transport reads kept failing until the deadline.
	ErrTransportFailed = errors.New("wait aborted by persistent transport failure")

	// ErrWaiterUsed indicates a Waiter was reused. Waiters are single-use.
	ErrWaiterUsed = errors.New("waiter already used")
)

// State represents the waiter state.
type State uint8

const (
	// StateIdle indicates the wait has not started.
	StateIdle State = iota

	// StatePolling indicates the wait is in progress.
	StatePolling

	// StateReached indicates the PV reached the target.
	StateReached

	// StateTimedOut indicates the deadline passed first.
	StateTimedOut

	// StateCancelled indicates the caller gave up.
	StateCancelled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePolling:
		return "POLLING"
	case StateReached:
		return "REACHED"
	case StateTimedOut:
		return "TIMED_OUT"
	case StateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Config holds waiter tuning knobs.
type Config struct {
	// Interval between polls. Defaults to DefaultInterval.
	Interval time.Duration

	// Tolerance for numeric comparison. Zero means exact match.
	Tolerance float64
}

// Waiter polls one endpoint until it reaches a target value.
// A Waiter is single-use; create a fresh one per wait.
type Waiter struct {
	mu        sync.Mutex
	state     State
	transport transport.Transport
	cfg       Config
}

// New creates a waiter reading through the given transport.
func New(t transport.Transport, cfg Config) *Waiter {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Waiter{state: StateIdle, transport: t, cfg: cfg}
}

// State returns the current waiter state.
func (w *Waiter) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Waiter) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Wait polls ep until its value equals target (within the configured
// tolerance for numeric types), the timeout expires, or ctx is cancelled.
// A timeout <= 0 waits until reached or cancelled.
func (w *Waiter) Wait(ctx context.Context, ep pv.Endpoint, target pv.Value, timeout time.Duration) error {
	w.mu.Lock()
	if w.state != StateIdle {
		w.mu.Unlock()
		return ErrWaiterUsed
	}
	w.state = StatePolling
	w.mu.Unlock()

	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	// Tracks whether the most recent poll failed at the transport level,
	// so a deadline hit can be attributed correctly.
	var lastReadErr error

	for {
		raw, err := w.transport.Get(ctx, ep.Address)
		if err != nil {
			if ctx.Err() != nil {
				w.setState(StateCancelled)
				return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			}
			// Transient read failure: retry until the deadline.
			lastReadErr = err
		} else {
			lastReadErr = nil
			current, cerr := pv.Coerce(ep.Type, raw)
			if cerr == nil && current.Equal(target, w.cfg.Tolerance) {
				w.setState(StateReached)
				return nil
			}
		}

		select {
		case <-ctx.Done():
			w.setState(StateCancelled)
			return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		case <-deadline:
			w.setState(StateTimedOut)
			if lastReadErr != nil {
				return fmt.Errorf("%w: %q: %v", ErrTransportFailed, ep.Name, lastReadErr)
			}
			return fmt.Errorf("%w: %q did not reach %s within %v", ErrTimeout, ep.Name, target.GoString(), timeout)
		case <-ticker.C:
		}
	}
}
