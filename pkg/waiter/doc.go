// Package waiter polls a process variable until it reaches a target value.
//
// A Waiter is created per wait and runs the state machine
//
//	Idle -> Polling -> {Reached, TimedOut, Cancelled}
//
// Numeric values compare within a tolerance, everything else requires exact
// equality. A glitchy transport read never aborts an otherwise-successful
// wait: read failures are retried until the deadline and only surface as
// ErrTransportFailed when they persist to the end. The three terminal
// failures (ErrTimeout, ErrCancelled, ErrTransportFailed) stay
// distinguishable with errors.Is so callers can pick different recovery.
package waiter
