package transport

import "context"

// Transport performs the actual get/put against a remote endpoint address.
// Implementations must be safe for concurrent use: a batch dispatches
// several puts without waiting for earlier ones to confirm.
type Transport interface {
	// Get reads the current value at the given address. Synchronous.
	Get(ctx context.Context, address string) (any, error)

	// Put issues a write and returns immediately with a handle that
	// resolves when the instrument confirms the new value. The returned
	// error covers dispatch failures only; confirmation failures surface
	// through the handle.
	Put(ctx context.Context, address string, value any) (CompletionHandle, error)
}

// CompletionHandle represents the in-flight confirmation of a single write.
type CompletionHandle interface {
	// Await blocks until the write confirms, fails, or ctx is done.
	// Safe to call at most once.
	Await(ctx context.Context) error

	// Done returns a channel closed when the write has resolved.
	Done() <-chan struct{}

	// Err returns the write's outcome. Valid only after Done is closed.
	Err() error
}

// Compile-time interface satisfaction check.
var _ CompletionHandle = (*Completion)(nil)
