package transport

import (
	"context"
	"sync"
)

// Completion is the concrete CompletionHandle implementations hand out.
// Transports call Complete exactly once when the write confirms or fails;
// additional calls are ignored.
type Completion struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewCompletion creates an unresolved completion.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Completed returns a completion already resolved with the given outcome.
// Useful for transports whose writes confirm synchronously.
func Completed(err error) *Completion {
	c := NewCompletion()
	c.Complete(err)
	return c
}

// Complete resolves the completion. A nil error means the write confirmed.
func (c *Completion) Complete(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Await blocks until the write resolves or ctx is done.
func (c *Completion) Await(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return c.err
	}
}

// Done returns a channel closed when the write has resolved.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Err returns the write's outcome. Valid only after Done is closed.
func (c *Completion) Err() error { return c.err }
