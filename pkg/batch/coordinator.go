package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/txm-control/txm-go/pkg/pv"
	"github.com/txm-control/txm-go/pkg/transport"
)

// Batch errors.
var (
	// ErrResolved indicates the batching window already flushed.
	ErrResolved = errors.New("batch already resolved")
)

// PartialError aggregates the failed writes of a flushed batch.
// Flush waits for every handle before building it, so Failed is complete.
type PartialError struct {
	// Failed maps endpoint names to their write failures.
	Failed map[string]error
}

// Error implements error.
func (e *PartialError) Error() string {
	names := e.FailedNames()
	return fmt.Sprintf("batch: %d writes failed: %s", len(names), strings.Join(names, ", "))
}

// FailedNames returns the failed endpoint names in sorted order.
func (e *PartialError) FailedNames() []string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// pendingWrite is one dispatched write awaiting confirmation.
type pendingWrite struct {
	endpoint pv.Endpoint
	value    pv.Value
	handle   transport.CompletionHandle
}

// Coordinator collects the writes of one batching window.
type Coordinator struct {
	mu        sync.Mutex
	transport transport.Transport
	block     bool
	pending   []pendingWrite
	resolved  bool
	onResolve func(ep pv.Endpoint, value pv.Value, err error)
}

// NewCoordinator creates a coordinator for one batching window.
// block fixes whether Flush waits for the group to complete.
func NewCoordinator(t transport.Transport, block bool) *Coordinator {
	return &Coordinator{transport: t, block: block}
}

// OnResolve sets a callback invoked once per enqueued write when its
// confirmation resolves, regardless of the window's blocking mode.
// Must be set before the first Enqueue.
func (c *Coordinator) OnResolve(fn func(ep pv.Endpoint, value pv.Value, err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onResolve = fn
}

// Block reports whether the window resolves as a barrier on flush.
func (c *Coordinator) Block() bool { return c.block }

// Len returns the number of pending writes.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Enqueue dispatches a non-blocking write immediately and tracks its
// completion handle. A second write to the same endpoint within the window
// supersedes the first: the earlier write stays in flight but only the
// latest one is awaited on flush.
func (c *Coordinator) Enqueue(ctx context.Context, ep pv.Endpoint, value pv.Value) error {
	c.mu.Lock()
	if c.resolved {
		c.mu.Unlock()
		return ErrResolved
	}
	onResolve := c.onResolve
	c.mu.Unlock()

	handle, err := c.transport.Put(ctx, ep.Address, value.Raw())
	if err != nil {
		return fmt.Errorf("dispatch %q: %w", ep.Name, err)
	}

	if onResolve != nil {
		// Observes Done rather than Await, leaving the single Await for Flush.
		go func(fn func(pv.Endpoint, pv.Value, error)) {
			<-handle.Done()
			fn(ep, value, handle.Err())
		}(onResolve)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved {
		// Flush raced the dispatch; the write proceeds unawaited.
		return ErrResolved
	}
	for i, p := range c.pending {
		if p.endpoint.Name == ep.Name {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
	c.pending = append(c.pending, pendingWrite{endpoint: ep, value: value, handle: handle})
	return nil
}

// Flush resolves the window. Without blocking resolution it returns
// immediately and the dispatched writes complete in the background. With it,
// Flush waits for every pending handle, then reports the aggregate outcome:
// nil when all confirmed, or a *PartialError naming every failed endpoint.
// Flush never cancels in-flight writes.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.resolved {
		c.mu.Unlock()
		return ErrResolved
	}
	c.resolved = true
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if !c.block {
		return nil
	}

	failed := make(map[string]error)
	for _, p := range pending {
		if err := p.handle.Await(ctx); err != nil {
			failed[p.endpoint.Name] = err
		}
	}

	if len(failed) > 0 {
		return &PartialError{Failed: failed}
	}
	return nil
}
