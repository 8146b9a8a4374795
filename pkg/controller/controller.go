package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/txm-control/txm-go/pkg/batch"
	"github.com/txm-control/txm-go/pkg/log"
	"github.com/txm-control/txm-go/pkg/pv"
	"github.com/txm-control/txm-go/pkg/transport"
	"github.com/txm-control/txm-go/pkg/waiter"
)

// Controller errors.
var (
	ErrBatchActive   = errors.New("a batch is already active")
	ErrNoBatch       = errors.New("no batch is active")
	ErrSessionActive = errors.New("a scan session is already active")
	ErrNoTransport   = errors.New("controller requires a transport")
	ErrNoRegistry    = errors.New("controller requires an endpoint registry")
)

// Config holds controller construction parameters.
type Config struct {
	// Registry declares the instrument's endpoints. Required, immutable.
	Registry *pv.Registry

	// Transport performs the remote gets and puts. Required.
	Transport transport.Transport

	// PermitGranted authorizes writes to permit-required endpoints.
	// Fixed for the controller's lifetime.
	PermitGranted bool

	// Logger receives operation events. Nil disables logging.
	Logger log.Logger

	// Recorder archives resolved writes and waits. Optional.
	Recorder Recorder

	// Waiter provides defaults for WaitFor (interval; tolerance is
	// per-call).
	Waiter waiter.Config
}

// Controller is the facade instrument object. It resolves names to
// endpoints, enforces the permit gate, and routes writes either directly to
// the transport or through the active batching window.
type Controller struct {
	id        string
	registry  *pv.Registry
	transport transport.Transport
	permit    bool
	logger    log.Logger
	recorder  Recorder
	waitCfg   waiter.Config

	mu          sync.Mutex
	activeBatch *batch.Coordinator
	sessionID   string
	lastKnown   map[string]pv.Value
}

// New creates a controller from the given configuration.
func New(cfg Config) (*Controller, error) {
	if cfg.Registry == nil {
		return nil, ErrNoRegistry
	}
	if cfg.Transport == nil {
		return nil, ErrNoTransport
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Controller{
		id:        uuid.NewString(),
		registry:  cfg.Registry,
		transport: cfg.Transport,
		permit:    cfg.PermitGranted,
		logger:    logger,
		recorder:  cfg.Recorder,
		waitCfg:   cfg.Waiter,
		lastKnown: make(map[string]pv.Value),
	}, nil
}

// ID returns the controller instance identifier used in log events.
func (c *Controller) ID() string { return c.id }

// Registry returns the endpoint registry.
func (c *Controller) Registry() *pv.Registry { return c.registry }

// PermitGranted reports whether the controller holds the write permit.
func (c *Controller) PermitGranted() bool { return c.permit }

// LastKnown returns the cached value of an endpoint, if any. The cache is
// updated on confirmed writes and successful reads only; it is observability
// state, never consulted for correctness.
func (c *Controller) LastKnown(name string) (pv.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lastKnown[name]
	return v, ok
}

// Get reads the current value of the named endpoint. Always synchronous;
// an open batch never affects reads.
func (c *Controller) Get(ctx context.Context, name string) (pv.Value, error) {
	ep, err := c.registry.Lookup(name)
	if err != nil {
		return pv.Value{}, err
	}

	raw, err := c.transport.Get(ctx, ep.Address)
	if err != nil {
		c.emitError(ep, "get", err)
		return pv.Value{}, err
	}

	value, err := ep.Coerce(raw)
	if err != nil {
		return pv.Value{}, err
	}

	c.cache(ep.Name, value)
	c.emit(log.Event{
		Category: log.CategoryRead,
		Endpoint: ep.Name,
		Address:  ep.Address,
		Read:     &log.ReadEvent{Value: value.GoString()},
	})
	return value, nil
}

// Set writes a value to the named endpoint.
//
// With no batch open, the write honors the endpoint's default blocking
// policy: a waiting endpoint blocks until the instrument confirms, a
// non-waiting one returns as soon as the write is dispatched.
//
// With a batch open, the write is dispatched non-blocking through the batch
// and resolves when the window closes.
//
// A permit-required endpoint on a controller without the permit is a
// silent no-op: Set returns nil, no transport write happens.
func (c *Controller) Set(ctx context.Context, name string, value any) error {
	ep, err := c.registry.Lookup(name)
	if err != nil {
		return err
	}

	if ep.PermitRequired && !c.permit {
		c.emit(log.Event{
			Category: log.CategoryWrite,
			Severity: log.SeverityWarn,
			Endpoint: ep.Name,
			Address:  ep.Address,
			Write:    &log.WriteEvent{Value: fmt.Sprint(value), Skipped: true},
		})
		return nil
	}

	coerced, err := ep.Coerce(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	active := c.activeBatch
	c.mu.Unlock()

	if active != nil {
		if err := active.Enqueue(ctx, ep, coerced); err != nil {
			return err
		}
		c.emit(log.Event{
			Category: log.CategoryWrite,
			Endpoint: ep.Name,
			Address:  ep.Address,
			Write:    &log.WriteEvent{Value: coerced.GoString(), Batched: true},
		})
		return nil
	}

	return c.put(ctx, ep, coerced)
}

// put issues a direct write honoring the endpoint's blocking policy.
func (c *Controller) put(ctx context.Context, ep pv.Endpoint, value pv.Value) error {
	start := time.Now()
	handle, err := c.transport.Put(ctx, ep.Address, value.Raw())
	if err != nil {
		c.emitError(ep, "put", err)
		return err
	}

	c.emit(log.Event{
		Category: log.CategoryWrite,
		Endpoint: ep.Name,
		Address:  ep.Address,
		Write:    &log.WriteEvent{Value: value.GoString(), Blocking: ep.Wait},
	})

	if !ep.Wait {
		// Fire-and-forget toward the caller; confirmation is still
		// observed for the cache, the log, and the archive.
		go func() {
			<-handle.Done()
			c.resolveWrite(ep, value, start, handle.Err())
		}()
		return nil
	}

	err = handle.Await(ctx)
	c.resolveWrite(ep, value, start, err)
	return err
}

// resolveWrite updates observability state once a write's outcome is known.
func (c *Controller) resolveWrite(ep pv.Endpoint, value pv.Value, start time.Time, err error) {
	elapsed := time.Since(start)

	if err == nil {
		c.cache(ep.Name, value)
		c.emit(log.Event{
			Category: log.CategoryWrite,
			Endpoint: ep.Name,
			Address:  ep.Address,
			Write: &log.WriteEvent{
				Value:     value.GoString(),
				Blocking:  ep.Wait,
				Confirmed: true,
				Elapsed:   &elapsed,
			},
		})
	} else {
		c.emitError(ep, "put", err)
	}

	if c.recorder != nil {
		rec := WriteRecord{
			Time:     time.Now(),
			Endpoint: ep.Name,
			Address:  ep.Address,
			Value:    value.GoString(),
			OK:       err == nil,
			Elapsed:  elapsed,
		}
		if err != nil {
			rec.Err = err.Error()
		}
		c.recorder.RecordWrite(rec)
	}
}

// BeginBatch opens a batching window. Subsequent Sets are dispatched
// concurrently and resolved together by EndBatch. Batches do not nest.
func (c *Controller) BeginBatch(block bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeBatch != nil {
		return ErrBatchActive
	}

	coord := batch.NewCoordinator(c.transport, block)
	coord.OnResolve(func(ep pv.Endpoint, value pv.Value, err error) {
		c.resolveWrite(ep, value, time.Now(), err)
	})
	c.activeBatch = coord

	c.emitLocked(log.Event{
		Category: log.CategoryBatch,
		Batch:    &log.BatchEvent{Action: log.BatchOpened, Block: block},
	})
	return nil
}

// EndBatch closes the batching window. With blocking resolution it is a full
// barrier: it returns only after every write in the window resolved, and
// fails with a *batch.PartialError naming the endpoints whose writes failed.
// The window is cleared even when the flush fails; the controller is never
// left with a stale batch.
func (c *Controller) EndBatch(ctx context.Context) error {
	c.mu.Lock()
	coord := c.activeBatch
	c.mu.Unlock()

	if coord == nil {
		return ErrNoBatch
	}

	pending := coord.Len()
	err := coord.Flush(ctx)

	c.mu.Lock()
	c.activeBatch = nil
	c.mu.Unlock()

	ev := log.Event{
		Category: log.CategoryBatch,
		Batch:    &log.BatchEvent{Action: log.BatchFlushed, Block: coord.Block(), Pending: pending},
	}
	var partial *batch.PartialError
	if errors.As(err, &partial) {
		ev.Severity = log.SeverityError
		ev.Batch.Failed = partial.FailedNames()
	}
	c.emit(ev)
	return err
}

// BatchActive reports whether a batching window is open.
func (c *Controller) BatchActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeBatch != nil
}

// Batch runs fn inside a batching window, closing the window on every exit
// path including a body panic. The body's error takes precedence; a flush
// failure is joined to it.
func (c *Controller) Batch(ctx context.Context, block bool, fn func(ctx context.Context) error) (err error) {
	if err := c.BeginBatch(block); err != nil {
		return err
	}
	defer func() {
		flushErr := c.EndBatch(ctx)
		err = errors.Join(err, flushErr)
	}()
	return fn(ctx)
}

// WaitFor polls the named endpoint until it reaches target (within
// tolerance for numeric endpoints) or timeout expires. A zero tolerance
// means exact match; a negative tolerance falls back to the configured
// default. Each call uses a fresh waiter; cancellation via ctx surfaces as
// waiter.ErrCancelled.
func (c *Controller) WaitFor(ctx context.Context, name string, target any, tolerance float64, timeout time.Duration) error {
	ep, err := c.registry.Lookup(name)
	if err != nil {
		return err
	}
	if tolerance < 0 {
		tolerance = c.waitCfg.Tolerance
	}
	targetValue, err := ep.Coerce(target)
	if err != nil {
		return err
	}

	w := waiter.New(c.transport, waiter.Config{
		Interval:  c.waitCfg.Interval,
		Tolerance: tolerance,
	})

	start := time.Now()
	waitErr := w.Wait(ctx, ep, targetValue, timeout)
	elapsed := time.Since(start)
	outcome := w.State().String()

	ev := log.Event{
		Category: log.CategoryWait,
		Endpoint: ep.Name,
		Address:  ep.Address,
		Wait: &log.WaitEvent{
			Target:    targetValue.GoString(),
			Tolerance: tolerance,
			Timeout:   timeout,
			Outcome:   outcome,
			Elapsed:   elapsed,
		},
	}
	if waitErr != nil {
		ev.Severity = log.SeverityWarn
	}
	c.emit(ev)

	if c.recorder != nil {
		c.recorder.RecordWait(WaitRecord{
			Time:     time.Now(),
			Endpoint: ep.Name,
			Target:   targetValue.GoString(),
			Outcome:  outcome,
			Elapsed:  elapsed,
		})
	}
	return waitErr
}

// BeginSession marks a scan session active. Subsequent events carry the
// session ID. Sessions do not nest.
func (c *Controller) BeginSession(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID != "" {
		return ErrSessionActive
	}
	c.sessionID = id
	return nil
}

// EndSession clears the active scan session if id matches it.
func (c *Controller) EndSession(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == id {
		c.sessionID = ""
	}
}

// SessionID returns the active scan session ID, or "".
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Logger returns the controller's event logger.
func (c *Controller) Logger() log.Logger { return c.logger }

func (c *Controller) cache(name string, value pv.Value) {
	c.mu.Lock()
	c.lastKnown[name] = value
	c.mu.Unlock()
}

// emit stamps and publishes an event.
func (c *Controller) emit(ev log.Event) {
	ev.Timestamp = time.Now()
	ev.ControllerID = c.id
	c.mu.Lock()
	ev.SessionID = c.sessionID
	c.mu.Unlock()
	c.logger.Log(ev)
}

// emitLocked is emit for callers already holding c.mu.
func (c *Controller) emitLocked(ev log.Event) {
	ev.Timestamp = time.Now()
	ev.ControllerID = c.id
	ev.SessionID = c.sessionID
	c.logger.Log(ev)
}

func (c *Controller) emitError(ep pv.Endpoint, op string, err error) {
	c.emit(log.Event{
		Category: log.CategoryError,
		Severity: log.SeverityError,
		Endpoint: ep.Name,
		Address:  ep.Address,
		Error:    &log.ErrorEvent{Message: err.Error(), Context: op},
	})
}
