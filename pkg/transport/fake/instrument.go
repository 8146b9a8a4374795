package fake

import (
	"context"
	"sync"
	"time"

	"github.com/txm-control/txm-go/pkg/transport"
)

// OpKind distinguishes journal entries.
type OpKind string

const (
	OpGet         OpKind = "get"
	OpPutDispatch OpKind = "put"
	OpPutConfirm  OpKind = "confirm"
)

// Op is one journaled transport operation.
type Op struct {
	Kind    OpKind
	Address string
	Value   any
	At      time.Time
}

// Instrument is an in-memory transport double.
type Instrument struct {
	mu         sync.Mutex
	values     map[string]any
	putLatency time.Duration
	failPut    map[string]error
	failGet    map[string]*getFailure
	journal    []Op
}

type getFailure struct {
	remaining int // negative means fail forever
	err       error
}

// NewInstrument creates an empty fake instrument.
func NewInstrument() *Instrument {
	return &Instrument{
		values:  make(map[string]any),
		failPut: make(map[string]error),
		failGet: make(map[string]*getFailure),
	}
}

// Store sets an address's value directly, without journaling.
// Used to seed state and to simulate the instrument moving on its own.
func (i *Instrument) Store(address string, value any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.values[address] = value
}

// Value returns the current value at an address, or nil if unset.
func (i *Instrument) Value(address string) any {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.values[address]
}

// SetPutLatency sets the delay between put dispatch and confirmation.
// Zero means writes confirm immediately (still asynchronously).
func (i *Instrument) SetPutLatency(d time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.putLatency = d
}

// FailPuts makes every put to address fail confirmation with err.
// A nil err clears the injection.
func (i *Instrument) FailPuts(address string, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err == nil {
		delete(i.failPut, address)
		return
	}
	i.failPut[address] = err
}

// FailGets makes the next n gets on address fail with err.
// n < 0 fails every get until cleared with FailGets(address, 0, nil).
func (i *Instrument) FailGets(address string, n int, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if n == 0 {
		delete(i.failGet, address)
		return
	}
	i.failGet[address] = &getFailure{remaining: n, err: err}
}

// Journal returns a copy of all journaled operations.
func (i *Instrument) Journal() []Op {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]Op, len(i.journal))
	copy(out, i.journal)
	return out
}

// Puts returns the dispatched put values for an address, in dispatch order.
func (i *Instrument) Puts(address string) []any {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []any
	for _, op := range i.journal {
		if op.Kind == OpPutDispatch && op.Address == address {
			out = append(out, op.Value)
		}
	}
	return out
}

// Get implements transport.Transport.
func (i *Instrument) Get(_ context.Context, address string) (any, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if f, ok := i.failGet[address]; ok {
		if f.remaining != 0 {
			if f.remaining > 0 {
				f.remaining--
			}
			return nil, transport.NewError("get", address, f.err)
		}
		delete(i.failGet, address)
	}

	v, ok := i.values[address]
	if !ok {
		return nil, transport.NewError("get", address, transport.ErrAddressUnknown)
	}
	i.journal = append(i.journal, Op{Kind: OpGet, Address: address, At: time.Now()})
	return v, nil
}

// Put implements transport.Transport. The value becomes visible to Get only
// when the write confirms, so a read racing a pending write observes the old
// value.
func (i *Instrument) Put(_ context.Context, address string, value any) (transport.CompletionHandle, error) {
	i.mu.Lock()
	latency := i.putLatency
	failErr := i.failPut[address]
	i.journal = append(i.journal, Op{Kind: OpPutDispatch, Address: address, Value: value, At: time.Now()})
	i.mu.Unlock()

	c := transport.NewCompletion()
	confirm := func() {
		if failErr != nil {
			c.Complete(transport.NewError("put", address, failErr))
			return
		}
		i.mu.Lock()
		i.values[address] = value
		i.journal = append(i.journal, Op{Kind: OpPutConfirm, Address: address, Value: value, At: time.Now()})
		i.mu.Unlock()
		c.Complete(nil)
	}

	if latency > 0 {
		time.AfterFunc(latency, confirm)
	} else {
		go confirm()
	}
	return c, nil
}

// Compile-time interface satisfaction check.
var _ transport.Transport = (*Instrument)(nil)
