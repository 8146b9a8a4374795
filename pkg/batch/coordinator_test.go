package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/txm-control/txm-go/pkg/pv"
	"github.com/txm-control/txm-go/pkg/transport/fake"
)

func axisEndpoint(name, address string) pv.Endpoint {
	return pv.Endpoint{Name: name, Address: address, Type: pv.ValueTypeFloat, Wait: true}
}

func seededInstrument() *fake.Instrument {
	instrument := fake.NewInstrument()
	instrument.Store("ioc:m1.VAL", 0.0)
	instrument.Store("ioc:m2.VAL", 0.0)
	instrument.Store("ioc:m3.VAL", 0.0)
	return instrument
}

func TestEnqueueDispatchesImmediately(t *testing.T) {
	instrument := seededInstrument()
	instrument.SetPutLatency(50 * time.Millisecond)
	coord := NewCoordinator(instrument, true)

	if err := coord.Enqueue(context.Background(), axisEndpoint("sample_x", "ioc:m1.VAL"), pv.Float(1)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := coord.Enqueue(context.Background(), axisEndpoint("sample_y", "ioc:m2.VAL"), pv.Float(2)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// Both writes must be in flight before any flush.
	if got := len(instrument.Puts("ioc:m1.VAL")); got != 1 {
		t.Errorf("m1 dispatches = %d, want 1", got)
	}
	if got := len(instrument.Puts("ioc:m2.VAL")); got != 1 {
		t.Errorf("m2 dispatches = %d, want 1", got)
	}
	if coord.Len() != 2 {
		t.Errorf("Len() = %d, want 2", coord.Len())
	}
}

func TestFlushBarrier(t *testing.T) {
	instrument := seededInstrument()
	instrument.SetPutLatency(30 * time.Millisecond)
	coord := NewCoordinator(instrument, true)

	endpoints := []pv.Endpoint{
		axisEndpoint("sample_x", "ioc:m1.VAL"),
		axisEndpoint("sample_y", "ioc:m2.VAL"),
		axisEndpoint("sample_z", "ioc:m3.VAL"),
	}
	for i, ep := range endpoints {
		if err := coord.Enqueue(context.Background(), ep, pv.Float(float64(i+1))); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	if err := coord.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	// After the barrier every value must be applied.
	wants := map[string]float64{"ioc:m1.VAL": 1, "ioc:m2.VAL": 2, "ioc:m3.VAL": 3}
	for address, want := range wants {
		if got := instrument.Value(address); got != want {
			t.Errorf("value at %s = %v, want %v", address, got, want)
		}
	}
}

func TestFlushAggregatesFailures(t *testing.T) {
	instrument := seededInstrument()
	instrument.FailPuts("ioc:m1.VAL", errors.New("motor fault"))
	instrument.FailPuts("ioc:m3.VAL", errors.New("limit switch"))
	coord := NewCoordinator(instrument, true)

	endpoints := []pv.Endpoint{
		axisEndpoint("sample_x", "ioc:m1.VAL"),
		axisEndpoint("sample_y", "ioc:m2.VAL"),
		axisEndpoint("sample_z", "ioc:m3.VAL"),
	}
	for _, ep := range endpoints {
		if err := coord.Enqueue(context.Background(), ep, pv.Float(1)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	err := coord.Flush(context.Background())
	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("Flush = %v, want *PartialError", err)
	}

	want := []string{"sample_x", "sample_z"}
	got := partial.FailedNames()
	if len(got) != len(want) {
		t.Fatalf("FailedNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FailedNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// The healthy sibling still completed.
	if got := instrument.Value("ioc:m2.VAL"); got != 1.0 {
		t.Errorf("m2 value = %v, want 1", got)
	}
}

func TestFlushNonBlocking(t *testing.T) {
	instrument := seededInstrument()
	instrument.SetPutLatency(30 * time.Millisecond)
	coord := NewCoordinator(instrument, false)

	if err := coord.Enqueue(context.Background(), axisEndpoint("sample_x", "ioc:m1.VAL"), pv.Float(4)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	start := time.Now()
	if err := coord.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("non-blocking Flush took %v", elapsed)
	}

	// The write still lands eventually.
	deadline := time.After(time.Second)
	for instrument.Value("ioc:m1.VAL") != 4.0 {
		select {
		case <-deadline:
			t.Fatal("dispatched write never confirmed")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestEnqueueSupersedesSameEndpoint(t *testing.T) {
	instrument := seededInstrument()
	instrument.FailPuts("ioc:m1.VAL", errors.New("first write fails"))
	coord := NewCoordinator(instrument, true)

	ep := axisEndpoint("sample_x", "ioc:m1.VAL")
	if err := coord.Enqueue(context.Background(), ep, pv.Float(1)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	// The second write succeeds; only it is awaited on flush.
	instrument.FailPuts("ioc:m1.VAL", nil)
	if err := coord.Enqueue(context.Background(), ep, pv.Float(2)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	if coord.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after supersede", coord.Len())
	}
	if err := coord.Flush(context.Background()); err != nil {
		t.Errorf("Flush = %v, want nil (superseded failure ignored)", err)
	}

	// Both writes were dispatched, in order.
	puts := instrument.Puts("ioc:m1.VAL")
	if len(puts) != 2 || puts[0] != 1.0 || puts[1] != 2.0 {
		t.Errorf("dispatched puts = %v, want [1 2]", puts)
	}
}

func TestEnqueueAfterFlush(t *testing.T) {
	instrument := seededInstrument()
	coord := NewCoordinator(instrument, true)

	if err := coord.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	err := coord.Enqueue(context.Background(), axisEndpoint("sample_x", "ioc:m1.VAL"), pv.Float(1))
	if !errors.Is(err, ErrResolved) {
		t.Errorf("Enqueue after Flush = %v, want ErrResolved", err)
	}
	if err := coord.Flush(context.Background()); !errors.Is(err, ErrResolved) {
		t.Errorf("second Flush = %v, want ErrResolved", err)
	}
}

func TestOnResolveObservesEveryWrite(t *testing.T) {
	instrument := seededInstrument()
	instrument.FailPuts("ioc:m2.VAL", errors.New("motor fault"))
	coord := NewCoordinator(instrument, true)

	var mu sync.Mutex
	resolved := make(map[string]error)
	var wg sync.WaitGroup
	wg.Add(2)
	coord.OnResolve(func(ep pv.Endpoint, value pv.Value, err error) {
		mu.Lock()
		resolved[ep.Name] = err
		mu.Unlock()
		wg.Done()
	})

	if err := coord.Enqueue(context.Background(), axisEndpoint("sample_x", "ioc:m1.VAL"), pv.Float(1)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := coord.Enqueue(context.Background(), axisEndpoint("sample_y", "ioc:m2.VAL"), pv.Float(2)); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	coord.Flush(context.Background())
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if err := resolved["sample_x"]; err != nil {
		t.Errorf("sample_x resolved with %v, want nil", err)
	}
	if err := resolved["sample_y"]; err == nil {
		t.Error("sample_y resolved with nil, want failure")
	}
}
