package fake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/txm-control/txm-go/pkg/transport"
)

func TestGetUnknownAddress(t *testing.T) {
	instrument := NewInstrument()

	_, err := instrument.Get(context.Background(), "ioc:m1.VAL")
	if !errors.Is(err, transport.ErrAddressUnknown) {
		t.Errorf("Get error = %v, want ErrAddressUnknown", err)
	}
}

func TestPutConfirmsAndApplies(t *testing.T) {
	instrument := NewInstrument()
	instrument.Store("ioc:m1.VAL", 0.0)

	handle, err := instrument.Put(context.Background(), "ioc:m1.VAL", 2.5)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := handle.Await(context.Background()); err != nil {
		t.Fatalf("Await failed: %v", err)
	}

	got, err := instrument.Get(context.Background(), "ioc:m1.VAL")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 2.5 {
		t.Errorf("value after confirm = %v, want 2.5", got)
	}
}

func TestPutValueInvisibleUntilConfirm(t *testing.T) {
	instrument := NewInstrument()
	instrument.Store("ioc:m1.VAL", 1.0)
	instrument.SetPutLatency(50 * time.Millisecond)

	handle, err := instrument.Put(context.Background(), "ioc:m1.VAL", 9.0)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Before confirmation the old value must still be visible.
	got, err := instrument.Get(context.Background(), "ioc:m1.VAL")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 1.0 {
		t.Errorf("value before confirm = %v, want 1.0", got)
	}

	if err := handle.Await(context.Background()); err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	got, err = instrument.Get(context.Background(), "ioc:m1.VAL")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 9.0 {
		t.Errorf("value after confirm = %v, want 9.0", got)
	}
}

func TestFailPuts(t *testing.T) {
	instrument := NewInstrument()
	instrument.Store("ioc:m1.VAL", 1.0)
	instrument.FailPuts("ioc:m1.VAL", errors.New("motor fault"))

	handle, err := instrument.Put(context.Background(), "ioc:m1.VAL", 5.0)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := handle.Await(context.Background()); err == nil {
		t.Fatal("Await succeeded, want confirmation failure")
	}

	// The failed write must not be applied.
	if got := instrument.Value("ioc:m1.VAL"); got != 1.0 {
		t.Errorf("value after failed put = %v, want 1.0", got)
	}

	instrument.FailPuts("ioc:m1.VAL", nil)
	handle, err = instrument.Put(context.Background(), "ioc:m1.VAL", 5.0)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := handle.Await(context.Background()); err != nil {
		t.Errorf("Await after clearing injection = %v, want nil", err)
	}
}

func TestFailGetsCountsDown(t *testing.T) {
	instrument := NewInstrument()
	instrument.Store("ioc:status", int64(1))
	instrument.FailGets("ioc:status", 2, errors.New("gateway busy"))

	for i := 0; i < 2; i++ {
		if _, err := instrument.Get(context.Background(), "ioc:status"); err == nil {
			t.Fatalf("Get %d succeeded, want injected failure", i)
		}
	}
	got, err := instrument.Get(context.Background(), "ioc:status")
	if err != nil {
		t.Fatalf("Get after injections failed: %v", err)
	}
	if got != int64(1) {
		t.Errorf("value = %v, want 1", got)
	}
}

func TestJournalOrder(t *testing.T) {
	instrument := NewInstrument()
	instrument.Store("ioc:m1.VAL", 0.0)

	handle, err := instrument.Put(context.Background(), "ioc:m1.VAL", 1.0)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := handle.Await(context.Background()); err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if _, err := instrument.Get(context.Background(), "ioc:m1.VAL"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	journal := instrument.Journal()
	kinds := make([]OpKind, len(journal))
	for i, op := range journal {
		kinds[i] = op.Kind
	}
	want := []OpKind{OpPutDispatch, OpPutConfirm, OpGet}
	if len(kinds) != len(want) {
		t.Fatalf("journal kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("journal[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}

	puts := instrument.Puts("ioc:m1.VAL")
	if len(puts) != 1 || puts[0] != 1.0 {
		t.Errorf("Puts = %v, want [1]", puts)
	}
}
