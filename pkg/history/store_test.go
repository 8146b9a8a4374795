package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/txm-control/txm-go/pkg/controller"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordWriteRoundtrip(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().Truncate(time.Second)

	store.RecordWrite(controller.WriteRecord{
		Time:     now,
		Endpoint: "sample_x",
		Address:  "ioc:m1.VAL",
		Value:    "2.5",
		OK:       true,
		Elapsed:  120 * time.Millisecond,
	})
	store.RecordWrite(controller.WriteRecord{
		Time:     now.Add(time.Second),
		Endpoint: "sample_y",
		Address:  "ioc:m2.VAL",
		Value:    "9",
		OK:       false,
		Err:      "motor fault",
		Elapsed:  time.Second,
	})

	entries, err := store.Writes("", 0)
	if err != nil {
		t.Fatalf("Writes failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	// Most recent first.
	if entries[0].Endpoint != "sample_y" {
		t.Errorf("entries[0].Endpoint = %q, want sample_y", entries[0].Endpoint)
	}
	if entries[0].OK || entries[0].Err != "motor fault" {
		t.Errorf("entries[0] = %+v, want failed with motor fault", entries[0])
	}
	if entries[1].Value != "2.5" || !entries[1].OK {
		t.Errorf("entries[1] = %+v, want confirmed 2.5", entries[1])
	}
	if entries[1].Elapsed != 120*time.Millisecond {
		t.Errorf("Elapsed = %v, want 120ms", entries[1].Elapsed)
	}
}

func TestWritesFilterAndLimit(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 5; i++ {
		store.RecordWrite(controller.WriteRecord{
			Time:     time.Now(),
			Endpoint: "sample_x",
			Address:  "ioc:m1.VAL",
			Value:    "1",
			OK:       true,
		})
	}
	store.RecordWrite(controller.WriteRecord{
		Time:     time.Now(),
		Endpoint: "sample_y",
		Address:  "ioc:m2.VAL",
		Value:    "2",
		OK:       true,
	})

	entries, err := store.Writes("sample_x", 0)
	if err != nil {
		t.Fatalf("Writes failed: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("filtered entries = %d, want 5", len(entries))
	}

	entries, err = store.Writes("sample_x", 2)
	if err != nil {
		t.Fatalf("Writes failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("limited entries = %d, want 2", len(entries))
	}
}

func TestRecordWaitRoundtrip(t *testing.T) {
	store := newTestStore(t)

	store.RecordWait(controller.WaitRecord{
		Time:     time.Now(),
		Endpoint: "shutter_a_status",
		Target:   "0",
		Outcome:  "REACHED",
		Elapsed:  300 * time.Millisecond,
	})

	entries, err := store.Waits("shutter_a_status", 0)
	if err != nil {
		t.Fatalf("Waits failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Outcome != "REACHED" || entries[0].Target != "0" {
		t.Errorf("entry = %+v, want REACHED target 0", entries[0])
	}
}

func TestStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	store.RecordWrite(controller.WriteRecord{
		Time:     time.Now(),
		Endpoint: "sample_x",
		Address:  "ioc:m1.VAL",
		Value:    "1",
		OK:       true,
	})
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.Writes("", 0)
	if err != nil {
		t.Fatalf("Writes failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("len(entries) = %d, want 1 after reopen", len(entries))
	}
}
