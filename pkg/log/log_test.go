package log

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func sampleEvents() []Event {
	base := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	elapsed := 120 * time.Millisecond
	return []Event{
		{
			Timestamp:    base,
			ControllerID: "ctrl-1",
			Category:     CategoryRead,
			Endpoint:     "sample_x",
			Address:      "ioc:m1.VAL",
			Read:         &ReadEvent{Value: "1.5"},
		},
		{
			Timestamp:    base.Add(time.Second),
			ControllerID: "ctrl-1",
			Category:     CategoryWrite,
			Severity:     SeverityWarn,
			Endpoint:     "shutter_a_open",
			Write:        &WriteEvent{Value: "1", Skipped: true},
		},
		{
			Timestamp:    base.Add(2 * time.Second),
			ControllerID: "ctrl-1",
			Category:     CategoryWrite,
			Endpoint:     "sample_x",
			SessionID:    "scan-42",
			Write:        &WriteEvent{Value: "2.5", Blocking: true, Confirmed: true, Elapsed: &elapsed},
		},
		{
			Timestamp:    base.Add(3 * time.Second),
			ControllerID: "ctrl-1",
			Category:     CategoryBatch,
			Severity:     SeverityError,
			Batch:        &BatchEvent{Action: BatchFlushed, Block: true, Pending: 3, Failed: []string{"sample_y"}},
		},
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	for _, want := range sampleEvents() {
		data, err := EncodeEvent(want)
		if err != nil {
			t.Fatalf("EncodeEvent failed: %v", err)
		}
		got, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent failed: %v", err)
		}

		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
		}
		if got.Category != want.Category || got.Severity != want.Severity {
			t.Errorf("Category/Severity = %v/%v, want %v/%v", got.Category, got.Severity, want.Category, want.Severity)
		}
		if got.Endpoint != want.Endpoint || got.SessionID != want.SessionID {
			t.Errorf("Endpoint/SessionID = %q/%q, want %q/%q", got.Endpoint, got.SessionID, want.Endpoint, want.SessionID)
		}
	}
}

func TestDecodeEventPayloads(t *testing.T) {
	events := sampleEvents()

	data, err := EncodeEvent(events[2])
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if got.Write == nil {
		t.Fatal("Write payload lost in roundtrip")
	}
	if !got.Write.Confirmed || got.Write.Value != "2.5" {
		t.Errorf("Write = %+v, want confirmed 2.5", got.Write)
	}
	if got.Write.Elapsed == nil || *got.Write.Elapsed != 120*time.Millisecond {
		t.Errorf("Elapsed = %v, want 120ms", got.Write.Elapsed)
	}

	data, err = EncodeEvent(events[3])
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	got, err = DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if got.Batch == nil {
		t.Fatal("Batch payload lost in roundtrip")
	}
	if got.Batch.Action != BatchFlushed || len(got.Batch.Failed) != 1 || got.Batch.Failed[0] != "sample_y" {
		t.Errorf("Batch = %+v, want flushed with failed sample_y", got.Batch)
	}
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.cborlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, ev := range sampleEvents() {
		logger.Log(ev)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Log after Close must be ignored, not crash.
	logger.Log(Event{Category: CategoryError})

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var count int
	for {
		_, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		count++
	}
	if count != 4 {
		t.Errorf("read %d events, want 4", count)
	}
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.cborlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, ev := range sampleEvents() {
		logger.Log(ev)
	}
	logger.Close()

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{name: "by endpoint", filter: Filter{Endpoint: "sample_x"}, want: 2},
		{name: "by category", filter: Filter{Category: categoryPtr(CategoryBatch)}, want: 1},
		{name: "by min severity", filter: Filter{MinSeverity: severityPtr(SeverityWarn)}, want: 2},
		{name: "by session", filter: Filter{SessionID: "scan-42"}, want: 1},
		{name: "no match", filter: Filter{Endpoint: "no_such"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer reader.Close()

			var count int
			for {
				_, err := reader.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("Next failed: %v", err)
				}
				count++
			}
			if count != tt.want {
				t.Errorf("matched %d events, want %d", count, tt.want)
			}
		})
	}
}

func TestMultiLogger(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}
	multi := NewMultiLogger(a, b)

	multi.Log(Event{Category: CategoryWait})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("fan-out = %d/%d events, want 1/1", len(a.events), len(b.events))
	}
}

type captureLogger struct {
	events []Event
}

func (c *captureLogger) Log(event Event) { c.events = append(c.events, event) }

func categoryPtr(c Category) *Category { return &c }

func severityPtr(s Severity) *Severity { return &s }
