package log

import "time"

// Event represents one instrument operation captured by the controller.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ControllerID uniquely identifies the controller instance (UUID).
	ControllerID string `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Severity of the event. Defaults to SeverityDebug.
	Severity Severity `cbor:"4,keyasint,omitempty"`

	// Endpoint is the caller-facing PV name, when the event targets one.
	Endpoint string `cbor:"5,keyasint,omitempty"`

	// Address is the remote address behind Endpoint.
	Address string `cbor:"6,keyasint,omitempty"`

	// SessionID is set for events emitted inside a scan session (UUID).
	SessionID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Read    *ReadEvent    `cbor:"10,keyasint,omitempty"`
	Write   *WriteEvent   `cbor:"11,keyasint,omitempty"`
	Batch   *BatchEvent   `cbor:"12,keyasint,omitempty"`
	Wait    *WaitEvent    `cbor:"13,keyasint,omitempty"`
	Session *SessionEvent `cbor:"14,keyasint,omitempty"`
	Error   *ErrorEvent   `cbor:"15,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryRead indicates a PV read.
	CategoryRead Category = 0
	// CategoryWrite indicates a PV write (dispatch, confirm, or skip).
	CategoryWrite Category = 1
	// CategoryBatch indicates a batch lifecycle event.
	CategoryBatch Category = 2
	// CategoryWait indicates a poll-wait lifecycle event.
	CategoryWait Category = 3
	// CategorySession indicates a scan-session lifecycle event.
	CategorySession Category = 4
	// CategoryError indicates an error event.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRead:
		return "READ"
	case CategoryWrite:
		return "WRITE"
	case CategoryBatch:
		return "BATCH"
	case CategoryWait:
		return "WAIT"
	case CategorySession:
		return "SESSION"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Severity indicates how noteworthy an event is.
type Severity uint8

const (
	// SeverityDebug is routine operation detail.
	SeverityDebug Severity = 0
	// SeverityInfo marks scan-level milestones.
	SeverityInfo Severity = 1
	// SeverityWarn marks conditions a beamline operator should review,
	// such as permit-gated writes being skipped.
	SeverityWarn Severity = 2
	// SeverityError marks failures.
	SeverityError Severity = 3
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ReadEvent captures a PV read.
type ReadEvent struct {
	// Value is the formatted value read back.
	Value string `cbor:"1,keyasint"`
}

// WriteEvent captures a PV write at dispatch, confirmation, or skip.
type WriteEvent struct {
	// Value is the formatted value written.
	Value string `cbor:"1,keyasint"`

	// Blocking indicates the caller waited for confirmation.
	Blocking bool `cbor:"2,keyasint,omitempty"`

	// Batched indicates the write was routed through an open batch.
	Batched bool `cbor:"3,keyasint,omitempty"`

	// Skipped indicates the write was dropped by the permit gate.
	Skipped bool `cbor:"4,keyasint,omitempty"`

	// Confirmed indicates the instrument acknowledged the write.
	Confirmed bool `cbor:"5,keyasint,omitempty"`

	// Elapsed is the dispatch-to-confirmation duration (confirm only).
	Elapsed *time.Duration `cbor:"6,keyasint,omitempty"`
}

// BatchAction distinguishes batch lifecycle events.
type BatchAction uint8

const (
	// BatchOpened indicates a batching window opened.
	BatchOpened BatchAction = 0
	// BatchFlushed indicates the window closed and resolved.
	BatchFlushed BatchAction = 1
)

// String returns the batch action name.
func (a BatchAction) String() string {
	switch a {
	case BatchOpened:
		return "OPENED"
	case BatchFlushed:
		return "FLUSHED"
	default:
		return "UNKNOWN"
	}
}

// BatchEvent captures a batch lifecycle transition.
type BatchEvent struct {
	// Action is the lifecycle transition.
	Action BatchAction `cbor:"1,keyasint"`

	// Block indicates the window waits for completion on close.
	Block bool `cbor:"2,keyasint,omitempty"`

	// Pending is the number of writes in the window (flush only).
	Pending int `cbor:"3,keyasint,omitempty"`

	// Failed lists endpoint names whose writes failed (flush only).
	Failed []string `cbor:"4,keyasint,omitempty"`
}

// WaitEvent captures a poll-wait outcome.
type WaitEvent struct {
	// Target is the formatted target value.
	Target string `cbor:"1,keyasint"`

	// Tolerance is the numeric comparison tolerance.
	Tolerance float64 `cbor:"2,keyasint,omitempty"`

	// Timeout is the configured deadline.
	Timeout time.Duration `cbor:"3,keyasint"`

	// Outcome is the terminal waiter state name.
	Outcome string `cbor:"4,keyasint"`

	// Elapsed is how long the wait ran.
	Elapsed time.Duration `cbor:"5,keyasint"`
}

// SessionAction distinguishes scan-session lifecycle events.
type SessionAction uint8

const (
	// SessionStarted indicates a scan session opened.
	SessionStarted SessionAction = 0
	// SessionFinished indicates the body completed and teardown ran.
	SessionFinished SessionAction = 1
)

// String returns the session action name.
func (a SessionAction) String() string {
	switch a {
	case SessionStarted:
		return "STARTED"
	case SessionFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// SessionEvent captures a scan-session lifecycle transition.
type SessionEvent struct {
	// Action is the lifecycle transition.
	Action SessionAction `cbor:"1,keyasint"`

	// Snapshot is the number of endpoints captured on entry.
	Snapshot int `cbor:"2,keyasint,omitempty"`

	// RestoreFailed lists endpoints whose restoration failed (finish only).
	RestoreFailed []string `cbor:"3,keyasint,omitempty"`
}

// ErrorEvent captures a failure.
type ErrorEvent struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
