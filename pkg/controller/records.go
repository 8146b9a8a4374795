package controller

import "time"

// WriteRecord describes one resolved (confirmed or failed) write.
type WriteRecord struct {
	// Time the write resolved.
	Time time.Time

	// Endpoint is the PV name.
	Endpoint string

	// Address is the remote address written.
	Address string

	// Value is the formatted value written.
	Value string

	// OK indicates the instrument confirmed the write.
	OK bool

	// Err is the failure message when OK is false.
	Err string

	// Elapsed is the dispatch-to-resolution duration.
	Elapsed time.Duration
}

// WaitRecord describes one finished poll-wait.
type WaitRecord struct {
	// Time the wait finished.
	Time time.Time

	// Endpoint is the PV name.
	Endpoint string

	// Target is the formatted target value.
	Target string

	// Outcome is the terminal waiter state name.
	Outcome string

	// Elapsed is how long the wait ran.
	Elapsed time.Duration
}

// Recorder archives resolved operations, typically to a database.
// Implementations must be safe for concurrent use; non-blocking writes
// resolve on background goroutines.
type Recorder interface {
	// RecordWrite archives a resolved write.
	RecordWrite(rec WriteRecord)

	// RecordWait archives a finished wait.
	RecordWait(rec WaitRecord)
}
