// Package batch coordinates groups of concurrent PV writes.
//
// A Coordinator collects the writes issued during a scoped batching window.
// Every enqueued write is dispatched non-blocking the moment it arrives, so
// a three-axis move starts all three motors at once instead of serializing
// on per-write confirmation. Closing the window flushes the coordinator:
// with blocking resolution the flush is a full barrier that waits for every
// completion handle and reports all failures together; without it the
// window closes immediately and the writes finish on their own
// (fire-and-forget, an accepted limitation).
//
// Failure of one write never cancels its siblings. All writes run to their
// own outcome and the aggregate is reported once, as a *PartialError naming
// exactly the endpoints that failed.
//
// Coordinators are single-use: one window, one flush, then discarded.
package batch
