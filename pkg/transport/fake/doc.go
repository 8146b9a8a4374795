// Package fake provides an in-memory Transport used by tests, examples and
// the shell's offline mode.
//
// The fake instrument stores one value per address and confirms writes
// after a configurable latency, which makes write ordering, batch barriers
// and eventual consistency observable from tests. Failure injection covers
// both put confirmation failures and transient get failures.
package fake
