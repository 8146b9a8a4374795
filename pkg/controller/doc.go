// Package controller implements the instrument facade that coordinates
// reads and writes against named process variables.
//
// A Controller owns an immutable endpoint registry, the permit flag, and at
// most one active batching window. Reads are always synchronous. Writes
// honor the endpoint's default blocking policy, unless a batch is open, in
// which case they are dispatched concurrently and resolved together when the
// window closes.
//
// # Permit Gate
//
// Writes to permit-required endpoints on a controller without the permit are
// silently skipped: the call returns nil and no transport write happens.
// This is a deliberate safety design carried over from beamline practice, so
// scan scripts run unmodified against a locked-down instrument. Every skip
// emits a warning-severity log event, because the same design is a classic
// source of silent script bugs.
//
// # Concurrency Contract
//
// One controller serves one logical scan script at a time. The endpoint
// registry may be read concurrently, but batching and session state assume a
// single logical caller; two scripts driving the same controller's batches
// concurrently is unsupported.
package controller
