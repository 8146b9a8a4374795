// Package session implements scan sessions with guaranteed instrument
// restoration.
//
// A Session wraps a scan body in the fixed enter/exit protocol the beamline
// expects: on entry it snapshots a configured subset of PVs and arms the
// fast shutter; on exit, no matter how the body ended, it restores every
// snapshot entry, returns the detector to continuous mode, stops extra
// logging, and disarms the fast shutter, in that order.
//
// Teardown is best-effort but complete: a failed restore never skips the
// remaining steps. All teardown failures are collected into a *TeardownError
// and joined with the body's error, so the body's failure is never hidden by
// a failing restore and vice versa.
package session
