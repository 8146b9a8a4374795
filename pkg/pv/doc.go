// Package pv defines the process-variable model for the instrument
// coordination layer.
//
// A process variable (PV) is a named remote control or sensor point. Each
// Endpoint pairs a stable caller-facing name with the opaque address the
// transport uses, a declared value type, a default blocking policy for
// writes, and a permit flag for safety-sensitive points.
//
// # Registry
//
// Endpoints are declared once and collected into an immutable Registry at
// controller construction. The registry is never mutated afterwards and is
// safe for unsynchronized concurrent reads.
//
// # Value Coercion
//
// Transports traffic in untyped values. Coercion to the declared type is
// permissive across numeric kinds (an integer read from a float PV is fine,
// and binary PVs accept 0/1 integers), but a value that cannot represent the
// declared type fails with ErrTypeMismatch before any write is attempted.
package pv
