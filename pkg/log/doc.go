// Package log captures instrument operation events.
//
// Every controller operation (read, write dispatch/confirm, permit skip,
// batch open/flush, wait transition, session lifecycle) emits an Event.
// Events are written as a CBOR stream with integer keys, which keeps long
// scan logs compact and lets the txm-log command replay an experiment after
// the fact.
//
// Applications implement Logger, or use one of the provided implementations:
// NoopLogger (discard), FileLogger (CBOR file), SlogAdapter (console via
// log/slog), MultiLogger (fan-out).
package log
