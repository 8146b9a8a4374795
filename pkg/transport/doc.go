// Package transport defines the contract between the coordination layer and
// the remote-endpoint transport that actually talks to the instrument.
//
// The coordination layer never owns a wire protocol. It consumes a Transport:
// a synchronous Get and an asynchronous Put that returns a CompletionHandle
// signalling when the instrument has confirmed the new value. Channel
// Access, Modbus, or an in-process simulator all fit behind this interface;
// the fake sub-package ships an in-memory implementation used throughout the
// tests.
//
// A CompletionHandle is safe to await at most once. Once dispatched, a put
// cannot be cancelled; a caller that stops awaiting simply abandons the
// confirmation.
package transport
