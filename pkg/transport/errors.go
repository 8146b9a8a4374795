package transport

import (
	"errors"
	"fmt"
)

// Transport errors.
var (
	// ErrUnreachable indicates the remote endpoint could not be contacted.
	ErrUnreachable = errors.New("endpoint unreachable")

	// ErrAddressUnknown indicates the transport has no such address.
	ErrAddressUnknown = errors.New("unknown address")
)

// Error wraps a transport failure with the address and operation that
// produced it, so callers can tell remote failures from local ones.
type Error struct {
	// Op is "get" or "put".
	Op string

	// Address is the remote address the operation targeted.
	Address string

	// Err is the underlying cause.
	Err error
}

// NewError wraps err as a transport error for the given operation.
func NewError(op, address string, err error) *Error {
	return &Error{Op: op, Address: address, Err: err}
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.Address, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// IsTransport reports whether err originated in the transport layer.
func IsTransport(err error) bool {
	var te *Error
	return errors.As(err, &te)
}
