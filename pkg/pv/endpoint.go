package pv

import (
	"errors"
	"fmt"
	"sort"
)

// Registry errors.
var (
	ErrEndpointNotFound  = errors.New("endpoint not found")
	ErrDuplicateEndpoint = errors.New("duplicate endpoint name")
	ErrInvalidEndpoint   = errors.New("invalid endpoint declaration")
)

// Endpoint describes one named remote process variable.
// Endpoints are immutable value objects; all fields are fixed at declaration.
type Endpoint struct {
	// Name is the stable identifier callers use. Unique within a registry.
	Name string

	// Address is the opaque remote identifier passed to the transport.
	Address string

	// Type is the value coercion contract for reads and writes.
	Type ValueType

	// Wait is the default blocking policy: if true, a bare Set blocks until
	// the transport confirms the write.
	Wait bool

	// PermitRequired gates writes behind the controller's permit flag.
	// Reads are always allowed.
	PermitRequired bool
}

// Coerce converts a caller value to this endpoint's declared type.
func (e Endpoint) Coerce(raw any) (Value, error) {
	v, err := Coerce(e.Type, raw)
	if err != nil {
		return Value{}, fmt.Errorf("endpoint %q: %w", e.Name, err)
	}
	return v, nil
}

// String returns the endpoint name.
func (e Endpoint) String() string { return e.Name }

// Registry is an immutable name-to-endpoint map. Endpoints are declared once
// at construction; the registry is safe for concurrent reads without
// synchronization.
type Registry struct {
	byName map[string]Endpoint
	names  []string
}

// NewRegistry builds a registry from the given endpoint declarations.
// Names must be non-empty and unique; addresses must be non-empty.
func NewRegistry(endpoints ...Endpoint) (*Registry, error) {
	byName := make(map[string]Endpoint, len(endpoints))
	names := make([]string, 0, len(endpoints))

	for _, ep := range endpoints {
		if ep.Name == "" {
			return nil, fmt.Errorf("%w: empty name (address %q)", ErrInvalidEndpoint, ep.Address)
		}
		if ep.Address == "" {
			return nil, fmt.Errorf("%w: %q has empty address", ErrInvalidEndpoint, ep.Name)
		}
		if ep.Type == ValueTypeUnknown {
			return nil, fmt.Errorf("%w: %q has no value type", ErrInvalidEndpoint, ep.Name)
		}
		if _, exists := byName[ep.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEndpoint, ep.Name)
		}
		byName[ep.Name] = ep
		names = append(names, ep.Name)
	}

	sort.Strings(names)
	return &Registry{byName: byName, names: names}, nil
}

// Lookup returns the endpoint with the given name.
func (r *Registry) Lookup(name string) (Endpoint, error) {
	ep, exists := r.byName[name]
	if !exists {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrEndpointNotFound, name)
	}
	return ep, nil
}

// Names returns all endpoint names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of declared endpoints.
func (r *Registry) Len() int { return len(r.byName) }
