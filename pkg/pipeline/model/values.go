package model

import (
	"github.com/pkg/errors"
)

var (
	// ErrNoValue is returned when a port has no value.
	ErrNoValue = errors.New("no value for port")
	// ErrValueType is returned when a value does not match the port type.
	ErrValueType = errors.New("value does not match port type")
)

// Values holds the values crossing a stage boundary, keyed by port name.
type Values map[string]any

// Value extracts the value of a port from vals with a type check. A missing
// value reports ErrNoValue, which callers reading an optional port test with
// errors.Is.
func Value[T any](vals Values, port Port) (T, error) {
	var zero T

	raw, ok := vals[port.Name]
	if !ok {
		return zero, errors.Wrapf(ErrNoValue, "port %q", port.Name)
	}

	v, ok := raw.(T)
	if !ok {
		return zero, errors.Wrapf(ErrValueType, "port %q holds %T", port.Name, raw)
	}

	return v, nil
}

// ValueOr extracts the value of a port, falling back when the port is unfed.
// A present value of the wrong type still returns an error.
func ValueOr[T any](vals Values, port Port, fallback T) (T, error) {
	v, err := Value[T](vals, port)
	if errors.Is(err, ErrNoValue) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}

	return v, nil
}
