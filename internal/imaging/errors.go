package imaging

import (
	"errors"
	"fmt"
)

// Error kinds returned by the pipeline stages. Callers match them with
// errors.Is; every stage either returns a fully valid result or one of these.
var (
	// ErrInvalidBitmap reports a malformed or undecodable source image.
	ErrInvalidBitmap = errors.New("invalid bitmap")

	// ErrInvalidParameter reports an out-of-range parameter or grid mismatch.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEncodingFailure reports a frame that could not be serialized.
	ErrEncodingFailure = errors.New("encoding failure")
)

// ParamError names the offending parameter of an ErrInvalidParameter failure.
type ParamError struct {
	Name   string
	Value  interface{}
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Name, e.Value, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidParameter) match.
func (e *ParamError) Unwrap() error {
	return ErrInvalidParameter
}

func paramError(name string, value interface{}, reason string) error {
	return &ParamError{Name: name, Value: value, Reason: reason}
}
