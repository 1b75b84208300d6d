// ABOUTME: Validation failure kinds returned by the schema registry
// ABOUTME: Malformed request (bad or missing field) vs unsupported operation (bad method)

package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks a body that is not an object or has a missing or
	// mistyped field.
	ErrMalformed = errors.New("malformed request")

	// ErrUnsupportedMethod marks a missing or unknown method discriminator.
	ErrUnsupportedMethod = errors.New("unsupported method")
)

// ValidationError names the first field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrMalformed }

// UnsupportedError reports a method the endpoint does not declare.
type UnsupportedError struct {
	Endpoint Endpoint
	Method   string
}

func (e *UnsupportedError) Error() string {
	if e.Method == "" {
		return "missing method"
	}
	return fmt.Sprintf("invalid method %q for /%s", e.Method, e.Endpoint)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupportedMethod }

func missing(field string) error {
	return &ValidationError{Field: field, Reason: "field required"}
}

func invalid(field, want string) error {
	return &ValidationError{Field: field, Reason: "must be " + want}
}
