package errors

import (
	"fmt"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation is returned when validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrUpstream is returned when a call to Shopify or the SKU library fails.
// StatusCode is 0 when no response was received.
type ErrUpstream struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *ErrUpstream) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s request failed", e.Service)
	}
}

func (e *ErrUpstream) Unwrap() error { return e.Err }
