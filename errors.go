package margin

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrMalformedEvent indicates Extract received no event at all. Missing
	// fields inside an event are tolerated; a missing event is a transport
	// bug upstream of parsing and fails loudly.
	ErrMalformedEvent = errors.New("malformed stream event")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)

// APIError is a hard failure declared by a provider before or without
// streaming. Message holds the raw error text surfaced by the provider;
// the retry planner parses it for constraint violations. Status is kept
// for display only and is never consulted by the planner.
type APIError struct {
	Provider ProviderID
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Message)
}
