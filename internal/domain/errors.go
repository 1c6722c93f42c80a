package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrHistoryDisabled is returned when lookup history is requested but no
	// repository is configured.
	ErrHistoryDisabled = errors.New("lookup history is disabled")
)

// ValidationError reports malformed caller input. It is raised before any
// network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UpstreamError wraps a failure from the timezone service: transport
// errors, non-OK responses, or a rejected or missing API key.
type UpstreamError struct {
	StatusCode   int
	Message      string
	Unauthorized bool
	Err          error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, msg)
	}
	return "upstream error: " + msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NotFoundError means the provider has no zone for the coordinates, e.g.
// open ocean outside its coverage. It cannot be corrected client-side.
type NotFoundError struct {
	Coordinates Coordinates
	Message     string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("no time zone found for %s", e.Coordinates)
	}
	return fmt.Sprintf("no time zone found for %s: %s", e.Coordinates, e.Message)
}
