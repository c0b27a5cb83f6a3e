package cloudability

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken is returned when no auth token was supplied
	ErrMissingToken = errors.New("cloudability: auth token is required")

	// ErrFieldNotFound is returned by Entry.Get for absent keys
	ErrFieldNotFound = errors.New("cloudability: field not found")

	// ErrEmptyReport is returned by Head and Last on an empty report
	ErrEmptyReport = errors.New("cloudability: report is empty")

	// ErrIndexOutOfRange is returned by Report.At
	ErrIndexOutOfRange = errors.New("cloudability: index out of range")

	// ErrJobFailed is returned when an enqueued cost report finishes unsuccessfully
	ErrJobFailed = errors.New("cloudability: report job failed")
)

// maxErrorBody caps how much of a response body is echoed in error messages
const maxErrorBody = 512

// APIError is returned for non-2xx responses and for error-shaped JSON bodies
type APIError struct {
	StatusCode int
	Status     string
	Body       string
	RequestID  string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	if e.RequestID != "" {
		return fmt.Sprintf("cloudability: API error %s (request %s): %s", e.Status, e.RequestID, body)
	}
	return fmt.Sprintf("cloudability: API error %s: %s", e.Status, body)
}

// ShapeError is returned when a payload is neither a JSON array nor a JSON object
type ShapeError struct {
	Got string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("cloudability: expected JSON array or object, got %s", e.Got)
}
