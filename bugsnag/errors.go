package bugsnag

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNilRequest means a report was made without a request context
	ErrNilRequest = errors.New("request is required")
	// ErrInvalidSeverity means the severity is not error, warning or info
	ErrInvalidSeverity = errors.New("invalid severity")
	// ErrMissingAPIKey means the config carries no project API key
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrRejected wraps non-2xx answers from the collector
	ErrRejected = errors.New("collector rejected payload")
	// ErrNilPayload is returned by a ConnectionManager handed a nil payload
	ErrNilPayload = errors.New("payload is required")
	// ErrNoDeliveryResult means a ConnectionManager gave no result for a payload
	ErrNoDeliveryResult = errors.New("connection manager returned no delivery result")
)

const (
	// DefaultMessage is the exception message used when the error carries no reason
	DefaultMessage = "Something went wrong"
	// DefaultStatus classifies errors that carry no HTTP status
	DefaultStatus = http.StatusInternalServerError
)

// AbortError is an error that carries a human readable reason and an HTTP status.
// Handlers return these for failures they raise on purpose.
type AbortError interface {
	error
	Reason() string
	Status() int
}

type abortError struct {
	status int
	reason string
}

// Abort returns an AbortError for status. An empty reason uses the status text.
func Abort(status int, reason string) error {
	if reason == "" {
		reason = http.StatusText(status)
	}
	return &abortError{status: status, reason: reason}
}

func (e *abortError) Error() string {
	return fmt.Sprintf("abort %d: %s", e.status, e.reason)
}

func (e *abortError) Reason() string { return e.reason }
func (e *abortError) Status() int    { return e.status }

// Classification is what the reporter learned about an error. It is computed once
// and handed to the transformer as plain data.
type Classification struct {
	// Structured is true when the error exposed a reason and status
	Structured  bool
	Reason      string
	Status      int
	Description string
}

// Classify inspects err for the AbortError capability
func Classify(err error) Classification {
	c := Classification{Status: DefaultStatus}
	if err == nil {
		return c
	}
	c.Description = err.Error()

	var abort AbortError
	if errors.As(err, &abort) {
		c.Structured = true
		c.Reason = abort.Reason()
		c.Status = abort.Status()
	}
	return c
}

// TransformError is returned when a payload cannot be built from a report
type TransformError struct {
	Field string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("build payload: %s: %v", e.Field, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
