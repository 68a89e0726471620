package helpers

import "fmt"

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type MonitorObserverError struct {
	Message string
	Cause   error
}

func (e *MonitorObserverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *MonitorObserverError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------
// Taxonomy. AuthRequired surfaces to callers (routes to login),
// TransientNetwork is absorbed by the reconnect loop, MalformedMessage is
// dropped per payload, Request carries the HTTP status after the one-shot
// 401 retry has been spent.
// -----------------------------------------------------------------------------

type AuthRequiredError struct{ MonitorObserverError }
type TransientNetworkError struct{ MonitorObserverError }
type MalformedMessageError struct{ MonitorObserverError }

type RequestError struct {
	MonitorObserverError
	StatusCode int
}

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewAuthRequired(msg string) *AuthRequiredError {
	return &AuthRequiredError{MonitorObserverError{Message: msg}}
}

func NewTransientNetwork(msg string, cause error) *TransientNetworkError {
	return &TransientNetworkError{MonitorObserverError{Message: msg, Cause: cause}}
}

func NewMalformedMessage(msg string, cause error) *MalformedMessageError {
	return &MalformedMessageError{MonitorObserverError{Message: msg, Cause: cause}}
}

func NewRequestError(msg string, status int, cause error) *RequestError {
	return &RequestError{
		MonitorObserverError: MonitorObserverError{Message: msg, Cause: cause},
		StatusCode:           status,
	}
}
