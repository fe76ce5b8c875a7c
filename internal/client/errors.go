package client

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/allisson/credentials/internal/errors"
)

// ErrTransportUnavailable indicates the server could not be reached.
var ErrTransportUnavailable = errors.New("no connection to server")

// APIError is a non-2xx reply from the auth service. Message is the server's
// public reply text.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("API error %d: %s (request_id: %s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// Is matches the domain sentinel corresponding to the status code.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return target == apperrors.ErrBadRequest
	case http.StatusUnauthorized:
		return target == apperrors.ErrUnauthorized
	case http.StatusNotFound:
		return target == apperrors.ErrNotFound
	case http.StatusConflict:
		return target == apperrors.ErrConflict
	case http.StatusUnprocessableEntity:
		return target == apperrors.ErrInvalidInput
	}
	return false
}

// NetworkError wraps a failure to complete the round trip.
type NetworkError struct {
	Err    error
	Method string
	URL    string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports every network failure as ErrTransportUnavailable.
func (e *NetworkError) Is(target error) bool {
	return target == ErrTransportUnavailable
}
