package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed exchange with the backend.
type Kind int

const (
	// KindConnectivity means no response arrived at all.
	KindConnectivity Kind = iota
	// KindUnauthorized means the response said the credential is invalid or
	// expired.
	KindUnauthorized
	// KindServerRejected means the server handled the request and returned a
	// structured failure with a detail message.
	KindServerRejected
)

// Error is the typed failure returned by every Client call.
type Error struct {
	Kind       Kind
	StatusCode int
	Detail     string
	cause      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConnectivity:
		return fmt.Sprintf("server unreachable: %v", e.cause)
	case KindUnauthorized:
		return fmt.Sprintf("unauthorized (status %d)", e.StatusCode)
	default:
		return fmt.Sprintf("server rejected request (status %d): %s", e.StatusCode, e.Detail)
	}
}

func (e *Error) Unwrap() error {
	return e.cause
}

// AsError extracts the typed error, if any, from err's chain.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
