package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// Kind represents the different classes of failure the client can report
type Kind string

const (
	KindAuth     Kind = "auth"
	KindHTTP     Kind = "http"
	KindAPI      Kind = "api"
	KindTimeout  Kind = "timeout"
	KindNotFound Kind = "not_found"
	KindConfig   Kind = "config"
	KindNetwork  Kind = "network"
)

// Error represents a classified client error
type Error struct {
	Kind    Kind
	Message string
	// Status is the HTTP status code for KindHTTP errors, 0 otherwise
	Status int
	// Body is a truncated copy of the response body, if any
	Body string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		if e.Body != "" {
			return fmt.Sprintf("http error (status %d): %s", e.Status, e.Body)
		}
		return fmt.Sprintf("http error (status %d)", e.Status)
	case KindAuth:
		return fmt.Sprintf("auth error: %s", e.Message)
	default:
		if e.Err != nil && e.Message == "" {
			return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewAuth reports an invalid or expired session
func NewAuth(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

// NewHTTP reports a non-2xx response
func NewHTTP(status int, body string) *Error {
	return &Error{Kind: KindHTTP, Status: status, Body: body, Message: fmt.Sprintf("status %d", status)}
}

// NewAPI reports a well-formed error payload from the service
func NewAPI(message string) *Error {
	return &Error{Kind: KindAPI, Message: message}
}

// NewTimeout wraps a cancelled or expired request
func NewTimeout(err error) *Error {
	return &Error{Kind: KindTimeout, Message: "request timed out", Err: err}
}

// NewNotFound reports an entity that could not be extracted from a response
func NewNotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// NewConfig reports missing or invalid local configuration
func NewConfig(message string) *Error {
	return &Error{Kind: KindConfig, Message: message}
}

// NewNetwork wraps a transport-level failure
func NewNetwork(err error) *Error {
	return &Error{Kind: KindNetwork, Message: fmt.Sprintf("network error: %v", err), Err: err}
}

// KindOf returns the Kind of err, or "" when err is not a classified error
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is a classified error of the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindNetwork:
		return true
	case KindHTTP:
		return IsRetryableStatusCode(e.Status)
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 429: // Too Many Requests
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500
	}
}
