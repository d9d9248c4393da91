package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Exit codes for gido
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitInvalidRequest = 2
	ExitMisconfigured  = 3
	ExitUpstreamError  = 4
	ExitFetchError     = 5
	ExitConfigError    = 6
	ExitNotifyError    = 7
)

// Kind classifies a failure.
type Kind string

const (
	KindInvalidRequest      Kind = "invalid_request"
	KindServerMisconfigured Kind = "server_misconfigured"
	KindUpstream            Kind = "upstream_error"
	KindInternal            Kind = "internal_error"
	KindFetch               Kind = "fetch_error"
	KindNotification        Kind = "notification_error"
	KindConfig              Kind = "config_error"
)

// Error is the base error type for gido
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error

	// Status is the HTTP status reported to proxy callers.
	Status int

	// Details carries extra caller-visible context, such as the raw
	// upstream body of an UpstreamError.
	Details string

	// Auth marks notification failures caused by rejected credentials.
	Auth bool
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *Error) ExitCode() int {
	return e.Code
}

// New creates a new Error
func New(kind Kind, code int, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// Wrap wraps an existing error with an Error
func Wrap(kind Kind, code int, message string, cause error) *Error {
	e := New(kind, code, message)
	e.Cause = cause
	return e
}

// Common error constructors

// InvalidRequest returns an error for malformed proxy input
func InvalidRequest(message string) *Error {
	e := New(KindInvalidRequest, ExitInvalidRequest, message)
	e.Status = http.StatusBadRequest
	return e
}

// RequestTooLarge returns an error for a proxy request body over limit bytes
func RequestTooLarge(limit int64) *Error {
	e := New(KindInvalidRequest, ExitInvalidRequest, "Request too large")
	e.Status = http.StatusRequestEntityTooLarge
	e.Cause = fmt.Errorf("body exceeds %d bytes", limit)
	return e
}

// ServerMisconfigured returns an error for a missing server credential
func ServerMisconfigured(message string) *Error {
	return New(KindServerMisconfigured, ExitMisconfigured, message)
}

// UpstreamError returns an error for a non-200 upstream response.
// The upstream status and raw body are surfaced to the caller.
func UpstreamError(status int, body string) *Error {
	e := New(KindUpstream, ExitUpstreamError, "API error")
	e.Status = status
	e.Details = body
	return e
}

// InternalError returns an error for any unexpected failure
func InternalError(cause error) *Error {
	msg := "internal error"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Kind:    KindInternal,
		Code:    ExitGeneralError,
		Message: msg,
		Cause:   cause,
		Status:  http.StatusInternalServerError,
	}
}

// FetchError returns an error for a failed page fetch
func FetchError(url string, cause error) *Error {
	return Wrap(KindFetch, ExitFetchError, fmt.Sprintf("fetch %s failed", url), cause)
}

// NotificationError returns an error for a failed notification.
// auth reports whether the provider rejected the credentials.
func NotificationError(message string, auth bool, cause error) *Error {
	e := Wrap(KindNotification, ExitNotifyError, message, cause)
	e.Auth = auth
	return e
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *Error {
	return Wrap(KindConfig, ExitConfigError, message, cause)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var gidoErr *Error
	if errors.As(err, &gidoErr) {
		return gidoErr.ExitCode()
	}
	return ExitGeneralError
}

// HTTPStatus extracts the HTTP status from an error, defaulting to 500.
func HTTPStatus(err error) int {
	var gidoErr *Error
	if errors.As(err, &gidoErr) && gidoErr.Status != 0 {
		return gidoErr.Status
	}
	return http.StatusInternalServerError
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var gidoErr *Error
	if errors.As(err, &gidoErr) {
		return gidoErr.Kind == kind
	}
	return false
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join joins errors, as errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
