package internal

import (
	"errors"
	"net/http"
)

// Reason strings for the error taxonomy. Each has a numeric Code* constant
// below; both are carried in every error response body.
const (
	ReasonInvalidArgument = "ERR_INVALID_ARGUMENT"
	ReasonInvalidState    = "ERR_INVALID_STATE"
	ReasonNotFound        = "ERR_NOT_FOUND"
	ReasonExternal        = "ERR_EXTERNAL"
	ReasonInternal        = "ERR_INTERNAL"
)

const (
	CodeInvalidArgument = 1
	CodeInvalidState    = 2
	CodeNotFound        = 3
	CodeExternal        = 5
	CodeInternal        = 6
)

var reasonToStatus = map[string]int{
	ReasonInvalidArgument: http.StatusBadRequest,
	ReasonInvalidState:    http.StatusBadRequest,
	ReasonNotFound:        http.StatusNotFound,
	ReasonExternal:        http.StatusInternalServerError,
	ReasonInternal:        http.StatusInternalServerError,
}

var reasonToCode = map[string]int{
	ReasonInvalidArgument: CodeInvalidArgument,
	ReasonInvalidState:    CodeInvalidState,
	ReasonNotFound:        CodeNotFound,
	ReasonExternal:        CodeExternal,
	ReasonInternal:        CodeInternal,
}

// HTTPError represents an error in the §7 taxonomy. It carries the data
// needed to render the {reason, code, message} response body (§6) and,
// separately, an underlying cause kept for logging only.
type HTTPError struct {
	Err     error
	Reason  string
	Message string
	Code    int
	Status  int
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Reason
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Status
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates a taxonomy error for the given reason code.
// If reason is not one of the known Reason* constants it gets ERR_INTERNAL's
// status and code; the Reason field keeps the given string.
func NewHTTPError(reason string, message string) *HTTPError {
	status, ok := reasonToStatus[reason]
	if !ok {
		status = http.StatusInternalServerError
	}
	code, ok := reasonToCode[reason]
	if !ok {
		code = CodeInternal
	}
	return &HTTPError{
		Reason:  reason,
		Message: message,
		Code:    code,
		Status:  status,
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

// Convenience constructors matching the §7 taxonomy.

func ErrInvalidArgument(message string, opts ...HTTPErrorOption) *HTTPError {
	e := NewHTTPError(ReasonInvalidArgument, message)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func ErrInvalidState(message string, opts ...HTTPErrorOption) *HTTPError {
	e := NewHTTPError(ReasonInvalidState, message)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	e := NewHTTPError(ReasonNotFound, message)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func ErrExternal(message string, opts ...HTTPErrorOption) *HTTPError {
	e := NewHTTPError(ReasonExternal, message)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	e := NewHTTPError(ReasonInternal, message)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsHTTPError reports whether err is, or wraps, an *HTTPError.
func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

// AsHTTPError extracts the HTTPError from an error chain if present.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}
