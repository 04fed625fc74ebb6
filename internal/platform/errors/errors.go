// Package errors provides the coded error type shared by the insights api.
// Imported as perr everywhere so it never shadows the standard errors package
package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode is the machine facing classification carried on the wire
// values are stable, append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota
	// ErrorCodePanic is for panics recovered by middleware
	ErrorCodePanic
	// ErrorCodeUnavailable is for a backend that cannot take queries right now
	ErrorCodeUnavailable
	// ErrorCodeTimeout is for statements cancelled by a server side limit
	ErrorCodeTimeout
	// ErrorCodeInvalidArgument is for input that is well formed but unsupported
	ErrorCodeInvalidArgument
	// ErrorCodeValidation is for malformed descriptors
	ErrorCodeValidation
	// ErrorCodeJSON is for request bodies that do not decode
	ErrorCodeJSON
	// ErrorCodeNotFound is for unknown entities
	ErrorCodeNotFound
	// ErrorCodeDB is for any other backend failure
	ErrorCodeDB
)

// HTTPStatusCode maps a code to the response status
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeValidation, ErrorCodeJSON:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeInvalidArgument:
		return http.StatusUnprocessableEntity
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a code, a developer facing message, the offending field and the cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
}

// Wire is the JSON form of an *Error
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return e.msg + ": " + e.orig.Error()
	}
	return e.msg
}

// Unwrap returns the cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, empty when none
func (e *Error) Field() string { return e.field }

// WireFrom converts any error for the response body, foreign errors become Unknown
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return Wire{Code: e.code, Message: e.msg, Field: e.field}
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// As returns the outermost *Error in the chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Root returns the deepest cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts the code, Unknown for foreign errors
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// HTTPStatus returns the mapped status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// WithField returns a copy of the *Error naming field, foreign errors pass through
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// New returns an *Error with code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns an *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrapf wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// JSONErrf returns a request body error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// PanicErrf returns a recovered panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }
