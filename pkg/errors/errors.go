package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure that callers can branch on.
type Code string

const (
	CodeValidation    Code = "VALIDATION"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeRateLimited   Code = "RATE_LIMITED"
	CodeInternal      Code = "INTERNAL"
	CodeDependency    Code = "DEPENDENCY"
)

// Metadata carries the transport-level defaults for a code.
type Metadata struct {
	HTTPStatus     int
	DefaultMessage string
}

var metadata = map[Code]Metadata{
	CodeValidation:    {HTTPStatus: http.StatusBadRequest, DefaultMessage: "invalid request"},
	CodeUnauthorized:  {HTTPStatus: http.StatusUnauthorized, DefaultMessage: "authentication required"},
	CodeForbidden:     {HTTPStatus: http.StatusForbidden, DefaultMessage: "permission denied"},
	CodeNotFound:      {HTTPStatus: http.StatusNotFound, DefaultMessage: "resource not found"},
	CodeConflict:      {HTTPStatus: http.StatusConflict, DefaultMessage: "resource conflict"},
	CodeStateConflict: {HTTPStatus: http.StatusConflict, DefaultMessage: "operation not applicable to current state"},
	CodeRateLimited:   {HTTPStatus: http.StatusTooManyRequests, DefaultMessage: "too many requests"},
	CodeInternal:      {HTTPStatus: http.StatusInternalServerError, DefaultMessage: "internal error"},
	CodeDependency:    {HTTPStatus: http.StatusBadGateway, DefaultMessage: "upstream dependency failed"},
}

// MetadataFor returns the transport metadata for a code, falling back
// to the internal-error metadata for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadata[code]; ok {
		return m
	}
	return metadata[CodeInternal]
}

// Error is the coded error passed between layers. Services return it,
// controllers map it to a response via its metadata.
type Error struct {
	code    Code
	message string
	details map[string]any
	cause   error
}

func New(code Code, message string) *Error {
	if message == "" {
		message = MetadataFor(code).DefaultMessage
	}
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a cause to a new coded error. The cause is preserved
// for logging and errors.Is/As but never serialized to clients.
func Wrap(code Code, cause error, message string) *Error {
	e := New(code, message)
	e.cause = cause
	return e
}

func Wrapf(code Code, cause error, format string, args ...any) *Error {
	return Wrap(code, cause, fmt.Sprintf(format, args...))
}

func (e *Error) WithDetails(details map[string]any) *Error {
	e.details = details
	return e
}

func (e *Error) WithDetail(key string, value any) *Error {
	if e.details == nil {
		e.details = map[string]any{}
	}
	e.details[key] = value
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Code() Code              { return e.code }
func (e *Error) Message() string         { return e.message }
func (e *Error) Details() map[string]any { return e.details }
func (e *Error) Unwrap() error           { return e.cause }
func (e *Error) HTTPStatus() int         { return MetadataFor(e.code).HTTPStatus }

// As extracts a coded error from any error chain. A nil or uncoded
// error yields ok=false.
func As(err error) (*Error, bool) {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded, true
	}
	return nil, false
}

// CodeOf returns the code of err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	if coded, ok := As(err); ok {
		return coded.code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
