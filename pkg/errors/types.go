package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType int

const (
	// ErrorTypeParse indicates an inbound line could not be parsed
	ErrorTypeParse ErrorType = iota
	// ErrorTypeExpansion indicates a parsed request could not be expanded
	ErrorTypeExpansion
	// ErrorTypeProcess indicates the child process could not take input
	ErrorTypeProcess
	// ErrorTypeTransport indicates a client transport error
	ErrorTypeTransport
	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal
)

// Error codes
const (
	CodeInvalidFormat      = "INVALID_FORMAT"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeUnknownCommand     = "UNKNOWN_COMMAND"
	CodeLimitExceeded      = "LIMIT_EXCEEDED"
	CodeProcessUnavailable = "PROCESS_UNAVAILABLE"
	CodeWriteFailure       = "WRITE_FAILURE"
	CodeClientSendFailure  = "CLIENT_SEND_FAILURE"
	CodeConnectionClosed   = "CONNECTION_CLOSED"
	CodeSendBufferFull     = "SEND_BUFFER_FULL"
)

// Templates for errors.Is matching. Is compares type and code only.
var (
	ErrInvalidFormat      = New(ErrorTypeParse, CodeInvalidFormat, "Invalid command format")
	ErrInvalidArgument    = New(ErrorTypeParse, CodeInvalidArgument, "Invalid argument")
	ErrUnknownCommand     = New(ErrorTypeExpansion, CodeUnknownCommand, "Unknown command")
	ErrLimitExceeded      = New(ErrorTypeExpansion, CodeLimitExceeded, "Limit exceeded")
	ErrProcessUnavailable = New(ErrorTypeProcess, CodeProcessUnavailable, "Server process not running")
	ErrWriteFailure       = New(ErrorTypeProcess, CodeWriteFailure, "Failed to send command")
	ErrClientSendFailure  = New(ErrorTypeTransport, CodeClientSendFailure, "Failed to deliver message")
	ErrConnectionClosed   = New(ErrorTypeTransport, CodeConnectionClosed, "Connection closed")
)

// Error represents a structured error with metadata
type Error struct {
	Type      ErrorType `json:"type"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Code, e.Message, e.Details, e.Cause)
	}
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// New creates a new error
func New(errorType ErrorType, code, message string) *Error {
	return &Error{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// From builds a fresh error carrying the template's type, code and message.
func From(template *Error, details string) *Error {
	return New(template.Type, template.Code, template.Message).WithDetails(details)
}

// WithDetails adds details to an error
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// WithCause attaches an underlying error
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Reason renders err as the short text sent back to a client.
// Causes are left out so internal detail does not leak over the wire.
func Reason(err error) string {
	var e *Error
	if !stderrors.As(err, &e) {
		return "An unexpected error occurred"
	}
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
