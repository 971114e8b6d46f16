// Package errors provides the structured error taxonomy used at the host boundary.
//
// Every recoverable failure that crosses the boundary is an *Error carrying one
// ErrorType. Contract violations (stale handles, out-of-range type codes,
// indexing past a collection's snapshotted length) are not modeled here: they
// panic.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInvalidInput means the host value matches none of the accepted shapes
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	// ErrorTypeEmptyInput means there was nothing to infer a column type from
	ErrorTypeEmptyInput ErrorType = "empty_input"
	// ErrorTypeInvalidArgument means a foreign value is neither a single item nor a collection
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	// ErrorTypeUnsupportedType means the column type has no typed buffer mirror
	ErrorTypeUnsupportedType ErrorType = "unsupported_type"
	// ErrorTypeNotContiguous means the column is chunked or contains nulls
	ErrorTypeNotContiguous ErrorType = "not_contiguous"
	// ErrorTypeEngine wraps failures raised by the columnar engine
	ErrorTypeEngine ErrorType = "engine"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a format string
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Engine wraps an error raised by the columnar engine. The engine's own text
// is kept verbatim as the message.
func Engine(err error) *Error {
	if err == nil {
		return nil
	}
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return existingErr
	}
	return &Error{
		Type:    ErrorTypeEngine,
		Message: err.Error(),
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRecoverable reports whether err is a typed boundary error the caller may
// react to (retry with corrected input, rechunk, and so on).
func IsRecoverable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type != ErrorTypeInternal
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
