// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     errors
// Description: Coded error type with operation context and wrapped cause.
//              Lint findings are never errors; this type is for IO, config,
//              store and transport failures only.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Error is an operational error
type Error struct {
	message   string
	cause     error
	code      Code
	operation string
	details   map[string]interface{}
}

// New creates an error with CodeUnknown
func New(message string) *Error {
	return &Error{message: message, code: CodeUnknown}
}

// Newf creates an error with a formatted message
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Wrap wraps err with a message. The code of a wrapped *Error is inherited.
// Wrap returns nil for a nil err.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	wrapped := &Error{message: message, cause: err, code: CodeUnknown}
	var inner *Error
	if stderrors.As(err, &inner) {
		wrapped.code = inner.code
	}
	return wrapped
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.operation != "" {
		b.WriteString(e.operation)
		b.WriteString(": ")
	}
	b.WriteString(e.message)
	if len(e.details) > 0 {
		keys := make([]string, 0, len(e.details))
		for k := range e.details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.details[k])
		}
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error by code so errors.Is(err, errors.New("").WithCode(c))
// tests for a code anywhere in the chain
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.code != CodeUnknown && t.code == e.code
}

// WithCode sets the error code
func (e *Error) WithCode(code Code) *Error {
	e.code = code
	return e
}

// WithOperation sets the operation that failed
func (e *Error) WithOperation(operation string) *Error {
	e.operation = operation
	return e
}

// WithDetail adds a detail
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.details == nil {
		e.details = make(map[string]interface{})
	}
	e.details[key] = value
	return e
}

// Code returns the error code
func (e *Error) Code() Code {
	return e.code
}

// Operation returns the failed operation
func (e *Error) Operation() string {
	return e.operation
}

// Message returns the message without operation, details or cause
func (e *Error) Message() string {
	return e.message
}

// Details returns a copy of the details
func (e *Error) Details() map[string]interface{} {
	out := make(map[string]interface{}, len(e.details))
	for k, v := range e.details {
		out[k] = v
	}
	return out
}

// CodeOf returns the code of the first *Error in err's chain, CodeUnknown
// if there is none
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// HasCode reports whether err's chain carries code
func HasCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}
