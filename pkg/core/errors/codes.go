// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     errors
// Description: Error codes for operational failures
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package errors

import (
	"google.golang.org/grpc/codes"
)

// Code classifies an operational error
type Code string

const (
	CodeUnknown        Code = "UNKNOWN"
	CodeInternal       Code = "INTERNAL"
	CodeInvalidInput   Code = "INVALID_INPUT"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConfigError    Code = "CONFIG_ERROR"
	CodeIOError        Code = "IO_ERROR"
	CodeStoreError     Code = "STORE_ERROR"
	CodeTransportError Code = "TRANSPORT_ERROR"
)

// String returns the string representation of the code
func (c Code) String() string {
	return string(c)
}

// IsValid reports whether c is one of the defined codes
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeInvalidInput, CodeNotFound,
		CodeConfigError, CodeIOError, CodeStoreError, CodeTransportError:
		return true
	default:
		return false
	}
}

// GRPCCode maps the code onto a gRPC status code
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeInvalidInput:
		return codes.InvalidArgument
	case CodeNotFound:
		return codes.NotFound
	case CodeConfigError:
		return codes.FailedPrecondition
	case CodeTransportError:
		return codes.Unavailable
	case CodeIOError, CodeStoreError, CodeInternal:
		return codes.Internal
	default:
		return codes.Unknown
	}
}
