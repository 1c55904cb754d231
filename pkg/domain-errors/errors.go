// Package domainerrors defines the error vocabulary shared by all features.
// Errors carry a stable machine code, an optional finer-grained reason, and
// a human message; transports map codes to their own status schemes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and metrics.
type Code string

const (
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeForbidden          Code = "forbidden"
	CodeUnauthorized       Code = "unauthorized"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is the concrete domain error. Reason is an optional business-level
// discriminator within a code, such as a specific rejection cause.
type Error struct {
	Code    Code
	Reason  string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewWithReason creates a domain error carrying a business-level reason.
func NewWithReason(code Code, reason, message string) *Error {
	return &Error{Code: code, Reason: reason, Message: message}
}

// Wrap annotates err with a code and message while preserving the chain.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// HasReason reports whether any error in the chain carries the given reason.
func HasReason(err error, reason string) bool {
	return ReasonOf(err) == reason
}

// CodeOf extracts the code from the first domain error in the chain,
// defaulting to CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// ReasonOf extracts the reason from the first domain error in the chain.
// Empty when the error is foreign or carries no reason.
func ReasonOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Reason
	}
	return ""
}
