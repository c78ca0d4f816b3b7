package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service failure for the transport layer
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
)

// Error is a typed business failure. Anything that is not an *Error is
// treated as internal.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Validation builds a malformed-input error
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a missing-entity error
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a state or uniqueness conflict error
func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Code: "CONFLICT", Message: fmt.Sprintf(format, args...)}
}

// ConflictWithDetails attaches machine-readable details, e.g. offending ids
func ConflictWithDetails(details interface{}, format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Code: "CONFLICT", Message: fmt.Sprintf(format, args...), Details: details}
}

// Unauthorized builds a failed-credentials error
func Unauthorized(format string, args ...interface{}) error {
	return &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: fmt.Sprintf(format, args...)}
}

// AsError extracts a typed service error from err's chain
func AsError(err error) (*Error, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for untyped errors
func KindOf(err error) ErrorKind {
	if svcErr, ok := AsError(err); ok {
		return svcErr.Kind
	}
	return KindInternal
}
