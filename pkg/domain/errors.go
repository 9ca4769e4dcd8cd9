package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies coordinator failures. Every kind is recoverable by the
// caller: a failed operation leaves the store unchanged.
type ErrorKind string

// Failure kinds surfaced to views.
const (
	KindNotFound          ErrorKind = "not_found"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindAlreadyAssigned   ErrorKind = "already_assigned"
	KindDuplicateCheckIn  ErrorKind = "duplicate_check_in"
	KindNoOpenCheckIn     ErrorKind = "no_open_check_in"
	// KindValidation reports malformed input that never reached a transition.
	KindValidation ErrorKind = "validation"
)

// Error is the typed failure returned by coordinator operations.
type Error struct {
	Kind    ErrorKind
	Op      string
	Entity  EntityType
	ID      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// ErrNotFound is returned when a store lookup by id fails.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// KindOf extracts the failure kind from err, or "" when err is not typed.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	var nf ErrNotFound
	if errors.As(err, &nf) {
		return KindNotFound
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// NotFound builds a NotFound failure for the referenced entity.
func NotFound(op string, entity EntityType, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Entity: entity, ID: id, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// Invalidf builds an InvalidTransition failure.
func Invalidf(op string, entity EntityType, id, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTransition, Op: op, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}

// AlreadyAssignedf builds an AlreadyAssigned failure.
func AlreadyAssignedf(op string, entity EntityType, id, format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyAssigned, Op: op, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}

// Validationf builds a Validation failure.
func Validationf(op string, entity EntityType, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Entity: entity, Message: fmt.Sprintf(format, args...)}
}

// Errorf builds a failure of the given kind.
func Errorf(kind ErrorKind, op string, entity EntityType, id, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Entity: entity, ID: id, Message: fmt.Sprintf(format, args...)}
}
