package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies tool failures so the API layer can map them to a
// response without inspecting message text.
type ErrorKind string

const (
	ErrInvalidRequest   ErrorKind = "invalid_request"
	ErrSymbolNotFound   ErrorKind = "symbol_not_found"
	ErrUnknownSector    ErrorKind = "unknown_sector"
	ErrInsufficientData ErrorKind = "insufficient_data"
	ErrTransportFailed  ErrorKind = "transport_failed"
	ErrRejected         ErrorKind = "rejected"
	ErrInternal         ErrorKind = "internal"
)

// Error is the structured error returned across the tool boundary.
// Callers receive kind + message, never provider internals or stack traces.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError creates a structured error with the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates a structured error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from an error chain, defaulting to ErrInternal
// for errors that did not originate at the tool boundary.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrInternal
}
