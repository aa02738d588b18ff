// Package apperr defines the sentinel errors raised by the search engine
// core, following the same plain-sentinel-plus-wrapper idiom as the
// platform's pkg/errors package.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeID is returned when AddDocument is called with id < 0.
	ErrNegativeID = errors.New("document id must not be negative")
	// ErrDuplicateID is returned when AddDocument is called with an id
	// already present in the engine.
	ErrDuplicateID = errors.New("document id already exists")
	// ErrInvalidCharacter is returned when a document, stop-word, or query
	// token contains an ASCII control byte (< 0x20).
	ErrInvalidCharacter = errors.New("word contains invalid characters")
	// ErrMalformedMinus is returned when a query token is a bare "-" or
	// begins with "--".
	ErrMalformedMinus = errors.New("malformed minus-word in query")
	// ErrUnknownID is returned when MatchDocument is called with an id
	// not present in the engine.
	ErrUnknownID = errors.New("unknown document id")
)

// Error wraps a sentinel with a human-readable, control-byte-free message.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps sentinel with message.
func New(sentinel error, message string) *Error {
	return &Error{Err: sentinel, Message: message}
}

// Newf wraps sentinel with a formatted message.
func Newf(sentinel error, format string, args ...any) *Error {
	return &Error{Err: sentinel, Message: fmt.Sprintf(format, args...)}
}
