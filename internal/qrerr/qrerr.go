// Package qrerr defines the error kinds surfaced by generation and verification.
package qrerr

import (
	"errors"
	"fmt"
)

var (
	// ErrInput marks an empty or malformed token or image, rejected before any core work.
	ErrInput = errors.New("invalid input")
	// ErrGeneration marks a token that cannot be encoded under the fixed contract.
	ErrGeneration = errors.New("generation failed")
	// ErrGeometryMismatch marks a rectified grid that disagrees with the reconstructed
	// module count. Extraction recovers from it by using a looser strategy.
	ErrGeometryMismatch = errors.New("geometry mismatch")
)

// Error attaches an operation and a kind to an underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error's kind so callers can use errors.Is(err, qrerr.ErrInput).
func (e *Error) Is(target error) bool { return target == e.Kind }

// Input builds an ErrInput error for op.
func Input(op, format string, args ...any) error {
	return &Error{Kind: ErrInput, Op: op, Err: fmt.Errorf(format, args...)}
}

// Generation wraps cause as an ErrGeneration error for op.
func Generation(op string, cause error) error {
	return &Error{Kind: ErrGeneration, Op: op, Err: cause}
}

// Mismatch builds an ErrGeometryMismatch error for op.
func Mismatch(op, format string, args ...any) error {
	return &Error{Kind: ErrGeometryMismatch, Op: op, Err: fmt.Errorf(format, args...)}
}
