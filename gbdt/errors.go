package gbdt

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// PreconditionError reports a caller bug: a violated shape, alignment, or
// scalar-parameter invariant that BuildTree cannot recover from. These
// always abort the build rather than attempt a partial result.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("gbdt: %s: %s", e.Op, e.Reason)
}

// MarshalZerologObject lets PreconditionError be logged as a structured
// event rather than a flat string.
func (e *PreconditionError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("op", e.Op).Str("reason", e.Reason).Str("type", "PreconditionError")
}

func newPreconditionError(op, reason string) error {
	return errors.WithStack(&PreconditionError{Op: op, Reason: reason})
}

// expect panics with a *PreconditionError if cond is false. BuildTree and
// Dispatch recover at their boundary and return the error, so internal code
// can assert invariants unconditionally without leaking a panic to callers.
func expect(cond bool, op, reasonFmt string, args ...interface{}) {
	if !cond {
		panic(newPreconditionError(op, fmt.Sprintf(reasonFmt, args...)))
	}
}

// recoverPrecondition converts a panicking *PreconditionError (wrapped or
// not) raised by expect into a returned error. Any other panic value is
// re-raised: only precondition violations are a part of this package's
// documented abort contract.
func recoverPrecondition(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if asErr, ok := r.(error); ok {
		var pe *PreconditionError
		if errors.As(asErr, &pe) {
			*err = asErr
			return
		}
	}
	panic(r)
}
