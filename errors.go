package uszram

import "github.com/pkg/errors"

// Code is the numeric error code exposed at the public API boundary
// (spec §7): BadRange and Corrupt are the only kinds that ever reach a
// caller. CompressExceedsBudget is handled internally by the engine's
// huge-page transition and never becomes a Code; there is no AllocFailed
// code, since the allocator backends never fail in this module (they only ever call make, which panics rather than
// returning an error on exhaustion).
type Code int

const (
	// Ok is the zero value: no error.
	Ok Code = 0
	// BadRange: caller passed an out-of-bounds address or count.
	BadRange Code = -1
	// Corrupt: the compressor backend rejected stored bytes.
	Corrupt Code = -2
)

// Error is the concrete error type returned across the public API. Code
// is always BadRange or Corrupt; Op names the operation that failed.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	switch e.Code {
	case BadRange:
		return e.Op + ": address or count out of range"
	case Corrupt:
		return e.Op + ": corrupt page data"
	default:
		return e.Op + ": unknown error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

func badRange(op string) error {
	return errors.WithStack(&Error{Code: BadRange, Op: op})
}

func corrupt(op string, cause error) error {
	return errors.WithStack(&Error{Code: Corrupt, Op: op, Err: cause})
}

// Cause unwraps err down to its numeric Code, returning Ok if err is nil
// or not one produced by this package.
func Cause(err error) Code {
	if err == nil {
		return Ok
	}
	e, ok := errors.Cause(err).(*Error)
	if !ok {
		return Ok
	}
	return e.Code
}
