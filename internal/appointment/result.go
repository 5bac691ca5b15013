package appointment

import (
	"errors"

	"github.com/rs/zerolog"
)

// Result is the envelope every public operation returns. Exactly one of
// Data or Error is set; Conflicts is only set for KindConflict.
type Result[T any] struct {
	Success     bool
	Data        *T
	Error       string
	Kind        ErrorKind
	Conflicts   []Appointment
	Suggestions []TimeSlot

	err error
}

// Err returns the underlying error of a failed result, for errors.Is checks.
func (r Result[T]) Err() error { return r.err }

func ok[T any](v T) Result[T] {
	return Result[T]{Success: true, Data: &v}
}

func conflicted[T any](report ConflictReport) Result[T] {
	return Result[T]{
		Kind:        KindConflict,
		Error:       ErrSlotConflict.Error(),
		Conflicts:   report.Conflicts,
		Suggestions: report.Suggestions,
		err:         ErrSlotConflict,
	}
}

// failed turns err into a failed Result. Validation and state errors keep
// their message; persistence errors are logged and replaced by a generic one.
func failed[T any](log *zerolog.Logger, op string, err error) Result[T] {
	kind := KindOf(err)
	res := Result[T]{Kind: kind, err: err}

	var e *Error
	switch {
	case errors.As(err, &e):
		res.Error = e.Msg
	case kind != KindPersistence:
		res.Error = err.Error()
	default:
		log.Error().Err(err).Str("op", op).Msg("operation failed")
		res.Error = "failed to " + op
	}
	return res
}
