package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDentistNotFound     = errors.New("dentist not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrRequestNotFound     = errors.New("appointment request not found")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStatusChanged     = errors.New("appointment status changed concurrently")
	ErrRequestNotPending = errors.New("appointment request is not pending")
	ErrRequestThrottled  = errors.New("a pending routine request already exists")
	ErrSlotConflict      = errors.New("requested time conflicts with an existing appointment")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry shortly")
)

// ErrorKind is the closed set of failure classes a caller can branch on.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindState       ErrorKind = "state"
	KindConflict    ErrorKind = "conflict"
	KindPersistence ErrorKind = "persistence"
)

// Error carries a caller facing message and its kind. Msg is shown to the
// user verbatim.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func stateError(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindState, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf classifies err. Anything unrecognized is a persistence failure.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrAppointmentNotFound),
		errors.Is(err, ErrRequestNotFound),
		errors.Is(err, ErrDentistNotFound),
		errors.Is(err, ErrPatientNotFound),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrStatusChanged),
		errors.Is(err, ErrRequestNotPending),
		errors.Is(err, ErrSlotBeingBooked):
		return KindState
	case errors.Is(err, ErrSlotConflict):
		return KindConflict
	}
	return KindPersistence
}
