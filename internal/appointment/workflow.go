package appointment

import "fmt"

var transitions = map[Status][]Status{
	StatusScheduled:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  nil,
	StatusCancelled:  nil,
	StatusNoShow:     nil,
}

func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

func IsTerminal(s Status) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an error wrapping ErrInvalidTransition for any
// edge missing from the table.
func ValidateTransition(from, to Status) error {
	if !ValidStatus(to) {
		return validationError("invalid appointment status: %s", to)
	}
	if !CanTransition(from, to) {
		return stateError(fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to),
			"Cannot change appointment status from %s to %s", from, to)
	}
	return nil
}

// syncsTreatments lists the statuses that are propagated to linked treatments.
func syncsTreatments(s Status) bool {
	return s == StatusInProgress || s == StatusCompleted || s == StatusCancelled
}
