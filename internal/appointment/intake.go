package appointment

import (
	"strings"
	"time"
)

const maxPainLevel = 10

func ValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyRoutine, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}

// ValidateRequest checks a patient's request before anything is stored.
// today is the clinic-local calendar date.
func ValidateRequest(in RequestInput, today time.Time, maxAdvanceMonths int) error {
	if strings.TrimSpace(in.ChiefComplaint) == "" {
		return validationError("Chief complaint is required")
	}
	if in.PainLevel < 0 || in.PainLevel > maxPainLevel {
		return validationError("Pain level must be between 0 and 10")
	}
	if in.PreferredDate.IsZero() {
		return validationError("Preferred date is required")
	}

	preferred := DateOf(in.PreferredDate)
	today = DateOf(today)
	if preferred.Before(today) {
		return validationError("Preferred date cannot be in the past")
	}
	if preferred.After(today.AddDate(0, maxAdvanceMonths, 0)) {
		return validationError("Preferred date cannot be more than %d months in the future", maxAdvanceMonths)
	}

	if in.Urgency != "" && !ValidUrgency(in.Urgency) {
		return validationError("Invalid urgency level: %s", in.Urgency)
	}
	if in.PreferredTime != "" {
		if _, err := ParseTimeOfDay(in.PreferredTime); err != nil {
			return validationError("Invalid preferred time: %s", in.PreferredTime)
		}
	}
	return nil
}

func normalizeUrgency(u Urgency) Urgency {
	if u == "" {
		return UrgencyRoutine
	}
	return u
}
