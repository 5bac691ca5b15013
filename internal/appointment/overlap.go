package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Overlaps reports whether [a, a+durA) and [b, b+durB) intersect.
// Back to back intervals do not overlap.
func Overlaps(a TimeOfDay, durA int, b TimeOfDay, durB int) bool {
	return b < a.Add(durA) && b.Add(durB) > a
}

// FindConflicts returns the active appointments in existing that fall on
// date and overlap [start, start+duration). excludeID skips one appointment,
// uuid.Nil excludes nothing. Callers pass one dentist's appointments.
func FindConflicts(existing []Appointment, date time.Time, start TimeOfDay, duration int, excludeID uuid.UUID) []Appointment {
	day := DateOf(date)

	var conflicts []Appointment
	for _, a := range existing {
		if !a.IsActive() || a.ID == excludeID {
			continue
		}
		if !DateOf(a.ScheduledDate).Equal(day) {
			continue
		}
		if Overlaps(start, duration, a.ScheduledTime, a.DurationMinutes) {
			conflicts = append(conflicts, a)
		}
	}
	return conflicts
}
