package appointment

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// BusinessHours drives slot generation: starts every SlotGranularity
// minutes from Open while before Close, on WorkingDays only.
type BusinessHours struct {
	Open            TimeOfDay
	Close           TimeOfDay
	SlotGranularity int
	WorkingDays     map[time.Weekday]bool
}

func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		Open:            NewTimeOfDay(9, 0),
		Close:           NewTimeOfDay(17, 0),
		SlotGranularity: 30,
		WorkingDays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
	}
}

func (h BusinessHours) Validate() error {
	if h.Close <= h.Open {
		return errors.New("clinic close time must be after open time")
	}
	if h.SlotGranularity <= 0 {
		return errors.New("slot granularity must be positive")
	}
	if len(h.WorkingDays) == 0 {
		return errors.New("at least one working day is required")
	}
	return nil
}

func (h BusinessHours) IsWorkingDay(d time.Time) bool {
	return h.WorkingDays[d.Weekday()]
}

// SlotStarts lists every candidate start time of a working day.
func (h BusinessHours) SlotStarts() []TimeOfDay {
	var starts []TimeOfDay
	for t := h.Open; t < h.Close; t = t.Add(h.SlotGranularity) {
		starts = append(starts, t)
	}
	return starts
}

var placeholderNamespace = uuid.MustParse("3f0d3a9e-7c55-4d0b-9d8e-0b6f9a4a2c11")

// PlaceholderDentists stands in for an empty directory so availability
// still renders in demo and freshly provisioned environments. IDs are
// stable across calls.
func PlaceholderDentists() []Dentist {
	names := []string{"Dr. Sarah Johnson", "Dr. Michael Chen", "Dr. Emily Rodriguez"}
	out := make([]Dentist, 0, len(names))
	for _, n := range names {
		out = append(out, Dentist{
			ID:       uuid.NewSHA1(placeholderNamespace, []byte(n)),
			FullName: n,
		})
	}
	return out
}

type dentistDay struct {
	dentist uuid.UUID
	day     string
}

// GenerateAvailability builds the slot grid for [start, end] inclusive.
// Days outside WorkingDays are left out entirely. It is pure: identical
// inputs give identical output.
func GenerateAvailability(h BusinessHours, dentists []Dentist, booked []Appointment, start, end time.Time, duration int) []DaySlots {
	byDentistDay := make(map[dentistDay][]Appointment)
	for _, a := range booked {
		if !a.IsActive() {
			continue
		}
		k := dentistDay{dentist: a.DentistID, day: FormatDate(a.ScheduledDate)}
		byDentistDay[k] = append(byDentistDay[k], a)
	}

	starts := h.SlotStarts()
	first, last := DateOf(start), DateOf(end)

	var days []DaySlots
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if !h.IsWorkingDay(d) {
			continue
		}

		day := DaySlots{Date: d, TimeSlots: make([]TimeSlot, 0, len(starts)*len(dentists))}
		for _, dentist := range dentists {
			existing := byDentistDay[dentistDay{dentist: dentist.ID, day: FormatDate(d)}]
			for _, t := range starts {
				day.TimeSlots = append(day.TimeSlots, TimeSlot{
					Date:        d,
					Time:        t,
					DentistID:   dentist.ID,
					DentistName: dentist.FullName,
					Available:   !overlapsAny(t, duration, existing),
				})
			}
		}
		days = append(days, day)
	}
	return days
}

func overlapsAny(t TimeOfDay, duration int, existing []Appointment) bool {
	for _, a := range existing {
		if Overlaps(t, duration, a.ScheduledTime, a.DurationMinutes) {
			return true
		}
	}
	return false
}

// nearestAvailable picks up to n available slots closest to target.
func nearestAvailable(days []DaySlots, target TimeOfDay, n int) []TimeSlot {
	var free []TimeSlot
	for _, d := range days {
		for _, s := range d.TimeSlots {
			if s.Available {
				free = append(free, s)
			}
		}
	}

	dist := func(s TimeSlot) int {
		d := int(s.Time - target)
		if d < 0 {
			return -d
		}
		return d
	}
	sort.SliceStable(free, func(i, j int) bool {
		di, dj := dist(free[i]), dist(free[j])
		if di != dj {
			return di < dj
		}
		return free[i].Time < free[j].Time
	})

	if len(free) > n {
		free = free[:n]
	}
	return free
}
