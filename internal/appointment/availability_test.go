package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func slotAt(t *testing.T, day DaySlots, dentist uuid.UUID, at string) TimeSlot {
	t.Helper()
	want := MustParseTimeOfDay(at)
	for _, s := range day.TimeSlots {
		if s.DentistID == dentist && s.Time == want {
			return s
		}
	}
	t.Fatalf("no slot at %s for %s", at, dentist)
	return TimeSlot{}
}

func TestGenerateAvailabilityMarksOverlaps(t *testing.T) {
	d1 := Dentist{ID: uuid.New(), FullName: "Dr. One"}
	booked := []Appointment{{
		ID:              uuid.New(),
		DentistID:       d1.ID,
		ScheduledDate:   monday,
		ScheduledTime:   NewTimeOfDay(10, 0),
		DurationMinutes: 60,
		Status:          StatusScheduled,
	}}

	days := GenerateAvailability(DefaultBusinessHours(), []Dentist{d1}, booked, monday, monday, 30)
	require.Len(t, days, 1)
	require.Len(t, days[0].TimeSlots, 16)

	assert.True(t, slotAt(t, days[0], d1.ID, "09:30").Available)
	assert.False(t, slotAt(t, days[0], d1.ID, "10:00").Available)
	assert.False(t, slotAt(t, days[0], d1.ID, "10:30").Available)
	assert.True(t, slotAt(t, days[0], d1.ID, "11:00").Available)
}

func TestGenerateAvailabilityUsesRequestedDuration(t *testing.T) {
	d1 := Dentist{ID: uuid.New(), FullName: "Dr. One"}
	booked := []Appointment{{
		DentistID:       d1.ID,
		ScheduledDate:   monday,
		ScheduledTime:   NewTimeOfDay(10, 0),
		DurationMinutes: 60,
		Status:          StatusInProgress,
	}}

	days := GenerateAvailability(DefaultBusinessHours(), []Dentist{d1}, booked, monday, monday, 60)
	require.Len(t, days, 1)

	assert.True(t, slotAt(t, days[0], d1.ID, "09:00").Available)
	assert.False(t, slotAt(t, days[0], d1.ID, "09:30").Available)
	assert.True(t, slotAt(t, days[0], d1.ID, "11:00").Available)
}

func TestGenerateAvailabilityIgnoresOtherDentistsAndInactive(t *testing.T) {
	d1 := Dentist{ID: uuid.New(), FullName: "Dr. One"}
	d2 := Dentist{ID: uuid.New(), FullName: "Dr. Two"}
	booked := []Appointment{
		{DentistID: d2.ID, ScheduledDate: monday, ScheduledTime: NewTimeOfDay(9, 0), DurationMinutes: 60, Status: StatusScheduled},
		{DentistID: d1.ID, ScheduledDate: monday, ScheduledTime: NewTimeOfDay(9, 0), DurationMinutes: 60, Status: StatusCancelled},
	}

	days := GenerateAvailability(DefaultBusinessHours(), []Dentist{d1, d2}, booked, monday, monday, 30)
	require.Len(t, days, 1)
	assert.True(t, slotAt(t, days[0], d1.ID, "09:00").Available)
	assert.False(t, slotAt(t, days[0], d2.ID, "09:00").Available)

	// dentist order, then time order
	assert.Equal(t, d1.ID, days[0].TimeSlots[0].DentistID)
	assert.Equal(t, d2.ID, days[0].TimeSlots[16].DentistID)
	assert.Equal(t, "Dr. Two", days[0].TimeSlots[16].DentistName)
}

func TestGenerateAvailabilitySkipsWeekends(t *testing.T) {
	dentists := PlaceholderDentists()
	start := monday
	end := monday.AddDate(0, 0, 13)

	days := GenerateAvailability(DefaultBusinessHours(), dentists, nil, start, end, 60)
	require.Len(t, days, 10)
	for _, d := range days {
		wd := d.Date.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
		for _, s := range d.TimeSlots {
			assert.Equal(t, d.Date, s.Date)
		}
	}
}

func TestGenerateAvailabilityCustomHours(t *testing.T) {
	h := BusinessHours{
		Open:            NewTimeOfDay(8, 0),
		Close:           NewTimeOfDay(12, 0),
		SlotGranularity: 60,
		WorkingDays:     map[time.Weekday]bool{time.Saturday: true},
	}
	require.NoError(t, h.Validate())

	d := Dentist{ID: uuid.New(), FullName: "Dr. Weekend"}
	days := GenerateAvailability(h, []Dentist{d}, nil, monday, monday.AddDate(0, 0, 6), 60)
	require.Len(t, days, 1)
	assert.Equal(t, time.Saturday, days[0].Date.Weekday())

	var times []string
	for _, s := range days[0].TimeSlots {
		times = append(times, s.Time.String())
	}
	assert.Equal(t, []string{"08:00", "09:00", "10:00", "11:00"}, times)
}

func TestGenerateAvailabilityIsIdempotent(t *testing.T) {
	dentists := PlaceholderDentists()
	booked := []Appointment{{
		DentistID:       dentists[1].ID,
		ScheduledDate:   monday.AddDate(0, 0, 2),
		ScheduledTime:   NewTimeOfDay(14, 0),
		DurationMinutes: 90,
		Status:          StatusScheduled,
	}}

	first := GenerateAvailability(DefaultBusinessHours(), dentists, booked, monday, monday.AddDate(0, 0, 6), 60)
	second := GenerateAvailability(DefaultBusinessHours(), dentists, booked, monday, monday.AddDate(0, 0, 6), 60)
	assert.Equal(t, first, second)
}

func TestPlaceholderDentistsAreStable(t *testing.T) {
	a, b := PlaceholderDentists(), PlaceholderDentists()
	require.Len(t, a, 3)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a[0].ID, a[1].ID)
}

func TestBusinessHoursValidate(t *testing.T) {
	h := DefaultBusinessHours()
	assert.NoError(t, h.Validate())

	bad := h
	bad.Close = bad.Open
	assert.Error(t, bad.Validate())

	bad = h
	bad.SlotGranularity = 0
	assert.Error(t, bad.Validate())

	bad = h
	bad.WorkingDays = nil
	assert.Error(t, bad.Validate())
}

func TestNearestAvailable(t *testing.T) {
	d := Dentist{ID: uuid.New(), FullName: "Dr. One"}
	booked := []Appointment{{
		DentistID:       d.ID,
		ScheduledDate:   monday,
		ScheduledTime:   NewTimeOfDay(10, 0),
		DurationMinutes: 60,
		Status:          StatusScheduled,
	}}
	days := GenerateAvailability(DefaultBusinessHours(), []Dentist{d}, booked, monday, monday, 60)

	got := nearestAvailable(days, NewTimeOfDay(10, 0), 3)
	require.Len(t, got, 3)
	assert.Equal(t, "09:00", got[0].Time.String())
	assert.Equal(t, "11:00", got[1].Time.String())
	assert.Equal(t, "11:30", got[2].Time.String())
}
