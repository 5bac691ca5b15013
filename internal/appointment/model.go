package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestConfirmed RequestStatus = "confirmed"
	RequestDeclined  RequestStatus = "declined"
)

type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

// CancellationType records who initiated a cancellation. It only selects
// notification wording and recipient.
type CancellationType string

const (
	CancelledByPatient CancellationType = "patient"
	CancelledByStaff   CancellationType = "staff"
	CancelledBySystem  CancellationType = "system"
)

const defaultAppointmentType = "consultation"

type Dentist struct {
	ID       uuid.UUID
	FullName string
}

type Patient struct {
	ID       uuid.UUID
	FullName string
	Email    *string
}

type AppointmentRequest struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	AppointmentType string
	ChiefComplaint  string
	PainLevel       int
	PreferredDate   time.Time
	PreferredTime   *TimeOfDay
	AdditionalNotes string
	Urgency         Urgency
	Status          RequestStatus
	AssignedTo      *uuid.UUID
	ConfirmedBy     *uuid.UUID
	ConfirmedAt     *time.Time
	DeclineReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Appointment struct {
	ID                   uuid.UUID
	PatientID            uuid.UUID
	DentistID            uuid.UUID
	AssistantID          *uuid.UUID
	AppointmentRequestID *uuid.UUID
	ScheduledDate        time.Time
	ScheduledTime        TimeOfDay
	DurationMinutes      int
	AppointmentType      string
	Status               Status
	Notes                string
	CancellationReason   string
	CancelledBy          *uuid.UUID
	CancelledAt          *time.Time
	CreatedBy            *uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsActive reports whether the appointment still occupies its dentist's time.
func (a Appointment) IsActive() bool {
	return a.Status == StatusScheduled || a.Status == StatusInProgress
}

// End is the first minute after the appointment.
func (a Appointment) End() TimeOfDay {
	return a.ScheduledTime.Add(a.DurationMinutes)
}

// TimeSlot is a derived, never persisted, bookable candidate.
type TimeSlot struct {
	Date        time.Time
	Time        TimeOfDay
	DentistID   uuid.UUID
	DentistName string
	Available   bool
}

type DaySlots struct {
	Date      time.Time
	TimeSlots []TimeSlot
}

// RequestInput is what a patient submits.
type RequestInput struct {
	AppointmentType string
	ChiefComplaint  string
	PainLevel       int
	PreferredDate   time.Time
	PreferredTime   string
	AdditionalNotes string
	Urgency         Urgency
}

// ScheduleData binds a request (or a direct booking) to a dentist and time.
type ScheduleData struct {
	DentistID       uuid.UUID
	AssistantID     *uuid.UUID
	ScheduledDate   time.Time
	ScheduledTime   string
	DurationMinutes int
	Notes           string
}

// BookingInput is a staff booking made without a patient request.
type BookingInput struct {
	PatientID       uuid.UUID
	AppointmentType string
	Schedule        ScheduleData
}

type ConflictReport struct {
	Conflicts   []Appointment
	Suggestions []TimeSlot
}

type AvailabilityQuery struct {
	StartDate       time.Time
	EndDate         time.Time
	DurationMinutes int
	DentistID       *uuid.UUID
}

type AppointmentFilter struct {
	PatientID *uuid.UUID
	DentistID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Statuses  []Status
	Limit     int
	Offset    int
}
