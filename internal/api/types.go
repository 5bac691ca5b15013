package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
)

// Request bodies. Dates are YYYY-MM-DD, times HH:MM.

type CreateRequestBody struct {
	PatientID       string `json:"patient_id"`
	AppointmentType string `json:"appointment_type"`
	ChiefComplaint  string `json:"chief_complaint"`
	PainLevel       int    `json:"pain_level"`
	PreferredDate   string `json:"preferred_date"`
	PreferredTime   string `json:"preferred_time,omitempty"`
	AdditionalNotes string `json:"additional_notes,omitempty"`
	Urgency         string `json:"urgency,omitempty"`
}

type ScheduleBody struct {
	DentistID       string  `json:"dentist_id"`
	AssistantID     *string `json:"assistant_id,omitempty"`
	ScheduledDate   string  `json:"scheduled_date"`
	ScheduledTime   string  `json:"scheduled_time"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

type BookingBody struct {
	ScheduleBody
	PatientID       string `json:"patient_id"`
	AppointmentType string `json:"appointment_type,omitempty"`
}

type ConflictCheckBody struct {
	ScheduleBody
	ExcludeAppointmentID string `json:"exclude_appointment_id,omitempty"`
}

type DeclineBody struct {
	Reason string `json:"reason"`
}

type AssignBody struct {
	StaffID string `json:"staff_id"`
}

type StatusBody struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

type CancelBody struct {
	Reason           string `json:"reason"`
	CancellationType string `json:"cancellation_type,omitempty"`
}

// Envelope is the response shape of every scheduling endpoint.
type Envelope struct {
	Success     bool             `json:"success"`
	Data        any              `json:"data,omitempty"`
	Error       string           `json:"error,omitempty"`
	Kind        string           `json:"kind,omitempty"`
	Conflicts   []AppointmentDTO `json:"conflicts,omitempty"`
	Suggestions []TimeSlotDTO    `json:"suggestions,omitempty"`
}

type AppointmentDTO struct {
	ID                   uuid.UUID  `json:"id"`
	PatientID            uuid.UUID  `json:"patient_id"`
	DentistID            uuid.UUID  `json:"dentist_id"`
	AssistantID          *uuid.UUID `json:"assistant_id,omitempty"`
	AppointmentRequestID *uuid.UUID `json:"appointment_request_id,omitempty"`
	ScheduledDate        string     `json:"scheduled_date"`
	ScheduledTime        string     `json:"scheduled_time"`
	DurationMinutes      int        `json:"duration_minutes"`
	AppointmentType      string     `json:"appointment_type"`
	Status               string     `json:"status"`
	Notes                string     `json:"notes,omitempty"`
	CancellationReason   string     `json:"cancellation_reason,omitempty"`
	CancelledBy          *uuid.UUID `json:"cancelled_by,omitempty"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
	CreatedBy            *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type RequestDTO struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	AppointmentType string     `json:"appointment_type"`
	ChiefComplaint  string     `json:"chief_complaint"`
	PainLevel       int        `json:"pain_level"`
	PreferredDate   string     `json:"preferred_date"`
	PreferredTime   string     `json:"preferred_time,omitempty"`
	AdditionalNotes string     `json:"additional_notes,omitempty"`
	Urgency         string     `json:"urgency"`
	Status          string     `json:"status"`
	AssignedTo      *uuid.UUID `json:"assigned_to,omitempty"`
	ConfirmedBy     *uuid.UUID `json:"confirmed_by,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	DeclineReason   string     `json:"decline_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type TimeSlotDTO struct {
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	DentistID   uuid.UUID `json:"dentist_id"`
	DentistName string    `json:"dentist_name"`
	Available   bool      `json:"available"`
}

type DaySlotsDTO struct {
	Date      string        `json:"date"`
	TimeSlots []TimeSlotDTO `json:"time_slots"`
}

type ConflictReportDTO struct {
	HasConflicts bool             `json:"has_conflicts"`
	Conflicts    []AppointmentDTO `json:"conflicts"`
	Suggestions  []TimeSlotDTO    `json:"suggestions"`
}

func toAppointmentDTO(a appointment.Appointment) AppointmentDTO {
	return AppointmentDTO{
		ID:                   a.ID,
		PatientID:            a.PatientID,
		DentistID:            a.DentistID,
		AssistantID:          a.AssistantID,
		AppointmentRequestID: a.AppointmentRequestID,
		ScheduledDate:        appointment.FormatDate(a.ScheduledDate),
		ScheduledTime:        a.ScheduledTime.String(),
		DurationMinutes:      a.DurationMinutes,
		AppointmentType:      a.AppointmentType,
		Status:               string(a.Status),
		Notes:                a.Notes,
		CancellationReason:   a.CancellationReason,
		CancelledBy:          a.CancelledBy,
		CancelledAt:          a.CancelledAt,
		CreatedBy:            a.CreatedBy,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func toAppointmentDTOs(list []appointment.Appointment) []AppointmentDTO {
	out := make([]AppointmentDTO, 0, len(list))
	for _, a := range list {
		out = append(out, toAppointmentDTO(a))
	}
	return out
}

func toRequestDTO(r appointment.AppointmentRequest) RequestDTO {
	dto := RequestDTO{
		ID:              r.ID,
		PatientID:       r.PatientID,
		AppointmentType: r.AppointmentType,
		ChiefComplaint:  r.ChiefComplaint,
		PainLevel:       r.PainLevel,
		PreferredDate:   appointment.FormatDate(r.PreferredDate),
		AdditionalNotes: r.AdditionalNotes,
		Urgency:         string(r.Urgency),
		Status:          string(r.Status),
		AssignedTo:      r.AssignedTo,
		ConfirmedBy:     r.ConfirmedBy,
		ConfirmedAt:     r.ConfirmedAt,
		DeclineReason:   r.DeclineReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.PreferredTime != nil {
		dto.PreferredTime = r.PreferredTime.String()
	}
	return dto
}

func toRequestDTOs(list []appointment.AppointmentRequest) []RequestDTO {
	out := make([]RequestDTO, 0, len(list))
	for _, r := range list {
		out = append(out, toRequestDTO(r))
	}
	return out
}

func toTimeSlotDTOs(list []appointment.TimeSlot) []TimeSlotDTO {
	out := make([]TimeSlotDTO, 0, len(list))
	for _, s := range list {
		out = append(out, TimeSlotDTO{
			Date:        appointment.FormatDate(s.Date),
			Time:        s.Time.String(),
			DentistID:   s.DentistID,
			DentistName: s.DentistName,
			Available:   s.Available,
		})
	}
	return out
}

func toDaySlotsDTOs(days []appointment.DaySlots) []DaySlotsDTO {
	out := make([]DaySlotsDTO, 0, len(days))
	for _, d := range days {
		out = append(out, DaySlotsDTO{
			Date:      appointment.FormatDate(d.Date),
			TimeSlots: toTimeSlotDTOs(d.TimeSlots),
		})
	}
	return out
}

func toConflictReportDTO(r appointment.ConflictReport) ConflictReportDTO {
	return ConflictReportDTO{
		HasConflicts: len(r.Conflicts) > 0,
		Conflicts:    toAppointmentDTOs(r.Conflicts),
		Suggestions:  toTimeSlotDTOs(r.Suggestions),
	}
}
