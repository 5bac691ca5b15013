package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/dental-clinic-scheduling/internal/notification"
	redisclient "github.com/hackgods/dental-clinic-scheduling/internal/redis"
)

// GetAvailableTimeSlots builds the slot grid for a date range. Dentists and
// booked appointments are read concurrently. An empty directory falls back
// to placeholder dentists instead of failing.
func (s *Service) GetAvailableTimeSlots(ctx context.Context, q AvailabilityQuery) Result[[]DaySlots] {
	const op = "load available time slots"

	duration := q.DurationMinutes
	if duration == 0 {
		duration = s.opts.DefaultDuration
	}
	if duration < 0 {
		return failed[[]DaySlots](s.logger(ctx), op, validationError("Duration must be a positive number of minutes"))
	}
	if q.StartDate.IsZero() || q.EndDate.IsZero() {
		return failed[[]DaySlots](s.logger(ctx), op, validationError("Start and end dates are required"))
	}

	start, end := DateOf(q.StartDate), DateOf(q.EndDate)
	if end.Before(start) {
		return failed[[]DaySlots](s.logger(ctx), op, validationError("End date must not be before start date"))
	}
	if end.Sub(start) > maxAvailabilityDays*24*time.Hour {
		return failed[[]DaySlots](s.logger(ctx), op, validationError("Date range cannot exceed %d days", maxAvailabilityDays))
	}

	var (
		dentists []Dentist
		booked   []Appointment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if q.DentistID != nil {
			d, err := s.directory.GetDentist(gctx, *q.DentistID)
			if err != nil {
				return err
			}
			dentists = []Dentist{*d}
			return nil
		}
		list, err := s.directory.ListDentists(gctx)
		if err != nil {
			return fmt.Errorf("list dentists: %w", err)
		}
		dentists = list
		return nil
	})
	g.Go(func() error {
		var ids []uuid.UUID
		if q.DentistID != nil {
			ids = []uuid.UUID{*q.DentistID}
		}
		list, err := s.appointments.ListActiveAppointments(gctx, ids, start, end)
		if err != nil {
			return fmt.Errorf("list booked appointments: %w", err)
		}
		booked = list
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrDentistNotFound) {
			return failed[[]DaySlots](s.logger(ctx), op, stateError(err, "Dentist not found"))
		}
		return failed[[]DaySlots](s.logger(ctx), op, err)
	}

	if len(dentists) == 0 {
		s.logger(ctx).Warn().Msg("dentist directory is empty, using placeholder dentists")
		dentists = PlaceholderDentists()
	}

	return ok(GenerateAvailability(s.opts.Hours, dentists, booked, start, end, duration))
}

// CheckAppointmentConflicts lists the dentist's active appointments that
// overlap the proposed slot. It never writes. excludeID skips one
// appointment, e.g. the one being rescheduled.
func (s *Service) CheckAppointmentConflicts(ctx context.Context, data ScheduleData, excludeID uuid.UUID) Result[ConflictReport] {
	const op = "check appointment conflicts"

	slot, err := s.resolveSchedule(ctx, data)
	if err != nil {
		return failed[ConflictReport](s.logger(ctx), op, err)
	}

	report, err := s.conflictsFor(ctx, slot, excludeID)
	if err != nil {
		return failed[ConflictReport](s.logger(ctx), op, err)
	}
	return ok(report)
}

// ConfirmAppointmentRequest schedules a pending request. On conflict nothing
// is written and the conflicts are returned. If the appointment is created
// but the request cannot be marked confirmed, the call still succeeds and
// the request stays pending until reconciled.
func (s *Service) ConfirmAppointmentRequest(ctx context.Context, requestID uuid.UUID, data ScheduleData, confirmedBy uuid.UUID) Result[Appointment] {
	const op = "confirm appointment request"

	req, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return failed[Appointment](s.logger(ctx), op, err)
	}

	slot, err := s.resolveSchedule(ctx, data)
	if err != nil {
		return failed[Appointment](s.logger(ctx), op, err)
	}

	requestRef := req.ID
	appt := slot.appointment(req.PatientID, req.AppointmentType, confirmedBy)
	appt.AppointmentRequestID = &requestRef

	created, report, err := s.book(ctx, slot, appt)
	if err != nil {
		return failed[Appointment](s.logger(ctx), op, err)
	}
	if report != nil {
		s.logger(ctx).Info().
			Str("request_id", req.ID.String()).
			Str("dentist_id", slot.dentist.ID.String()).
			Int("conflicts", len(report.Conflicts)).
			Msg("confirmation rejected, slot conflicts")
		return conflicted[Appointment](*report)
	}

	if err := s.requests.MarkRequestConfirmed(ctx, req.ID, confirmedBy, s.opts.Now()); err != nil {
		s.logger(ctx).Error().Err(err).
			Str("request_id", req.ID.String()).
			Str("appointment_id", created.ID.String()).
			Msg("appointment created but request was not marked confirmed")
	}

	s.logger(ctx).Info().
		Str("request_id", req.ID.String()).
		Str("appointment_id", created.ID.String()).
		Str("confirmed_by", confirmedBy.String()).
		Msg("appointment request confirmed")

	s.effects.Run(ctx, s.bookedEffects(*created, slot.dentist))
	return ok(*created)
}

// CreateAppointment books a patient directly, skipping the request step.
func (s *Service) CreateAppointment(ctx context.Context, in BookingInput, createdBy uuid.UUID) Result[Appointment] {
	const op = "create appointment"

	if in.PatientID == uuid.Nil {
		return failed[Appointment](s.logger(ctx), op, validationError("Patient is required"))
	}
	if _, err := s.directory.GetPatient(ctx, in.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return failed[Appointment](s.logger(ctx), op, stateError(err, "Patient not found"))
		}
		return failed[Appointment](s.logger(ctx), op, fmt.Errorf("load patient: %w", err))
	}

	slot, err := s.resolveSchedule(ctx, in.Schedule)
	if err != nil {
		return failed[Appointment](s.logger(ctx), op, err)
	}

	apptType := strings.TrimSpace(in.AppointmentType)
	if apptType == "" {
		apptType = defaultAppointmentType
	}

	created, report, err := s.book(ctx, slot, slot.appointment(in.PatientID, apptType, createdBy))
	if err != nil {
		return failed[Appointment](s.logger(ctx), op, err)
	}
	if report != nil {
		return conflicted[Appointment](*report)
	}

	s.logger(ctx).Info().
		Str("appointment_id", created.ID.String()).
		Str("created_by", createdBy.String()).
		Msg("appointment booked directly")

	s.effects.Run(ctx, s.bookedEffects(*created, slot.dentist))
	return ok(*created)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) Result[Appointment] {
	appt, err := s.loadAppointment(ctx, id)
	if err != nil {
		return failed[Appointment](s.logger(ctx), "load appointment", err)
	}
	return ok(*appt)
}

func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter) Result[[]Appointment] {
	if f.Limit <= 0 {
		f.Limit = 50 // default
	}
	if f.Limit > 500 {
		f.Limit = 500 // max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	for _, st := range f.Statuses {
		if !ValidStatus(st) {
			return failed[[]Appointment](s.logger(ctx), "list appointments", validationError("invalid appointment status: %s", st))
		}
	}

	list, err := s.appointments.ListAppointments(ctx, f)
	if err != nil {
		return failed[[]Appointment](s.logger(ctx), "list appointments", err)
	}
	return ok(list)
}

// schedule is a validated ScheduleData.
type schedule struct {
	dentist   Dentist
	assistant *uuid.UUID
	date      time.Time
	start     TimeOfDay
	duration  int
	notes     string
}

func (sc schedule) appointment(patientID uuid.UUID, apptType string, createdBy uuid.UUID) *Appointment {
	a := &Appointment{
		PatientID:       patientID,
		DentistID:       sc.dentist.ID,
		AssistantID:     sc.assistant,
		ScheduledDate:   sc.date,
		ScheduledTime:   sc.start,
		DurationMinutes: sc.duration,
		AppointmentType: apptType,
		Status:          StatusScheduled,
		Notes:           sc.notes,
	}
	if createdBy != uuid.Nil {
		by := createdBy
		a.CreatedBy = &by
	}
	return a
}

func (s *Service) resolveSchedule(ctx context.Context, data ScheduleData) (schedule, error) {
	if data.DentistID == uuid.Nil {
		return schedule{}, validationError("Dentist is required")
	}
	if data.ScheduledDate.IsZero() {
		return schedule{}, validationError("Scheduled date is required")
	}
	start, err := ParseTimeOfDay(data.ScheduledTime)
	if err != nil {
		return schedule{}, validationError("Invalid scheduled time: %q", data.ScheduledTime)
	}

	duration := data.DurationMinutes
	if duration == 0 {
		duration = s.opts.DefaultDuration
	}
	if duration < 0 {
		return schedule{}, validationError("Duration must be a positive number of minutes")
	}
	if start.Add(duration) > NewTimeOfDay(24, 0) {
		return schedule{}, validationError("Appointment must end on the day it starts")
	}

	dentist, err := s.directory.GetDentist(ctx, data.DentistID)
	if err != nil {
		if errors.Is(err, ErrDentistNotFound) {
			return schedule{}, stateError(err, "Dentist not found")
		}
		return schedule{}, fmt.Errorf("load dentist: %w", err)
	}

	return schedule{
		dentist:   *dentist,
		assistant: data.AssistantID,
		date:      DateOf(data.ScheduledDate),
		start:     start,
		duration:  duration,
		notes:     strings.TrimSpace(data.Notes),
	}, nil
}

func (s *Service) conflictsFor(ctx context.Context, sc schedule, excludeID uuid.UUID) (ConflictReport, error) {
	existing, err := s.appointments.ListActiveAppointments(ctx, []uuid.UUID{sc.dentist.ID}, sc.date, sc.date)
	if err != nil {
		return ConflictReport{}, fmt.Errorf("list dentist appointments: %w", err)
	}

	report := ConflictReport{Conflicts: FindConflicts(existing, sc.date, sc.start, sc.duration, excludeID)}
	if len(report.Conflicts) > 0 {
		days := GenerateAvailability(s.opts.Hours, []Dentist{sc.dentist}, existing, sc.date, sc.date, sc.duration)
		report.Suggestions = nearestAvailable(days, sc.start, maxSuggestions)
	}
	return report, nil
}

// book re-checks conflicts and inserts while holding the dentist's day lock.
// A non-nil report means nothing was written.
func (s *Service) book(ctx context.Context, sc schedule, appt *Appointment) (*Appointment, *ConflictReport, error) {
	var (
		created *Appointment
		report  *ConflictReport
	)

	critical := func(ctx context.Context) error {
		r, err := s.conflictsFor(ctx, sc, uuid.Nil)
		if err != nil {
			return err
		}
		if len(r.Conflicts) > 0 {
			report = &r
			return nil
		}

		a, err := s.appointments.CreateAppointment(ctx, appt)
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		created = a
		return nil
	}

	var err error
	if s.locker != nil {
		err = s.locker.WithDentistDayLock(ctx, sc.dentist.ID, sc.date, critical)
	} else {
		err = critical(ctx)
	}
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, nil, stateError(ErrSlotBeingBooked, "This dentist's schedule is currently being updated, please retry shortly")
		}
		return nil, nil, err
	}
	return created, report, nil
}

func (s *Service) bookedEffects(a Appointment, dentist Dentist) []Effect {
	return []Effect{
		{
			Name: "notify patient of confirmed appointment",
			Run: func(ctx context.Context) error {
				return s.notifier.Notify(ctx, a.PatientID, notification.TypeAppointmentConfirmed, confirmedContent(a, dentist.FullName))
			},
		},
		{
			Name: "notify dentist of new appointment",
			Run: func(ctx context.Context) error {
				content := newAppointmentContent(a, s.patientName(ctx, a.PatientID))
				return s.notifier.Notify(ctx, a.DentistID, notification.TypeNewAppointment, content)
			},
		},
	}
}

func (s *Service) loadAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.appointments.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, stateError(err, "Appointment not found")
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return appt, nil
}
