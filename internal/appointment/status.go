package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/notification"
)

// UpdateAppointmentStatus moves an appointment through the workflow.
// Starting a visit links a treatment record first if none exists. The write
// only applies if nobody changed the status since it was read.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, newStatus Status, updatedBy uuid.UUID, notes *string) Result[Appointment] {
	const op = "update appointment status"

	updated, err := s.transition(ctx, appointmentID, newStatus, func() StatusUpdate {
		u := StatusUpdate{Notes: notes}
		if newStatus == StatusCancelled && updatedBy != uuid.Nil {
			actor := updatedBy
			u.CancelledBy = &actor
		}
		return u
	})
	if err != nil {
		return failed[Appointment](s.logger(ctx), op, err)
	}

	s.logger(ctx).Info().
		Str("appointment_id", updated.ID.String()).
		Str("status", string(updated.Status)).
		Str("updated_by", updatedBy.String()).
		Msg("appointment status updated")

	a := *updated
	effects := []Effect{{
		Name: "notify patient of status change",
		Run: func(ctx context.Context) error {
			return s.notifier.Notify(ctx, a.PatientID, notification.TypeStatusChanged, statusChangedContent(a))
		},
	}}
	s.effects.Run(ctx, append(effects, s.treatmentSync(a)...))

	return ok(a)
}

// CancelAppointment cancels a scheduled or in-progress appointment. The
// cancellation type picks who is told: the patient for staff and system
// cancellations, the dentist when the patient cancels.
func (s *Service) CancelAppointment(ctx context.Context, appointmentID, cancelledBy uuid.UUID, reason string, by CancellationType) Result[Appointment] {
	const op = "cancel appointment"

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return failed[Appointment](s.logger(ctx), op, validationError("Cancellation reason is required"))
	}
	switch by {
	case "":
		by = CancelledByStaff
	case CancelledByPatient, CancelledByStaff, CancelledBySystem:
	default:
		return failed[Appointment](s.logger(ctx), op, validationError("invalid cancellation type: %s", by))
	}

	updated, err := s.transition(ctx, appointmentID, StatusCancelled, func() StatusUpdate {
		u := StatusUpdate{CancellationReason: reason}
		if cancelledBy != uuid.Nil {
			actor := cancelledBy
			u.CancelledBy = &actor
		}
		return u
	})
	if err != nil {
		return failed[Appointment](s.logger(ctx), op, err)
	}

	s.logger(ctx).Info().
		Str("appointment_id", updated.ID.String()).
		Str("cancelled_by", cancelledBy.String()).
		Str("cancellation_type", string(by)).
		Msg("appointment cancelled")

	a := *updated
	recipient := a.PatientID
	if by == CancelledByPatient {
		recipient = a.DentistID
	}
	effects := []Effect{{
		Name: "notify " + string(by) + " cancellation",
		Run: func(ctx context.Context) error {
			name := ""
			if by == CancelledByPatient {
				name = s.patientName(ctx, a.PatientID)
			}
			return s.notifier.Notify(ctx, recipient, notification.TypeAppointmentCancelled, cancelledContent(a, by, name, reason))
		},
	}}
	s.effects.Run(ctx, append(effects, s.treatmentSync(a)...))

	return ok(a)
}

// transition loads the appointment, checks the edge, runs the pre-write
// effects and applies a compare-and-set update built by fill.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, fill func() StatusUpdate) (*Appointment, error) {
	current, err := s.loadAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(current.Status, to); err != nil {
		return nil, err
	}

	if to == StatusInProgress {
		s.effects.Run(ctx, []Effect{s.linkTreatment(*current)})
	}

	u := fill()
	u.AppointmentID = current.ID
	u.From = current.Status
	u.To = to
	u.At = s.opts.Now()

	updated, err := s.appointments.UpdateAppointmentStatus(ctx, u)
	if err != nil {
		switch {
		case errors.Is(err, ErrStatusChanged):
			return nil, stateError(err, "Appointment status was changed by someone else, please reload")
		case errors.Is(err, ErrAppointmentNotFound):
			return nil, stateError(err, "Appointment not found")
		}
		return nil, fmt.Errorf("persist status: %w", err)
	}
	return updated, nil
}

func (s *Service) linkTreatment(a Appointment) Effect {
	return Effect{
		Name: "link treatment to appointment",
		Run: func(ctx context.Context) error {
			if s.treatments == nil {
				return nil
			}
			linked, err := s.treatments.HasTreatmentForAppointment(ctx, a.ID)
			if err != nil {
				return fmt.Errorf("check linked treatment: %w", err)
			}
			if linked {
				return nil
			}
			return s.treatments.LinkAppointment(ctx, TreatmentLink{
				AppointmentID: a.ID,
				PatientID:     a.PatientID,
				DentistID:     a.DentistID,
				TreatmentType: a.AppointmentType,
				TotalVisits:   1,
			})
		},
	}
}

func (s *Service) treatmentSync(a Appointment) []Effect {
	if s.treatments == nil || !syncsTreatments(a.Status) {
		return nil
	}
	return []Effect{{
		Name: "sync treatment status",
		Run: func(ctx context.Context) error {
			n, err := s.treatments.UpdateTreatmentsForAppointmentStatus(ctx, a.ID, a.Status)
			if err != nil {
				return err
			}
			s.logger(ctx).Debug().Str("appointment_id", a.ID.String()).Int("treatments", n).Msg("treatments synced")
			return nil
		},
	}}
}
