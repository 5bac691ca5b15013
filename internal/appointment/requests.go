package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/notification"
)

// CreateAppointmentRequest validates and stores a patient's request, then
// lets every assistant know. Routine requests are throttled per patient.
func (s *Service) CreateAppointmentRequest(ctx context.Context, patientID uuid.UUID, in RequestInput) Result[AppointmentRequest] {
	const op = "create appointment request"

	if patientID == uuid.Nil {
		return failed[AppointmentRequest](s.logger(ctx), op, validationError("Patient is required"))
	}
	if err := ValidateRequest(in, s.today(), s.opts.MaxAdvanceMonths); err != nil {
		return failed[AppointmentRequest](s.logger(ctx), op, err)
	}

	urgency := normalizeUrgency(in.Urgency)
	if urgency == UrgencyRoutine {
		since := s.opts.Now().Add(-s.opts.ThrottleWindow)
		pending, err := s.requests.HasPendingRequestSince(ctx, patientID, since)
		if err != nil {
			return failed[AppointmentRequest](s.logger(ctx), op, fmt.Errorf("check pending requests: %w", err))
		}
		if pending {
			return failed[AppointmentRequest](s.logger(ctx), op, &Error{
				Kind: KindValidation,
				Msg:  "You already have a pending appointment request. Please wait for it to be reviewed or mark the new request as urgent.",
				Err:  ErrRequestThrottled,
			})
		}
	}

	req := &AppointmentRequest{
		PatientID:       patientID,
		AppointmentType: strings.TrimSpace(in.AppointmentType),
		ChiefComplaint:  strings.TrimSpace(in.ChiefComplaint),
		PainLevel:       in.PainLevel,
		PreferredDate:   DateOf(in.PreferredDate),
		AdditionalNotes: strings.TrimSpace(in.AdditionalNotes),
		Urgency:         urgency,
		Status:          RequestPending,
	}
	if req.AppointmentType == "" {
		req.AppointmentType = defaultAppointmentType
	}
	if in.PreferredTime != "" {
		t, _ := ParseTimeOfDay(in.PreferredTime)
		req.PreferredTime = &t
	}

	created, err := s.requests.CreateRequest(ctx, req)
	if err != nil {
		return failed[AppointmentRequest](s.logger(ctx), op, fmt.Errorf("insert request: %w", err))
	}

	s.logger(ctx).Info().
		Str("request_id", created.ID.String()).
		Str("patient_id", patientID.String()).
		Str("urgency", string(created.Urgency)).
		Msg("appointment request created")

	r := *created
	s.effects.Run(ctx, []Effect{{
		Name: "notify assistants of new request",
		Run: func(ctx context.Context) error {
			content := requestReceivedContent(r, s.patientName(ctx, r.PatientID))
			return s.notifier.NotifyAssistants(ctx, notification.TypeAppointmentRequest, content)
		},
	}})

	return ok(r)
}

// DeclineAppointmentRequest closes a pending request without scheduling it.
func (s *Service) DeclineAppointmentRequest(ctx context.Context, requestID, declinedBy uuid.UUID, reason string) Result[AppointmentRequest] {
	const op = "decline appointment request"

	req, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return failed[AppointmentRequest](s.logger(ctx), op, err)
	}

	declined, err := s.requests.DeclineRequest(ctx, req.ID, strings.TrimSpace(reason), s.opts.Now())
	if err != nil {
		if errors.Is(err, ErrRequestNotPending) {
			return failed[AppointmentRequest](s.logger(ctx), op, stateError(err, "Appointment request is no longer pending"))
		}
		return failed[AppointmentRequest](s.logger(ctx), op, fmt.Errorf("decline request: %w", err))
	}

	s.logger(ctx).Info().
		Str("request_id", declined.ID.String()).
		Str("declined_by", declinedBy.String()).
		Msg("appointment request declined")

	r := *declined
	s.effects.Run(ctx, []Effect{{
		Name: "notify patient of declined request",
		Run: func(ctx context.Context) error {
			return s.notifier.Notify(ctx, r.PatientID, notification.TypeRequestDeclined, declinedContent(r))
		},
	}})

	return ok(r)
}

// AssignAppointmentRequest sets the staff member handling a request. The
// assignment may change in any request status.
func (s *Service) AssignAppointmentRequest(ctx context.Context, requestID, staffID uuid.UUID) Result[AppointmentRequest] {
	const op = "assign appointment request"

	if staffID == uuid.Nil {
		return failed[AppointmentRequest](s.logger(ctx), op, validationError("Staff member is required"))
	}

	updated, err := s.requests.AssignRequest(ctx, requestID, staffID)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return failed[AppointmentRequest](s.logger(ctx), op, stateError(err, "Appointment request not found"))
		}
		return failed[AppointmentRequest](s.logger(ctx), op, fmt.Errorf("assign request: %w", err))
	}
	return ok(*updated)
}

func (s *Service) ListPendingRequests(ctx context.Context, limit int) Result[[]AppointmentRequest] {
	if limit <= 0 {
		limit = 50 // default
	}
	if limit > 200 {
		limit = 200 // max
	}

	reqs, err := s.requests.ListPendingRequests(ctx, limit)
	if err != nil {
		return failed[[]AppointmentRequest](s.logger(ctx), "list appointment requests", err)
	}
	return ok(reqs)
}

// ReconcileConfirmedRequests marks requests confirmed when an appointment
// was created from them but the confirmation write was lost. It returns
// how many requests were fixed.
func (s *Service) ReconcileConfirmedRequests(ctx context.Context) Result[int] {
	const op = "reconcile appointment requests"

	stale, err := s.requests.ListPendingConfirmations(ctx)
	if err != nil {
		return failed[int](s.logger(ctx), op, fmt.Errorf("list pending confirmations: %w", err))
	}

	fixed := 0
	now := s.opts.Now()
	for _, pc := range stale {
		confirmedBy := uuid.Nil
		if pc.CreatedBy != nil {
			confirmedBy = *pc.CreatedBy
		}
		err := s.requests.MarkRequestConfirmed(ctx, pc.RequestID, confirmedBy, now)
		if err != nil && !errors.Is(err, ErrRequestNotPending) {
			s.logger(ctx).Warn().Err(err).
				Str("request_id", pc.RequestID.String()).
				Str("appointment_id", pc.AppointmentID.String()).
				Msg("failed to reconcile request")
			continue
		}
		if err == nil {
			fixed++
		}
	}

	if fixed > 0 {
		s.logger(ctx).Info().Int("fixed", fixed).Int("candidates", len(stale)).Msg("reconciled appointment requests")
	}
	return ok(fixed)
}

// pendingRequest loads a request and checks it can still be acted on.
func (s *Service) pendingRequest(ctx context.Context, id uuid.UUID) (*AppointmentRequest, error) {
	req, err := s.requests.GetRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return nil, stateError(err, "Appointment request not found")
		}
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req.Status != RequestPending {
		return nil, stateError(ErrRequestNotPending, "Appointment request is not pending (current status: %s)", req.Status)
	}
	return req, nil
}
