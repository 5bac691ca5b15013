package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository implements Directory, AppointmentStore and RequestStore on
// Postgres. People live in a single profiles table keyed by role.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, patient_id, dentist_id, assistant_id, appointment_request_id,
	scheduled_date, scheduled_time, duration_minutes, appointment_type, status,
	notes, cancellation_reason, cancelled_by, cancelled_at, created_by, created_at, updated_at`

const requestColumns = `
	id, patient_id, appointment_type, chief_complaint, pain_level,
	preferred_date, preferred_time, additional_notes, urgency, status,
	assigned_to, confirmed_by, confirmed_at, decline_reason, created_at, updated_at`

// Helpers

func toPgTime(t TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Minutes()) * int64(time.Minute/time.Microsecond), Valid: true}
}

func fromPgTime(t pgtype.Time) TimeOfDay {
	return TimeOfDay(t.Microseconds / int64(time.Minute/time.Microsecond))
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var start pgtype.Time
	var notes, reason *string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DentistID,
		&a.AssistantID,
		&a.AppointmentRequestID,
		&a.ScheduledDate,
		&start,
		&a.DurationMinutes,
		&a.AppointmentType,
		&a.Status,
		&notes,
		&reason,
		&a.CancelledBy,
		&a.CancelledAt,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.ScheduledDate = DateOf(a.ScheduledDate)
	a.ScheduledTime = fromPgTime(start)
	a.Notes = deref(notes)
	a.CancellationReason = deref(reason)
	return &a, nil
}

func scanRequest(row pgx.Row) (*AppointmentRequest, error) {
	var r AppointmentRequest
	var preferred pgtype.Time
	var notes, declineReason *string

	err := row.Scan(
		&r.ID,
		&r.PatientID,
		&r.AppointmentType,
		&r.ChiefComplaint,
		&r.PainLevel,
		&r.PreferredDate,
		&preferred,
		&notes,
		&r.Urgency,
		&r.Status,
		&r.AssignedTo,
		&r.ConfirmedBy,
		&r.ConfirmedAt,
		&declineReason,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	r.PreferredDate = DateOf(r.PreferredDate)
	if preferred.Valid {
		t := fromPgTime(preferred)
		r.PreferredTime = &t
	}
	r.AdditionalNotes = deref(notes)
	r.DeclineReason = deref(declineReason)
	return &r, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Directory

func (r *PgRepository) ListDentists(ctx context.Context) ([]Dentist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name
		FROM profiles
		WHERE role = 'dentist'
		ORDER BY full_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Dentist
	for rows.Next() {
		var d Dentist
		if err := rows.Scan(&d.ID, &d.FullName); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetDentist(ctx context.Context, id uuid.UUID) (*Dentist, error) {
	var d Dentist
	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name
		FROM profiles
		WHERE id = $1 AND role = 'dentist'
	`, id).Scan(&d.ID, &d.FullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDentistNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *PgRepository) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name, email
		FROM profiles
		WHERE id = $1 AND role = 'patient'
	`, id).Scan(&p.ID, &p.FullName, &p.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) ListAssistantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM profiles
		WHERE role = 'assistant'
	`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// Appointments

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, dentist_id, assistant_id, appointment_request_id,
			scheduled_date, scheduled_time, duration_minutes, appointment_type, status,
			notes, created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
		RETURNING `+appointmentColumns,
		id, a.PatientID, a.DentistID, a.AssistantID, a.AppointmentRequestID,
		a.ScheduledDate, toPgTime(a.ScheduledTime), a.DurationMinutes, a.AppointmentType, string(a.Status),
		nullString(a.Notes), a.CreatedBy,
	)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// dentistFilter keeps "every dentist" an empty array. pgx sends a nil
// slice as NULL, and cardinality(NULL) = 0 is never true.
func dentistFilter(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func (r *PgRepository) ListActiveAppointments(ctx context.Context, dentistIDs []uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status IN ('scheduled', 'in_progress')
		  AND scheduled_date BETWEEN $1 AND $2
		  AND (cardinality($3::uuid[]) = 0 OR dentist_id = ANY($3))
		ORDER BY scheduled_date, scheduled_time
	`, DateOf(from), DateOf(to), dentistFilter(dentistIDs))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error) {
	statuses := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE ($1::uuid IS NULL OR patient_id = $1)
		  AND ($2::uuid IS NULL OR dentist_id = $2)
		  AND ($3::date IS NULL OR scheduled_date >= $3)
		  AND ($4::date IS NULL OR scheduled_date <= $4)
		  AND (cardinality($5::text[]) = 0 OR status = ANY($5))
		ORDER BY scheduled_date, scheduled_time
		LIMIT $6 OFFSET $7
	`, f.PatientID, f.DentistID, f.From, f.To, statuses, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// UpdateAppointmentStatus applies u only while the stored status still
// equals u.From. A lost race is reported as ErrStatusChanged.
func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, u StatusUpdate) (*Appointment, error) {
	var cancelledAt *time.Time
	if u.To == StatusCancelled {
		at := u.At
		cancelledAt = &at
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    notes = COALESCE($4, notes),
		    cancellation_reason = COALESCE($5, cancellation_reason),
		    cancelled_by = COALESCE($6, cancelled_by),
		    cancelled_at = COALESCE($7, cancelled_at),
		    updated_at = $8
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns,
		u.AppointmentID, string(u.To), string(u.From),
		u.Notes, nullString(u.CancellationReason), u.CancelledBy, cancelledAt, u.At,
	)

	a, err := scanAppointment(row)
	if errors.Is(err, ErrAppointmentNotFound) {
		var exists bool
		if qerr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, u.AppointmentID).Scan(&exists); qerr != nil {
			return nil, fmt.Errorf("check appointment: %w", qerr)
		}
		if exists {
			return nil, ErrStatusChanged
		}
	}
	return a, err
}

// Requests

func (r *PgRepository) CreateRequest(ctx context.Context, req *AppointmentRequest) (*AppointmentRequest, error) {
	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var preferred pgtype.Time
	if req.PreferredTime != nil {
		preferred = toPgTime(*req.PreferredTime)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointment_requests (
			id, patient_id, appointment_type, chief_complaint, pain_level,
			preferred_date, preferred_time, additional_notes, urgency, status,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', now(), now())
		RETURNING `+requestColumns,
		id, req.PatientID, req.AppointmentType, req.ChiefComplaint, req.PainLevel,
		req.PreferredDate, preferred, nullString(req.AdditionalNotes), string(req.Urgency),
	)
	return scanRequest(row)
}

func (r *PgRepository) GetRequestByID(ctx context.Context, id uuid.UUID) (*AppointmentRequest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM appointment_requests
		WHERE id = $1
	`, id)
	return scanRequest(row)
}

func (r *PgRepository) HasPendingRequestSince(ctx context.Context, patientID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointment_requests
			WHERE patient_id = $1
			  AND status = 'pending'
			  AND created_at >= $2
		)
	`, patientID, since).Scan(&exists)
	return exists, err
}

// ListPendingRequests orders by urgency first, then age.
func (r *PgRepository) ListPendingRequests(ctx context.Context, limit int) ([]AppointmentRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM appointment_requests
		WHERE status = 'pending'
		ORDER BY CASE urgency WHEN 'emergency' THEN 0 WHEN 'urgent' THEN 1 ELSE 2 END,
		         created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) MarkRequestConfirmed(ctx context.Context, id, confirmedBy uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointment_requests
		SET status = 'confirmed',
		    confirmed_by = $2,
		    confirmed_at = $3,
		    updated_at = $3
		WHERE id = $1
		  AND status = 'pending'
	`, id, nullUUID(confirmedBy), at)
	if err != nil {
		return fmt.Errorf("mark request confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotPending
	}
	return nil
}

func (r *PgRepository) DeclineRequest(ctx context.Context, id uuid.UUID, reason string, at time.Time) (*AppointmentRequest, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointment_requests
		SET status = 'declined',
		    decline_reason = $2,
		    updated_at = $3
		WHERE id = $1
		  AND status = 'pending'
		RETURNING `+requestColumns,
		id, nullString(reason), at,
	)

	req, err := scanRequest(row)
	if errors.Is(err, ErrRequestNotFound) {
		return nil, ErrRequestNotPending
	}
	return req, err
}

func (r *PgRepository) AssignRequest(ctx context.Context, id, staffID uuid.UUID) (*AppointmentRequest, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointment_requests
		SET assigned_to = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+requestColumns,
		id, staffID,
	)
	return scanRequest(row)
}

func (r *PgRepository) ListPendingConfirmations(ctx context.Context) ([]PendingConfirmation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ar.id, a.id, a.created_by
		FROM appointment_requests ar
		JOIN appointments a ON a.appointment_request_id = ar.id
		WHERE ar.status = 'pending'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PendingConfirmation
	for rows.Next() {
		var pc PendingConfirmation
		if err := rows.Scan(&pc.RequestID, &pc.AppointmentID, &pc.CreatedBy); err != nil {
			return nil, err
		}
		result = append(result, pc)
	}
	return result, rows.Err()
}
