package treatment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
)

// PgRepository implements appointment.TreatmentLinker on the treatments table.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) HasTreatmentForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM treatments WHERE appointment_id = $1)
	`, appointmentID).Scan(&exists)
	return exists, err
}

// LinkAppointment creates a planned treatment referencing the appointment.
func (r *PgRepository) LinkAppointment(ctx context.Context, link appointment.TreatmentLink) error {
	visits := link.TotalVisits
	if visits <= 0 {
		visits = 1
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO treatments (
			id, patient_id, dentist_id, appointment_id, treatment_type, total_visits,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`, uuid.New(), link.PatientID, link.DentistID, link.AppointmentID, link.TreatmentType, visits, string(StatusPlanned))
	if err != nil {
		return fmt.Errorf("insert treatment: %w", err)
	}
	return nil
}

// UpdateTreatmentsForAppointmentStatus moves every open treatment linked to
// the appointment to the matching treatment status and returns how many
// rows changed. Finished treatments are left alone.
func (r *PgRepository) UpdateTreatmentsForAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status appointment.Status) (int, error) {
	target, ok := StatusFor(status)
	if !ok {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE treatments
		SET status = $2,
		    updated_at = now()
		WHERE appointment_id = $1
		  AND status NOT IN ($3, $4)
	`, appointmentID, string(target), string(StatusCompleted), string(StatusCancelled))
	if err != nil {
		return 0, fmt.Errorf("update treatments: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
