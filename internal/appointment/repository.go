package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/notification"
)

// Directory is the read-only view of clinic people.
type Directory interface {
	ListDentists(ctx context.Context) ([]Dentist, error)
	GetDentist(ctx context.Context, id uuid.UUID) (*Dentist, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListAssistantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StatusUpdate moves an appointment from From to To. Stores apply it only
// while the stored status still equals From.
type StatusUpdate struct {
	AppointmentID      uuid.UUID
	From               Status
	To                 Status
	Notes              *string
	CancellationReason string
	CancelledBy        *uuid.UUID
	At                 time.Time
}

type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// For conflict checks and availability. Empty dentistIDs means every dentist.
	ListActiveAppointments(ctx context.Context, dentistIDs []uuid.UUID, from, to time.Time) ([]Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error)

	UpdateAppointmentStatus(ctx context.Context, u StatusUpdate) (*Appointment, error)
}

// PendingConfirmation is a request still pending although an appointment
// was already created from it.
type PendingConfirmation struct {
	RequestID     uuid.UUID
	AppointmentID uuid.UUID
	CreatedBy     *uuid.UUID
}

type RequestStore interface {
	CreateRequest(ctx context.Context, r *AppointmentRequest) (*AppointmentRequest, error)
	GetRequestByID(ctx context.Context, id uuid.UUID) (*AppointmentRequest, error)
	HasPendingRequestSince(ctx context.Context, patientID uuid.UUID, since time.Time) (bool, error)
	ListPendingRequests(ctx context.Context, limit int) ([]AppointmentRequest, error)

	// State changes only apply to pending requests, except AssignRequest.
	MarkRequestConfirmed(ctx context.Context, id, confirmedBy uuid.UUID, at time.Time) error
	DeclineRequest(ctx context.Context, id uuid.UUID, reason string, at time.Time) (*AppointmentRequest, error)
	AssignRequest(ctx context.Context, id, staffID uuid.UUID) (*AppointmentRequest, error)

	ListPendingConfirmations(ctx context.Context) ([]PendingConfirmation, error)
}

type TreatmentLink struct {
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	DentistID     uuid.UUID
	TreatmentType string
	TotalVisits   int
}

// TreatmentLinker is the treatment record collaborator. All calls are
// best-effort from the scheduler's point of view.
type TreatmentLinker interface {
	HasTreatmentForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error)
	LinkAppointment(ctx context.Context, link TreatmentLink) error
	UpdateTreatmentsForAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status Status) (int, error)
}

type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, typ notification.Type, c notification.Content) error
	NotifyAssistants(ctx context.Context, typ notification.Type, c notification.Content) error
}
