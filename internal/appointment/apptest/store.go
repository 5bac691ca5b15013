// Package apptest provides in-memory stand-ins for the scheduling
// service's collaborators.
package apptest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
)

// Store keeps people, requests and appointments in memory. The Fail*
// fields inject errors into the matching method.
type Store struct {
	mu sync.Mutex

	dentists     []appointment.Dentist
	patients     map[uuid.UUID]appointment.Patient
	assistants   []uuid.UUID
	appointments map[uuid.UUID]appointment.Appointment
	requests     map[uuid.UUID]appointment.AppointmentRequest

	Now func() time.Time

	FailMarkConfirmed  error
	FailCreate         error
	FailListDentists   error
	FailListAssistants error
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		patients:     make(map[uuid.UUID]appointment.Patient),
		appointments: make(map[uuid.UUID]appointment.Appointment),
		requests:     make(map[uuid.UUID]appointment.AppointmentRequest),
		Now:          now,
	}
}

func (s *Store) AddDentist(name string) appointment.Dentist {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := appointment.Dentist{ID: uuid.New(), FullName: name}
	s.dentists = append(s.dentists, d)
	return d
}

func (s *Store) AddPatient(name string) appointment.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := appointment.Patient{ID: uuid.New(), FullName: name}
	s.patients[p.ID] = p
	return p
}

func (s *Store) AddAssistant() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.assistants = append(s.assistants, id)
	return id
}

// Seed stores a copy of a as is, assigning an ID if it has none.
func (s *Store) Seed(a appointment.Appointment) appointment.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = appointment.StatusScheduled
	}
	a.ScheduledDate = appointment.DateOf(a.ScheduledDate)
	s.appointments[a.ID] = a
	return a
}

// SetAppointmentStatus changes a status behind the service's back.
func (s *Store) SetAppointmentStatus(id uuid.UUID, st appointment.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.appointments[id]
	a.Status = st
	s.appointments[id] = a
}

func (s *Store) Appointments() []appointment.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]appointment.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, a)
	}
	sortAppointments(out)
	return out
}

func (s *Store) Request(id uuid.UUID) (appointment.AppointmentRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	return r, ok
}

func sortAppointments(list []appointment.Appointment) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.ScheduledDate.Equal(b.ScheduledDate) {
			return a.ScheduledDate.Before(b.ScheduledDate)
		}
		return a.ScheduledTime < b.ScheduledTime
	})
}

// Directory

func (s *Store) ListDentists(ctx context.Context) ([]appointment.Dentist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailListDentists != nil {
		return nil, s.FailListDentists
	}
	return append([]appointment.Dentist(nil), s.dentists...), nil
}

func (s *Store) GetDentist(ctx context.Context, id uuid.UUID) (*appointment.Dentist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.dentists {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, appointment.ErrDentistNotFound
}

func (s *Store) GetPatient(ctx context.Context, id uuid.UUID) (*appointment.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, appointment.ErrPatientNotFound
	}
	return &p, nil
}

func (s *Store) ListAssistantIDs(ctx context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailListAssistants != nil {
		return nil, s.FailListAssistants
	}
	return append([]uuid.UUID(nil), s.assistants...), nil
}

// Appointments

func (s *Store) CreateAppointment(ctx context.Context, a *appointment.Appointment) (*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCreate != nil {
		return nil, s.FailCreate
	}

	created := *a
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = s.Now()
	created.UpdatedAt = created.CreatedAt
	s.appointments[created.ID] = created
	return &created, nil
}

func (s *Store) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (s *Store) ListActiveAppointments(ctx context.Context, dentistIDs []uuid.UUID, from, to time.Time) ([]appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[uuid.UUID]bool, len(dentistIDs))
	for _, id := range dentistIDs {
		wanted[id] = true
	}
	from, to = appointment.DateOf(from), appointment.DateOf(to)

	var out []appointment.Appointment
	for _, a := range s.appointments {
		if !a.IsActive() {
			continue
		}
		if len(wanted) > 0 && !wanted[a.DentistID] {
			continue
		}
		if a.ScheduledDate.Before(from) || a.ScheduledDate.After(to) {
			continue
		}
		out = append(out, a)
	}
	sortAppointments(out)
	return out, nil
}

func (s *Store) ListAppointments(ctx context.Context, f appointment.AppointmentFilter) ([]appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make(map[appointment.Status]bool, len(f.Statuses))
	for _, st := range f.Statuses {
		statuses[st] = true
	}

	var out []appointment.Appointment
	for _, a := range s.appointments {
		switch {
		case f.PatientID != nil && a.PatientID != *f.PatientID,
			f.DentistID != nil && a.DentistID != *f.DentistID,
			f.From != nil && a.ScheduledDate.Before(appointment.DateOf(*f.From)),
			f.To != nil && a.ScheduledDate.After(appointment.DateOf(*f.To)),
			len(statuses) > 0 && !statuses[a.Status]:
			continue
		}
		out = append(out, a)
	}
	sortAppointments(out)

	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpdateAppointmentStatus(ctx context.Context, u appointment.StatusUpdate) (*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.appointments[u.AppointmentID]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	if a.Status != u.From {
		return nil, appointment.ErrStatusChanged
	}

	a.Status = u.To
	if u.Notes != nil {
		a.Notes = *u.Notes
	}
	if u.CancellationReason != "" {
		a.CancellationReason = u.CancellationReason
	}
	if u.CancelledBy != nil {
		a.CancelledBy = u.CancelledBy
	}
	if u.To == appointment.StatusCancelled {
		at := u.At
		a.CancelledAt = &at
	}
	a.UpdatedAt = u.At
	s.appointments[a.ID] = a
	return &a, nil
}

// Requests

func (s *Store) CreateRequest(ctx context.Context, r *appointment.AppointmentRequest) (*appointment.AppointmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *r
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.Status = appointment.RequestPending
	created.CreatedAt = s.Now()
	created.UpdatedAt = created.CreatedAt
	s.requests[created.ID] = created
	return &created, nil
}

func (s *Store) GetRequestByID(ctx context.Context, id uuid.UUID) (*appointment.AppointmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, appointment.ErrRequestNotFound
	}
	return &r, nil
}

func (s *Store) HasPendingRequestSince(ctx context.Context, patientID uuid.UUID, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.requests {
		if r.PatientID == patientID && r.Status == appointment.RequestPending && !r.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListPendingRequests(ctx context.Context, limit int) ([]appointment.AppointmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rank := map[appointment.Urgency]int{
		appointment.UrgencyEmergency: 0,
		appointment.UrgencyUrgent:    1,
		appointment.UrgencyRoutine:   2,
	}

	var out []appointment.AppointmentRequest
	for _, r := range s.requests {
		if r.Status == appointment.RequestPending {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if rank[out[i].Urgency] != rank[out[j].Urgency] {
			return rank[out[i].Urgency] < rank[out[j].Urgency]
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkRequestConfirmed(ctx context.Context, id, confirmedBy uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailMarkConfirmed != nil {
		return s.FailMarkConfirmed
	}

	r, ok := s.requests[id]
	if !ok || r.Status != appointment.RequestPending {
		return appointment.ErrRequestNotPending
	}
	r.Status = appointment.RequestConfirmed
	if confirmedBy != uuid.Nil {
		r.ConfirmedBy = &confirmedBy
	}
	r.ConfirmedAt = &at
	r.UpdatedAt = at
	s.requests[id] = r
	return nil
}

func (s *Store) DeclineRequest(ctx context.Context, id uuid.UUID, reason string, at time.Time) (*appointment.AppointmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok || r.Status != appointment.RequestPending {
		return nil, appointment.ErrRequestNotPending
	}
	r.Status = appointment.RequestDeclined
	r.DeclineReason = reason
	r.UpdatedAt = at
	s.requests[id] = r
	return &r, nil
}

func (s *Store) AssignRequest(ctx context.Context, id, staffID uuid.UUID) (*appointment.AppointmentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, appointment.ErrRequestNotFound
	}
	r.AssignedTo = &staffID
	r.UpdatedAt = s.Now()
	s.requests[id] = r
	return &r, nil
}

func (s *Store) ListPendingConfirmations(ctx context.Context) ([]appointment.PendingConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []appointment.PendingConfirmation
	for _, a := range s.appointments {
		if a.AppointmentRequestID == nil {
			continue
		}
		r, ok := s.requests[*a.AppointmentRequestID]
		if !ok || r.Status != appointment.RequestPending {
			continue
		}
		out = append(out, appointment.PendingConfirmation{
			RequestID:     r.ID,
			AppointmentID: a.ID,
			CreatedBy:     a.CreatedBy,
		})
	}
	return out, nil
}
