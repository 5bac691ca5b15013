package apptest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
	"github.com/hackgods/dental-clinic-scheduling/internal/notification"
	redisclient "github.com/hackgods/dental-clinic-scheduling/internal/redis"
)

// Treatments records treatment links and status syncs.
type Treatments struct {
	mu sync.Mutex

	Links []appointment.TreatmentLink
	Syncs []TreatmentSync

	Err error
}

type TreatmentSync struct {
	AppointmentID uuid.UUID
	Status        appointment.Status
}

func (t *Treatments) HasTreatmentForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Err != nil {
		return false, t.Err
	}
	for _, l := range t.Links {
		if l.AppointmentID == appointmentID {
			return true, nil
		}
	}
	return false, nil
}

func (t *Treatments) LinkAppointment(ctx context.Context, link appointment.TreatmentLink) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Err != nil {
		return t.Err
	}
	t.Links = append(t.Links, link)
	return nil
}

func (t *Treatments) UpdateTreatmentsForAppointmentStatus(ctx context.Context, appointmentID uuid.UUID, status appointment.Status) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Err != nil {
		return 0, t.Err
	}
	t.Syncs = append(t.Syncs, TreatmentSync{AppointmentID: appointmentID, Status: status})
	n := 0
	for _, l := range t.Links {
		if l.AppointmentID == appointmentID {
			n++
		}
	}
	return n, nil
}

// Inbox is a notification.Sink that keeps everything delivered to it.
type Inbox struct {
	mu  sync.Mutex
	all []notification.Notification

	Err error
}

func (i *Inbox) Deliver(ctx context.Context, n notification.Notification) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.Err != nil {
		return i.Err
	}
	i.all = append(i.all, n)
	return nil
}

func (i *Inbox) All() []notification.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]notification.Notification(nil), i.all...)
}

// For returns the notifications delivered to recipient.
func (i *Inbox) For(recipient uuid.UUID) []notification.Notification {
	var out []notification.Notification
	for _, n := range i.All() {
		if n.RecipientID == recipient {
			out = append(out, n)
		}
	}
	return out
}

// Locker serializes critical sections per dentist and day in process.
// Keys listed in Held fail immediately with redisclient.ErrLockNotAcquired.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	Held map[string]bool
}

func (l *Locker) WithDentistDayLock(ctx context.Context, dentistID uuid.UUID, day time.Time, fn func(ctx context.Context) error) error {
	key := redisclient.DentistDayKey(dentistID, day)

	l.mu.Lock()
	if l.Held[key] {
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

// Clock is a settable time source.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{t: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Env wires a Service to in-memory collaborators and a real dispatcher.
type Env struct {
	Clock      *Clock
	Store      *Store
	Treatments *Treatments
	Inbox      *Inbox
	Locker     *Locker
	Service    *appointment.Service
}

// NewEnv builds an Env whose clock starts at now, using default business hours.
func NewEnv(now time.Time) *Env {
	clock := NewClock(now)
	store := NewStore(clock.Now)
	treatments := &Treatments{}
	inbox := &Inbox{}
	locker := &Locker{}

	opts := appointment.DefaultOptions()
	opts.Now = clock.Now

	svc := appointment.NewService(appointment.Deps{
		Appointments: store,
		Requests:     store,
		Directory:    store,
		Treatments:   treatments,
		Notifier:     notification.NewDispatcher(inbox, store),
		Locker:       locker,
		Log:          zerolog.Nop(),
	}, opts)

	return &Env{
		Clock:      clock,
		Store:      store,
		Treatments: treatments,
		Inbox:      inbox,
		Locker:     locker,
		Service:    svc,
	}
}
