package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/dental-clinic-scheduling/internal/config"
	redisclient "github.com/hackgods/dental-clinic-scheduling/internal/redis"
)

const (
	defaultDurationMinutes = 60
	maxAvailabilityDays    = 62
	maxSuggestions         = 3
)

// Deps are the collaborators of the scheduling service.
type Deps struct {
	Appointments AppointmentStore
	Requests     RequestStore
	Directory    Directory
	Treatments   TreatmentLinker
	Notifier     Notifier
	Locker       redisclient.Locker
	Effects      EffectRunner // defaults to a LoggingRunner
	Log          zerolog.Logger
}

type Options struct {
	Hours            BusinessHours
	Location         *time.Location
	DefaultDuration  int
	ThrottleWindow   time.Duration
	MaxAdvanceMonths int
	Now              func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Hours:            DefaultBusinessHours(),
		Location:         time.UTC,
		DefaultDuration:  defaultDurationMinutes,
		ThrottleWindow:   24 * time.Hour,
		MaxAdvanceMonths: 6,
		Now:              time.Now,
	}
}

// OptionsFromConfig translates clinic configuration into service options.
func OptionsFromConfig(c config.ClinicConfig) (Options, error) {
	open, err := ParseTimeOfDay(c.OpenTime)
	if err != nil {
		return Options{}, fmt.Errorf("clinic open time: %w", err)
	}
	closing, err := ParseTimeOfDay(c.CloseTime)
	if err != nil {
		return Options{}, fmt.Errorf("clinic close time: %w", err)
	}

	days := make(map[time.Weekday]bool, len(c.WorkingDays))
	for _, d := range c.WorkingDays {
		days[d] = true
	}

	opts := DefaultOptions()
	opts.Hours = BusinessHours{
		Open:            open,
		Close:           closing,
		SlotGranularity: c.SlotGranularityMinutes,
		WorkingDays:     days,
	}
	if err := opts.Hours.Validate(); err != nil {
		return Options{}, err
	}
	if c.Location != nil {
		opts.Location = c.Location
	}
	if c.DefaultDurationMinutes > 0 {
		opts.DefaultDuration = c.DefaultDurationMinutes
	}
	if c.RequestThrottleWindow > 0 {
		opts.ThrottleWindow = c.RequestThrottleWindow
	}
	if c.MaxAdvanceMonths > 0 {
		opts.MaxAdvanceMonths = c.MaxAdvanceMonths
	}
	return opts, nil
}

type Service struct {
	appointments AppointmentStore
	requests     RequestStore
	directory    Directory
	treatments   TreatmentLinker
	notifier     Notifier
	locker       redisclient.Locker
	effects      EffectRunner
	log          zerolog.Logger
	opts         Options
}

func NewService(deps Deps, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = defaultDurationMinutes
	}
	effects := deps.Effects
	if effects == nil {
		effects = NewLoggingRunner(deps.Log)
	}

	return &Service{
		appointments: deps.Appointments,
		requests:     deps.Requests,
		directory:    deps.Directory,
		treatments:   deps.Treatments,
		notifier:     deps.Notifier,
		locker:       deps.Locker,
		effects:      effects,
		log:          deps.Log,
		opts:         opts,
	}
}

// today is the clinic-local calendar date.
func (s *Service) today() time.Time {
	return DateOf(s.opts.Now().In(s.opts.Location))
}

// logger returns the request scoped logger the HTTP layer put in ctx, so
// service lines carry the request id. Without one it falls back to s.log.
func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}

func (s *Service) patientName(ctx context.Context, id uuid.UUID) string {
	p, err := s.directory.GetPatient(ctx, id)
	if err != nil || p.FullName == "" {
		return "A patient"
	}
	return p.FullName
}
