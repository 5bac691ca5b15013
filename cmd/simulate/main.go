package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/dental-clinic-scheduling/internal/config"
	"github.com/hackgods/dental-clinic-scheduling/internal/db"
	"github.com/hackgods/dental-clinic-scheduling/internal/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	RequestRatio float64
	ConfirmRatio float64
	ReadRatio    float64
	PatientLimit int
	HorizonDays  int
	SlotMinutes  int
	PostgresDSN  string
}

// DataPool holds the people the simulator acts as.
type DataPool struct {
	Patients   []uuid.UUID
	Assistants []uuid.UUID

	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment(faker *gofakeit.Faker) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[faker.Number(0, len(dp.appointments)-1)], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

// Summary returns the mean and selected percentiles of the recorded latencies.
func (om *OperationMetrics) Summary() (mean time.Duration, pct map[int]time.Duration) {
	om.mu.Lock()
	sorted := append([]time.Duration(nil), om.Latencies...)
	om.mu.Unlock()

	pct = make(map[int]time.Duration, 4)
	if len(sorted) == 0 {
		return 0, pct
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	for _, p := range []int{0, 50, 95, 100} {
		pct[p] = sorted[min(len(sorted)*p/100, len(sorted)-1)]
	}
	return sum / time.Duration(len(sorted)), pct
}

type Metrics struct {
	Request      OperationMetrics
	Availability OperationMetrics
	Confirm      OperationMetrics
	ReadByID     OperationMetrics
	ListPending  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	log     zerolog.Logger
	metrics Metrics
}

// Response shapes, trimmed to what the simulator reads.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
}

type daySlots struct {
	Date      string `json:"date"`
	TimeSlots []struct {
		Time      string    `json:"time"`
		DentistID uuid.UUID `json:"dentist_id"`
		Available bool      `json:"available"`
	} `json:"time_slots"`
}

type idOnly struct {
	ID uuid.UUID `json:"id"`
}

var complaints = []string{
	"Toothache in lower molar",
	"Bleeding gums when brushing",
	"Chipped front tooth",
	"Sensitivity to cold drinks",
	"Routine check-up and cleaning",
	"Lost filling",
	"Swelling around wisdom tooth",
	"Jaw pain when chewing",
}

var appointmentTypes = []string{"consultation", "cleaning", "filling", "extraction", "root_canal", "checkup"}

func main() {
	cfg := loadConfig()

	log := logging.New(envOr("APP_ENV", "dev", asString), envOr("LOG_LEVEL", "info", asString), "simulate")
	if err := validateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	log.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("request", cfg.RequestRatio).
		Float64("confirm", cfg.ConfirmRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load data pool")
	}

	log.Info().
		Int("patients", len(dataPool.Patients)).
		Int("assistants", len(dataPool.Assistants)).
		Msg("data pool loaded")

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		log:    log,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.Report()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   envOr("SIM_API_BASE_URL", "http://localhost:8080", asString),
		Duration:     envOr("SIM_DURATION", 30*time.Second, time.ParseDuration),
		Workers:      envOr("SIM_WORKERS", 10, strconv.Atoi),
		RequestRatio: envOr("SIM_REQUEST_RATIO", 0.4, parseFloat),
		ConfirmRatio: envOr("SIM_CONFIRM_RATIO", 0.3, parseFloat),
		ReadRatio:    envOr("SIM_READ_RATIO", 0.3, parseFloat),
		PatientLimit: envOr("SIM_PATIENT_LIMIT", 2000, strconv.Atoi),
		HorizonDays:  envOr("SIM_HORIZON_DAYS", 14, strconv.Atoi),
		SlotMinutes:  envOr("SIM_SLOT_MINUTES", 30, strconv.Atoi),
	}

	if baseCfg, err := config.Load(); err == nil {
		cfg.PostgresDSN = baseCfg.PostgresDSN
	}

	// Normalize ratios
	total := cfg.RequestRatio + cfg.ConfirmRatio + cfg.ReadRatio
	if total > 0 {
		cfg.RequestRatio /= total
		cfg.ConfirmRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.HorizonDays <= 0 {
		return fmt.Errorf("SIM_HORIZON_DAYS must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	var err error
	dataPool.Patients, err = profileIDs(ctx, pool, "patient", cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	dataPool.Assistants, err = profileIDs(ctx, pool, "assistant", 100)
	if err != nil {
		return nil, fmt.Errorf("load assistants: %w", err)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Assistants) == 0 {
		return nil, fmt.Errorf("no assistants loaded")
	}

	return dataPool, nil
}

func profileIDs(ctx context.Context, pool *pgxpool.Pool, role string, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `
		SELECT id FROM profiles WHERE role = $1 LIMIT $2
	`, role, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.Info().Msg("simulation running")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	faker := gofakeit.New(uint64(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := faker.Float64()
			switch {
			case r < s.config.RequestRatio:
				s.doRequest(ctx, faker)
			case r < s.config.RequestRatio+s.config.ConfirmRatio:
				s.doConfirm(ctx, faker)
			default:
				switch faker.Number(0, 2) {
				case 0:
					s.doAvailability(ctx, faker)
				case 1:
					s.doReadByID(ctx, faker)
				case 2:
					s.doListPending(ctx)
				}
			}
		}
	}
}

func (s *Simulator) doRequest(ctx context.Context, faker *gofakeit.Faker) {
	patientID := s.pool.Patients[faker.Number(0, len(s.pool.Patients)-1)]

	urgency := "routine"
	switch n := faker.Number(1, 10); {
	case n == 10:
		urgency = "emergency"
	case n >= 8:
		urgency = "urgent"
	}

	body := map[string]any{
		"patient_id":       patientID.String(),
		"appointment_type": faker.RandomString(appointmentTypes),
		"chief_complaint":  faker.RandomString(complaints),
		"pain_level":       faker.Number(0, 10),
		"preferred_date":   time.Now().AddDate(0, 0, faker.Number(1, s.config.HorizonDays)).Format(time.DateOnly),
		"urgency":          urgency,
	}

	start := time.Now()
	status, _, err := s.call(ctx, http.MethodPost, "/appointment-requests", uuid.Nil, body)
	latency := time.Since(start)

	// A throttled routine request comes back 400; count it with conflicts.
	s.metrics.Request.Record(latency, err == nil && status == http.StatusCreated, status == http.StatusBadRequest)
}

// doConfirm picks a pending request and tries to book it into one of the
// earliest open slots, so concurrent workers contend for the same slots.
func (s *Simulator) doConfirm(ctx context.Context, faker *gofakeit.Faker) {
	_, pendingEnv, err := s.call(ctx, http.MethodGet, "/appointment-requests?limit=20", uuid.Nil, nil)
	if err != nil || !pendingEnv.Success {
		return
	}
	var pending []idOnly
	if err := json.Unmarshal(pendingEnv.Data, &pending); err != nil || len(pending) == 0 {
		return
	}
	requestID := pending[faker.Number(0, len(pending)-1)].ID

	days, ok := s.availability(ctx, faker)
	if !ok {
		return
	}

	type candidate struct {
		date, time string
		dentistID  uuid.UUID
	}
	var open []candidate
	for _, d := range days {
		for _, slot := range d.TimeSlots {
			if slot.Available {
				open = append(open, candidate{d.Date, slot.Time, slot.DentistID})
			}
		}
		if len(open) >= 3 {
			break
		}
	}
	if len(open) == 0 {
		return
	}
	pick := open[faker.Number(0, min(len(open), 3)-1)]

	body := map[string]any{
		"dentist_id":       pick.dentistID.String(),
		"scheduled_date":   pick.date,
		"scheduled_time":   pick.time,
		"duration_minutes": s.config.SlotMinutes,
	}
	actor := s.pool.Assistants[faker.Number(0, len(s.pool.Assistants)-1)]

	start := time.Now()
	status, env, err := s.call(ctx, http.MethodPost, "/appointment-requests/"+requestID.String()+"/confirm", actor, body)
	latency := time.Since(start)

	success := err == nil && status == http.StatusCreated
	if success {
		var appt idOnly
		if json.Unmarshal(env.Data, &appt) == nil && appt.ID != uuid.Nil {
			s.pool.AddAppointment(appt.ID)
		}
	}

	s.metrics.Confirm.Record(latency, success, status == http.StatusConflict)
}

func (s *Simulator) doAvailability(ctx context.Context, faker *gofakeit.Faker) {
	start := time.Now()
	_, ok := s.availability(ctx, faker)
	s.metrics.Availability.Record(time.Since(start), ok, false)
}

func (s *Simulator) availability(ctx context.Context, faker *gofakeit.Faker) ([]daySlots, bool) {
	from := time.Now().AddDate(0, 0, faker.Number(1, s.config.HorizonDays))
	q := url.Values{}
	q.Set("start_date", from.Format(time.DateOnly))
	q.Set("end_date", from.AddDate(0, 0, 6).Format(time.DateOnly))
	q.Set("duration", strconv.Itoa(s.config.SlotMinutes))

	status, env, err := s.call(ctx, http.MethodGet, "/availability?"+q.Encode(), uuid.Nil, nil)
	if err != nil || status != http.StatusOK {
		return nil, false
	}
	var days []daySlots
	if err := json.Unmarshal(env.Data, &days); err != nil {
		return nil, false
	}
	return days, true
}

func (s *Simulator) doReadByID(ctx context.Context, faker *gofakeit.Faker) {
	apptID, ok := s.pool.RandomAppointment(faker)
	if !ok {
		return
	}

	start := time.Now()
	status, _, err := s.call(ctx, http.MethodGet, "/appointments/"+apptID.String(), uuid.Nil, nil)
	s.metrics.ReadByID.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doListPending(ctx context.Context) {
	start := time.Now()
	status, _, err := s.call(ctx, http.MethodGet, "/appointment-requests?limit=20", uuid.Nil, nil)
	s.metrics.ListPending.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

// call sends one JSON request and decodes the envelope. actor is sent as
// X-Actor-ID unless nil.
func (s *Simulator) call(ctx context.Context, method, path string, actor uuid.UUID, body any) (int, envelope, error) {
	var env envelope

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, env, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, env, err
	}
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set("X-Actor-ID", actor.String())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, env, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, env, err
	}
	return resp.StatusCode, env, nil
}

// Report logs one summary line per operation that ran.
func (s *Simulator) Report() {
	ops := []struct {
		name string
		m    *OperationMetrics
	}{
		{"create_request", &s.metrics.Request},
		{"confirm_request", &s.metrics.Confirm},
		{"availability", &s.metrics.Availability},
		{"read_by_id", &s.metrics.ReadByID},
		{"list_pending", &s.metrics.ListPending},
	}

	for _, op := range ops {
		total := atomic.LoadInt64(&op.m.Total)
		if total == 0 {
			continue
		}
		mean, pct := op.m.Summary()
		s.log.Info().
			Str("op", op.name).
			Int64("total", total).
			Int64("success", atomic.LoadInt64(&op.m.Success)).
			Int64("conflict", atomic.LoadInt64(&op.m.Conflict)).
			Int64("error", atomic.LoadInt64(&op.m.Error)).
			Dur("mean", mean.Round(time.Millisecond)).
			Dur("min", pct[0].Round(time.Millisecond)).
			Dur("p50", pct[50].Round(time.Millisecond)).
			Dur("p95", pct[95].Round(time.Millisecond)).
			Dur("max", pct[100].Round(time.Millisecond)).
			Msg("simulation report")
	}
}

// envOr parses the variable key with parse, falling back to def when it is
// unset or malformed.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	if v := os.Getenv(key); v != "" {
		if out, err := parse(v); err == nil {
			return out
		}
	}
	return def
}

func asString(v string) (string, error) { return v, nil }

func parseFloat(v string) (float64, error) { return strconv.ParseFloat(v, 64) }
