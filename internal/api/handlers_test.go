package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
	"github.com/hackgods/dental-clinic-scheduling/internal/appointment/apptest"
)

var (
	now    = time.Date(2024, 6, 7, 12, 0, 0, 0, time.UTC)
	monday = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
)

type testServer struct {
	env     *apptest.Env
	handler http.Handler
	dentist appointment.Dentist
	patient appointment.Patient
	staff   uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	env := apptest.NewEnv(now)
	return &testServer{
		env:     env,
		handler: NewRouter(RouterConfig{Service: env.Service, Log: zerolog.Nop(), Env: "test"}),
		dentist: env.Store.AddDentist("Dr. Ada Molar"),
		patient: env.Store.AddPatient("Pat Ient"),
		staff:   uuid.New(),
	}
}

type response struct {
	Success     bool             `json:"success"`
	Data        json.RawMessage  `json:"data"`
	Error       string           `json:"error"`
	Kind        string           `json:"kind"`
	Conflicts   []AppointmentDTO `json:"conflicts"`
	Suggestions []TimeSlotDTO    `json:"suggestions"`
}

func (s *testServer) do(t *testing.T, method, path string, actor uuid.UUID, body any) (int, response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if actor != uuid.Nil {
		req.Header.Set(actorHeader, actor.String())
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	return rec.Code, out
}

func (s *testServer) seed(at string, st appointment.Status) appointment.Appointment {
	return s.env.Store.Seed(appointment.Appointment{
		PatientID:       s.patient.ID,
		DentistID:       s.dentist.ID,
		ScheduledDate:   monday,
		ScheduledTime:   appointment.MustParseTimeOfDay(at),
		DurationMinutes: 60,
		AppointmentType: "cleaning",
		Status:          st,
	})
}

func (s *testServer) createRequest(t *testing.T) RequestDTO {
	t.Helper()
	code, res := s.do(t, http.MethodPost, "/appointment-requests", uuid.Nil, CreateRequestBody{
		PatientID:      s.patient.ID.String(),
		ChiefComplaint: "tooth pain",
		PainLevel:      9,
		PreferredDate:  "2024-06-08",
		Urgency:        "EMERGENCY",
	})
	require.Equal(t, http.StatusCreated, code, res.Error)
	require.True(t, res.Success)

	var dto RequestDTO
	require.NoError(t, json.Unmarshal(res.Data, &dto))
	return dto
}

func TestCreateRequestEndpoint(t *testing.T) {
	s := newTestServer(t)
	dto := s.createRequest(t)

	assert.Equal(t, "emergency", dto.Urgency)
	assert.Equal(t, "pending", dto.Status)
	assert.Equal(t, "2024-06-08", dto.PreferredDate)
}

func TestCreateRequestRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	code, res := s.do(t, http.MethodPost, "/appointment-requests", uuid.Nil, map[string]any{"patient_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, res.Success)
	assert.Equal(t, "validation", res.Kind)

	code, res = s.do(t, http.MethodPost, "/appointment-requests", uuid.Nil, CreateRequestBody{
		PatientID:     s.patient.ID.String(),
		PainLevel:     3,
		PreferredDate: "2024-06-08",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Chief complaint is required", res.Error)
}

func TestAvailabilityEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.seed("10:00", appointment.StatusScheduled)

	code, res := s.do(t, http.MethodGet,
		"/availability?start_date=2024-06-10&end_date=2024-06-10&duration=30&dentist_id="+s.dentist.ID.String(),
		uuid.Nil, nil)
	require.Equal(t, http.StatusOK, code, res.Error)

	var days []DaySlotsDTO
	require.NoError(t, json.Unmarshal(res.Data, &days))
	require.Len(t, days, 1)
	assert.Equal(t, "2024-06-10", days[0].Date)

	free := map[string]bool{}
	for _, slot := range days[0].TimeSlots {
		free[slot.Time] = slot.Available
	}
	assert.True(t, free["09:30"])
	assert.False(t, free["10:00"])
	assert.False(t, free["10:30"])
	assert.True(t, free["11:00"])

	code, _ = s.do(t, http.MethodGet, "/availability?start_date=June", uuid.Nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestConfirmEndpoint(t *testing.T) {
	s := newTestServer(t)
	req := s.createRequest(t)
	body := ScheduleBody{
		DentistID:       s.dentist.ID.String(),
		ScheduledDate:   "2024-06-10",
		ScheduledTime:   "10:00",
		DurationMinutes: 60,
	}

	code, res := s.do(t, http.MethodPost, "/appointment-requests/"+req.ID.String()+"/confirm", uuid.Nil, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, res.Error, actorHeader)

	code, res = s.do(t, http.MethodPost, "/appointment-requests/"+req.ID.String()+"/confirm", s.staff, body)
	require.Equal(t, http.StatusCreated, code, res.Error)

	var appt AppointmentDTO
	require.NoError(t, json.Unmarshal(res.Data, &appt))
	assert.Equal(t, "10:00", appt.ScheduledTime)
	assert.Equal(t, "scheduled", appt.Status)

	code, res = s.do(t, http.MethodPost, "/appointment-requests/"+req.ID.String()+"/confirm", s.staff, body)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "state", res.Kind)
}

func TestConfirmConflictEndpoint(t *testing.T) {
	s := newTestServer(t)
	existing := s.seed("10:00", appointment.StatusScheduled)
	req := s.createRequest(t)

	code, res := s.do(t, http.MethodPost, "/appointment-requests/"+req.ID.String()+"/confirm", s.staff, ScheduleBody{
		DentistID:     s.dentist.ID.String(),
		ScheduledDate: "2024-06-10",
		ScheduledTime: "10:30",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, res.Success)
	assert.Equal(t, "conflict", res.Kind)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, existing.ID, res.Conflicts[0].ID)
	assert.LessOrEqual(t, len(res.Suggestions), 3)
	assert.Len(t, s.env.Store.Appointments(), 1)
}

func TestConflictCheckEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.seed("10:00", appointment.StatusScheduled)

	code, res := s.do(t, http.MethodPost, "/appointments/conflicts", uuid.Nil, ConflictCheckBody{
		ScheduleBody: ScheduleBody{
			DentistID:     s.dentist.ID.String(),
			ScheduledDate: "2024-06-10",
			ScheduledTime: "11:00",
		},
	})
	require.Equal(t, http.StatusOK, code, res.Error)

	var report ConflictReportDTO
	require.NoError(t, json.Unmarshal(res.Data, &report))
	assert.False(t, report.HasConflicts)
}

func TestAppointmentLifecycleEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, res := s.do(t, http.MethodPost, "/appointments", s.staff, BookingBody{
		PatientID: s.patient.ID.String(),
		ScheduleBody: ScheduleBody{
			DentistID:     s.dentist.ID.String(),
			ScheduledDate: "2024-06-10",
			ScheduledTime: "09:00",
		},
	})
	require.Equal(t, http.StatusCreated, code, res.Error)
	var appt AppointmentDTO
	require.NoError(t, json.Unmarshal(res.Data, &appt))
	path := "/appointments/" + appt.ID.String()

	code, res = s.do(t, http.MethodPatch, path+"/status", s.staff, StatusBody{Status: "completed"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Cannot change appointment status from scheduled to completed", res.Error)

	code, res = s.do(t, http.MethodPatch, path+"/status", s.staff, StatusBody{Status: "in_progress"})
	require.Equal(t, http.StatusOK, code, res.Error)
	assert.Len(t, s.env.Treatments.Links, 1)

	code, res = s.do(t, http.MethodPost, path+"/cancel", s.patient.ID, CancelBody{Reason: "Feeling better", CancellationType: "patient"})
	require.Equal(t, http.StatusOK, code, res.Error)
	assert.NotEmpty(t, s.env.Inbox.For(s.dentist.ID))

	code, res = s.do(t, http.MethodGet, path, uuid.Nil, nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	require.NoError(t, json.Unmarshal(res.Data, &appt))
	assert.Equal(t, "cancelled", appt.Status)
	assert.Equal(t, "Feeling better", appt.CancellationReason)

	code, res = s.do(t, http.MethodGet, "/appointments?status=cancelled&patient_id="+s.patient.ID.String(), uuid.Nil, nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	var list []AppointmentDTO
	require.NoError(t, json.Unmarshal(res.Data, &list))
	assert.Len(t, list, 1)
}

func TestGetUnknownAppointment(t *testing.T) {
	s := newTestServer(t)

	code, res := s.do(t, http.MethodGet, "/appointments/"+uuid.NewString(), uuid.Nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Appointment not found", res.Error)

	code, _ = s.do(t, http.MethodGet, "/appointments/not-a-uuid", uuid.Nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRequestQueueEndpoints(t *testing.T) {
	s := newTestServer(t)
	req := s.createRequest(t)
	assistant := uuid.New()

	code, res := s.do(t, http.MethodPost, "/appointment-requests/"+req.ID.String()+"/assign", uuid.Nil, AssignBody{StaffID: assistant.String()})
	require.Equal(t, http.StatusOK, code, res.Error)

	code, res = s.do(t, http.MethodGet, "/appointment-requests?limit=10", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	var pending []RequestDTO
	require.NoError(t, json.Unmarshal(res.Data, &pending))
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].AssignedTo)
	assert.Equal(t, assistant, *pending[0].AssignedTo)

	code, res = s.do(t, http.MethodPost, "/appointment-requests/"+req.ID.String()+"/decline", s.staff, DeclineBody{Reason: "Fully booked"})
	require.Equal(t, http.StatusOK, code, res.Error)

	code, res = s.do(t, http.MethodGet, "/appointment-requests", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	require.NoError(t, json.Unmarshal(res.Data, &pending))
	assert.Empty(t, pending)
}

func TestServiceLogsCarryRequestID(t *testing.T) {
	env := apptest.NewEnv(now)
	env.Store.FailListDentists = errors.New("connection refused")

	var buf bytes.Buffer
	handler := NewRouter(RouterConfig{Service: env.Service, Log: zerolog.New(&buf), Env: "test"})

	req := httptest.NewRequest(http.MethodGet, "/availability?start_date=2024-06-10", nil)
	req.Header.Set("X-Request-ID", "req-7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "failed to load available time slots", body.Error)
	assert.NotContains(t, rec.Body.String(), "connection refused")

	var failure map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["message"] == "operation failed" {
			failure = entry
		}
	}
	require.NotNil(t, failure, buf.String())
	assert.Equal(t, "req-7", failure["request_id"])
	assert.Equal(t, "load available time slots", failure["op"])
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var ready ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	assert.Equal(t, "not_configured", ready.Dependencies["postgres"])
}
