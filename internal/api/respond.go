package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
)

const actorHeader = "X-Actor-ID"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeBadRequest reports a malformed HTTP input before the service is called.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, Envelope{
		Error: msg,
		Kind:  string(appointment.KindValidation),
	})
}

// render writes res as an Envelope, converting its payload with conv.
func render[T, D any](w http.ResponseWriter, okStatus int, res appointment.Result[T], conv func(T) D) {
	if res.Success {
		writeJSON(w, okStatus, Envelope{Success: true, Data: conv(*res.Data)})
		return
	}

	writeJSON(w, statusFor(res.Kind, res.Err()), Envelope{
		Error:       res.Error,
		Kind:        string(res.Kind),
		Conflicts:   toAppointmentDTOs(res.Conflicts),
		Suggestions: toTimeSlotDTOs(res.Suggestions),
	})
}

func statusFor(kind appointment.ErrorKind, err error) int {
	switch kind {
	case appointment.KindValidation:
		return http.StatusBadRequest
	case appointment.KindConflict:
		return http.StatusConflict
	case appointment.KindState:
		if isNotFound(err) {
			return http.StatusNotFound
		}
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func isNotFound(err error) bool {
	return errors.Is(err, appointment.ErrAppointmentNotFound) ||
		errors.Is(err, appointment.ErrRequestNotFound) ||
		errors.Is(err, appointment.ErrDentistNotFound) ||
		errors.Is(err, appointment.ErrPatientNotFound)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// actorID identifies the staff member or patient making the call.
func actorID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get(actorHeader))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := appointment.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
