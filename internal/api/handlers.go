package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/dental-clinic-scheduling/internal/appointment"
)

func createRequestHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body CreateRequestBody
		if err := decode(r, &body); err != nil {
			writeBadRequest(w, "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(body.PatientID)
		if err != nil {
			writeBadRequest(w, "patient_id must be a valid UUID")
			return
		}

		in := appointment.RequestInput{
			AppointmentType: body.AppointmentType,
			ChiefComplaint:  body.ChiefComplaint,
			PainLevel:       body.PainLevel,
			PreferredTime:   body.PreferredTime,
			AdditionalNotes: body.AdditionalNotes,
			Urgency:         appointment.Urgency(strings.ToLower(body.Urgency)),
		}
		if body.PreferredDate != "" {
			d, err := appointment.ParseDate(body.PreferredDate)
			if err != nil {
				writeBadRequest(w, "preferred_date must be YYYY-MM-DD")
				return
			}
			in.PreferredDate = d
		}

		res := svc.CreateAppointmentRequest(r.Context(), patientID, in)
		render(w, http.StatusCreated, res, toRequestDTO)
	}
}

func listRequestsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeBadRequest(w, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		render(w, http.StatusOK, svc.ListPendingRequests(r.Context(), limit), toRequestDTOs)
	}
}

func confirmRequestHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := pathID(w, r)
		if !ok {
			return
		}
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var body ScheduleBody
		if err := decode(r, &body); err != nil {
			writeBadRequest(w, "could not parse JSON")
			return
		}
		data, msg := body.toScheduleData()
		if msg != "" {
			writeBadRequest(w, msg)
			return
		}

		res := svc.ConfirmAppointmentRequest(r.Context(), requestID, data, actor)
		render(w, http.StatusCreated, res, toAppointmentDTO)
	}
}

func declineRequestHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := pathID(w, r)
		if !ok {
			return
		}
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var body DeclineBody
		if err := decode(r, &body); err != nil {
			writeBadRequest(w, "could not parse JSON")
			return
		}

		res := svc.DeclineAppointmentRequest(r.Context(), requestID, actor, body.Reason)
		render(w, http.StatusOK, res, toRequestDTO)
	}
}

func assignRequestHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := pathID(w, r)
		if !ok {
			return
		}

		var body AssignBody
		if err := decode(r, &body); err != nil {
			writeBadRequest(w, "could not parse JSON")
			return
		}
		staffID, err := uuid.Parse(body.StaffID)
		if err != nil {
			writeBadRequest(w, "staff_id must be a valid UUID")
			return
		}

		res := svc.AssignAppointmentRequest(r.Context(), requestID, staffID)
		render(w, http.StatusOK, res, toRequestDTO)
	}
}

func availabilityHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		start, err := appointment.ParseDate(q.Get("start_date"))
		if err != nil {
			writeBadRequest(w, "start_date must be YYYY-MM-DD")
			return
		}
		end := start
		if raw := q.Get("end_date"); raw != "" {
			if end, err = appointment.ParseDate(raw); err != nil {
				writeBadRequest(w, "end_date must be YYYY-MM-DD")
				return
			}
		}

		query := appointment.AvailabilityQuery{StartDate: start, EndDate: end}
		if raw := q.Get("duration"); raw != "" {
			if query.DurationMinutes, err = strconv.Atoi(raw); err != nil {
				writeBadRequest(w, "duration must be an integer number of minutes")
				return
			}
		}
		if query.DentistID, err = optionalUUID(q.Get("dentist_id")); err != nil {
			writeBadRequest(w, "dentist_id must be a valid UUID")
			return
		}

		render(w, http.StatusOK, svc.GetAvailableTimeSlots(r.Context(), query), toDaySlotsDTOs)
	}
}

func conflictsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body ConflictCheckBody
		if err := decode(r, &body); err != nil {
			writeBadRequest(w, "could not parse JSON")
			return
		}
		data, msg := body.toScheduleData()
		if msg != "" {
			writeBadRequest(w, msg)
			return
		}
		exclude, err := optionalUUID(body.ExcludeAppointmentID)
		if err != nil {
			writeBadRequest(w, "exclude_appointment_id must be a valid UUID")
			return
		}
		excludeID := uuid.Nil
		if exclude != nil {
			excludeID = *exclude
		}

		res := svc.CheckAppointmentConflicts(r.Context(), data, excludeID)
		render(w, http.StatusOK, res, toConflictReportDTO)
	}
}

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var body BookingBody
		if err := decode(r, &body); err != nil {
			writeBadRequest(w, "could not parse JSON")
			return
		}
		patientID, err := uuid.Parse(body.PatientID)
		if err != nil {
			writeBadRequest(w, "patient_id must be a valid UUID")
			return
		}
		data, msg := body.toScheduleData()
		if msg != "" {
			writeBadRequest(w, msg)
			return
		}

		res := svc.CreateAppointment(r.Context(), appointment.BookingInput{
			PatientID:       patientID,
			AppointmentType: body.AppointmentType,
			Schedule:        data,
		}, actor)
		render(w, http.StatusCreated, res, toAppointmentDTO)
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var f appointment.AppointmentFilter
		var err error

		if f.PatientID, err = optionalUUID(q.Get("patient_id")); err != nil {
			writeBadRequest(w, "patient_id must be a valid UUID")
			return
		}
		if f.DentistID, err = optionalUUID(q.Get("dentist_id")); err != nil {
			writeBadRequest(w, "dentist_id must be a valid UUID")
			return
		}
		if f.From, err = optionalDate(q.Get("from")); err != nil {
			writeBadRequest(w, "from must be YYYY-MM-DD")
			return
		}
		if f.To, err = optionalDate(q.Get("to")); err != nil {
			writeBadRequest(w, "to must be YYYY-MM-DD")
			return
		}
		for _, raw := range q["status"] {
			for _, s := range strings.Split(raw, ",") {
				if s = strings.TrimSpace(s); s != "" {
					f.Statuses = append(f.Statuses, appointment.Status(s))
				}
			}
		}
		if raw := q.Get("limit"); raw != "" {
			if f.Limit, err = strconv.Atoi(raw); err != nil {
				writeBadRequest(w, "limit must be an integer")
				return
			}
		}
		if raw := q.Get("offset"); raw != "" {
			if f.Offset, err = strconv.Atoi(raw); err != nil {
				writeBadRequest(w, "offset must be an integer")
				return
			}
		}

		render(w, http.StatusOK, svc.ListAppointments(r.Context(), f), toAppointmentDTOs)
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		render(w, http.StatusOK, svc.GetAppointment(r.Context(), id), toAppointmentDTO)
	}
}

func updateStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var body StatusBody
		if err := decode(r, &body); err != nil {
			writeBadRequest(w, "could not parse JSON")
			return
		}

		res := svc.UpdateAppointmentStatus(r.Context(), id, appointment.Status(body.Status), actor, body.Notes)
		render(w, http.StatusOK, res, toAppointmentDTO)
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var body CancelBody
		if err := decode(r, &body); err != nil {
			writeBadRequest(w, "could not parse JSON")
			return
		}

		res := svc.CancelAppointment(r.Context(), id, actor, body.Reason, appointment.CancellationType(body.CancellationType))
		render(w, http.StatusOK, res, toAppointmentDTO)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func requireActor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := actorID(r)
	if !ok {
		writeBadRequest(w, actorHeader+" header must carry the caller's UUID")
	}
	return id, ok
}

// toScheduleData parses the wire form. A non-empty string names the bad field.
func (b ScheduleBody) toScheduleData() (appointment.ScheduleData, string) {
	dentistID, err := uuid.Parse(b.DentistID)
	if err != nil {
		return appointment.ScheduleData{}, "dentist_id must be a valid UUID"
	}
	date, err := appointment.ParseDate(b.ScheduledDate)
	if err != nil {
		return appointment.ScheduleData{}, "scheduled_date must be YYYY-MM-DD"
	}

	data := appointment.ScheduleData{
		DentistID:       dentistID,
		ScheduledDate:   date,
		ScheduledTime:   b.ScheduledTime,
		DurationMinutes: b.DurationMinutes,
		Notes:           b.Notes,
	}
	if b.AssistantID != nil {
		if data.AssistantID, err = optionalUUID(*b.AssistantID); err != nil {
			return appointment.ScheduleData{}, "assistant_id must be a valid UUID"
		}
	}
	return data, ""
}
