package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/consultaflow/practice-scheduling/internal/scheduling"
	"github.com/consultaflow/practice-scheduling/internal/timezone"
)

// parseLocalDateTime parses a zone-naive local datetime. Seconds are
// accepted but ignored downstream; minute precision is the contract.
func parseLocalDateTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", s)
}

func localizeAppointment(a scheduling.Appointment, loc *time.Location) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		PatientID:     a.PatientID,
		StartDatetime: a.Start.In(loc).Format("2006-01-02T15:04:05-07:00"),
		EndDatetime:   a.End.In(loc).Format("2006-01-02T15:04:05-07:00"),
		Mode:          string(a.Mode),
		Status:        string(a.Status),
		Source:        string(a.Source),
		CreatedAt:     a.CreatedAt,
	}
}

func listAppointmentsHandler(svc *scheduling.Service, tz *timezone.Adapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		now := time.Now()
		from := now.AddDate(0, -3, 0)
		to := now.AddDate(0, 3, 0)

		if raw := r.URL.Query().Get("from"); raw != "" {
			from, err = time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD")
				return
			}
		}
		if raw := r.URL.Query().Get("to"); raw != "" {
			to, err = time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "to must be YYYY-MM-DD")
				return
			}
		}

		appointments, err := svc.ListAppointments(r.Context(), profID, from, to)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		prof, err := svc.GetProfessional(r.Context(), profID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		loc, err := tz.Location(prof.Timezone)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appointments))
		for _, a := range appointments {
			resp = append(resp, localizeAppointment(a, loc))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func bookAppointmentHandler(svc *scheduling.Service, tz *timezone.Adapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		startLocal, err := parseLocalDateTime(req.StartDatetime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_datetime", "start_datetime must be YYYY-MM-DDTHH:MM")
			return
		}

		appt, err := svc.Book(r.Context(), scheduling.BookingRequest{
			ProfessionalID: profID,
			PatientID:      patientID,
			StartLocal:     startLocal,
			DurationMin:    req.DurationMin,
			Mode:           scheduling.AppointmentMode(req.Mode),
			Source:         scheduling.SourceManual,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		prof, err := svc.GetProfessional(r.Context(), profID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		loc, err := tz.Location(prof.Timezone)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, localizeAppointment(*appt, loc))
	}
}

func updateAppointmentHandler(svc *scheduling.Service, tz *timezone.Adapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		apptID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Status == "" && req.StartDatetime == "" {
			writeError(w, http.StatusBadRequest, "empty_update", "nothing to update")
			return
		}

		var appt *scheduling.Appointment

		if req.StartDatetime != "" {
			startLocal, err := parseLocalDateTime(req.StartDatetime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_start_datetime", "start_datetime must be YYYY-MM-DDTHH:MM")
				return
			}
			appt, err = svc.Reschedule(r.Context(), profID, apptID, startLocal)
			if err != nil {
				handleServiceError(w, err)
				return
			}
		}

		if req.Status != "" {
			appt, err = svc.SetStatus(r.Context(), profID, apptID, scheduling.AppointmentStatus(req.Status))
			if err != nil {
				handleServiceError(w, err)
				return
			}
		}

		prof, err := svc.GetProfessional(r.Context(), profID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		loc, err := tz.Location(prof.Timezone)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, localizeAppointment(*appt, loc))
	}
}
