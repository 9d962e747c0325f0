package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/consultaflow/practice-scheduling/internal/outreach"
	"github.com/consultaflow/practice-scheduling/internal/scheduling"
	"github.com/consultaflow/practice-scheduling/internal/timezone"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// handleServiceError maps domain sentinels onto HTTP statuses.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrValidation),
		errors.Is(err, outreach.ErrSettingsInvalid):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, timezone.ErrInvalidZone):
		writeError(w, http.StatusBadRequest, "invalid_zone", err.Error())
	case errors.Is(err, timezone.ErrAmbiguousLocalTime):
		writeError(w, http.StatusBadRequest, "ambiguous_local_time", err.Error())
	case errors.Is(err, scheduling.ErrProfessionalNotFound),
		errors.Is(err, scheduling.ErrPatientNotFound),
		errors.Is(err, scheduling.ErrRuleNotFound),
		errors.Is(err, scheduling.ErrAppointmentNotFound),
		errors.Is(err, outreach.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, scheduling.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, scheduling.ErrCalendarBusy):
		writeError(w, http.StatusConflict, "calendar_busy", "calendar is being modified, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
