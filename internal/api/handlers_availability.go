package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/consultaflow/practice-scheduling/internal/scheduling"
)

// professionalID resolves the caller's professional scope. Authentication
// itself lives in front of this service; by the time a request lands here
// the gateway has already put the verified id in this header.
func professionalID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get("X-Professional-ID")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing X-Professional-ID header")
	}
	return uuid.Parse(raw)
}

func listAvailabilityHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		rules, err := svc.ListAvailability(r.Context(), profID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]AvailabilityRuleResponse, 0, len(rules))
		for _, rule := range rules {
			resp = append(resp, toRuleResponse(rule))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func upsertRuleHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		var req AvailabilityRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := scheduling.ParseTimeOfDay(req.StartTime)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		end, err := scheduling.ParseTimeOfDay(req.EndTime)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		rule := scheduling.AvailabilityRule{
			ProfessionalID: profID,
			Weekday:        req.Weekday,
			StartTime:      start,
			EndTime:        end,
			SessionMin:     req.SessionMin,
			BreakMin:       req.BreakMin,
			Active:         true,
		}
		if req.Active != nil {
			rule.Active = *req.Active
		}
		if req.ID != "" {
			id, err := uuid.Parse(req.ID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_rule_id", "id must be a valid UUID")
				return
			}
			rule.ID = id
		}

		saved, err := svc.UpsertRule(r.Context(), rule)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRuleResponse(*saved))
	}
}

func deleteRuleHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		ruleID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_rule_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteRule(r.Context(), profID, ruleID); err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "availability rule removed"})
	}
}

func listBlackoutsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		blackouts, err := svc.ListBlackouts(r.Context(), profID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]BlackoutResponse, 0, len(blackouts))
		for _, b := range blackouts {
			resp = append(resp, BlackoutResponse{
				ID:     b.ID,
				Date:   b.Date.Format("2006-01-02"),
				Reason: b.Reason,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func addBlackoutHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		var req BlackoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		blackout, err := svc.AddBlackout(r.Context(), profID, date, req.Reason)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, BlackoutResponse{
			ID:     blackout.ID,
			Date:   blackout.Date.Format("2006-01-02"),
			Reason: blackout.Reason,
		})
	}
}

func listSlotsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		var year, week int
		if _, err := fmt.Sscanf(r.URL.Query().Get("week"), "%d-W%d", &year, &week); err != nil {
			// Also accept the bare YYYY-WW form.
			if _, err := fmt.Sscanf(r.URL.Query().Get("week"), "%d-%d", &year, &week); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_week", "week must be YYYY-WW")
				return
			}
		}

		slots, err := svc.WeekSlots(r.Context(), profID, year, week)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, SlotResponse{
				Date:       s.Date,
				Start:      s.Start.String(),
				End:        s.End.String(),
				SessionMin: s.SessionMin,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
