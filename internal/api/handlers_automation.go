package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/consultaflow/practice-scheduling/internal/outreach"
	"github.com/consultaflow/practice-scheduling/internal/scheduling"
)

func toSettingsResponse(s scheduling.AutomationSettings) AutomationSettingsResponse {
	return AutomationSettingsResponse{
		Mode:              string(s.Mode),
		WeeklyInviteDay:   s.WeeklyInviteDay,
		WeeklyInviteHour:  s.WeeklyInviteHour,
		CancelWindowHours: s.CancelWindowHours,
		EnableD1:          s.EnableD1,
		EnableH3:          s.EnableH3,
	}
}

func getSettingsHandler(svc *outreach.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		settings, err := svc.GetSettings(r.Context(), profID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSettingsResponse(*settings))
	}
}

func updateSettingsHandler(svc *outreach.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		var req AutomationSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		settings, err := svc.UpdateSettings(r.Context(), scheduling.AutomationSettings{
			ProfessionalID:    profID,
			Mode:              scheduling.AutomationMode(req.Mode),
			WeeklyInviteDay:   req.WeeklyInviteDay,
			WeeklyInviteHour:  req.WeeklyInviteHour,
			CancelWindowHours: req.CancelWindowHours,
			EnableD1:          req.EnableD1,
			EnableH3:          req.EnableH3,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSettingsResponse(*settings))
	}
}

func listTemplatesHandler(svc *outreach.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		templates, err := svc.ListTemplates(r.Context(), profID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]TemplateResponse, 0, len(templates))
		for _, t := range templates {
			resp = append(resp, TemplateResponse{
				ID:      t.ID,
				Kind:    string(t.Kind),
				Content: t.Content,
				Buttons: t.Buttons,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateTemplateHandler(svc *outreach.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profID, err := professionalID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", err.Error())
			return
		}

		var req TemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		kind := outreach.TemplateKind(chi.URLParam(r, "kind"))
		template, err := svc.UpdateTemplate(r.Context(), profID, kind, req.Content, req.Buttons)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, TemplateResponse{
			ID:      template.ID,
			Kind:    string(template.Kind),
			Content: template.Content,
			Buttons: template.Buttons,
		})
	}
}

// runTickHandler triggers one scheduler tick on demand, mainly for
// operations and tests; the automation worker drives the regular cadence.
// Delivery happens in the background so the decision loop never waits on
// the messaging gateway.
func runTickHandler(scheduler *outreach.Scheduler, dispatcher *outreach.Dispatcher, dispatchTimeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := scheduler.RunTick(r.Context(), time.Now())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		if len(result.Intents) > 0 {
			intents := result.Intents
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
				defer cancel()
				dispatcher.Dispatch(ctx, intents)
			}()
		}

		writeJSON(w, http.StatusOK, TickResponse{
			Professionals: result.Professionals,
			Intents:       len(result.Intents),
			Failures:      result.Failures,
		})
	}
}
