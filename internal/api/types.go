package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/consultaflow/practice-scheduling/internal/scheduling"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type AvailabilityRuleRequest struct {
	ID         string `json:"id,omitempty"`
	Weekday    int    `json:"weekday"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	SessionMin int    `json:"duration_min"`
	BreakMin   int    `json:"break_min"`
	Active     *bool  `json:"active,omitempty"`
}

type AvailabilityRuleResponse struct {
	ID         uuid.UUID `json:"id"`
	Weekday    int       `json:"weekday"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	SessionMin int       `json:"duration_min"`
	BreakMin   int       `json:"break_min"`
	Active     bool      `json:"active"`
}

func toRuleResponse(r scheduling.AvailabilityRule) AvailabilityRuleResponse {
	return AvailabilityRuleResponse{
		ID:         r.ID,
		Weekday:    r.Weekday,
		StartTime:  r.StartTime.String(),
		EndTime:    r.EndTime.String(),
		SessionMin: r.SessionMin,
		BreakMin:   r.BreakMin,
		Active:     r.Active,
	}
}

type BlackoutRequest struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Reason string `json:"reason,omitempty"`
}

type BlackoutResponse struct {
	ID     uuid.UUID `json:"id"`
	Date   string    `json:"date"`
	Reason string    `json:"reason,omitempty"`
}

type SlotResponse struct {
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
	SessionMin int    `json:"duration"`
}

type BookAppointmentRequest struct {
	PatientID     string `json:"patient_id"`
	StartDatetime string `json:"start_datetime"` // local, YYYY-MM-DDTHH:MM
	DurationMin   int    `json:"duration_min,omitempty"`
	Mode          string `json:"mode"`
}

type UpdateAppointmentRequest struct {
	Status        string `json:"status,omitempty"`
	StartDatetime string `json:"start_datetime,omitempty"` // reschedule, local
}

type AppointmentResponse struct {
	ID            uuid.UUID `json:"id"`
	PatientID     uuid.UUID `json:"patient_id"`
	StartDatetime string    `json:"start_datetime"` // local ISO
	EndDatetime   string    `json:"end_datetime"`   // local ISO
	Mode          string    `json:"mode"`
	Status        string    `json:"status"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"created_at"`
}

type AutomationSettingsRequest struct {
	Mode              string `json:"mode"`
	WeeklyInviteDay   int    `json:"weekly_invite_dow"`
	WeeklyInviteHour  int    `json:"weekly_invite_hour"`
	CancelWindowHours int    `json:"cancel_window_hours"`
	EnableD1          bool   `json:"enable_d1"`
	EnableH3          bool   `json:"enable_h3"`
}

type AutomationSettingsResponse struct {
	Mode              string `json:"mode"`
	WeeklyInviteDay   int    `json:"weekly_invite_dow"`
	WeeklyInviteHour  int    `json:"weekly_invite_hour"`
	CancelWindowHours int    `json:"cancel_window_hours"`
	EnableD1          bool   `json:"enable_d1"`
	EnableH3          bool   `json:"enable_h3"`
}

type TemplateRequest struct {
	Content string   `json:"content"`
	Buttons []string `json:"buttons,omitempty"`
}

type TemplateResponse struct {
	ID      uuid.UUID `json:"id"`
	Kind    string    `json:"kind"`
	Content string    `json:"content"`
	Buttons []string  `json:"buttons,omitempty"`
}

type TickResponse struct {
	Professionals int `json:"professionals"`
	Intents       int `json:"intents"`
	Failures      int `json:"failures"`
}
