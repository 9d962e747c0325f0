package outreach

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTemplateNotFound = errors.New("message template not found")
	ErrSettingsInvalid  = errors.New("invalid automation settings")
)

// EventKind identifies one recurring automation. Together with a period key
// it forms the idempotency marker: weekly invites use the ISO week, the
// reminders use the appointment id.
type EventKind string

const (
	KindWeeklyInvite EventKind = "weekly_invite"
	KindReminderD1   EventKind = "d1"
	KindReminderH3   EventKind = "h3"
)

// TemplateKind selects a professional's message template.
type TemplateKind string

const (
	TemplateConsent  TemplateKind = "consent"
	TemplateInvite   TemplateKind = "invite"
	TemplateOffer    TemplateKind = "offer"
	TemplateConfirm  TemplateKind = "confirm"
	TemplateReminder TemplateKind = "reminder"
	TemplateNoShow   TemplateKind = "noshow"
)

func ValidTemplateKind(k TemplateKind) bool {
	switch k {
	case TemplateConsent, TemplateInvite, TemplateOffer, TemplateConfirm, TemplateReminder, TemplateNoShow:
		return true
	}
	return false
}

type Template struct {
	ID             uuid.UUID
	ProfessionalID uuid.UUID
	Kind           TemplateKind
	Content        string
	Buttons        []string
}

// DefaultTemplate is installed the first time a kind is read for a
// professional.
func DefaultTemplate(professionalID uuid.UUID, kind TemplateKind) Template {
	t := Template{
		ID:             uuid.New(),
		ProfessionalID: professionalID,
		Kind:           kind,
	}

	switch kind {
	case TemplateConsent:
		t.Content = "Hi, this is {professional}'s scheduling assistant. May I send you confirmations and reminders here? You can stop any time."
		t.Buttons = []string{"Yes, you may", "Rather not"}
	case TemplateInvite:
		t.Content = "Hi {patient}! Can you confirm this week's session with {professional}?"
		t.Buttons = []string{"Confirm", "Reschedule", "Pause"}
	case TemplateOffer:
		t.Content = "These times are open: {slots}. Tap one to confirm."
	case TemplateConfirm:
		t.Content = "Booked: {when}."
		t.Buttons = []string{"Reschedule", "Cancel"}
	case TemplateReminder:
		t.Content = "Reminder: {when} is your session with {professional}."
		t.Buttons = []string{"See link/address"}
	case TemplateNoShow:
		t.Content = "We missed you. Cancellations under {cancel_window} hours may be charged. Want to rebook?"
		t.Buttons = []string{"Rebook", "Pause"}
	}

	return t
}

// RenderValues are the placeholder substitutions a send-intent carries.
type RenderValues struct {
	Professional string
	Patient      string
	When         string
	CancelWindow int
}

// Render substitutes {professional}, {patient}, {when} and {cancel_window}
// in a template's content.
func Render(content string, v RenderValues) string {
	r := strings.NewReplacer(
		"{professional}", v.Professional,
		"{patient}", v.Patient,
		"{when}", v.When,
		"{cancel_window}", strconv.Itoa(v.CancelWindow),
	)
	return r.Replace(content)
}

// SendIntent is one outreach message to be delivered by the external
// messaging collaborator. It is transport independent.
type SendIntent struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	PatientID      uuid.UUID `json:"patient_id"`
	Phone          string    `json:"phone"`
	Kind           EventKind `json:"kind"`
	Content        string    `json:"content"`
	Buttons        []string  `json:"buttons,omitempty"`
}

// MessageLog records the outcome of one delivered (or failed) send-intent.
type MessageLog struct {
	ID             uuid.UUID
	ProfessionalID uuid.UUID
	PatientID      uuid.UUID
	Kind           EventKind
	Content        string
	Status         string // sent, failed
	CreatedAt      time.Time
}

// ISOWeekKey formats the marker period key for weekly invites, e.g.
// "2026-W35".
func ISOWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return strconv.Itoa(year) + "-W" + pad2(week)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
