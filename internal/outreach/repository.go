package outreach

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/consultaflow/practice-scheduling/internal/scheduling"
)

// Repository contains all DB interactions needed by the scheduler and the
// dispatcher.
type Repository interface {
	ListProfessionals(ctx context.Context) ([]scheduling.Professional, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*scheduling.Patient, error)
	ListActivePatients(ctx context.Context, professionalID uuid.UUID) ([]scheduling.Patient, error)

	// Appointments with status confirmed whose start falls inside
	// [from, to], both inclusive.
	ListConfirmedBetween(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]scheduling.Appointment, error)

	// Settings and templates are created with defaults on first read.
	GetOrCreateSettings(ctx context.Context, professionalID uuid.UUID) (*scheduling.AutomationSettings, error)
	UpdateSettings(ctx context.Context, settings *scheduling.AutomationSettings) error
	GetOrCreateTemplate(ctx context.Context, professionalID uuid.UUID, kind TemplateKind) (*Template, error)
	ListTemplates(ctx context.Context, professionalID uuid.UUID) ([]Template, error)
	UpdateTemplate(ctx context.Context, professionalID uuid.UUID, kind TemplateKind, content string, buttons []string) (*Template, error)

	// MarkSent is the atomic insert-if-absent idempotency primitive. It
	// returns true exactly once per (professional, kind, periodKey), no
	// matter how many concurrent ticks race on it.
	MarkSent(ctx context.Context, professionalID uuid.UUID, kind EventKind, periodKey string) (bool, error)

	InsertMessageLog(ctx context.Context, entry MessageLog) error
}
