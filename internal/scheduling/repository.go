package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository contains all DB interactions needed by the scheduling service.
type Repository interface {
	GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error)
	ListProfessionals(ctx context.Context) ([]Professional, error)

	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListPatientsByStatus(ctx context.Context, professionalID uuid.UUID, status PatientStatus) ([]Patient, error)

	ListRules(ctx context.Context, professionalID uuid.UUID) ([]AvailabilityRule, error)
	UpsertRule(ctx context.Context, rule *AvailabilityRule) error
	DeleteRule(ctx context.Context, professionalID, ruleID uuid.UUID) error

	ListBlackouts(ctx context.Context, professionalID uuid.UUID) ([]BlackoutDate, error)
	AddBlackout(ctx context.Context, blackout *BlackoutDate) error

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// Conflict-checked writes. Both run the overlap check and the write in
	// one transaction and fail with ErrSlotConflict on overlap.
	CreateAppointmentIfFree(ctx context.Context, appt *Appointment) error
	RescheduleAppointmentIfFree(ctx context.Context, id uuid.UUID, newStart, newEnd time.Time) (*Appointment, error)

	// Compare-and-swap status update: only applies when the row still holds
	// the expected from status.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
}
