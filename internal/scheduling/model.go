package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
	StatusCompleted AppointmentStatus = "completed"
)

type AppointmentMode string

const (
	ModeOnline   AppointmentMode = "online"
	ModeInPerson AppointmentMode = "in_person"
)

type AppointmentSource string

const (
	SourceManual AppointmentSource = "manual"
	SourceAuto   AppointmentSource = "auto"
)

type PatientStatus string

const (
	PatientActive PatientStatus = "active"
	PatientPaused PatientStatus = "paused"
	PatientOptOut PatientStatus = "optout"
)

type Professional struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Timezone  string // IANA zone name
	CreatedAt time.Time
}

type Patient struct {
	ID             uuid.UUID
	ProfessionalID uuid.UUID
	Name           string
	Phone          string
	Status         PatientStatus
	CreatedAt      time.Time
}

// AvailabilityRule is a recurring weekly template in the professional's
// local wall-clock time. Weekday is Monday-based (0=Monday .. 6=Sunday).
type AvailabilityRule struct {
	ID             uuid.UUID
	ProfessionalID uuid.UUID
	Weekday        int
	StartTime      TimeOfDay
	EndTime        TimeOfDay
	SessionMin     int
	BreakMin       int
	Active         bool
}

// BlackoutDate removes a whole local calendar date from slot generation.
type BlackoutDate struct {
	ID             uuid.UUID
	ProfessionalID uuid.UUID
	Date           time.Time // midnight, date part only
	Reason         string
}

// Appointment start/end are always UTC instants.
type Appointment struct {
	ID             uuid.UUID
	ProfessionalID uuid.UUID
	PatientID      uuid.UUID
	Start          time.Time
	End            time.Time
	Mode           AppointmentMode
	Status         AppointmentStatus
	Source         AppointmentSource
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Overlaps reports whether the half-open intervals [a.Start, a.End) and
// [start, end) intersect.
func (a Appointment) Overlaps(start, end time.Time) bool {
	return a.Start.Before(end) && a.End.After(start)
}

type AutomationMode string

const (
	ModeConfirmFirst AutomationMode = "A"
	ModeOfferFirst   AutomationMode = "B"
	ModeReminderOnly AutomationMode = "C"
)

type AutomationSettings struct {
	ID                uuid.UUID
	ProfessionalID    uuid.UUID
	Mode              AutomationMode
	WeeklyInviteDay   int // Monday-based weekday
	WeeklyInviteHour  int // local hour 0-23
	CancelWindowHours int
	EnableD1          bool
	EnableH3          bool
}

// DefaultAutomationSettings is installed on first read for a professional.
func DefaultAutomationSettings(professionalID uuid.UUID) AutomationSettings {
	return AutomationSettings{
		ID:                uuid.New(),
		ProfessionalID:    professionalID,
		Mode:              ModeConfirmFirst,
		WeeklyInviteDay:   0, // Monday
		WeeklyInviteHour:  10,
		CancelWindowHours: 12,
		EnableD1:          true,
		EnableH3:          true,
	}
}

// Slot is a candidate bookable window derived from availability, rendered in
// the professional's local time. It is not an appointment.
type Slot struct {
	Date       string // YYYY-MM-DD, local
	Start      TimeOfDay
	End        TimeOfDay
	SessionMin int
}

// MondayWeekday maps Go's Sunday-based weekday onto the Monday-based index
// used by availability rules and automation settings.
func MondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// TimeOfDay is a local wall-clock time with minute precision, stored as
// minutes since midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("%w: time %q is not HH:MM", ErrValidation, s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("%w: time %q out of range", ErrValidation, s)
	}
	return NewTimeOfDay(hh, mm), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: time %s is not a string", ErrValidation, s)
	}
	parsed, err := ParseTimeOfDay(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
