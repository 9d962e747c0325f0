package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/consultaflow/practice-scheduling/internal/redis"
	"github.com/consultaflow/practice-scheduling/internal/timezone"
)

const defaultSessionMin = 50

type Service struct {
	repo   Repository
	locker redisclient.Locker
	tz     *timezone.Adapter
}

func NewService(repo Repository, locker redisclient.Locker, tz *timezone.Adapter) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		tz:     tz,
	}
}

func (s *Service) GetProfessional(ctx context.Context, id uuid.UUID) (*Professional, error) {
	return s.repo.GetProfessionalByID(ctx, id)
}

// Availability rules

func (s *Service) ListAvailability(ctx context.Context, professionalID uuid.UUID) ([]AvailabilityRule, error) {
	rules, err := s.repo.ListRules(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}
	return rules, nil
}

func (s *Service) UpsertRule(ctx context.Context, rule AvailabilityRule) (*AvailabilityRule, error) {
	if rule.Weekday < 0 || rule.Weekday > 6 {
		return nil, fmt.Errorf("%w: weekday must be 0-6 (Monday=0)", ErrValidation)
	}
	if rule.StartTime >= rule.EndTime {
		return nil, fmt.Errorf("%w: start_time must be before end_time", ErrValidation)
	}
	if rule.SessionMin < 15 || rule.SessionMin > 120 {
		return nil, fmt.Errorf("%w: session duration must be 15-120 minutes", ErrValidation)
	}
	if rule.BreakMin < 0 || rule.BreakMin > 60 {
		return nil, fmt.Errorf("%w: break must be 0-60 minutes", ErrValidation)
	}

	if _, err := s.repo.GetProfessionalByID(ctx, rule.ProfessionalID); err != nil {
		return nil, err
	}

	if err := s.repo.UpsertRule(ctx, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *Service) DeleteRule(ctx context.Context, professionalID, ruleID uuid.UUID) error {
	return s.repo.DeleteRule(ctx, professionalID, ruleID)
}

// Blackout dates

func (s *Service) ListBlackouts(ctx context.Context, professionalID uuid.UUID) ([]BlackoutDate, error) {
	return s.repo.ListBlackouts(ctx, professionalID)
}

func (s *Service) AddBlackout(ctx context.Context, professionalID uuid.UUID, date time.Time, reason string) (*BlackoutDate, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if _, err := s.repo.GetProfessionalByID(ctx, professionalID); err != nil {
		return nil, err
	}

	blackout := BlackoutDate{
		ProfessionalID: professionalID,
		Date:           time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Reason:         reason,
	}
	if err := s.repo.AddBlackout(ctx, &blackout); err != nil {
		return nil, err
	}
	return &blackout, nil
}

// Slot generation

// WeekSlots derives the bookable slots for one ISO week, Monday through
// Sunday, in the professional's local time.
func (s *Service) WeekSlots(ctx context.Context, professionalID uuid.UUID, isoYear, isoWeek int) ([]Slot, error) {
	if isoWeek < 1 || isoWeek > 53 {
		return nil, fmt.Errorf("%w: week must be 1-53", ErrValidation)
	}

	prof, err := s.repo.GetProfessionalByID(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	loc, err := s.tz.Location(prof.Timezone)
	if err != nil {
		return nil, err
	}

	monday := mondayOfISOWeek(isoYear, isoWeek, loc)
	weekEnd := monday.AddDate(0, 0, 7)

	rules, err := s.repo.ListRules(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("load availability rules: %w", err)
	}

	blackouts, err := s.repo.ListBlackouts(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("load blackout dates: %w", err)
	}
	blackoutDates := make(map[string]bool, len(blackouts))
	for _, b := range blackouts {
		blackoutDates[b.Date.Format("2006-01-02")] = true
	}

	appointments, err := s.repo.ListAppointments(ctx, professionalID, monday.UTC(), weekEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	in := SlotInputs{
		Location:     loc,
		Rules:        rules,
		Blackouts:    blackoutDates,
		Appointments: appointments,
	}
	return GenerateSlots(in, monday, 7), nil
}

// mondayOfISOWeek returns local midnight of the Monday opening the given
// ISO week. January 4th always falls in ISO week 1.
func mondayOfISOWeek(year, week int, loc *time.Location) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	week1Monday := jan4.AddDate(0, 0, -MondayWeekday(jan4))
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

// Booking

type BookingRequest struct {
	ProfessionalID uuid.UUID
	PatientID      uuid.UUID
	StartLocal     time.Time // wall-clock fields in the professional's zone
	DurationMin    int
	Mode           AppointmentMode
	Source         AppointmentSource
}

// Book converts the requested local start to UTC, then runs the conflict
// check and insert as one atomic unit under the professional's calendar
// lock. Two concurrent overlapping requests end with exactly one success
// and one ErrSlotConflict.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.Mode != ModeOnline && req.Mode != ModeInPerson {
		return nil, fmt.Errorf("%w: mode must be online or in_person", ErrValidation)
	}
	if req.DurationMin == 0 {
		req.DurationMin = defaultSessionMin
	}
	if req.DurationMin < 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	if req.Source == "" {
		req.Source = SourceManual
	}

	prof, err := s.repo.GetProfessionalByID(ctx, req.ProfessionalID)
	if err != nil {
		return nil, err
	}

	patient, err := s.repo.GetPatientByID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.ProfessionalID != req.ProfessionalID {
		return nil, ErrPatientNotFound
	}

	start, err := s.tz.ToUTC(req.StartLocal, prof.Timezone)
	if err != nil {
		return nil, err
	}
	end := start.Add(time.Duration(req.DurationMin) * time.Minute)

	appt := &Appointment{
		ProfessionalID: req.ProfessionalID,
		PatientID:      req.PatientID,
		Start:          start,
		End:            end,
		Mode:           req.Mode,
		Status:         StatusScheduled,
		Source:         req.Source,
	}

	err = s.locker.WithCalendarLock(ctx, req.ProfessionalID, func(lockCtx context.Context) error {
		return s.repo.CreateAppointmentIfFree(lockCtx, appt)
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrCalendarBusy
		}
		return nil, err
	}

	return appt, nil
}

// Reschedule moves an appointment to a new local start, preserving its
// duration. The conflict check excludes the appointment's own interval.
func (s *Service) Reschedule(ctx context.Context, professionalID, appointmentID uuid.UUID, newStartLocal time.Time) (*Appointment, error) {
	appt, err := s.scopedAppointment(ctx, professionalID, appointmentID)
	if err != nil {
		return nil, err
	}

	prof, err := s.repo.GetProfessionalByID(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	newStart, err := s.tz.ToUTC(newStartLocal, prof.Timezone)
	if err != nil {
		return nil, err
	}
	newEnd := newStart.Add(appt.End.Sub(appt.Start))

	var updated *Appointment
	err = s.locker.WithCalendarLock(ctx, professionalID, func(lockCtx context.Context) error {
		var err error
		updated, err = s.repo.RescheduleAppointmentIfFree(lockCtx, appointmentID, newStart, newEnd)
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrCalendarBusy
		}
		return nil, err
	}

	return updated, nil
}

// SetStatus applies a status transition after validating it against the
// transition table. Terminal states never transition again.
func (s *Service) SetStatus(ctx context.Context, professionalID, appointmentID uuid.UUID, newStatus AppointmentStatus) (*Appointment, error) {
	if !ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	appt, err := s.scopedAppointment(ctx, professionalID, appointmentID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(appt.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, newStatus)
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appointmentID, appt.Status, newStatus)
	if err != nil {
		// The CAS missed: the row changed under us since the read above.
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, newStatus)
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	return updated, nil
}

// ListAppointments returns the professional's appointments whose start
// falls inside the local date range [fromDate, toDate], both inclusive.
func (s *Service) ListAppointments(ctx context.Context, professionalID uuid.UUID, fromDate, toDate time.Time) ([]Appointment, error) {
	prof, err := s.repo.GetProfessionalByID(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	loc, err := s.tz.Location(prof.Timezone)
	if err != nil {
		return nil, err
	}

	from := time.Date(fromDate.Year(), fromDate.Month(), fromDate.Day(), 0, 0, 0, 0, loc)
	to := time.Date(toDate.Year(), toDate.Month(), toDate.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	return s.repo.ListAppointments(ctx, professionalID, from.UTC(), to.UTC())
}

func (s *Service) scopedAppointment(ctx context.Context, professionalID, appointmentID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	// Out-of-scope rows look exactly like missing rows to the caller.
	if appt.ProfessionalID != professionalID {
		return nil, ErrAppointmentNotFound
	}
	return appt, nil
}
