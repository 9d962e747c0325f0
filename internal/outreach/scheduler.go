package outreach

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/consultaflow/practice-scheduling/internal/scheduling"
	"github.com/consultaflow/practice-scheduling/internal/timezone"
)

// Reminder windows are wide enough that a tick every 1-5 minutes cannot
// miss an appointment; the idempotency markers absorb the resulting
// re-observations.
const (
	d1WindowStart = 23 * time.Hour
	d1WindowEnd   = 25 * time.Hour
	h3WindowStart = 2*time.Hour + 45*time.Minute
	h3WindowEnd   = 3*time.Hour + 15*time.Minute
)

// Scheduler decides which outreach events are due. It is stateless between
// ticks except for the durable markers, so overlapping or repeated ticks
// are safe. It never performs delivery itself; it returns send-intents for
// the dispatcher.
type Scheduler struct {
	repo Repository
	tz   *timezone.Adapter
}

func NewScheduler(repo Repository, tz *timezone.Adapter) *Scheduler {
	return &Scheduler{repo: repo, tz: tz}
}

type TickResult struct {
	Professionals int
	Intents       []SendIntent
	Failures      int
}

// RunTick evaluates every professional's automations against now. A failure
// for one professional or one event kind is logged and counted, never fatal
// to the rest of the tick.
func (s *Scheduler) RunTick(ctx context.Context, now time.Time) (*TickResult, error) {
	professionals, err := s.repo.ListProfessionals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}

	result := &TickResult{Professionals: len(professionals)}

	for _, prof := range professionals {
		settings, err := s.repo.GetOrCreateSettings(ctx, prof.ID)
		if err != nil {
			log.Printf("tick: load settings professional=%s: %v", prof.ID, err)
			result.Failures++
			continue
		}

		loc, err := s.tz.Location(prof.Timezone)
		if err != nil {
			log.Printf("tick: professional=%s zone=%q: %v", prof.ID, prof.Timezone, err)
			result.Failures++
			continue
		}
		localNow := now.In(loc)

		intents, err := s.weeklyInvites(ctx, prof, settings, localNow)
		if err != nil {
			log.Printf("tick: weekly invites professional=%s: %v", prof.ID, err)
			result.Failures++
		}
		result.Intents = append(result.Intents, intents...)

		if settings.EnableD1 {
			intents, err = s.reminders(ctx, prof, loc, KindReminderD1,
				now.Add(d1WindowStart), now.Add(d1WindowEnd))
			if err != nil {
				log.Printf("tick: d1 reminders professional=%s: %v", prof.ID, err)
				result.Failures++
			}
			result.Intents = append(result.Intents, intents...)
		}

		if settings.EnableH3 {
			intents, err = s.reminders(ctx, prof, loc, KindReminderH3,
				now.Add(h3WindowStart), now.Add(h3WindowEnd))
			if err != nil {
				log.Printf("tick: h3 reminders professional=%s: %v", prof.ID, err)
				result.Failures++
			}
			result.Intents = append(result.Intents, intents...)
		}
	}

	return result, nil
}

// weeklyInvites emits at most one invite batch per professional per ISO
// week. Mode C professionals get reminders only, no invites.
func (s *Scheduler) weeklyInvites(ctx context.Context, prof scheduling.Professional, settings *scheduling.AutomationSettings, localNow time.Time) ([]SendIntent, error) {
	if settings.Mode == scheduling.ModeReminderOnly {
		return nil, nil
	}
	if scheduling.MondayWeekday(localNow) != settings.WeeklyInviteDay || localNow.Hour() != settings.WeeklyInviteHour {
		return nil, nil
	}

	// Claim the week before emitting anything; a concurrent tick inside the
	// due hour loses the insert and emits nothing.
	claimed, err := s.repo.MarkSent(ctx, prof.ID, KindWeeklyInvite, ISOWeekKey(localNow))
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, nil
	}

	template, err := s.repo.GetOrCreateTemplate(ctx, prof.ID, TemplateInvite)
	if err != nil {
		return nil, err
	}

	patients, err := s.repo.ListActivePatients(ctx, prof.ID)
	if err != nil {
		return nil, err
	}

	intents := make([]SendIntent, 0, len(patients))
	for _, patient := range patients {
		intents = append(intents, SendIntent{
			ProfessionalID: prof.ID,
			PatientID:      patient.ID,
			Phone:          patient.Phone,
			Kind:           KindWeeklyInvite,
			Content: Render(template.Content, RenderValues{
				Professional: prof.Name,
				Patient:      patient.Name,
			}),
			Buttons: template.Buttons,
		})
	}

	return intents, nil
}

func (s *Scheduler) reminders(ctx context.Context, prof scheduling.Professional, loc *time.Location, kind EventKind, from, to time.Time) ([]SendIntent, error) {
	appointments, err := s.repo.ListConfirmedBetween(ctx, prof.ID, from, to)
	if err != nil {
		return nil, err
	}
	if len(appointments) == 0 {
		return nil, nil
	}

	template, err := s.repo.GetOrCreateTemplate(ctx, prof.ID, TemplateReminder)
	if err != nil {
		return nil, err
	}

	var intents []SendIntent
	for _, appt := range appointments {
		claimed, err := s.repo.MarkSent(ctx, prof.ID, kind, appt.ID.String())
		if err != nil {
			log.Printf("tick: mark %s appointment=%s: %v", kind, appt.ID, err)
			continue
		}
		if !claimed {
			continue
		}

		patient, err := s.repo.GetPatientByID(ctx, appt.PatientID)
		if err != nil {
			log.Printf("tick: load patient=%s: %v", appt.PatientID, err)
			continue
		}
		if patient.Status == scheduling.PatientOptOut {
			continue
		}

		startLocal := appt.Start.In(loc)
		when := "today at " + startLocal.Format("15:04")
		if kind == KindReminderD1 {
			when = "tomorrow at " + startLocal.Format("15:04")
		}

		intents = append(intents, SendIntent{
			ProfessionalID: prof.ID,
			PatientID:      patient.ID,
			Phone:          patient.Phone,
			Kind:           kind,
			Content: Render(template.Content, RenderValues{
				Professional: prof.Name,
				Patient:      patient.Name,
				When:         when,
			}),
			Buttons: template.Buttons,
		})
	}

	return intents, nil
}
