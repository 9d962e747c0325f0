package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// 2026-09-07 is a Monday.
var testMonday = time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)

func utcRule(weekday int, start, end TimeOfDay, sessionMin, breakMin int) AvailabilityRule {
	return AvailabilityRule{
		ID:             uuid.New(),
		ProfessionalID: uuid.New(),
		Weekday:        weekday,
		StartTime:      start,
		EndTime:        end,
		SessionMin:     sessionMin,
		BreakMin:       breakMin,
		Active:         true,
	}
}

func TestGenerateSlotsWindowTooShortForSecondSession(t *testing.T) {
	// 09:00-10:40 with 50+10 stepping: 09:00-09:50 fits, the next candidate
	// 10:00-10:50 would run past the window end.
	in := SlotInputs{
		Location: time.UTC,
		Rules:    []AvailabilityRule{utcRule(0, NewTimeOfDay(9, 0), NewTimeOfDay(10, 40), 50, 10)},
	}

	slots := GenerateSlots(in, testMonday, 1)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d: %v", len(slots), slots)
	}
	if slots[0].Start != NewTimeOfDay(9, 0) || slots[0].End != NewTimeOfDay(9, 50) {
		t.Fatalf("expected 09:00-09:50, got %s-%s", slots[0].Start, slots[0].End)
	}
	if slots[0].Date != "2026-09-07" {
		t.Fatalf("expected date 2026-09-07, got %s", slots[0].Date)
	}
}

func TestGenerateSlotsWalksFullWindow(t *testing.T) {
	in := SlotInputs{
		Location: time.UTC,
		Rules:    []AvailabilityRule{utcRule(0, NewTimeOfDay(9, 0), NewTimeOfDay(12, 0), 50, 10)},
	}

	slots := GenerateSlots(in, testMonday, 1)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d: %v", len(slots), slots)
	}
	wantStarts := []TimeOfDay{NewTimeOfDay(9, 0), NewTimeOfDay(10, 0), NewTimeOfDay(11, 0)}
	for i, want := range wantStarts {
		if slots[i].Start != want {
			t.Fatalf("slot %d: expected start %s, got %s", i, want, slots[i].Start)
		}
	}
}

func TestGenerateSlotsSkipsBlackoutDates(t *testing.T) {
	in := SlotInputs{
		Location:  time.UTC,
		Rules:     []AvailabilityRule{utcRule(0, NewTimeOfDay(9, 0), NewTimeOfDay(12, 0), 50, 10)},
		Blackouts: map[string]bool{"2026-09-07": true},
	}

	if slots := GenerateSlots(in, testMonday, 1); len(slots) != 0 {
		t.Fatalf("expected no slots on a blackout date, got %d", len(slots))
	}

	// The following Monday is not blacked out.
	slots := GenerateSlots(in, testMonday, 8)
	for _, s := range slots {
		if s.Date == "2026-09-07" {
			t.Fatalf("blackout date leaked into output: %v", s)
		}
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots on 2026-09-14, got %d", len(slots))
	}
}

func TestGenerateSlotsExcludesBookedWindows(t *testing.T) {
	booked := Appointment{
		Start:  time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.September, 7, 10, 50, 0, 0, time.UTC),
		Status: StatusConfirmed,
	}
	in := SlotInputs{
		Location:     time.UTC,
		Rules:        []AvailabilityRule{utcRule(0, NewTimeOfDay(9, 0), NewTimeOfDay(12, 0), 50, 10)},
		Appointments: []Appointment{booked},
	}

	slots := GenerateSlots(in, testMonday, 1)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots after exclusion, got %d: %v", len(slots), slots)
	}
	for _, s := range slots {
		if s.Start == NewTimeOfDay(10, 0) {
			t.Fatalf("booked window 10:00 still offered")
		}
	}
}

func TestGenerateSlotsIgnoresCancelledAppointments(t *testing.T) {
	cancelled := Appointment{
		Start:  time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.September, 7, 10, 50, 0, 0, time.UTC),
		Status: StatusCancelled,
	}
	in := SlotInputs{
		Location:     time.UTC,
		Rules:        []AvailabilityRule{utcRule(0, NewTimeOfDay(9, 0), NewTimeOfDay(12, 0), 50, 10)},
		Appointments: []Appointment{cancelled},
	}

	if slots := GenerateSlots(in, testMonday, 1); len(slots) != 3 {
		t.Fatalf("cancelled appointment should free its window, got %d slots", len(slots))
	}
}

func TestGenerateSlotsBackToBackDoesNotConflict(t *testing.T) {
	// An appointment ending exactly at a candidate's start shares only the
	// boundary instant; half-open intervals do not overlap there.
	adjacent := Appointment{
		Start:  time.Date(2026, time.September, 7, 8, 10, 0, 0, time.UTC),
		End:    time.Date(2026, time.September, 7, 9, 0, 0, 0, time.UTC),
		Status: StatusScheduled,
	}
	in := SlotInputs{
		Location:     time.UTC,
		Rules:        []AvailabilityRule{utcRule(0, NewTimeOfDay(9, 0), NewTimeOfDay(10, 0), 50, 10)},
		Appointments: []Appointment{adjacent},
	}

	slots := GenerateSlots(in, testMonday, 1)
	if len(slots) != 1 || slots[0].Start != NewTimeOfDay(9, 0) {
		t.Fatalf("expected back-to-back 09:00 slot, got %v", slots)
	}
}

func TestGenerateSlotsDeduplicatesOverlappingRules(t *testing.T) {
	in := SlotInputs{
		Location: time.UTC,
		Rules: []AvailabilityRule{
			utcRule(0, NewTimeOfDay(9, 0), NewTimeOfDay(11, 0), 50, 10),
			utcRule(0, NewTimeOfDay(9, 0), NewTimeOfDay(12, 0), 50, 10),
		},
	}

	slots := GenerateSlots(in, testMonday, 1)
	seen := make(map[string]bool)
	for _, s := range slots {
		key := s.Date + s.Start.String() + s.End.String()
		if seen[key] {
			t.Fatalf("duplicate slot emitted: %v", s)
		}
		seen[key] = true
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 distinct slots, got %d: %v", len(slots), slots)
	}
}

func TestGenerateSlotsSkipsInactiveRules(t *testing.T) {
	rule := utcRule(0, NewTimeOfDay(9, 0), NewTimeOfDay(12, 0), 50, 10)
	rule.Active = false

	in := SlotInputs{Location: time.UTC, Rules: []AvailabilityRule{rule}}
	if slots := GenerateSlots(in, testMonday, 7); len(slots) != 0 {
		t.Fatalf("inactive rule produced slots: %v", slots)
	}
}

func TestGenerateSlotsLocalZoneCandidates(t *testing.T) {
	// A 14:00 Sao Paulo candidate is 17:00 UTC; a booking stored at that UTC
	// instant must suppress it.
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}

	booked := Appointment{
		Start:  time.Date(2026, time.September, 7, 17, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.September, 7, 17, 50, 0, 0, time.UTC),
		Status: StatusScheduled,
	}
	in := SlotInputs{
		Location:     loc,
		Rules:        []AvailabilityRule{utcRule(0, NewTimeOfDay(14, 0), NewTimeOfDay(16, 0), 50, 10)},
		Appointments: []Appointment{booked},
	}

	slots := GenerateSlots(in, time.Date(2026, time.September, 7, 0, 0, 0, 0, loc), 1)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d: %v", len(slots), slots)
	}
	if slots[0].Start != NewTimeOfDay(15, 0) {
		t.Fatalf("expected only the 15:00 local slot, got %s", slots[0].Start)
	}
}

func TestMondayWeekday(t *testing.T) {
	cases := []struct {
		day  time.Time
		want int
	}{
		{testMonday, 0},
		{testMonday.AddDate(0, 0, 5), 5}, // Saturday
		{testMonday.AddDate(0, 0, 6), 6}, // Sunday
	}
	for _, c := range cases {
		if got := MondayWeekday(c.day); got != c.want {
			t.Fatalf("MondayWeekday(%s) = %d, want %d", c.day.Format("2006-01-02"), got, c.want)
		}
	}
}
