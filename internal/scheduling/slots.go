package scheduling

import (
	"sort"
	"time"
)

// SlotInputs is everything slot generation depends on. The engine is a pure
// function over these three inputs plus the professional's zone; it never
// caches, so a booking committed between two calls is reflected immediately.
type SlotInputs struct {
	Location     *time.Location
	Rules        []AvailabilityRule
	Blackouts    map[string]bool // local dates, YYYY-MM-DD
	Appointments []Appointment
}

// GenerateSlots derives the bookable windows for days consecutive local
// calendar dates starting at from (interpreted in in.Location).
//
// Per date: blackout dates are skipped entirely; every active rule for the
// date's weekday is walked in steps of session+break, emitting a candidate
// of session length while the candidate still ends inside the rule window;
// candidates overlapping a scheduled or confirmed appointment (half-open)
// are dropped. Output is sorted by (date, start) with duplicates from
// overlapping rules collapsed.
func GenerateSlots(in SlotInputs, from time.Time, days int) []Slot {
	var slots []Slot

	for i := 0; i < days; i++ {
		date := time.Date(from.Year(), from.Month(), from.Day()+i, 0, 0, 0, 0, in.Location)
		dateKey := date.Format("2006-01-02")

		if in.Blackouts[dateKey] {
			continue
		}

		weekday := MondayWeekday(date)

		for _, rule := range in.Rules {
			if !rule.Active || rule.Weekday != weekday {
				continue
			}
			if rule.SessionMin <= 0 {
				continue
			}

			step := TimeOfDay(rule.SessionMin + rule.BreakMin)
			session := TimeOfDay(rule.SessionMin)

			for start := rule.StartTime; start+session <= rule.EndTime; start += step {
				end := start + session

				slotStart := time.Date(date.Year(), date.Month(), date.Day(),
					start.Hour(), start.Minute(), 0, 0, in.Location).UTC()
				slotEnd := slotStart.Add(time.Duration(rule.SessionMin) * time.Minute)

				if hasActiveOverlap(in.Appointments, slotStart, slotEnd) {
					continue
				}

				slots = append(slots, Slot{
					Date:       dateKey,
					Start:      start,
					End:        end,
					SessionMin: rule.SessionMin,
				})
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		if slots[i].Start != slots[j].Start {
			return slots[i].Start < slots[j].Start
		}
		return slots[i].End < slots[j].End
	})

	return dedupeSlots(slots)
}

func hasActiveOverlap(appointments []Appointment, start, end time.Time) bool {
	for _, a := range appointments {
		if a.Status != StatusScheduled && a.Status != StatusConfirmed {
			continue
		}
		if a.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func dedupeSlots(slots []Slot) []Slot {
	if len(slots) < 2 {
		return slots
	}
	out := slots[:1]
	for _, s := range slots[1:] {
		last := out[len(out)-1]
		if s.Date == last.Date && s.Start == last.Start && s.End == last.End {
			continue
		}
		out = append(out, s)
	}
	return out
}
