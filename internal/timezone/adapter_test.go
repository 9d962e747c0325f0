package timezone

import (
	"errors"
	"testing"
	"time"
)

func naive(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestToUTC_RoundTrip(t *testing.T) {
	a := NewAdapter()

	utc, err := a.ToUTC(naive(2026, time.March, 2, 14, 0), "America/Sao_Paulo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Sao Paulo has been fixed at UTC-3 since 2019.
	if got := utc.Format("2006-01-02 15:04"); got != "2026-03-02 17:00" {
		t.Fatalf("expected 2026-03-02 17:00 UTC, got %s", got)
	}

	local, err := a.ToLocal(utc, "America/Sao_Paulo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local.Hour() != 14 || local.Minute() != 0 {
		t.Fatalf("expected local 14:00, got %02d:%02d", local.Hour(), local.Minute())
	}
}

func TestToUTC_InvalidZone(t *testing.T) {
	a := NewAdapter()

	_, err := a.ToUTC(naive(2026, time.March, 2, 14, 0), "Mars/Olympus_Mons")
	if !errors.Is(err, ErrInvalidZone) {
		t.Fatalf("expected ErrInvalidZone, got %v", err)
	}

	_, err = a.ToLocal(time.Now(), "")
	if !errors.Is(err, ErrInvalidZone) {
		t.Fatalf("expected ErrInvalidZone for empty zone, got %v", err)
	}
}

func TestToUTC_SpringForwardGap(t *testing.T) {
	a := NewAdapter()

	// US spring forward 2026-03-08: 02:00-03:00 does not exist in New York.
	_, err := a.ToUTC(naive(2026, time.March, 8, 2, 30), "America/New_York")
	if !errors.Is(err, ErrAmbiguousLocalTime) {
		t.Fatalf("expected ErrAmbiguousLocalTime for gap, got %v", err)
	}
}

func TestToUTC_FallBackFold(t *testing.T) {
	a := NewAdapter()

	// US fall back 2026-11-01: 01:30 happens twice in New York.
	_, err := a.ToUTC(naive(2026, time.November, 1, 1, 30), "America/New_York")
	if !errors.Is(err, ErrAmbiguousLocalTime) {
		t.Fatalf("expected ErrAmbiguousLocalTime for fold, got %v", err)
	}

	// 03:30 the same day is unambiguous again.
	if _, err := a.ToUTC(naive(2026, time.November, 1, 3, 30), "America/New_York"); err != nil {
		t.Fatalf("unexpected error for unambiguous time: %v", err)
	}
}

func TestLocationCache(t *testing.T) {
	a := NewAdapter()

	first, err := a.Location("Europe/Lisbon")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := a.Location("Europe/Lisbon")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached *time.Location to be reused")
	}
}
