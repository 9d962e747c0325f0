package timezone

import (
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrInvalidZone        = errors.New("unrecognized IANA time zone")
	ErrAmbiguousLocalTime = errors.New("local time is ambiguous or does not exist in this zone")
)

// Adapter converts between a professional's local wall-clock time and the
// UTC instants everything is stored and compared in. Conversion happens
// exactly once per boundary crossing; nothing inside the core ever holds a
// local time.
type Adapter struct {
	locations *lru.Cache[string, *time.Location]
}

func NewAdapter() *Adapter {
	// LoadLocation reads tzdata from disk; professionals cluster around a
	// handful of zones, so a small cache covers nearly every lookup.
	cache, _ := lru.New[string, *time.Location](64)
	return &Adapter{locations: cache}
}

func (a *Adapter) Location(name string) (*time.Location, error) {
	if name == "" {
		return nil, ErrInvalidZone
	}
	if loc, ok := a.locations.Get(name); ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrInvalidZone
	}
	a.locations.Add(name, loc)
	return loc, nil
}

// ToUTC interprets the wall-clock fields of naive (year through minute) in
// the given zone and returns the corresponding UTC instant.
//
// Local times swallowed by a DST spring-forward gap, or repeated by a
// fall-back fold, are rejected with ErrAmbiguousLocalTime instead of
// silently picking an offset.
func (a *Adapter) ToUTC(naive time.Time, zone string) (time.Time, error) {
	loc, err := a.Location(zone)
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(naive.Year(), naive.Month(), naive.Day(), naive.Hour(), naive.Minute(), 0, 0, loc)

	// time.Date normalizes times inside a gap to the other side of it, so a
	// failed round-trip of the wall-clock fields means the input never
	// existed on this zone's clock.
	if !sameWallClock(t, naive) {
		return time.Time{}, ErrAmbiguousLocalTime
	}

	// During a fold the same wall clock names two instants one hour apart.
	if sameWallClock(t.Add(-time.Hour), naive) || sameWallClock(t.Add(time.Hour), naive) {
		return time.Time{}, ErrAmbiguousLocalTime
	}

	return t.UTC(), nil
}

// ToLocal renders a stored UTC instant on the zone's wall clock.
func (a *Adapter) ToLocal(utc time.Time, zone string) (time.Time, error) {
	loc, err := a.Location(zone)
	if err != nil {
		return time.Time{}, err
	}
	return utc.In(loc), nil
}

func sameWallClock(t, naive time.Time) bool {
	return t.Year() == naive.Year() &&
		t.Month() == naive.Month() &&
		t.Day() == naive.Day() &&
		t.Hour() == naive.Hour() &&
		t.Minute() == naive.Minute()
}
