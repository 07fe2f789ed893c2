package domain

import (
	"fmt"
	"strings"
)

// Represents a single point of a trip: the start, an intermediate stop, or the end.
// Coordinates may be left zero when Address is set; matrix providers geocode it.
type Stop struct {
	ID                   string
	Name                 string
	Address              string
	Coordinates          Coordinates
	IdealWindow          *IdealVisitWindow
	VisitDurationMinutes *int
}

// LocationKey identifies the physical location of the stop for distance caching.
func (s Stop) LocationKey() string {
	if !s.Coordinates.IsZero() {
		return s.Coordinates.Key()
	}
	return strings.Join(strings.Fields(s.Address), " ")
}

// VisitMinutes returns the time spent at the stop, or fallback when unset.
func (s Stop) VisitMinutes(fallback int) int {
	if s.VisitDurationMinutes == nil {
		return fallback
	}
	return *s.VisitDurationMinutes
}

// An hour range [StartHour, EndHour] during which arriving at a stop is free of penalty.
// Both bounds are inclusive clock hours, so {9, 11} accepts arrivals from 09:00 to 11:59.
type IdealVisitWindow struct {
	StartHour int
	EndHour   int
}

func (w IdealVisitWindow) Validate() error {
	if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 23 {
		return fmt.Errorf("ideal window %d-%d: hours must be within 0..23", w.StartHour, w.EndHour)
	}
	if w.StartHour > w.EndHour {
		return fmt.Errorf("ideal window %d-%d: start hour after end hour", w.StartHour, w.EndHour)
	}
	return nil
}

// Contains reports whether an arrival in the given clock hour is inside the window.
func (w IdealVisitWindow) Contains(hour int) bool {
	return hour >= w.StartHour && hour <= w.EndHour
}

// DeviationHours returns how many hours the arrival hour lies before StartHour
// or after EndHour. It is zero inside the window.
func (w IdealVisitWindow) DeviationHours(hour int) int {
	switch {
	case hour < w.StartHour:
		return w.StartHour - hour
	case hour > w.EndHour:
		return hour - w.EndHour
	default:
		return 0
	}
}
