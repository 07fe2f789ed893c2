package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidTrip = errors.New("invalid trip")

// Represents a planned outing: an ordered stop list [start, ...middle, end]
// and the calendar date it takes place on.
type Trip struct {
	ID        string
	Name      string
	Date      time.Time
	Stops     []Stop
	CreatedAt time.Time
}

// Validate checks what the planner relies on before a trip is stored.
// Errors wrap ErrInvalidTrip.
func (t *Trip) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidTrip)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is missing", ErrInvalidTrip)
	}
	if len(t.Stops) < 2 {
		return fmt.Errorf("%w: need a start and an end stop, got %d stops", ErrInvalidTrip, len(t.Stops))
	}

	seen := make(map[string]struct{}, len(t.Stops))
	for i, s := range t.Stops {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: stop #%d has no id", ErrInvalidTrip, i+1)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate stop id %q", ErrInvalidTrip, s.ID)
		}
		seen[s.ID] = struct{}{}

		if s.LocationKey() == "" {
			return fmt.Errorf("%w: stop %q has neither coordinates nor address", ErrInvalidTrip, s.ID)
		}
		if s.IdealWindow != nil {
			if err := s.IdealWindow.Validate(); err != nil {
				return fmt.Errorf("%w: stop %q: %v", ErrInvalidTrip, s.ID, err)
			}
		}
		if s.VisitDurationMinutes != nil && *s.VisitDurationMinutes < 0 {
			return fmt.Errorf("%w: stop %q has negative visit duration", ErrInvalidTrip, s.ID)
		}
	}

	return nil
}

// A ranked Schedule decorated with a human readable description.
// The narrative never influences ranking or scores.
type Itinerary struct {
	ID        string
	TripID    string
	Rank      int
	Schedule  Schedule
	Narrative string
	CreatedAt time.Time
}
