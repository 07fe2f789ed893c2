package ports

import (
	"context"
	"itinerary-service/internal/domain"
	"time"
)

// Contract for inferring ideal visit windows, keyed by stop ID.
// A stop missing from the result, or mapped to nil, has no window and costs no penalty.
type IdealWindowProvider interface {
	IdealWindows(ctx context.Context, stops []domain.Stop, date time.Time) (map[string]*domain.IdealVisitWindow, error)
}
