package ports

import (
	"context"
	"itinerary-service/internal/domain"
)

// Contract for describing a schedule in natural language. Purely decorative:
// callers substitute a fallback text on error.
type NarrativeGenerator interface {
	Describe(ctx context.Context, trip *domain.Trip, schedule domain.Schedule) (string, error)
}
