package ports

import (
	"context"
	"itinerary-service/internal/domain"
)

// Distance and travel duration between two locations.
type DistanceResult struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Contract for retrieving the complete travel matrix for an ordered stop list.
// Implementations must return an N×N matrix or an error; partial matrices are not allowed.
type TravelMatrixProvider interface {
	TravelMatrix(ctx context.Context, stops []domain.Stop) (*domain.TravelMatrix, error)
}

// Persistent store of origin->destination results, keyed by location key.
type DistanceCache interface {
	// Fetch cached distances for one origin and multiple destinations. Misses are omitted.
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]DistanceResult, error)
	// Store many cached distance results for a single origin.
	PutMany(ctx context.Context, origin string, results map[string]DistanceResult) error
}

// Persistent store of geocoded addresses.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, coords map[string]domain.Coordinates) error
}
