package ports

import (
	"context"
	"errors"
	"itinerary-service/internal/domain"
)

var ErrTripNotFound = errors.New("trip not found")

// Port: a boundary for storing trips and the itineraries planned for them.
type TripRepository interface {
	// Retrieve all trips, newest first, without their stops.
	ListTrips(ctx context.Context) ([]*domain.Trip, error)
	// Retrieve one trip with its ordered stops. Returns ErrTripNotFound when absent.
	GetTrip(ctx context.Context, id string) (*domain.Trip, error)
	// Persist a new trip and its stops; the ID is assigned when empty.
	CreateTrip(ctx context.Context, trip *domain.Trip) error
	// Replace the itineraries stored for a trip.
	SaveItineraries(ctx context.Context, tripID string, itineraries []domain.Itinerary) error
	// Retrieve the itineraries last stored for a trip, best first.
	ListItineraries(ctx context.Context, tripID string) ([]domain.Itinerary, error)
}
