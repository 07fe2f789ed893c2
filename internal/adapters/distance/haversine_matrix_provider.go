package distance

import (
	"context"
	"fmt"
	"itinerary-service/internal/domain"

	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371000.0

// HaversineMatrixProvider estimates travel from straight-line distance.
// It needs no network access and serves as the fallback when no routing
// service is configured. Every stop must carry coordinates.
type HaversineMatrixProvider struct {
	// SpeedKph is the assumed average travel speed.
	SpeedKph float64
	// RoadFactor scales great-circle distance to approximate road distance.
	RoadFactor float64
}

func NewHaversineMatrixProvider(speedKph, roadFactor float64) *HaversineMatrixProvider {
	if speedKph <= 0 {
		speedKph = 50
	}
	if roadFactor < 1 {
		roadFactor = 1.3
	}
	return &HaversineMatrixProvider{SpeedKph: speedKph, RoadFactor: roadFactor}
}

func (h *HaversineMatrixProvider) TravelMatrix(
	ctx context.Context,
	stops []domain.Stop,
) (*domain.TravelMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	points := make([]s2.LatLng, len(stops))
	for i, s := range stops {
		if s.Coordinates.IsZero() {
			return nil, fmt.Errorf("haversine travel matrix: stop %q has no coordinates", s.ID)
		}
		points[i] = s2.LatLngFromDegrees(s.Coordinates.Lat, s.Coordinates.Lon)
	}

	metersPerSecond := h.SpeedKph * 1000 / 3600
	rows := make([][]domain.TravelEdge, len(stops))
	for i := range points {
		rows[i] = make([]domain.TravelEdge, len(stops))
		for j := range points {
			if i == j {
				continue
			}
			meters := points[i].Distance(points[j]).Radians() * earthRadiusMeters * h.RoadFactor
			rows[i][j] = domain.TravelEdge{
				DistanceMeters:  meters,
				DurationSeconds: meters / metersPerSecond,
			}
		}
	}

	return domain.NewTravelMatrix(rows)
}
