package distance

import (
	"context"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/ports"
)

type StaticPair struct {
	From, To string
	Meters   float64
	Seconds  float64
}

// StaticMatrixProvider serves a fixed set of pairs keyed by stop ID.
// Used by tests and by the offline CLI.
type StaticMatrixProvider struct {
	m map[string]ports.DistanceResult
}

func NewStaticMatrixProvider(pairs []StaticPair) *StaticMatrixProvider {
	m := make(map[string]ports.DistanceResult, len(pairs))
	for _, p := range pairs {
		m[p.From+"|"+p.To] = ports.DistanceResult{DistanceMeters: p.Meters, DurationSeconds: p.Seconds}
	}
	return &StaticMatrixProvider{m: m}
}

func (p *StaticMatrixProvider) TravelMatrix(ctx context.Context, stops []domain.Stop) (*domain.TravelMatrix, error) {
	rows := make([][]domain.TravelEdge, len(stops))
	for i, from := range stops {
		rows[i] = make([]domain.TravelEdge, len(stops))
		for j, to := range stops {
			if i == j {
				continue
			}
			r, ok := p.m[from.ID+"|"+to.ID]
			if !ok {
				return nil, fmt.Errorf("missing pair %q -> %q", from.ID, to.ID)
			}
			rows[i][j] = domain.TravelEdge{DistanceMeters: r.DistanceMeters, DurationSeconds: r.DurationSeconds}
		}
	}

	return domain.NewTravelMatrix(rows)
}
