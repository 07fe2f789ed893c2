package optimizer

import (
	"fmt"
	"itinerary-service/internal/domain"
	"testing"
)

type pair struct {
	from, to int
	meters   float64
	seconds  float64
}

func matrixFromPairs(t *testing.T, n int, pairs []pair) *domain.TravelMatrix {
	t.Helper()

	rows := make([][]domain.TravelEdge, n)
	for i := range rows {
		rows[i] = make([]domain.TravelEdge, n)
	}
	for _, p := range pairs {
		rows[p.from][p.to] = domain.TravelEdge{DistanceMeters: p.meters, DurationSeconds: p.seconds}
	}

	m, err := domain.NewTravelMatrix(rows)
	if err != nil {
		t.Fatalf("build matrix: %v", err)
	}
	return m
}

func uniformMatrix(t *testing.T, n int, meters, seconds float64) *domain.TravelMatrix {
	t.Helper()

	var pairs []pair
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				pairs = append(pairs, pair{from: i, to: j, meters: meters, seconds: seconds})
			}
		}
	}
	return matrixFromPairs(t, n, pairs)
}

func namedStops(ids ...string) []domain.Stop {
	stops := make([]domain.Stop, 0, len(ids))
	for _, id := range ids {
		stops = append(stops, domain.Stop{ID: id, Name: fmt.Sprintf("Stop %s", id)})
	}
	return stops
}

func zeroVisit() *int {
	z := 0
	return &z
}
