package optimizer

import (
	"fmt"
	"itinerary-service/internal/domain"
	"math"
)

// ScoreRoute sums distance and duration over every consecutive edge of the route
// and folds them into a single travel-cost score.
//
// Distance is converted to a duration-equivalent with cfg.MetersToSeconds. With
// both weights enabled the score is the mean of the two; otherwise it is the
// enabled one alone.
func ScoreRoute(route domain.Route, matrix *domain.TravelMatrix, cfg Config) (domain.ScoredRoute, error) {
	if !cfg.UseDistance && !cfg.UseDuration {
		return domain.ScoredRoute{}, fmt.Errorf("score route: %w: no scoring weight enabled", ErrInvalidConfiguration)
	}

	n := matrix.Size()
	var totalDistance, totalDuration float64
	for i := 1; i < len(route); i++ {
		from, to := route[i-1], route[i]
		if from < 0 || from >= n || to < 0 || to >= n {
			return domain.ScoredRoute{}, fmt.Errorf("score route: %w: edge %d->%d outside %dx%d matrix", ErrInvalidInput, from, to, n, n)
		}
		e := matrix.Edge(from, to)
		totalDistance += e.DistanceMeters
		totalDuration += e.DurationSeconds
	}

	score := baseScore(totalDistance, totalDuration, cfg)
	if !finite(totalDistance) || !finite(totalDuration) || !finite(score) {
		return domain.ScoredRoute{}, fmt.Errorf("score route: %w: route %v totals overflow", ErrInvalidInput, route)
	}

	return domain.ScoredRoute{
		Route:         route,
		TotalDistance: totalDistance,
		TotalDuration: totalDuration,
		BaseScore:     score,
	}, nil
}

func baseScore(totalDistance, totalDuration float64, cfg Config) float64 {
	distanceAsDuration := totalDistance * cfg.MetersToSeconds
	switch {
	case cfg.UseDistance && cfg.UseDuration:
		return (distanceAsDuration + totalDuration) / 2
	case cfg.UseDistance:
		return distanceAsDuration
	default:
		return totalDuration
	}
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
