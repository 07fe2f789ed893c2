package optimizer

import (
	"errors"
	"itinerary-service/internal/domain"
	"testing"
)

func TestScoreRouteCombined(t *testing.T) {
	m := matrixFromPairs(t, 3, []pair{
		{0, 1, 4000, 500},
		{1, 2, 6000, 700},
	})

	sr, err := ScoreRoute(domain.Route{0, 1, 2}, m, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sr.TotalDistance != 10000 {
		t.Fatalf("distance = %v, want 10000", sr.TotalDistance)
	}
	if sr.TotalDuration != 1200 {
		t.Fatalf("duration = %v, want 1200", sr.TotalDuration)
	}
	if sr.BaseScore != 900 {
		t.Fatalf("base score = %v, want 900", sr.BaseScore)
	}
}

func TestScoreRouteSingleWeight(t *testing.T) {
	m := matrixFromPairs(t, 2, []pair{{0, 1, 10000, 1200}})

	cfg := DefaultConfig()
	cfg.UseDuration = false
	sr, err := ScoreRoute(domain.Route{0, 1}, m, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sr.BaseScore != 600 {
		t.Fatalf("distance-only score = %v, want 600", sr.BaseScore)
	}

	cfg = DefaultConfig()
	cfg.UseDistance = false
	sr, err = ScoreRoute(domain.Route{0, 1}, m, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sr.BaseScore != 1200 {
		t.Fatalf("duration-only score = %v, want 1200", sr.BaseScore)
	}
}

func TestScoreRouteRejectsNoWeights(t *testing.T) {
	m := matrixFromPairs(t, 2, []pair{{0, 1, 10000, 1200}})

	cfg := DefaultConfig()
	cfg.UseDistance = false
	cfg.UseDuration = false

	_, err := ScoreRoute(domain.Route{0, 1}, m, cfg)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestScoreRouteRejectsOutOfRangeIndex(t *testing.T) {
	m := matrixFromPairs(t, 2, []pair{{0, 1, 1, 1}})

	_, err := ScoreRoute(domain.Route{0, 5}, m, DefaultConfig())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestScoreRouteRejectsOverflowingTotals(t *testing.T) {
	m := matrixFromPairs(t, 3, []pair{
		{0, 1, 1e308, 1e308},
		{1, 2, 1e308, 1e308},
	})

	_, err := ScoreRoute(domain.Route{0, 1, 2}, m, DefaultConfig())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
