package optimizer

import (
	"cmp"
	"context"
	"fmt"
	"itinerary-service/internal/domain"
	"math"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// Input is everything one optimization run needs, already resolved by the caller.
type Input struct {
	// Stops is ordered [start, ...middle, end]; start and end never move.
	Stops  []domain.Stop
	Matrix *domain.TravelMatrix
	// Windows maps stop ID to its ideal window. Missing entries mean no penalty.
	Windows map[string]*domain.IdealVisitWindow
	// Date is the calendar day departures are placed on.
	Date time.Time
}

// Optimize finds the best orderings of the intermediate stops and the best
// departure time for each of the top K, returning schedules by ascending TotalScore.
//
// The run is a pure function of its inputs: no state survives the call and
// identical inputs give identical results. Enumeration checks ctx between
// orderings, so a caller may abandon a long run by cancelling it.
func Optimize(ctx context.Context, in Input, cfg Config) ([]domain.Schedule, error) {
	res, err := Run(ctx, in, cfg)
	if err != nil {
		return nil, err
	}
	return res.Schedules, nil
}

// Result is the outcome of Run.
type Result struct {
	Schedules []domain.Schedule
	// Evaluated is the number of orderings actually scored, which can be
	// below the CheckSize bound for search-based generators.
	Evaluated int
}

// Run is Optimize that also reports how much of the search space was scored.
func Run(ctx context.Context, in Input, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("optimize: %w", err)
	}

	tl, err := NewTimeline(in, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("optimize: %w", err)
	}

	n := len(in.Stops)
	middle := middleIndices(n)
	gen := cfg.generator()

	count, err := CheckSize(n, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("optimize: %w", err)
	}

	scored, err := scoreOrderings(ctx, gen, in.Matrix, middle, cfg, count)
	if err != nil {
		return Result{}, fmt.Errorf("optimize: %w", err)
	}
	if len(scored) == 0 {
		return Result{}, fmt.Errorf("optimize: generator produced no orderings")
	}

	RankRoutes(scored)

	scores := make([]float64, len(scored))
	for i, s := range scored {
		scores[i] = s.BaseScore
	}
	rate := PenaltyRate(scores, cfg)

	top := scored[:min(cfg.TopK, len(scored))]
	schedules := make([]domain.Schedule, len(top))

	g, gctx := errgroup.WithContext(ctx)
	for i, sr := range top {
		g.Go(func() error {
			s, err := BestDeparture(gctx, sr, tl, rate)
			if err != nil {
				return err
			}
			schedules[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("optimize: %w", err)
	}

	// Stable sort keeps ranking order among equal totals.
	slices.SortStableFunc(schedules, func(a, b domain.Schedule) int {
		return cmp.Compare(a.TotalScore, b.TotalScore)
	})

	return Result{Schedules: schedules, Evaluated: len(scored)}, nil
}

// scoreOrderings drains the generator, scoring each ordering as it is produced.
func scoreOrderings(
	ctx context.Context,
	gen OrderingGenerator,
	matrix *domain.TravelMatrix,
	middle []int,
	cfg Config,
	count uint64,
) ([]domain.ScoredRoute, error) {
	n := matrix.Size()
	space := SearchSpace{
		Matrix: matrix,
		Middle: middle,
		Cost: func(r domain.Route) float64 {
			sr, err := ScoreRoute(r, matrix, cfg)
			if err != nil {
				return math.Inf(1)
			}
			return sr.BaseScore
		},
	}

	scored := make([]domain.ScoredRoute, 0, min(count, 4096))
	seq := 0
	for ordering := range gen.Orderings(ctx, space) {
		sr, err := ScoreRoute(buildRoute(n, ordering), matrix, cfg)
		if err != nil {
			return nil, err
		}
		sr.Seq = seq
		seq++
		scored = append(scored, sr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return scored, nil
}

// CheckSize reports how many orderings cfg's generator would score for a trip
// of n stops. It fails with a *TooLargeError when that exceeds cfg.MaxOrderings,
// so callers can reject a trip before fetching its matrix.
func CheckSize(n int, cfg Config) (uint64, error) {
	m := max(n-2, 0)
	count, ok := cfg.generator().Candidates(m)
	if !ok || count > cfg.MaxOrderings {
		return count, &TooLargeError{
			Middle:    m,
			Orderings: count,
			Overflow:  !ok,
			Limit:     cfg.MaxOrderings,
		}
	}
	return count, nil
}
