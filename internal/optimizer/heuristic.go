package optimizer

import (
	"context"
	"iter"
	"itinerary-service/internal/domain"
	"math"
	"slices"
)

const defaultTwoOptPasses = 50

// HeuristicGenerator replaces exhaustive search for large stop lists.
//
// It seeds an ordering with a greedy nearest-neighbor walk from the start stop,
// then applies first-improvement 2-opt with the endpoints fixed. It yields the
// seed and, when different, the improved ordering, so ranking still has a choice.
// The result is deterministic but not guaranteed optimal.
type HeuristicGenerator struct {
	// MaxPasses bounds the 2-opt improvement loop; zero means 50.
	MaxPasses int
}

func (HeuristicGenerator) Candidates(m int) (uint64, bool) {
	if m <= 1 {
		return 1, true
	}
	return 2, true
}

func (h HeuristicGenerator) Orderings(ctx context.Context, space SearchSpace) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if ctx.Err() != nil {
			return
		}

		seed := nearestNeighborOrder(space.Matrix, space.Middle)
		if !yield(slices.Clone(seed)) || len(seed) < 2 || space.Cost == nil {
			return
		}

		improved := h.improve(ctx, space, seed)
		if ctx.Err() != nil || slices.Equal(improved, seed) {
			return
		}
		yield(improved)
	}
}

// nearestNeighborOrder visits the middle stops greedily by travel duration.
// Ties fall back to distance, then to the lower stop index.
func nearestNeighborOrder(m *domain.TravelMatrix, middle []int) []int {
	remaining := slices.Clone(middle)
	slices.Sort(remaining)

	order := make([]int, 0, len(middle))
	current := 0
	for len(remaining) > 0 {
		best := -1
		bestDuration, bestDistance := math.Inf(1), math.Inf(1)

		for i, d := range remaining {
			e := m.Edge(current, d)
			if e.DurationSeconds < bestDuration || (e.DurationSeconds == bestDuration && e.DistanceMeters < bestDistance) {
				best = i
				bestDuration = e.DurationSeconds
				bestDistance = e.DistanceMeters
			}
		}

		current = remaining[best]
		order = append(order, current)
		remaining = slices.Delete(remaining, best, best+1)
	}

	return order
}

// improve runs 2-opt over the middle of the route. Costs are recomputed in full
// for each candidate, so asymmetric matrices are handled correctly.
func (h HeuristicGenerator) improve(ctx context.Context, space SearchSpace, seed []int) []int {
	passes := h.MaxPasses
	if passes <= 0 {
		passes = defaultTwoOptPasses
	}

	n := space.Matrix.Size()
	best := slices.Clone(seed)
	bestCost := space.Cost(buildRoute(n, best))

	for pass := 0; pass < passes; pass++ {
		improved := false
		for i := 0; i < len(best)-1; i++ {
			for k := i + 1; k < len(best); k++ {
				if ctx.Err() != nil {
					return best
				}
				candidate := twoOptSwap(best, i, k)
				c := space.Cost(buildRoute(n, candidate))
				if c+1e-9 < bestCost {
					best = candidate
					bestCost = c
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}

	return best
}

func twoOptSwap(ord []int, i, k int) []int {
	out := make([]int, len(ord))
	copy(out, ord[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = ord[j]
		pos++
	}
	copy(out[pos:], ord[k+1:])
	return out
}
