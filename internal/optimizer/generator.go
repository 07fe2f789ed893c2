package optimizer

import (
	"context"
	"iter"
	"itinerary-service/internal/domain"
	"math/bits"
	"slices"
)

// SearchSpace is what a generator needs to propose orderings of the middle stops.
type SearchSpace struct {
	Matrix *domain.TravelMatrix
	Middle []int
	// Cost scores a complete route; lower is better.
	Cost func(domain.Route) float64
}

// OrderingGenerator proposes orderings of the intermediate stops.
//
// Candidates must be called before Orderings so callers can refuse a search
// that is too large. Orderings is lazy and single-pass: every call starts a
// fresh enumeration and stops as soon as ctx is cancelled.
type OrderingGenerator interface {
	// Candidates returns an upper bound on the orderings produced for m
	// intermediate stops; ok is false when the count does not fit in uint64.
	Candidates(m int) (count uint64, ok bool)
	Orderings(ctx context.Context, space SearchSpace) iter.Seq[[]int]
}

// ExhaustiveGenerator yields every distinct ordering of the middle exactly once.
type ExhaustiveGenerator struct{}

func (ExhaustiveGenerator) Candidates(m int) (uint64, bool) {
	return factorial(m)
}

// Orderings permutes by fixing one position and recursing on the rest.
// Each yielded slice is owned by the consumer.
func (ExhaustiveGenerator) Orderings(ctx context.Context, space SearchSpace) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		work := slices.Clone(space.Middle)
		permute(work, 0, func(p []int) bool {
			if ctx.Err() != nil {
				return false
			}
			return yield(slices.Clone(p))
		})
	}
}

func permute(a []int, k int, yield func([]int) bool) bool {
	if k == len(a) {
		return yield(a)
	}
	for i := k; i < len(a); i++ {
		a[k], a[i] = a[i], a[k]
		if !permute(a, k+1, yield) {
			return false
		}
		a[k], a[i] = a[i], a[k]
	}
	return true
}

func factorial(m int) (uint64, bool) {
	out := uint64(1)
	for i := 2; i <= m; i++ {
		hi, lo := bits.Mul64(out, uint64(i))
		if hi != 0 {
			return 0, false
		}
		out = lo
	}
	return out, true
}

// buildRoute frames a middle ordering with the fixed start and end indices.
func buildRoute(n int, middle []int) domain.Route {
	route := make(domain.Route, 0, n)
	route = append(route, 0)
	route = append(route, middle...)
	if n > 1 {
		route = append(route, n-1)
	}
	return route
}

func middleIndices(n int) []int {
	if n <= 2 {
		return []int{}
	}
	out := make([]int, 0, n-2)
	for i := 1; i < n-1; i++ {
		out = append(out, i)
	}
	return out
}
