package optimizer

import (
	"cmp"
	"itinerary-service/internal/domain"
	"slices"
)

// RankRoutes sorts routes in place, best (lowest BaseScore) first.
// Ties fall back to lower distance, lower duration, then enumeration order.
func RankRoutes(routes []domain.ScoredRoute) {
	slices.SortStableFunc(routes, compareScored)
}

func compareScored(a, b domain.ScoredRoute) int {
	if c := cmp.Compare(a.BaseScore, b.BaseScore); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TotalDistance, b.TotalDistance); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TotalDuration, b.TotalDuration); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}
