package optimizer

import "slices"

// PenaltyRate converts hours of deviation from an ideal window into score units.
//
// rate = mean(scores)*WeightAvg + (max(scores)-min(scores))*WeightSpread
//
// It must be computed once per run over every scored route so candidates stay comparable.
func PenaltyRate(scores []float64, cfg Config) float64 {
	if len(scores) == 0 {
		return 0
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	spread := slices.Max(scores) - slices.Min(scores)

	return mean*cfg.WeightAvg + spread*cfg.WeightSpread
}
