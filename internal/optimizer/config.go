package optimizer

import "fmt"

const (
	// DefaultMetersToSeconds converts distance into a duration-equivalent score.
	DefaultMetersToSeconds = 0.06
	// DefaultWeightAvg scales the mean base score into the penalty rate.
	DefaultWeightAvg = 0.004
	// DefaultWeightSpread scales the base score spread into the penalty rate.
	DefaultWeightSpread = 0.01
	// DefaultTopK is how many of the best orderings get a departure time.
	DefaultTopK = 3
	// DefaultVisitMinutes is the dwell time at a stop that does not specify one.
	DefaultVisitMinutes = 30
	// DefaultMaxOrderings is 8!, i.e. ten stops including start and end.
	DefaultMaxOrderings uint64 = 40320
)

// Config carries the scoring weights and search limits of one optimization run.
type Config struct {
	UseDistance bool
	UseDuration bool

	TopK                int
	WeightAvg           float64
	WeightSpread        float64
	MetersToSeconds     float64
	DefaultVisitMinutes int
	MaxOrderings        uint64

	// Generator enumerates candidate orderings; nil means ExhaustiveGenerator.
	Generator OrderingGenerator
}

// DefaultConfig scores by both distance and duration with the documented constants.
func DefaultConfig() Config {
	return Config{
		UseDistance:         true,
		UseDuration:         true,
		TopK:                DefaultTopK,
		WeightAvg:           DefaultWeightAvg,
		WeightSpread:        DefaultWeightSpread,
		MetersToSeconds:     DefaultMetersToSeconds,
		DefaultVisitMinutes: DefaultVisitMinutes,
		MaxOrderings:        DefaultMaxOrderings,
	}
}

func (c Config) Validate() error {
	if !c.UseDistance && !c.UseDuration {
		return fmt.Errorf("%w: at least one of distance or duration scoring must be enabled", ErrInvalidConfiguration)
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: top k must be at least 1, got %d", ErrInvalidConfiguration, c.TopK)
	}
	if c.WeightAvg < 0 || c.WeightSpread < 0 {
		return fmt.Errorf("%w: penalty weights must be non-negative (avg=%v spread=%v)", ErrInvalidConfiguration, c.WeightAvg, c.WeightSpread)
	}
	if c.MetersToSeconds < 0 {
		return fmt.Errorf("%w: meters to seconds must be non-negative, got %v", ErrInvalidConfiguration, c.MetersToSeconds)
	}
	if c.DefaultVisitMinutes < 0 {
		return fmt.Errorf("%w: default visit minutes must be non-negative, got %d", ErrInvalidConfiguration, c.DefaultVisitMinutes)
	}
	if c.MaxOrderings == 0 {
		return fmt.Errorf("%w: max orderings must be positive", ErrInvalidConfiguration)
	}
	return nil
}

func (c Config) generator() OrderingGenerator {
	if c.Generator == nil {
		return ExhaustiveGenerator{}
	}
	return c.Generator
}
