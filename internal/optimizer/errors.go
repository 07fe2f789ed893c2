package optimizer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a stop list or matrix the optimizer cannot work with.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfiguration reports scoring or ranking settings that make no sense.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrComputationTooLarge reports that exhaustive search exceeds the configured ceiling.
	ErrComputationTooLarge = errors.New("computation too large")
)

// TooLargeError carries the numbers behind ErrComputationTooLarge.
// Callers either trim the stop list or switch to HeuristicGenerator.
type TooLargeError struct {
	Middle    int
	Orderings uint64
	Overflow  bool
	Limit     uint64
}

func (e *TooLargeError) Error() string {
	if e.Overflow {
		return fmt.Sprintf("%s: %d intermediate stops overflow the ordering count (limit %d)", ErrComputationTooLarge, e.Middle, e.Limit)
	}
	return fmt.Sprintf("%s: %d intermediate stops yield %d orderings (limit %d)", ErrComputationTooLarge, e.Middle, e.Orderings, e.Limit)
}

func (e *TooLargeError) Is(target error) bool { return target == ErrComputationTooLarge }
