package domain

import "time"

// An ordering of stop indices. Index 0 (start) and the last index (end) never move;
// only the middle is permuted.
type Route []int

// Middle returns the permutable part of the route.
func (r Route) Middle() []int {
	if len(r) <= 2 {
		return nil
	}
	return r[1 : len(r)-1]
}

// A Route with its aggregate travel metrics and travel-cost score.
// BaseScore is deterministic given the matrix and the scoring weights.
// Seq records the enumeration order and is the last tie-breaker when ranking.
type ScoredRoute struct {
	Route         Route
	TotalDistance float64
	TotalDuration float64
	BaseScore     float64
	Seq           int
}

// Represents arriving at and leaving one stop in a simulated departure.
type ScheduledStop struct {
	StopIndex      int
	StopID         string
	ArriveAt       time.Time
	LeaveAt        time.Time
	DeviationHours int
}

// A ScoredRoute bound to a concrete departure time.
// TotalScore is BaseScore plus the accumulated time-window penalty.
// It is immutable planning data and contains no side effects.
type Schedule struct {
	ScoredRoute
	StartHour   int
	StartMinute int
	DepartAt    time.Time
	Penalty     float64
	TotalScore  float64
	Stops       []ScheduledStop
}
