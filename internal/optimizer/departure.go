package optimizer

import (
	"context"
	"fmt"
	"itinerary-service/internal/domain"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	hoursPerDay    = 24
	minutesPerHour = 60
)

// Timeline holds the per-stop inputs of the departure simulation, indexed by stop position.
// It is read-only once built and shared by every candidate start time.
type Timeline struct {
	Matrix       *domain.TravelMatrix
	Windows      []*domain.IdealVisitWindow
	VisitSeconds []float64
	StopIDs      []string
	Date         time.Time
}

// NewTimeline validates the input and resolves windows and visit durations per stop.
// A window in in.Windows takes precedence over the stop's own window.
func NewTimeline(in Input, cfg Config) (Timeline, error) {
	n := len(in.Stops)
	if n < 2 {
		return Timeline{}, fmt.Errorf("%w: need at least 2 stops, got %d", ErrInvalidInput, n)
	}
	if in.Matrix == nil {
		return Timeline{}, fmt.Errorf("%w: travel matrix is nil", ErrInvalidInput)
	}
	if in.Matrix.Size() != n {
		return Timeline{}, fmt.Errorf("%w: travel matrix is %dx%d for %d stops", ErrInvalidInput, in.Matrix.Size(), in.Matrix.Size(), n)
	}

	tl := Timeline{
		Matrix:       in.Matrix,
		Windows:      make([]*domain.IdealVisitWindow, n),
		VisitSeconds: make([]float64, n),
		StopIDs:      make([]string, n),
		Date:         in.Date,
	}

	for i, s := range in.Stops {
		w := s.IdealWindow
		if override, ok := in.Windows[s.ID]; ok {
			w = override
		}
		if w != nil {
			if err := w.Validate(); err != nil {
				return Timeline{}, fmt.Errorf("%w: stop %q: %v", ErrInvalidInput, s.ID, err)
			}
			wc := *w
			tl.Windows[i] = &wc
		}

		minutes := s.VisitMinutes(cfg.DefaultVisitMinutes)
		if minutes < 0 {
			return Timeline{}, fmt.Errorf("%w: stop %q has negative visit duration %d", ErrInvalidInput, s.ID, minutes)
		}
		tl.VisitSeconds[i] = float64(minutes) * 60
		tl.StopIDs[i] = s.ID
	}

	return tl, nil
}

// Penalty simulates departing startSeconds after midnight and returns the
// accumulated window penalty. The clock is an elapsed-seconds offset; it is
// never mutated in place.
func (tl Timeline) Penalty(route domain.Route, startSeconds float64, rate float64) float64 {
	total := 0.0
	offset := startSeconds
	for i := 1; i < len(route); i++ {
		from, to := route[i-1], route[i]
		offset += tl.Matrix.Edge(from, to).DurationSeconds
		if w := tl.Windows[to]; w != nil {
			if dev := w.DeviationHours(clockHour(offset)); dev > 0 {
				total += float64(dev) * rate
			}
		}
		offset += tl.VisitSeconds[to]
	}
	return total
}

func clockHour(offset float64) int {
	return int(math.Floor(offset/3600)) % hoursPerDay
}

type departureCandidate struct {
	minute  int
	penalty float64
	total   float64
}

// BestDeparture scans all 1440 start times of the day and picks the one with the
// lowest penalty + BaseScore. Ties keep the earliest hour, then the earliest minute.
//
// Each hour is scanned by its own goroutine and the per-hour winners are reduced
// in hour order, which gives the same answer as a sequential scan.
func BestDeparture(ctx context.Context, route domain.ScoredRoute, tl Timeline, rate float64) (domain.Schedule, error) {
	var perHour [hoursPerDay]departureCandidate

	g, gctx := errgroup.WithContext(ctx)
	for h := 0; h < hoursPerDay; h++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			best := departureCandidate{total: math.Inf(1)}
			for m := 0; m < minutesPerHour; m++ {
				start := float64((h*minutesPerHour + m) * 60)
				p := tl.Penalty(route.Route, start, rate)
				if total := p + route.BaseScore; total < best.total {
					best = departureCandidate{minute: m, penalty: p, total: total}
				}
			}
			perHour[h] = best
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Schedule{}, fmt.Errorf("best departure: %w", err)
	}

	bestHour := 0
	for h := 1; h < hoursPerDay; h++ {
		if perHour[h].total < perHour[bestHour].total {
			bestHour = h
		}
	}
	win := perHour[bestHour]

	return tl.schedule(route, bestHour, win.minute, win.penalty), nil
}

// schedule replays the chosen departure to produce the stop timeline.
func (tl Timeline) schedule(route domain.ScoredRoute, hour, minute int, penalty float64) domain.Schedule {
	d := tl.Date
	departAt := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())
	start := float64((hour*minutesPerHour + minute) * 60)

	stops := make([]domain.ScheduledStop, 0, len(route.Route))
	if len(route.Route) > 0 {
		first := route.Route[0]
		stops = append(stops, domain.ScheduledStop{
			StopIndex: first,
			StopID:    tl.StopIDs[first],
			ArriveAt:  departAt,
			LeaveAt:   departAt,
		})
	}

	offset := start
	for i := 1; i < len(route.Route); i++ {
		from, to := route.Route[i-1], route.Route[i]
		offset += tl.Matrix.Edge(from, to).DurationSeconds
		arrive := departAt.Add(seconds(offset - start))

		dev := 0
		if w := tl.Windows[to]; w != nil {
			dev = w.DeviationHours(clockHour(offset))
		}

		offset += tl.VisitSeconds[to]
		stops = append(stops, domain.ScheduledStop{
			StopIndex:      to,
			StopID:         tl.StopIDs[to],
			ArriveAt:       arrive,
			LeaveAt:        departAt.Add(seconds(offset - start)),
			DeviationHours: dev,
		})
	}

	return domain.Schedule{
		ScoredRoute: route,
		StartHour:   hour,
		StartMinute: minute,
		DepartAt:    departAt,
		Penalty:     penalty,
		TotalScore:  penalty + route.BaseScore,
		Stops:       stops,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s)) * time.Second
}

