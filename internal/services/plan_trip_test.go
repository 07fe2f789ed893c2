package services

import (
	"context"
	"errors"
	"itinerary-service/internal/adapters/distance"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/metrics"
	"itinerary-service/internal/optimizer"
	"itinerary-service/internal/ports"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type memoryRepo struct {
	mu          sync.Mutex
	trips       map[string]*domain.Trip
	itineraries map[string][]domain.Itinerary
}

func newMemoryRepo(trips ...*domain.Trip) *memoryRepo {
	r := &memoryRepo{trips: map[string]*domain.Trip{}, itineraries: map[string][]domain.Itinerary{}}
	for _, t := range trips {
		r.trips[t.ID] = t
	}
	return r
}

func (r *memoryRepo) ListTrips(ctx context.Context) ([]*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Trip, 0, len(r.trips))
	for _, t := range r.trips {
		out = append(out, t)
	}
	return out, nil
}

func (r *memoryRepo) GetTrip(ctx context.Context, id string) (*domain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[id]
	if !ok {
		return nil, ports.ErrTripNotFound
	}
	return t, nil
}

func (r *memoryRepo) CreateTrip(ctx context.Context, trip *domain.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trips[trip.ID] = trip
	return nil
}

func (r *memoryRepo) SaveItineraries(ctx context.Context, tripID string, its []domain.Itinerary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.itineraries[tripID] = its
	return nil
}

func (r *memoryRepo) ListItineraries(ctx context.Context, tripID string) ([]domain.Itinerary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.itineraries[tripID], nil
}

type countingMatrix struct {
	inner ports.TravelMatrixProvider
	calls int32
}

func (c *countingMatrix) TravelMatrix(ctx context.Context, stops []domain.Stop) (*domain.TravelMatrix, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.inner.TravelMatrix(ctx, stops)
}

type stubWindows struct {
	windows map[string]*domain.IdealVisitWindow
	err     error
}

func (s stubWindows) IdealWindows(ctx context.Context, stops []domain.Stop, date time.Time) (map[string]*domain.IdealVisitWindow, error) {
	return s.windows, s.err
}

// failingNarrator fails for schedules whose first visited stop has the given index.
type failingNarrator struct{ failFirst int }

func (f failingNarrator) Describe(ctx context.Context, trip *domain.Trip, s domain.Schedule) (string, error) {
	if s.Route[1] == f.failFirst {
		return "", errors.New("model unavailable")
	}
	return "narrated", nil
}

func uniformTrip(ids ...string) (*domain.Trip, *distance.StaticMatrixProvider) {
	zero := 0
	trip := &domain.Trip{
		ID:   "trip-1",
		Name: "Errands",
		Date: time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC),
	}
	var pairs []distance.StaticPair
	for _, a := range ids {
		trip.Stops = append(trip.Stops, domain.Stop{ID: a, Name: "Stop " + a, VisitDurationMinutes: &zero})
		for _, b := range ids {
			if a != b {
				pairs = append(pairs, distance.StaticPair{From: a, To: b, Meters: 5000, Seconds: 600})
			}
		}
	}
	return trip, distance.NewStaticMatrixProvider(pairs)
}

func TestPlanTripNarratesAndStores(t *testing.T) {
	trip, provider := uniformTrip("S", "A", "B", "E")
	repo := newMemoryRepo(trip)

	its, err := PlanTrip(context.Background(), PlanTripRequest{TripID: trip.ID}, PlanTripDeps{
		Repo:     repo,
		Matrix:   provider,
		Narrator: failingNarrator{failFirst: 2},
		Config:   optimizer.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(its) != 2 {
		t.Fatalf("got %d itineraries, want 2", len(its))
	}
	for i, it := range its {
		if it.Rank != i+1 || it.TripID != trip.ID || it.ID == "" {
			t.Fatalf("itinerary %d = %+v", i, it)
		}
		if it.Schedule.StartHour != 0 || it.Schedule.StartMinute != 0 {
			t.Fatalf("itinerary %d departs %02d:%02d, want 00:00", i, it.Schedule.StartHour, it.Schedule.StartMinute)
		}
	}
	if its[0].Narrative != "narrated" {
		t.Fatalf("rank 1 narrative = %q", its[0].Narrative)
	}
	if !strings.HasPrefix(its[1].Narrative, "Depart Stop S at 00:00") {
		t.Fatalf("rank 2 narrative = %q, want fallback", its[1].Narrative)
	}

	stored, _ := repo.ListItineraries(context.Background(), trip.ID)
	if len(stored) != 2 || stored[0].ID != its[0].ID {
		t.Fatalf("stored itineraries = %+v", stored)
	}
}

func TestPlanTripUsesInferredWindows(t *testing.T) {
	trip, provider := uniformTrip("S", "A", "B", "E")
	repo := newMemoryRepo(trip)

	its, err := PlanTrip(context.Background(), PlanTripRequest{TripID: trip.ID, TopK: 1}, PlanTripDeps{
		Repo:    repo,
		Matrix:  provider,
		Windows: stubWindows{windows: map[string]*domain.IdealVisitWindow{"A": {StartHour: 9, EndHour: 9}}},
		Config:  optimizer.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(its) != 1 {
		t.Fatalf("got %d itineraries, want 1", len(its))
	}
	s := its[0].Schedule
	// A is the first stop, 10 minutes out: the earliest penalty-free departure is 08:50.
	if s.StartHour != 8 || s.StartMinute != 50 || s.Penalty != 0 {
		t.Fatalf("departure %02d:%02d penalty %v, want 08:50 and 0", s.StartHour, s.StartMinute, s.Penalty)
	}
	if !strings.HasPrefix(its[0].Narrative, "Depart Stop S at 08:50") {
		t.Fatalf("narrative = %q", its[0].Narrative)
	}
}

func TestPlanTripDegradesWhenWindowsFail(t *testing.T) {
	trip, provider := uniformTrip("S", "A", "E")
	repo := newMemoryRepo(trip)

	its, err := PlanTrip(context.Background(), PlanTripRequest{TripID: trip.ID}, PlanTripDeps{
		Repo:    repo,
		Matrix:  provider,
		Windows: stubWindows{err: errors.New("quota exceeded")},
		Config:  optimizer.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(its) != 1 || its[0].Schedule.Penalty != 0 {
		t.Fatalf("itineraries = %+v", its)
	}
}

func TestPlanTripUnknownTrip(t *testing.T) {
	_, provider := uniformTrip("S", "E")

	_, err := PlanTrip(context.Background(), PlanTripRequest{TripID: "missing"}, PlanTripDeps{
		Repo:   newMemoryRepo(),
		Matrix: provider,
		Config: optimizer.DefaultConfig(),
	})
	if !errors.Is(err, ports.ErrTripNotFound) {
		t.Fatalf("err = %v, want ErrTripNotFound", err)
	}
}

func TestPlanTripRejectsLargeTripBeforeFetchingMatrix(t *testing.T) {
	trip, provider := uniformTrip("S", "1", "2", "3", "4", "5", "6", "7", "8", "9", "E")
	matrix := &countingMatrix{inner: provider}

	_, err := PlanTrip(context.Background(), PlanTripRequest{TripID: trip.ID}, PlanTripDeps{
		Repo:   newMemoryRepo(trip),
		Matrix: matrix,
		Config: optimizer.DefaultConfig(),
	})
	if !errors.Is(err, optimizer.ErrComputationTooLarge) {
		t.Fatalf("err = %v, want ErrComputationTooLarge", err)
	}
	if matrix.calls != 0 {
		t.Fatalf("matrix fetched %d times, want 0", matrix.calls)
	}

	its, err := PlanTrip(context.Background(), PlanTripRequest{TripID: trip.ID, Strategy: "heuristic", TopK: 1}, PlanTripDeps{
		Repo:   newMemoryRepo(trip),
		Matrix: matrix,
		Config: optimizer.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("heuristic plan: %v", err)
	}
	if len(its) != 1 {
		t.Fatalf("got %d itineraries, want 1", len(its))
	}
}

func orderingsEvaluated(t *testing.T) float64 {
	t.Helper()
	families, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "optimizer_orderings_evaluated_total" {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("orderings counter not registered")
	return 0
}

func TestPlanTripCountsScoredOrderings(t *testing.T) {
	metrics.RegisterDefault()
	trip, provider := uniformTrip("S", "A", "B", "E")

	before := orderingsEvaluated(t)
	_, err := PlanTrip(context.Background(), PlanTripRequest{TripID: trip.ID, Strategy: "heuristic"}, PlanTripDeps{
		Repo:   newMemoryRepo(trip),
		Matrix: provider,
		Config: optimizer.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	// Uniform edges: 2-opt keeps the nearest-neighbour seed, so one ordering is scored.
	if got := orderingsEvaluated(t) - before; got != 1 {
		t.Fatalf("orderings evaluated = %v, want 1", got)
	}
}

func TestPlanTripRejectsUnknownStrategy(t *testing.T) {
	trip, provider := uniformTrip("S", "E")

	_, err := PlanTrip(context.Background(), PlanTripRequest{TripID: trip.ID, Strategy: "annealing"}, PlanTripDeps{
		Repo:   newMemoryRepo(trip),
		Matrix: provider,
		Config: optimizer.DefaultConfig(),
	})
	if !errors.Is(err, optimizer.ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestFallbackNarrativeTwoStops(t *testing.T) {
	depart := time.Date(2025, 5, 3, 7, 30, 0, 0, time.UTC)
	trip := &domain.Trip{Stops: []domain.Stop{{ID: "S", Name: "Home"}, {ID: "E"}}}
	s := domain.Schedule{
		StartHour:   7,
		StartMinute: 30,
		ScoredRoute: domain.ScoredRoute{TotalDistance: 12000, TotalDuration: 900},
		Stops: []domain.ScheduledStop{
			{StopIndex: 0, StopID: "S", ArriveAt: depart, LeaveAt: depart},
			{StopIndex: 1, StopID: "E", ArriveAt: depart.Add(15 * time.Minute), LeaveAt: depart.Add(15 * time.Minute)},
		},
	}

	got := FallbackNarrative(trip, s)
	want := "Depart Home at 07:30, and arrive at E at 07:45. 12.0 km, 15 min of travel."
	if got != want {
		t.Fatalf("narrative = %q, want %q", got, want)
	}
}
