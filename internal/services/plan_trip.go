package services

import (
	"context"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/metrics"
	"itinerary-service/internal/optimizer"
	"itinerary-service/internal/platform/obs"
	"itinerary-service/internal/ports"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const narrativeConcurrency = 3

type PlanTripRequest struct {
	TripID string
	// TopK overrides the configured number of itineraries when positive.
	TopK int
	// Strategy is "exhaustive", "heuristic" or empty for the configured generator.
	Strategy string
}

// PlanTripDeps are the collaborators of PlanTrip. Windows and Narrator are optional.
type PlanTripDeps struct {
	Repo     ports.TripRepository
	Matrix   ports.TravelMatrixProvider
	Windows  ports.IdealWindowProvider
	Narrator ports.NarrativeGenerator
	Config   optimizer.Config
}

// PlanTrip computes, narrates and stores the best itineraries for a trip.
//
// Failures of the window provider or the narrator never fail the plan: the
// optimizer runs without inferred windows and narratives fall back to
// FallbackNarrative. Matrix and optimizer errors are returned wrapped.
func PlanTrip(ctx context.Context, req PlanTripRequest, deps PlanTripDeps) (_ []domain.Itinerary, err error) {
	defer obs.Time(ctx, "services.PlanTrip")(&err)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.ItinerariesPlanned.WithLabelValues(outcome).Inc()
	}()

	cfg, err := configFor(req, deps.Config)
	if err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}

	trip, err := deps.Repo.GetTrip(ctx, req.TripID)
	if err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}

	if _, err := optimizer.CheckSize(len(trip.Stops), cfg); err != nil {
		return nil, fmt.Errorf("plan trip %q: %w", trip.ID, err)
	}

	matrix, err := deps.Matrix.TravelMatrix(ctx, trip.Stops)
	if err != nil {
		return nil, fmt.Errorf("plan trip %q: travel matrix: %w", trip.ID, err)
	}

	windows := inferWindows(ctx, deps.Windows, trip)

	res, err := optimizer.Run(ctx, optimizer.Input{
		Stops:   trip.Stops,
		Matrix:  matrix,
		Windows: windows,
		Date:    trip.Date,
	}, cfg)
	if err != nil {
		return nil, fmt.Errorf("plan trip %q: %w", trip.ID, err)
	}
	metrics.OrderingsEvaluated.Add(float64(res.Evaluated))
	schedules := res.Schedules

	narratives := narrate(ctx, deps.Narrator, trip, schedules)

	now := time.Now().UTC()
	itineraries := make([]domain.Itinerary, len(schedules))
	for i, s := range schedules {
		itineraries[i] = domain.Itinerary{
			ID:        uuid.NewString(),
			TripID:    trip.ID,
			Rank:      i + 1,
			Schedule:  s,
			Narrative: narratives[i],
			CreatedAt: now,
		}
	}

	if err := deps.Repo.SaveItineraries(ctx, trip.ID, itineraries); err != nil {
		return nil, fmt.Errorf("plan trip %q: save itineraries: %w", trip.ID, err)
	}

	return itineraries, nil
}

func configFor(req PlanTripRequest, base optimizer.Config) (optimizer.Config, error) {
	cfg := base
	if req.TopK > 0 {
		cfg.TopK = req.TopK
	}

	switch strings.ToLower(strings.TrimSpace(req.Strategy)) {
	case "":
	case "exhaustive":
		cfg.Generator = optimizer.ExhaustiveGenerator{}
	case "heuristic":
		if _, ok := cfg.Generator.(optimizer.HeuristicGenerator); !ok {
			cfg.Generator = optimizer.HeuristicGenerator{}
		}
	default:
		return cfg, fmt.Errorf("%w: unknown strategy %q", optimizer.ErrInvalidConfiguration, req.Strategy)
	}

	return cfg, cfg.Validate()
}

// inferWindows returns nil when no provider is configured or inference fails.
func inferWindows(ctx context.Context, p ports.IdealWindowProvider, trip *domain.Trip) map[string]*domain.IdealVisitWindow {
	if p == nil {
		return nil
	}

	windows, err := p.IdealWindows(ctx, trip.Stops, trip.Date)
	if err != nil {
		metrics.WindowInferenceFailures.Inc()
		log.Printf("req_id=%s op=services.inferWindows trip=%s planning without inferred windows: %v", obs.RequestID(ctx), trip.ID, err)
		return nil
	}
	return windows
}

// narrate describes every schedule concurrently. Slot i always holds a narrative
// for schedules[i], falling back when the generator fails or is absent.
func narrate(ctx context.Context, n ports.NarrativeGenerator, trip *domain.Trip, schedules []domain.Schedule) []string {
	out := make([]string, len(schedules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(narrativeConcurrency)
	for i := range schedules {
		g.Go(func() error {
			if n != nil {
				text, err := n.Describe(gctx, trip, schedules[i])
				if err == nil && strings.TrimSpace(text) != "" {
					out[i] = text
					return nil
				}
				log.Printf("req_id=%s op=services.narrate trip=%s rank=%d using fallback: %v", obs.RequestID(ctx), trip.ID, i+1, err)
			}
			metrics.NarrativeFallbacks.Inc()
			out[i] = FallbackNarrative(trip, schedules[i])
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// FallbackNarrative describes a schedule without any external service.
func FallbackNarrative(trip *domain.Trip, s domain.Schedule) string {
	name := func(st domain.ScheduledStop) string {
		if st.StopIndex >= 0 && st.StopIndex < len(trip.Stops) && trip.Stops[st.StopIndex].Name != "" {
			return trip.Stops[st.StopIndex].Name
		}
		return st.StopID
	}

	if len(s.Stops) == 0 {
		return fmt.Sprintf("Depart at %02d:%02d.", s.StartHour, s.StartMinute)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Depart %s at %02d:%02d", name(s.Stops[0]), s.StartHour, s.StartMinute)
	last := len(s.Stops) - 1
	for i := 1; i < last; i++ {
		st := s.Stops[i]
		fmt.Fprintf(&sb, ", visit %s from %s to %s", name(st), st.ArriveAt.Format("15:04"), st.LeaveAt.Format("15:04"))
	}
	if last > 0 {
		fmt.Fprintf(&sb, ", and arrive at %s at %s", name(s.Stops[last]), s.Stops[last].ArriveAt.Format("15:04"))
	}
	fmt.Fprintf(&sb, ". %.1f km, %.0f min of travel.", s.TotalDistance/1000, s.TotalDuration/60)
	return sb.String()
}
