// Command tripctl optimizes a trip described in a JSON file without a database
// or network access, and prints the ranked itineraries.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"itinerary-service/internal/adapters/distance"
	"itinerary-service/internal/adapters/repositories"
	"itinerary-service/internal/config"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/optimizer"
	"itinerary-service/internal/ports"
	"itinerary-service/internal/services"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
)

// problem is a trip plus an optional explicit matrix. Without a matrix,
// travel is estimated from coordinates.
type problem struct {
	repositories.TripSeed
	Matrix *struct {
		Distances [][]float64 `json:"distances"`
		Durations [][]float64 `json:"durations"`
	} `json:"matrix,omitempty"`
}

func main() {
	file := flag.String("file", "", "problem JSON file (default stdin)")
	topK := flag.Int("top", 0, "number of itineraries (default from config)")
	strategy := flag.String("strategy", "", "exhaustive or heuristic")
	cfgPath := flag.String("config", config.Get("OPTIMIZER_CONFIG", ""), "optimizer YAML overrides")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	log.SetFlags(0)
	if *noColor {
		color.NoColor = true
	}

	cfg, err := config.LoadOptimizer(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if *topK > 0 {
		cfg.TopK = *topK
	}
	switch strings.ToLower(*strategy) {
	case "":
	case "exhaustive":
		cfg.Generator = optimizer.ExhaustiveGenerator{}
	case "heuristic":
		cfg.Generator = optimizer.HeuristicGenerator{}
	default:
		log.Fatalf("unknown strategy %q", *strategy)
	}

	var in io.Reader = os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}

	trip, provider, err := readProblem(in)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, trip, provider, cfg); err != nil {
		log.Fatal(err)
	}
}

func readProblem(r io.Reader) (*domain.Trip, ports.TravelMatrixProvider, error) {
	var p problem
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, nil, fmt.Errorf("read problem: %w", err)
	}
	if p.Name == "" {
		p.Name = "tripctl"
	}
	if p.Date == "" {
		p.Date = time.Now().Format(time.DateOnly)
	}

	trip, err := p.Trip()
	if err != nil {
		return nil, nil, fmt.Errorf("read problem: %w", err)
	}

	if p.Matrix == nil {
		return trip, distance.NewHaversineMatrixProvider(0, 0), nil
	}

	n := len(trip.Stops)
	if len(p.Matrix.Distances) != n || len(p.Matrix.Durations) != n {
		return nil, nil, fmt.Errorf("read problem: matrix must be %dx%d", n, n)
	}
	pairs := make([]distance.StaticPair, 0, n*n)
	for i, from := range trip.Stops {
		if len(p.Matrix.Distances[i]) != n || len(p.Matrix.Durations[i]) != n {
			return nil, nil, fmt.Errorf("read problem: matrix row %d must have %d entries", i, n)
		}
		for j, to := range trip.Stops {
			pairs = append(pairs, distance.StaticPair{
				From:    from.ID,
				To:      to.ID,
				Meters:  p.Matrix.Distances[i][j],
				Seconds: p.Matrix.Durations[i][j],
			})
		}
	}
	return trip, distance.NewStaticMatrixProvider(pairs), nil
}

func run(ctx context.Context, w io.Writer, trip *domain.Trip, provider ports.TravelMatrixProvider, cfg optimizer.Config) error {
	count, err := optimizer.CheckSize(len(trip.Stops), cfg)
	if err != nil {
		return err
	}

	matrix, err := provider.TravelMatrix(ctx, trip.Stops)
	if err != nil {
		return err
	}

	start := time.Now()
	schedules, err := optimizer.Optimize(ctx, optimizer.Input{
		Stops:  trip.Stops,
		Matrix: matrix,
		Date:   trip.Date,
	}, cfg)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	best := color.New(color.FgGreen, color.Bold)
	other := color.New(color.FgYellow)
	late := color.New(color.FgRed)
	grey := color.New(color.FgHiBlack)

	bold.Fprintf(w, "%s on %s", trip.Name, trip.Date.Format(time.DateOnly))
	grey.Fprintf(w, "  %d stops, %d orderings, %s\n\n", len(trip.Stops), count, time.Since(start).Round(time.Millisecond))

	for i, s := range schedules {
		rank := other
		if i == 0 {
			rank = best
		}
		rank.Fprintf(w, "#%d  depart %02d:%02d", i+1, s.StartHour, s.StartMinute)
		fmt.Fprintf(w, "  score %.1f (base %.1f + penalty %.1f)  %.1f km  %.0f min\n",
			s.TotalScore, s.BaseScore, s.Penalty, s.TotalDistance/1000, s.TotalDuration/60)

		for _, st := range s.Stops {
			fmt.Fprintf(w, "    %s  %-20s", st.ArriveAt.Format("15:04"), stopLabel(trip, st))
			if !st.LeaveAt.Equal(st.ArriveAt) {
				grey.Fprintf(w, " leave %s", st.LeaveAt.Format("15:04"))
			}
			if st.DeviationHours > 0 {
				late.Fprintf(w, " +%dh off window", st.DeviationHours)
			}
			fmt.Fprintln(w)
		}
		grey.Fprintf(w, "    %s\n\n", services.FallbackNarrative(trip, s))
	}

	return nil
}

func stopLabel(trip *domain.Trip, st domain.ScheduledStop) string {
	if s := trip.Stops[st.StopIndex]; s.Name != "" {
		return s.Name
	}
	return st.StopID
}
