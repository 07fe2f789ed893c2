package main

import (
	"bytes"
	"context"
	"errors"
	"itinerary-service/internal/optimizer"
	"strings"
	"testing"

	"github.com/fatih/color"
)

const symmetricProblem = `{
	"name": "Symmetric",
	"date": "2025-05-03",
	"stops": [
		{"id": "S", "name": "Home", "lon": -112.07, "lat": 33.45, "visit_minutes": 0},
		{"id": "A", "lon": -112.0, "lat": 33.5, "visit_minutes": 0, "ideal_window": {"start_hour": 9, "end_hour": 9}},
		{"id": "E", "name": "Office", "lon": -111.9, "lat": 33.4, "visit_minutes": 0}
	],
	"matrix": {
		"distances": [[0, 5000, 5000], [5000, 0, 5000], [5000, 5000, 0]],
		"durations": [[0, 600, 600], [600, 0, 600], [600, 600, 0]]
	}
}`

func TestReadProblemWithMatrix(t *testing.T) {
	trip, provider, err := readProblem(strings.NewReader(symmetricProblem))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Name != "Symmetric" || len(trip.Stops) != 3 {
		t.Fatalf("trip = %+v", trip)
	}

	m, err := provider.TravelMatrix(context.Background(), trip.Stops)
	if err != nil {
		t.Fatalf("matrix: %v", err)
	}
	if e := m.Edge(0, 1); e.DistanceMeters != 5000 || e.DurationSeconds != 600 {
		t.Fatalf("edge = %+v", e)
	}
}

func TestReadProblemRejectsRaggedMatrix(t *testing.T) {
	body := strings.Replace(symmetricProblem, "[[0, 5000, 5000],", "[[0, 5000],", 1)
	if _, _, err := readProblem(strings.NewReader(body)); err == nil {
		t.Fatalf("expected error for ragged matrix")
	}
}

func TestRunPrintsRanking(t *testing.T) {
	color.NoColor = true
	trip, provider, err := readProblem(strings.NewReader(symmetricProblem))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), &out, trip, provider, optimizer.DefaultConfig()); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	for _, want := range []string{"#1  depart 08:50", "Home", "09:00  A", "Office"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunRejectsLargeTrips(t *testing.T) {
	cfg := optimizer.DefaultConfig()
	cfg.MaxOrderings = 1

	body := `{"date": "2025-05-03", "stops": [
		{"id": "S", "lon": 1, "lat": 1},
		{"id": "A", "lon": 2, "lat": 1},
		{"id": "B", "lon": 3, "lat": 1},
		{"id": "E", "lon": 4, "lat": 1}
	]}`
	trip, provider, err := readProblem(strings.NewReader(body))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if trip.Name != "tripctl" {
		t.Fatalf("default name = %q", trip.Name)
	}

	err = run(context.Background(), &bytes.Buffer{}, trip, provider, cfg)
	if !errors.Is(err, optimizer.ErrComputationTooLarge) {
		t.Fatalf("err = %v, want ErrComputationTooLarge", err)
	}
}
