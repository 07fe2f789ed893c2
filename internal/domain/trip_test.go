package domain

import (
	"errors"
	"testing"
	"time"
)

func validTrip() *Trip {
	return &Trip{
		Name: "Saturday errands",
		Date: time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC),
		Stops: []Stop{
			{ID: "home", Coordinates: Coordinates{Lon: -112.07, Lat: 33.45}},
			{ID: "market", Address: "1 Main St"},
			{ID: "home-again", Coordinates: Coordinates{Lon: -112.07, Lat: 33.45}},
		},
	}
}

func TestTripValidate(t *testing.T) {
	if err := validTrip().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	oneStop := validTrip()
	oneStop.Stops = oneStop.Stops[:1]
	if err := oneStop.Validate(); !errors.Is(err, ErrInvalidTrip) {
		t.Errorf("one stop: err = %v, want ErrInvalidTrip", err)
	}

	dup := validTrip()
	dup.Stops[2].ID = "home"
	if err := dup.Validate(); !errors.Is(err, ErrInvalidTrip) {
		t.Errorf("duplicate id: err = %v, want ErrInvalidTrip", err)
	}

	nowhere := validTrip()
	nowhere.Stops[1].Address = "   "
	if err := nowhere.Validate(); !errors.Is(err, ErrInvalidTrip) {
		t.Errorf("no location: err = %v, want ErrInvalidTrip", err)
	}

	badWindow := validTrip()
	badWindow.Stops[1].IdealWindow = &IdealVisitWindow{StartHour: 15, EndHour: 9}
	if err := badWindow.Validate(); !errors.Is(err, ErrInvalidTrip) {
		t.Errorf("bad window: err = %v, want ErrInvalidTrip", err)
	}

	noDate := validTrip()
	noDate.Date = time.Time{}
	if err := noDate.Validate(); !errors.Is(err, ErrInvalidTrip) {
		t.Errorf("no date: err = %v, want ErrInvalidTrip", err)
	}
}
