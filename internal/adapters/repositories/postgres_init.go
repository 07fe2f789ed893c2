package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/ports"
	"os"
	"strings"
	"time"
)

// Initialize the Postgres database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createTripsQuery := `
	CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		trip_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createTripStopsQuery := `
	CREATE TABLE IF NOT EXISTS trip_stops (
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		stop_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		lon DOUBLE PRECISION,
		lat DOUBLE PRECISION,
		window_start INTEGER,
		window_end INTEGER,
		visit_minutes INTEGER,
		PRIMARY KEY (trip_id, position),
		UNIQUE (trip_id, stop_id)
	);
	`

	createItinerariesQuery := `
	CREATE TABLE IF NOT EXISTS itineraries (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		rank INTEGER NOT NULL,
		schedule JSONB NOT NULL,
		narrative TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (trip_id, rank)
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_meters DOUBLE PRECISION NOT NULL,
		duration_seconds DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (origin, destination)
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	// Databases created before geocode expiry existed lack the column.
	alterGeocodeCacheQuery := `
	ALTER TABLE geocode_cache ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ NOT NULL DEFAULT now();
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
	ON distance_cache(destination, origin);
	`

	statements := []string{
		createTripsQuery,
		createTripStopsQuery,
		createItinerariesQuery,
		createDistanceCacheQuery,
		createGeocodeCacheQuery,
		alterGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type WindowSeed struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

type StopSeed struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Address      string      `json:"address"`
	Lon          float64     `json:"lon"`
	Lat          float64     `json:"lat"`
	IdealWindow  *WindowSeed `json:"ideal_window,omitempty"`
	VisitMinutes *int        `json:"visit_minutes,omitempty"`
}

type TripSeed struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Date  string     `json:"date"`
	Stops []StopSeed `json:"stops"`
}

// Trip converts the seed into a validated domain trip.
func (s TripSeed) Trip() (*domain.Trip, error) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(s.Date))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s.Date, err)
	}

	trip := &domain.Trip{
		ID:    strings.TrimSpace(s.ID),
		Name:  strings.TrimSpace(s.Name),
		Date:  date,
		Stops: make([]domain.Stop, 0, len(s.Stops)),
	}
	for _, st := range s.Stops {
		stop := domain.Stop{
			ID:                   strings.TrimSpace(st.ID),
			Name:                 st.Name,
			Address:              st.Address,
			Coordinates:          domain.Coordinates{Lon: st.Lon, Lat: st.Lat},
			VisitDurationMinutes: st.VisitMinutes,
		}
		if st.IdealWindow != nil {
			stop.IdealWindow = &domain.IdealVisitWindow{StartHour: st.IdealWindow.StartHour, EndHour: st.IdealWindow.EndHour}
		}
		trip.Stops = append(trip.Stops, stop)
	}

	if err := trip.Validate(); err != nil {
		return nil, err
	}
	return trip, nil
}

// LoadTripSeeds reads and validates a JSON array of trips.
func LoadTripSeeds(jsonPath string) ([]*domain.Trip, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed trips: read %q: %w", jsonPath, err)
	}

	var data []TripSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed trips: parse json: %w", err)
	}

	trips := make([]*domain.Trip, 0, len(data))
	for i, item := range data {
		trip, err := item.Trip()
		if err != nil {
			return nil, fmt.Errorf("seed trips: trip at index %d: %w", i+1, err)
		}
		trips = append(trips, trip)
	}

	return trips, nil
}

// Populate the database with trips from a JSON file. Trips whose id already
// exists are left untouched.
func SeedFromJSON(ctx context.Context, repo *PostgresTripRepository, jsonPath string) (int, error) {
	trips, err := LoadTripSeeds(jsonPath)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, t := range trips {
		if t.ID != "" {
			_, err := repo.GetTrip(ctx, t.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, ports.ErrTripNotFound) {
				return created, fmt.Errorf("seed trips: lookup %q: %w", t.ID, err)
			}
		}

		if err := repo.CreateTrip(ctx, t); err != nil {
			return created, fmt.Errorf("seed trips: create %q: %w", t.Name, err)
		}
		created++
	}

	return created, nil
}
