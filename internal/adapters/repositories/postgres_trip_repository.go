package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/platform/obs"
	"itinerary-service/internal/ports"
	"time"

	"github.com/google/uuid"
)

// Postgres-backed implementation of the TripRepository port.
type PostgresTripRepository struct{ DB *sql.DB }

func NewPostgresTripRepository(db *sql.DB) *PostgresTripRepository {
	return &PostgresTripRepository{DB: db}
}

// Return all trips, newest first. Stops are not loaded.
func (p *PostgresTripRepository) ListTrips(ctx context.Context) (_ []*domain.Trip, err error) {
	defer obs.Time(ctx, "trips.List")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres trip repository: DB is nil")
	}

	query := `
	SELECT
		id,
		name,
		trip_date,
		created_at
	FROM trips
	ORDER BY created_at DESC, id;
	`
	rows, err := p.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trips: query trips table: %w", err)
	}
	defer rows.Close()

	trips := make([]*domain.Trip, 0, 16)
	for rows.Next() {
		t := &domain.Trip{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Date, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("list trips: scan row: %w", err)
		}
		trips = append(trips, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trips: row iteration: %w", err)
	}

	return trips, nil
}

// Return one trip with its stops in visiting position order.
func (p *PostgresTripRepository) GetTrip(ctx context.Context, id string) (_ *domain.Trip, err error) {
	defer obs.Time(ctx, "trips.Get")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres trip repository: DB is nil")
	}

	t := &domain.Trip{}
	err = p.DB.QueryRowContext(ctx,
		`SELECT id, name, trip_date, created_at FROM trips WHERE id = $1;`, id,
	).Scan(&t.ID, &t.Name, &t.Date, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get trip %q: %w", id, ports.ErrTripNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get trip %q: %w", id, err)
	}

	query := `
	SELECT
		stop_id,
		name,
		address,
		lon,
		lat,
		window_start,
		window_end,
		visit_minutes
	FROM trip_stops
	WHERE trip_id = $1
	ORDER BY position;
	`
	rows, err := p.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get trip %q: query stops: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s                domain.Stop
			lon, lat         sql.NullFloat64
			winStart, winEnd sql.NullInt32
			visitMinutes     sql.NullInt32
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &lon, &lat, &winStart, &winEnd, &visitMinutes); err != nil {
			return nil, fmt.Errorf("get trip %q: scan stop: %w", id, err)
		}
		if lon.Valid && lat.Valid {
			s.Coordinates = domain.Coordinates{Lon: lon.Float64, Lat: lat.Float64}
		}
		if winStart.Valid && winEnd.Valid {
			s.IdealWindow = &domain.IdealVisitWindow{StartHour: int(winStart.Int32), EndHour: int(winEnd.Int32)}
		}
		if visitMinutes.Valid {
			m := int(visitMinutes.Int32)
			s.VisitDurationMinutes = &m
		}
		t.Stops = append(t.Stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get trip %q: row iteration: %w", id, err)
	}

	return t, nil
}

// Persist a trip and its stops in one transaction. Missing ID and CreatedAt are filled in.
func (p *PostgresTripRepository) CreateTrip(ctx context.Context, trip *domain.Trip) (err error) {
	defer obs.Time(ctx, "trips.Create")(&err)

	if p.DB == nil {
		return errors.New("postgres trip repository: DB is nil")
	}
	if err := trip.Validate(); err != nil {
		return err
	}

	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create trip: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO trips (id, name, trip_date, created_at) VALUES ($1, $2, $3, $4);`,
		trip.ID, trip.Name, trip.Date, trip.CreatedAt,
	); err != nil {
		return fmt.Errorf("create trip: insert trip: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO trip_stops (
		trip_id, position, stop_id, name, address, lon, lat, window_start, window_end, visit_minutes
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`)
	if err != nil {
		return fmt.Errorf("create trip: prepare stop insert: %w", err)
	}
	defer stmt.Close()

	for i, s := range trip.Stops {
		var lon, lat sql.NullFloat64
		if !s.Coordinates.IsZero() {
			lon = sql.NullFloat64{Float64: s.Coordinates.Lon, Valid: true}
			lat = sql.NullFloat64{Float64: s.Coordinates.Lat, Valid: true}
		}
		var winStart, winEnd, visit sql.NullInt32
		if s.IdealWindow != nil {
			winStart = sql.NullInt32{Int32: int32(s.IdealWindow.StartHour), Valid: true}
			winEnd = sql.NullInt32{Int32: int32(s.IdealWindow.EndHour), Valid: true}
		}
		if s.VisitDurationMinutes != nil {
			visit = sql.NullInt32{Int32: int32(*s.VisitDurationMinutes), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, trip.ID, i, s.ID, s.Name, s.Address, lon, lat, winStart, winEnd, visit); err != nil {
			return fmt.Errorf("create trip: insert stop %q: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create trip: commit tx: %w", err)
	}

	return nil
}

// Replace the itineraries stored for tripID. Schedules are stored as JSON.
func (p *PostgresTripRepository) SaveItineraries(
	ctx context.Context,
	tripID string,
	itineraries []domain.Itinerary,
) (err error) {
	defer obs.Time(ctx, "itineraries.Save")(&err)

	if p.DB == nil {
		return errors.New("postgres trip repository: DB is nil")
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save itineraries: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1);`, tripID).Scan(&exists); err != nil {
		return fmt.Errorf("save itineraries: lookup trip: %w", err)
	}
	if !exists {
		return fmt.Errorf("save itineraries for %q: %w", tripID, ports.ErrTripNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM itineraries WHERE trip_id = $1;`, tripID); err != nil {
		return fmt.Errorf("save itineraries: clear previous: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO itineraries (id, trip_id, rank, schedule, narrative, created_at)
	VALUES ($1, $2, $3, $4, $5, $6);
	`)
	if err != nil {
		return fmt.Errorf("save itineraries: prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range itineraries {
		it := &itineraries[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		it.TripID = tripID

		schedule, err := json.Marshal(it.Schedule)
		if err != nil {
			return fmt.Errorf("save itineraries: encode schedule rank=%d: %w", it.Rank, err)
		}

		if _, err := stmt.ExecContext(ctx, it.ID, tripID, it.Rank, schedule, it.Narrative, it.CreatedAt); err != nil {
			return fmt.Errorf("save itineraries: insert rank=%d: %w", it.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save itineraries: commit tx: %w", err)
	}

	return nil
}

// Return the itineraries stored for tripID, best rank first.
func (p *PostgresTripRepository) ListItineraries(ctx context.Context, tripID string) (_ []domain.Itinerary, err error) {
	defer obs.Time(ctx, "itineraries.List")(&err)

	if p.DB == nil {
		return nil, errors.New("postgres trip repository: DB is nil")
	}

	query := `
	SELECT
		id,
		trip_id,
		rank,
		schedule,
		narrative,
		created_at
	FROM itineraries
	WHERE trip_id = $1
	ORDER BY rank;
	`
	rows, err := p.DB.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("list itineraries: query itineraries table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Itinerary, 0, 4)
	for rows.Next() {
		var it domain.Itinerary
		var schedule []byte
		if err := rows.Scan(&it.ID, &it.TripID, &it.Rank, &schedule, &it.Narrative, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("list itineraries: scan row: %w", err)
		}
		if err := json.Unmarshal(schedule, &it.Schedule); err != nil {
			return nil, fmt.Errorf("list itineraries: decode schedule id=%s: %w", it.ID, err)
		}
		out = append(out, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list itineraries: row iteration: %w", err)
	}

	return out, nil
}
