package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"itinerary-service/internal/platform/obs"
	"itinerary-service/internal/ports"
	"strings"
	"time"
)

// SQLDistanceCache keeps origin->destination travel results in the distance_cache table,
// keyed by domain.Stop.LocationKey. Rows older than ttl are treated as misses so the
// provider refetches them; a zero ttl never expires.
type SQLDistanceCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSQLDistanceCache(db *sql.DB, ttl time.Duration) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db, TTL: ttl}
}

func (s *SQLDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.sql.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("get distance cache: db is nil")
	}
	if origin == "" {
		return nil, errors.New("get distance cache: origin must not be empty")
	}

	keys := uniqueKeys(destinations)
	if len(keys) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT destination, distance_meters, duration_seconds
	FROM distance_cache
	WHERE origin = $1
		AND destination = ANY($2::text[])
		AND ($3::timestamptz IS NULL OR updated_at >= $3);
	`, origin, keys, freshSince(s.TTL))
	if err != nil {
		return nil, fmt.Errorf("get distance cache origin=%q: %w", origin, err)
	}
	defer rows.Close()

	out := make(map[string]ports.DistanceResult, len(keys))
	for rows.Next() {
		var dest string
		var r ports.DistanceResult
		if err := rows.Scan(&dest, &r.DistanceMeters, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("get distance cache origin=%q: scan: %w", origin, err)
		}
		out[dest] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get distance cache origin=%q: %w", origin, err)
	}

	return out, nil
}

// PutMany upserts every result for origin in one statement and stamps updated_at.
func (s *SQLDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "distance.sql.PutMany")(&err)

	if s.DB == nil {
		return errors.New("put distance cache: db is nil")
	}
	if origin == "" {
		return errors.New("put distance cache: origin must not be empty")
	}
	if len(results) == 0 {
		return nil
	}

	dests := make([]string, 0, len(results))
	meters := make([]float64, 0, len(results))
	seconds := make([]float64, 0, len(results))
	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return errors.New("put distance cache: empty destination key")
		}
		dests = append(dests, dest)
		meters = append(meters, r.DistanceMeters)
		seconds = append(seconds, r.DurationSeconds)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO distance_cache (origin, destination, distance_meters, duration_seconds, updated_at)
	SELECT $1, t.destination, t.meters, t.seconds, now()
	FROM unnest($2::text[], $3::float8[], $4::float8[]) AS t(destination, meters, seconds)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		updated_at = EXCLUDED.updated_at;
	`, origin, dests, meters, seconds)
	if err != nil {
		return fmt.Errorf("put distance cache origin=%q: %w", origin, err)
	}

	return nil
}

// Prune deletes rows that GetMany would no longer return.
func (s *SQLDistanceCache) Prune(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "distance.sql.Prune")(&err)
	return pruneStale(ctx, s.DB, "distance_cache", s.TTL)
}

// freshSince is the oldest updated_at still served, or NULL when ttl disables expiry.
func freshSince(ttl time.Duration) sql.NullTime {
	if ttl <= 0 {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: time.Now().Add(-ttl).UTC(), Valid: true}
}

func pruneStale(ctx context.Context, db *sql.DB, table string, ttl time.Duration) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("prune %s: db is nil", table)
	}
	cutoff := freshSince(ttl)
	if !cutoff.Valid {
		return 0, nil
	}

	res, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE updated_at < $1`, cutoff.Time)
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune %s: rows affected: %w", table, err)
	}
	return n, nil
}

// uniqueKeys trims keys and drops blanks and repeats, keeping first-seen order.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
