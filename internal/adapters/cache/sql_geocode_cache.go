package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/platform/obs"
	"strings"
	"time"
)

// SQLGeocodeCache maps normalized addresses to coordinates in the geocode_cache table.
// It shares the distance cache's expiry rule: rows older than TTL are misses.
type SQLGeocodeCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSQLGeocodeCache(db *sql.DB, ttl time.Duration) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db, TTL: ttl}
}

func (s *SQLGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.sql.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("get geocode cache: db is nil")
	}

	keys := uniqueKeys(addresses)
	if len(keys) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT address, lon, lat
	FROM geocode_cache
	WHERE address = ANY($1::text[])
		AND ($2::timestamptz IS NULL OR updated_at >= $2);
	`, keys, freshSince(s.TTL))
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(keys))
	for rows.Next() {
		var addr string
		var c domain.Coordinates
		if err := rows.Scan(&addr, &c.Lon, &c.Lat); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan: %w", err)
		}
		out[addr] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: %w", err)
	}

	return out, nil
}

// PutMany upserts every address in one statement. Invalid coordinates are rejected
// so a bad geocode never poisons later lookups.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, coords map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "geocode.sql.PutMany")(&err)

	if s.DB == nil {
		return errors.New("put geocode cache: db is nil")
	}
	if len(coords) == 0 {
		return nil
	}

	addrs := make([]string, 0, len(coords))
	lons := make([]float64, 0, len(coords))
	lats := make([]float64, 0, len(coords))
	for addr, c := range coords {
		if strings.TrimSpace(addr) == "" {
			return errors.New("put geocode cache: empty address key")
		}
		if !c.IsValid() {
			return fmt.Errorf("put geocode cache address=%q: invalid coordinates %+v", addr, c)
		}
		addrs = append(addrs, addr)
		lons = append(lons, c.Lon)
		lats = append(lats, c.Lat)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO geocode_cache (address, lon, lat, updated_at)
	SELECT t.address, t.lon, t.lat, now()
	FROM unnest($1::text[], $2::float8[], $3::float8[]) AS t(address, lon, lat)
	ON CONFLICT (address) DO UPDATE
	SET lon = EXCLUDED.lon,
		lat = EXCLUDED.lat,
		updated_at = EXCLUDED.updated_at;
	`, addrs, lons, lats)
	if err != nil {
		return fmt.Errorf("put geocode cache: %w", err)
	}

	return nil
}

func (s *SQLGeocodeCache) Prune(ctx context.Context) (_ int64, err error) {
	defer obs.Time(ctx, "geocode.sql.Prune")(&err)
	return pruneStale(ctx, s.DB, "geocode_cache", s.TTL)
}
