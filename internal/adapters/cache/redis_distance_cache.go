package cache

import (
	"context"
	"errors"
	"fmt"
	"itinerary-service/internal/platform/obs"
	"itinerary-service/internal/ports"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisDistanceCache stores one hash per origin ("dist:<origin>") whose fields are
// destination keys and whose values are "meters,seconds". Each write refreshes the
// hash TTL when one is configured.
type RedisDistanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDistanceCache(rdb *redis.Client, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{rdb: rdb, ttl: ttl}
}

func distanceKey(origin string) string { return "dist:" + origin }

func (c *RedisDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.redis.GetMany")(&err)

	if origin == "" {
		return nil, errors.New("get distance cache: origin must not be empty")
	}
	if len(destinations) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	vals, err := c.rdb.HMGet(ctx, distanceKey(origin), destinations...).Result()
	if err != nil {
		return nil, fmt.Errorf("get distance cache: hmget: %w", err)
	}

	out := make(map[string]ports.DistanceResult, len(destinations))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		r, err := decodeDistance(s)
		if err != nil {
			return nil, fmt.Errorf("get distance cache dest=%q: %w", destinations[i], err)
		}
		out[destinations[i]] = r
	}

	return out, nil
}

func (c *RedisDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "distance.redis.PutMany")(&err)

	if origin == "" {
		return errors.New("insert distance cache: origin must not be empty")
	}
	if len(results) == 0 {
		return nil
	}

	fields := make(map[string]any, len(results))
	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return errors.New("insert distance cache: empty destination key")
		}
		fields[dest] = encodeDistance(r)
	}

	key := distanceKey(origin)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert distance cache: %w", err)
	}

	return nil
}

func encodeDistance(r ports.DistanceResult) string {
	return strconv.FormatFloat(r.DistanceMeters, 'f', -1, 64) + "," + strconv.FormatFloat(r.DurationSeconds, 'f', -1, 64)
}

func decodeDistance(s string) (ports.DistanceResult, error) {
	meters, seconds, ok := strings.Cut(s, ",")
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("malformed cache value %q", s)
	}
	m, err := strconv.ParseFloat(meters, 64)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("parse meters: %w", err)
	}
	sec, err := strconv.ParseFloat(seconds, 64)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("parse seconds: %w", err)
	}
	return ports.DistanceResult{DistanceMeters: m, DurationSeconds: sec}, nil
}
