package distance

import (
	"context"
	"errors"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/platform/obs"
	"itinerary-service/internal/ports"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ORSMatrixProvider implements TravelMatrixProvider using OpenRouteService.
//
// It coordinates:
//   - Location keys (coordinates, or normalized address)
//   - Persistent geocode caching for stops without coordinates
//   - Persistent distance caching per origin
//   - A single all-to-all matrix call for any cache miss, paced and retried
//
// The provider is safe for concurrent use.
type ORSMatrixProvider struct {
	session        *http.Client
	apiKey         string
	baseURL        string
	profile        string
	geocodeCountry string
	limiter        *rate.Limiter
	retryDelay     time.Duration
	distanceCache  ports.DistanceCache
	geocodeCache   ports.GeocodeCache
}

type ORSOptions struct {
	BaseURL string
	Profile string
	// GeocodeCountry restricts address search (ISO alpha-2); empty searches worldwide.
	GeocodeCountry string
	// RequestsPerMinute paces outgoing calls; zero or less disables pacing.
	RequestsPerMinute int
	Timeout           time.Duration
}

func NewORSMatrixProvider(
	apiKey string,
	distanceCache ports.DistanceCache,
	geocodeCache ports.GeocodeCache,
	opts ORSOptions,
) (*ORSMatrixProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openrouteservice.org"
	}
	if opts.Profile == "" {
		opts.Profile = "driving-car"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	provider := &ORSMatrixProvider{
		session:        &http.Client{Timeout: opts.Timeout},
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		profile:        opts.Profile,
		geocodeCountry: opts.GeocodeCountry,
		limiter:        limiter,
		retryDelay:     200 * time.Millisecond,
		distanceCache:  distanceCache,
		geocodeCache:   geocodeCache,
	}

	return provider, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func (o *ORSMatrixProvider) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TravelMatrix returns the complete matrix for stops in their given order.
// Stops sharing a location get zero-cost edges between them.
func (o *ORSMatrixProvider) TravelMatrix(
	ctx context.Context,
	stops []domain.Stop,
) (_ *domain.TravelMatrix, err error) {
	defer obs.Time(ctx, "ors.TravelMatrix")(&err)

	if len(stops) == 0 {
		return nil, errors.New("ORS travel matrix: no stops")
	}

	keys := make([]string, len(stops))
	for i, s := range stops {
		k := s.LocationKey()
		if k == "" {
			return nil, fmt.Errorf("ORS travel matrix: stop %q has neither coordinates nor address", s.ID)
		}
		keys[i] = k
	}

	pairs, complete, err := o.cachedPairs(ctx, keys)
	if err != nil {
		return nil, err
	}

	if !complete {
		coords, err := o.resolveCoordinates(ctx, stops)
		if err != nil {
			return nil, fmt.Errorf("retrieving coordinates: %w", err)
		}

		fetched, err := o.fetchMatrix(ctx, coords)
		if err != nil {
			return nil, fmt.Errorf("fetching matrix: %w", err)
		}

		pairs = make(map[string]map[string]ports.DistanceResult, len(keys))
		for i, origin := range keys {
			row := make(map[string]ports.DistanceResult, len(keys))
			for j, dest := range keys {
				if origin != dest {
					row[dest] = fetched[i][j]
				}
			}
			pairs[origin] = row
		}

		if o.distanceCache != nil {
			for origin, row := range pairs {
				if err := o.distanceCache.PutMany(ctx, origin, row); err != nil {
					log.Printf("distance cache write failed: origin=%q err=%v", origin, err)
				}
			}
		}
	}

	rows := make([][]domain.TravelEdge, len(keys))
	for i, origin := range keys {
		rows[i] = make([]domain.TravelEdge, len(keys))
		for j, dest := range keys {
			if origin == dest {
				continue
			}
			r := pairs[origin][dest]
			rows[i][j] = domain.TravelEdge{DistanceMeters: r.DistanceMeters, DurationSeconds: r.DurationSeconds}
		}
	}

	return domain.NewTravelMatrix(rows)
}

// cachedPairs loads every origin row from the distance cache and reports whether
// all off-diagonal pairs were found.
func (o *ORSMatrixProvider) cachedPairs(
	ctx context.Context,
	keys []string,
) (map[string]map[string]ports.DistanceResult, bool, error) {
	if o.distanceCache == nil {
		return nil, false, nil
	}

	pairs := make(map[string]map[string]ports.DistanceResult, len(keys))
	complete := true
	for _, origin := range keys {
		if _, done := pairs[origin]; done {
			continue
		}

		dests := make([]string, 0, len(keys))
		for _, d := range keys {
			if d != origin {
				dests = append(dests, d)
			}
		}

		hits, err := o.distanceCache.GetMany(ctx, origin, dests)
		if err != nil {
			return nil, false, fmt.Errorf("ORS get distance cache: %w", err)
		}
		for _, d := range dests {
			if _, ok := hits[d]; !ok {
				complete = false
			}
		}
		pairs[origin] = hits
	}

	return pairs, complete, nil
}

// resolveCoordinates returns coordinates per stop, geocoding addresses through the cache.
func (o *ORSMatrixProvider) resolveCoordinates(
	ctx context.Context,
	stops []domain.Stop,
) ([]domain.Coordinates, error) {
	needed := make([]string, 0)
	for _, s := range stops {
		if s.Coordinates.IsZero() {
			needed = append(needed, o.normalize(s.Address))
		}
	}

	coords := make(map[string]domain.Coordinates)
	if len(needed) > 0 {
		geocodeHits := make(map[string]domain.Coordinates)
		// Resolve coordinates via cache before calling ORS geocoding.
		if o.geocodeCache != nil {
			var err error
			geocodeHits, err = o.geocodeCache.GetMany(ctx, needed)
			if err != nil {
				return nil, fmt.Errorf("ORS get geocode cache: %w", err)
			}
		}

		geocodeMisses := make([]string, 0, len(needed))
		for _, a := range needed {
			if _, ok := geocodeHits[a]; !ok {
				geocodeMisses = append(geocodeMisses, a)
			}
		}

		fresh := make(map[string]domain.Coordinates)
		if len(geocodeMisses) > 0 {
			var err error
			fresh, err = o.geocodeMany(ctx, geocodeMisses)
			if err != nil {
				return nil, err
			}
		}

		if o.geocodeCache != nil && len(fresh) > 0 {
			if err := o.geocodeCache.PutMany(ctx, fresh); err != nil {
				log.Printf("geocode cache write failed: %v", err)
			}
		}

		for k, v := range geocodeHits {
			coords[k] = v
		}
		for k, v := range fresh {
			coords[k] = v
		}
	}

	out := make([]domain.Coordinates, len(stops))
	for i, s := range stops {
		if !s.Coordinates.IsZero() {
			out[i] = s.Coordinates
			continue
		}
		c, ok := coords[o.normalize(s.Address)]
		if !ok {
			return nil, fmt.Errorf("missing coordinate for stop %q (%q)", s.ID, s.Address)
		}
		out[i] = c
	}

	return out, nil
}
