package distance

import (
	"context"
	"encoding/json"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/ports"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type memoryDistanceCache struct {
	mu   sync.Mutex
	rows map[string]map[string]ports.DistanceResult
}

func newMemoryDistanceCache() *memoryDistanceCache {
	return &memoryDistanceCache{rows: map[string]map[string]ports.DistanceResult{}}
}

func (c *memoryDistanceCache) GetMany(ctx context.Context, origin string, destinations []string) (map[string]ports.DistanceResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := map[string]ports.DistanceResult{}
	for _, d := range destinations {
		if r, ok := c.rows[origin][d]; ok {
			out[d] = r
		}
	}
	return out, nil
}

func (c *memoryDistanceCache) PutMany(ctx context.Context, origin string, results map[string]ports.DistanceResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rows[origin] == nil {
		c.rows[origin] = map[string]ports.DistanceResult{}
	}
	for d, r := range results {
		c.rows[origin][d] = r
	}
	return nil
}

type memoryGeocodeCache struct {
	m map[string]domain.Coordinates
}

func (c *memoryGeocodeCache) GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	out := map[string]domain.Coordinates{}
	for _, a := range addresses {
		if v, ok := c.m[a]; ok {
			out[a] = v
		}
	}
	return out, nil
}

func (c *memoryGeocodeCache) PutMany(ctx context.Context, coords map[string]domain.Coordinates) error {
	for k, v := range coords {
		c.m[k] = v
	}
	return nil
}

func threeStops() []domain.Stop {
	return []domain.Stop{
		{ID: "S", Coordinates: domain.Coordinates{Lon: -112.07, Lat: 33.45}},
		{ID: "A", Coordinates: domain.Coordinates{Lon: -112.00, Lat: 33.50}},
		{ID: "E", Coordinates: domain.Coordinates{Lon: -111.90, Lat: 33.40}},
	}
}

func matrixHandler(t *testing.T, calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != "/v2/matrix/driving-car" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("missing api key header")
		}

		var req matrixRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		n := len(req.Locations)
		dist := make([][]float64, n)
		dur := make([][]float64, n)
		for i := 0; i < n; i++ {
			dist[i] = make([]float64, n)
			dur[i] = make([]float64, n)
			for j := 0; j < n; j++ {
				if i != j {
					dist[i][j] = float64(1000*(i+1) + j)
					dur[i][j] = float64(100*(i+1) + j)
				}
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"distances": dist, "durations": dur})
	}
}

func TestORSMatrixProviderFetchesAndCaches(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(matrixHandler(t, &calls))
	defer srv.Close()

	cache := newMemoryDistanceCache()
	p, err := NewORSMatrixProvider("test-key", cache, nil, ORSOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	m, err := p.TravelMatrix(context.Background(), threeStops())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e := m.Edge(1, 2); e.DistanceMeters != 2002 || e.DurationSeconds != 202 {
		t.Fatalf("edge A->E = %+v, want 2002m/202s", e)
	}
	if e := m.Edge(0, 0); e.DistanceMeters != 0 {
		t.Fatalf("diagonal = %+v, want zero", e)
	}

	// Second call is served from the distance cache.
	m2, err := p.TravelMatrix(context.Background(), threeStops())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("matrix endpoint called %d times, want 1", got)
	}
	if m2.Edge(2, 0) != m.Edge(2, 0) {
		t.Fatalf("cached edge %+v differs from fetched %+v", m2.Edge(2, 0), m.Edge(2, 0))
	}
}

func TestORSMatrixProviderRetriesTransientErrors(t *testing.T) {
	var calls, failures int32
	ok := matrixHandler(t, &calls)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&failures, 1) <= 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		ok(w, r)
	}))
	defer srv.Close()

	p, err := NewORSMatrixProvider("test-key", nil, nil, ORSOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	p.retryDelay = time.Millisecond

	if _, err := p.TravelMatrix(context.Background(), threeStops()); err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if got := atomic.LoadInt32(&failures); got != 3 {
		t.Fatalf("server hit %d times, want 3", got)
	}
}

func TestORSMatrixProviderDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	p, err := NewORSMatrixProvider("test-key", nil, nil, ORSOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	p.retryDelay = time.Millisecond

	if _, err := p.TravelMatrix(context.Background(), threeStops()); err == nil {
		t.Fatalf("expected error for 403")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("server hit %d times, want 1", got)
	}
}

func TestORSMatrixProviderRejectsUnroutablePair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"distances":[[0,null],[5,0]],"durations":[[0,null],[5,0]]}`))
	}))
	defer srv.Close()

	p, err := NewORSMatrixProvider("test-key", nil, nil, ORSOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	if _, err := p.TravelMatrix(context.Background(), threeStops()[:2]); err == nil {
		t.Fatalf("expected error for null matrix entry")
	}
}

func TestORSMatrixProviderGeocodesAddresses(t *testing.T) {
	var calls, geocodes int32
	matrix := matrixHandler(t, &calls)
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/search", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&geocodes, 1)
		if got := r.URL.Query().Get("text"); got != "1 Main St, Tempe" {
			t.Errorf("geocode text = %q", got)
		}
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[-111.94,33.42]}}]}`))
	})
	mux.HandleFunc("/v2/matrix/driving-car", matrix)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	geo := &memoryGeocodeCache{m: map[string]domain.Coordinates{}}
	p, err := NewORSMatrixProvider("test-key", nil, geo, ORSOptions{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	stops := threeStops()
	stops[1] = domain.Stop{ID: "A", Address: "  1 Main St,   Tempe "}

	if _, err := p.TravelMatrix(context.Background(), stops); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&geocodes); got != 1 {
		t.Fatalf("geocode called %d times, want 1", got)
	}
	if c, ok := geo.m["1 Main St, Tempe"]; !ok || c.Lon != -111.94 {
		t.Fatalf("geocode cache = %+v", geo.m)
	}
}

func TestNewORSMatrixProviderRequiresKey(t *testing.T) {
	if _, err := NewORSMatrixProvider("", nil, nil, ORSOptions{}); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}
