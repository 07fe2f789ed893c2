package config

import (
	"fmt"
	"itinerary-service/internal/optimizer"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// App is the process configuration read from the environment.
type App struct {
	Port        string
	DatabaseURL string
	SeedPath    string

	ORSAPIKey        string
	ORSBaseURL       string
	ORSProfile       string
	ORSCountry       string
	ORSRatePerMinute int

	RedisURL string
	// CacheTTL bounds how long distance and geocode cache entries are served.
	CacheTTL time.Duration

	GeminiAPIKey string
	GeminiModel  string

	// OptimizerConfigPath points at an optional YAML file of optimizer overrides.
	OptimizerConfigPath string
	PlanTimeout         time.Duration
}

func Load() App {
	return App{
		Port:                Get("PORT", "8080"),
		DatabaseURL:         Get("DATABASE_URL", ""),
		SeedPath:            Get("SEED_PATH", "data/seeds/trips.json"),
		ORSAPIKey:           Get("ORS_API_KEY", ""),
		ORSBaseURL:          Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		ORSProfile:          Get("ORS_PROFILE", "driving-car"),
		ORSCountry:          Get("ORS_GEOCODE_COUNTRY", ""),
		ORSRatePerMinute:    GetInt("ORS_RATE_PER_MINUTE", 40),
		RedisURL:            Get("REDIS_URL", ""),
		CacheTTL:            GetDuration("CACHE_TTL", 7*24*time.Hour),
		GeminiAPIKey:        Get("GEMINI_API_KEY", ""),
		GeminiModel:         Get("GEMINI_MODEL", "gemini-2.5-flash"),
		OptimizerConfigPath: Get("OPTIMIZER_CONFIG", ""),
		PlanTimeout:         GetDuration("PLAN_TIMEOUT", 90*time.Second),
	}
}

// optimizerFile mirrors the YAML overrides; nil fields keep the defaults.
type optimizerFile struct {
	UseDistance         *bool    `yaml:"use_distance"`
	UseDuration         *bool    `yaml:"use_duration"`
	TopK                *int     `yaml:"top_k"`
	WeightAvg           *float64 `yaml:"weight_avg"`
	WeightSpread        *float64 `yaml:"weight_spread"`
	MetersToSeconds     *float64 `yaml:"meters_to_seconds"`
	DefaultVisitMinutes *int     `yaml:"default_visit_minutes"`
	MaxOrderings        *uint64  `yaml:"max_orderings"`
	Generator           string   `yaml:"generator"`
	HeuristicMaxPasses  int      `yaml:"heuristic_max_passes"`
}

// LoadOptimizer returns optimizer.DefaultConfig with the overrides from the YAML
// file at path applied. An empty path returns the defaults.
func LoadOptimizer(path string) (optimizer.Config, error) {
	cfg := optimizer.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load optimizer config: read %q: %w", path, err)
	}

	var f optimizerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("load optimizer config: parse %q: %w", path, err)
	}

	if f.UseDistance != nil {
		cfg.UseDistance = *f.UseDistance
	}
	if f.UseDuration != nil {
		cfg.UseDuration = *f.UseDuration
	}
	if f.TopK != nil {
		cfg.TopK = *f.TopK
	}
	if f.WeightAvg != nil {
		cfg.WeightAvg = *f.WeightAvg
	}
	if f.WeightSpread != nil {
		cfg.WeightSpread = *f.WeightSpread
	}
	if f.MetersToSeconds != nil {
		cfg.MetersToSeconds = *f.MetersToSeconds
	}
	if f.DefaultVisitMinutes != nil {
		cfg.DefaultVisitMinutes = *f.DefaultVisitMinutes
	}
	if f.MaxOrderings != nil {
		cfg.MaxOrderings = *f.MaxOrderings
	}

	switch strings.ToLower(strings.TrimSpace(f.Generator)) {
	case "", "exhaustive":
	case "heuristic":
		cfg.Generator = optimizer.HeuristicGenerator{MaxPasses: f.HeuristicMaxPasses}
	default:
		return cfg, fmt.Errorf("load optimizer config: unknown generator %q", f.Generator)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("load optimizer config %q: %w", path, err)
	}

	return cfg, nil
}
