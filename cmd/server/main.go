package main

import (
	"context"
	"database/sql"
	"itinerary-service/internal/adapters/cache"
	"itinerary-service/internal/adapters/distance"
	"itinerary-service/internal/adapters/gemini"
	"itinerary-service/internal/adapters/repositories"
	"itinerary-service/internal/api"
	"itinerary-service/internal/config"
	"itinerary-service/internal/platform/db"
	"itinerary-service/internal/ports"
	"itinerary-service/internal/services"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, ORS, Gemini) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	optCfg, err := config.LoadOptimizer(cfg.OptimizerConfigPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := repositories.InitSchema(conn); err != nil {
		log.Fatal(err)
	}

	deps := services.PlanTripDeps{
		Repo:   repositories.NewPostgresTripRepository(conn),
		Matrix: matrixProvider(cfg, conn),
		Config: optCfg,
	}

	// Window inference and narratives are optional; without a key the planner
	// uses declared windows only and plain-text narratives.
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatal(err)
		}
		deps.Windows = gemini.NewWindowProvider(client, 24*time.Hour)
		deps.Narrator = gemini.NewNarrator(client)
		log.Printf("Gemini enabled model=%s", cfg.GeminiModel)
	}

	router := api.NewRouter(deps, cfg.PlanTimeout)

	// Timeouts are tuned for cold-cache planning (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.PlanTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// matrixProvider prefers OpenRouteService with Redis (or Postgres) caching and
// falls back to straight-line estimates when no ORS key is configured.
func matrixProvider(cfg config.App, conn *sql.DB) ports.TravelMatrixProvider {
	if cfg.ORSAPIKey == "" {
		log.Println("ORS_API_KEY not set: using haversine travel estimates")
		return distance.NewHaversineMatrixProvider(0, 0)
	}

	var distanceCache ports.DistanceCache = cache.NewSQLDistanceCache(conn, cfg.CacheTTL)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("parse REDIS_URL: %v", err)
		}
		distanceCache = cache.NewRedisDistanceCache(redis.NewClient(opt), cfg.CacheTTL)
		log.Println("distance cache backend=redis")
	}

	provider, err := distance.NewORSMatrixProvider(
		cfg.ORSAPIKey,
		distanceCache,
		cache.NewSQLGeocodeCache(conn, cfg.CacheTTL),
		distance.ORSOptions{
			BaseURL:           cfg.ORSBaseURL,
			Profile:           cfg.ORSProfile,
			GeocodeCountry:    cfg.ORSCountry,
			RequestsPerMinute: cfg.ORSRatePerMinute,
		},
	)
	if err != nil {
		log.Fatal(err)
	}
	return provider
}
