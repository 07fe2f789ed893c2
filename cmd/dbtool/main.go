package main

import (
	"context"
	"database/sql"
	"flag"
	"itinerary-service/internal/adapters/cache"
	"itinerary-service/internal/adapters/repositories"
	"itinerary-service/internal/config"
	"itinerary-service/internal/platform/db"
	"log"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	seedPath := flag.String("seed", config.Get("SEED_PATH", "data/seeds/trips.json"), "JSON file of trips to seed")
	schemaOnly := flag.Bool("schema-only", false, "create tables without seeding")
	prune := flag.Bool("prune-cache", false, "delete distance and geocode cache rows older than CACHE_TTL")
	flag.Parse()

	databaseURL := config.Get("DATABASE_URL", "")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initAndSeed(conn, *seedPath, *schemaOnly); err != nil {
		log.Fatal(err)
	}

	if *prune {
		if err := pruneCaches(conn, config.GetDuration("CACHE_TTL", 7*24*time.Hour)); err != nil {
			log.Fatal(err)
		}
	}
}

func pruneCaches(conn *sql.DB, ttl time.Duration) error {
	ctx := context.Background()

	dist, err := cache.NewSQLDistanceCache(conn, ttl).Prune(ctx)
	if err != nil {
		return err
	}
	geo, err := cache.NewSQLGeocodeCache(conn, ttl).Prune(ctx)
	if err != nil {
		return err
	}
	log.Printf("Cache pruned. ttl=%s distance_rows=%d geocode_rows=%d", ttl, dist, geo)

	return nil
}

func initAndSeed(conn *sql.DB, seedPath string, schemaOnly bool) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(conn); err != nil {
		return err
	}
	log.Println("Schema ready.")

	if schemaOnly {
		return nil
	}

	log.Printf("Seeding trips from %s...", seedPath)
	repo := repositories.NewPostgresTripRepository(conn)
	n, err := repositories.SeedFromJSON(context.Background(), repo, seedPath)
	if err != nil {
		return err
	}
	log.Printf("Seeding complete. created=%d", n)

	return nil
}
