package api

import (
	"itinerary-service/internal/api/handlers"
	"itinerary-service/internal/metrics"
	"itinerary-service/internal/services"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps services.PlanTripDeps, planTimeout time.Duration) http.Handler {
	metrics.RegisterDefault()

	mux := http.NewServeMux()

	tripHandler := &handlers.TripHandler{Repo: deps.Repo}
	itineraryHandler := &handlers.ItineraryHandler{Deps: deps, Timeout: planTimeout}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/trips", tripHandler.Trips)
	mux.HandleFunc("/itineraries", itineraryHandler.Itineraries)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return requestIDMiddleware(loggingMiddleware(mux))
}
