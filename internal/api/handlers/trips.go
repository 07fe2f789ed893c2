package handlers

import (
	"errors"
	"fmt"
	"itinerary-service/internal/api/dto"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/ports"
	"net/http"
	"strings"
	"time"
)

// TripHandler lists and creates trips.
type TripHandler struct {
	Repo ports.TripRepository
}

func (h *TripHandler) Trips(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

func (h *TripHandler) list(w http.ResponseWriter, r *http.Request) {
	trips, err := h.Repo.ListTrips(r.Context())
	if err != nil {
		writeServiceError(w, r, "list trips", err)
		return
	}

	res := dto.ListTripsResponse{Trips: make([]dto.TripResponse, 0, len(trips))}
	for _, t := range trips {
		res.Trips = append(res.Trips, toTripResponse(t))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *TripHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTripRequest
	if !decodeBody(w, r, &req) {
		return
	}

	trip, err := fromCreateTripRequest(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Repo.CreateTrip(r.Context(), trip); err != nil {
		writeServiceError(w, r, "create trip", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toTripResponse(trip))
}

func fromCreateTripRequest(req dto.CreateTripRequest) (*domain.Trip, error) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(req.Date))
	if err != nil {
		return nil, errors.New("date must be formatted YYYY-MM-DD")
	}

	trip := &domain.Trip{
		Name:  strings.TrimSpace(req.Name),
		Date:  date,
		Stops: make([]domain.Stop, 0, len(req.Stops)),
	}
	for i, s := range req.Stops {
		stop := domain.Stop{
			ID:                   strings.TrimSpace(s.ID),
			Name:                 strings.TrimSpace(s.Name),
			Address:              strings.TrimSpace(s.Address),
			VisitDurationMinutes: s.VisitMinutes,
		}
		if (s.Lon == nil) != (s.Lat == nil) {
			return nil, fmt.Errorf("stop #%d: lon and lat must be given together", i+1)
		}
		if s.Lon != nil {
			stop.Coordinates = domain.Coordinates{Lon: *s.Lon, Lat: *s.Lat}
		}
		if s.IdealWindow != nil {
			stop.IdealWindow = &domain.IdealVisitWindow{StartHour: s.IdealWindow.StartHour, EndHour: s.IdealWindow.EndHour}
		}
		trip.Stops = append(trip.Stops, stop)
	}

	if err := trip.Validate(); err != nil {
		return nil, err
	}
	return trip, nil
}

func toTripResponse(t *domain.Trip) dto.TripResponse {
	res := dto.TripResponse{
		ID:        t.ID,
		Name:      t.Name,
		Date:      t.Date.Format(time.DateOnly),
		CreatedAt: t.CreatedAt,
	}
	for _, s := range t.Stops {
		sr := dto.StopResponse{
			ID:           s.ID,
			Name:         s.Name,
			Address:      s.Address,
			VisitMinutes: s.VisitDurationMinutes,
		}
		if !s.Coordinates.IsZero() {
			lon, lat := s.Coordinates.Lon, s.Coordinates.Lat
			sr.Lon, sr.Lat = &lon, &lat
		}
		if s.IdealWindow != nil {
			sr.IdealWindow = &dto.WindowRequest{StartHour: s.IdealWindow.StartHour, EndHour: s.IdealWindow.EndHour}
		}
		res.Stops = append(res.Stops, sr)
	}
	return res
}
