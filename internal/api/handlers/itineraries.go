package handlers

import (
	"context"
	"fmt"
	"itinerary-service/internal/api/dto"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/services"
	"net/http"
	"strings"
	"time"
)

// ItineraryHandler plans itineraries for stored trips and returns the last plan.
type ItineraryHandler struct {
	Deps services.PlanTripDeps
	// Timeout bounds one planning request, including external calls.
	Timeout time.Duration
}

func (h *ItineraryHandler) Itineraries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.plan(w, r)
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

// plan runs the optimizer for one trip. Stored itineraries of the trip are replaced.
func (h *ItineraryHandler) plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanItinerariesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tripID := strings.TrimSpace(req.TripID)
	if tripID == "" {
		writeError(w, r, http.StatusBadRequest, "trip_id is required")
		return
	}
	if req.TopK < 0 {
		writeError(w, r, http.StatusBadRequest, "top_k must not be negative")
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	its, err := services.PlanTrip(ctx, services.PlanTripRequest{
		TripID:   tripID,
		TopK:     req.TopK,
		Strategy: req.Strategy,
	}, h.Deps)
	if err != nil {
		writeServiceError(w, r, "plan trip", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toListItinerariesResponse(tripID, its))
}

func (h *ItineraryHandler) list(w http.ResponseWriter, r *http.Request) {
	tripID := strings.TrimSpace(r.URL.Query().Get("trip_id"))
	if tripID == "" {
		writeError(w, r, http.StatusBadRequest, "trip_id query parameter is required")
		return
	}

	if _, err := h.Deps.Repo.GetTrip(r.Context(), tripID); err != nil {
		writeServiceError(w, r, "get trip", err)
		return
	}

	its, err := h.Deps.Repo.ListItineraries(r.Context(), tripID)
	if err != nil {
		writeServiceError(w, r, "list itineraries", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toListItinerariesResponse(tripID, its))
}

func toListItinerariesResponse(tripID string, its []domain.Itinerary) dto.ListItinerariesResponse {
	res := dto.ListItinerariesResponse{
		TripID:      tripID,
		Itineraries: make([]dto.ItineraryResponse, 0, len(its)),
	}
	for _, it := range its {
		s := it.Schedule
		ir := dto.ItineraryResponse{
			ID:                   it.ID,
			Rank:                 it.Rank,
			Route:                make([]string, 0, len(s.Stops)),
			DepartAt:             s.DepartAt,
			StartTime:            fmt.Sprintf("%02d:%02d", s.StartHour, s.StartMinute),
			TotalDistanceMeters:  s.TotalDistance,
			TotalDurationSeconds: s.TotalDuration,
			BaseScore:            s.BaseScore,
			Penalty:              s.Penalty,
			TotalScore:           s.TotalScore,
			Stops:                make([]dto.ScheduledStopResponse, 0, len(s.Stops)),
			Narrative:            it.Narrative,
		}
		for _, st := range s.Stops {
			ir.Route = append(ir.Route, st.StopID)
			ir.Stops = append(ir.Stops, dto.ScheduledStopResponse{
				StopID:         st.StopID,
				ArriveAt:       st.ArriveAt,
				LeaveAt:        st.LeaveAt,
				DeviationHours: st.DeviationHours,
			})
		}
		res.Itineraries = append(res.Itineraries, ir)
	}
	return res
}
