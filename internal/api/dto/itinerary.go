package dto

import "time"

type PlanItinerariesRequest struct {
	TripID string `json:"trip_id"`
	// TopK defaults to the server configuration when zero.
	TopK int `json:"top_k"`
	// Strategy is "exhaustive" or "heuristic"; empty uses the server default.
	Strategy string `json:"strategy"`
}

type ScheduledStopResponse struct {
	StopID         string    `json:"stop_id"`
	ArriveAt       time.Time `json:"arrive_at"`
	LeaveAt        time.Time `json:"leave_at"`
	DeviationHours int       `json:"deviation_hours"`
}

type ItineraryResponse struct {
	ID                   string                  `json:"id"`
	Rank                 int                     `json:"rank"`
	Route                []string                `json:"route"`
	DepartAt             time.Time               `json:"depart_at"`
	StartTime            string                  `json:"start_time"`
	TotalDistanceMeters  float64                 `json:"total_distance_meters"`
	TotalDurationSeconds float64                 `json:"total_duration_seconds"`
	BaseScore            float64                 `json:"base_score"`
	Penalty              float64                 `json:"penalty"`
	TotalScore           float64                 `json:"total_score"`
	Stops                []ScheduledStopResponse `json:"stops"`
	Narrative            string                  `json:"narrative"`
}

type ListItinerariesResponse struct {
	TripID      string              `json:"trip_id"`
	Itineraries []ItineraryResponse `json:"itineraries"`
}
