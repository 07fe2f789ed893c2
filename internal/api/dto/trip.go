package dto

import "time"

type WindowRequest struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

type StopRequest struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Address      string         `json:"address"`
	Lon          *float64       `json:"lon"`
	Lat          *float64       `json:"lat"`
	IdealWindow  *WindowRequest `json:"ideal_window"`
	VisitMinutes *int           `json:"visit_minutes"`
}

// Stops are ordered: the first is the start, the last is the end.
type CreateTripRequest struct {
	Name  string        `json:"name"`
	Date  string        `json:"date"`
	Stops []StopRequest `json:"stops"`
}

type StopResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name,omitempty"`
	Address      string         `json:"address,omitempty"`
	Lon          *float64       `json:"lon,omitempty"`
	Lat          *float64       `json:"lat,omitempty"`
	IdealWindow  *WindowRequest `json:"ideal_window,omitempty"`
	VisitMinutes *int           `json:"visit_minutes,omitempty"`
}

type TripResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Date      string         `json:"date"`
	CreatedAt time.Time      `json:"created_at"`
	Stops     []StopResponse `json:"stops,omitempty"`
}

type ListTripsResponse struct {
	Trips []TripResponse `json:"trips"`
}
