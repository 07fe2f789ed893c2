package gemini

import (
	"context"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/platform/obs"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Narrator turns a computed schedule into a short travel description.
type Narrator struct {
	client *Client
}

func NewNarrator(client *Client) *Narrator {
	return &Narrator{client: client}
}

func (n *Narrator) Describe(ctx context.Context, trip *domain.Trip, schedule domain.Schedule) (_ string, err error) {
	defer obs.Time(ctx, "gemini.Describe")(&err)

	text, err := n.client.generate(ctx, narrativePrompt(trip, schedule), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.4),
		MaxOutputTokens: 400,
	})
	if err != nil {
		return "", fmt.Errorf("describe schedule: %w", err)
	}
	return text, nil
}

func narrativePrompt(trip *domain.Trip, s domain.Schedule) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a friendly plan of at most four sentences for the trip %q on %s.\n", trip.Name, trip.Date.Format(time.DateOnly))
	fmt.Fprintf(&sb, "Departure is at %02d:%02d. Total driving: %.1f km, %.0f minutes.\n",
		s.StartHour, s.StartMinute, s.TotalDistance/1000, s.TotalDuration/60)
	sb.WriteString("Stops in order, with arrival and departure times:\n")
	for _, st := range s.Stops {
		name := st.StopID
		if st.StopIndex < len(trip.Stops) && trip.Stops[st.StopIndex].Name != "" {
			name = trip.Stops[st.StopIndex].Name
		}
		fmt.Fprintf(&sb, "- %s: arrive %s, leave %s", name, st.ArriveAt.Format("15:04"), st.LeaveAt.Format("15:04"))
		if st.DeviationHours > 0 {
			fmt.Fprintf(&sb, " (%d h outside its ideal window)", st.DeviationHours)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Do not change the order or the times. Plain text, no markdown.")
	return sb.String()
}
