package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/platform/obs"
	"log"
	"strings"
	"time"

	"github.com/maypok86/otter/v2"
	"google.golang.org/genai"
)

type windowResponse struct {
	Windows []struct {
		StopID    string `json:"stop_id"`
		HasWindow bool   `json:"has_window"`
		StartHour int    `json:"start_hour"`
		EndHour   int    `json:"end_hour"`
	} `json:"windows"`
}

// WindowProvider infers ideal visit windows (opening hours, best time to visit)
// for stops that do not declare one. Answers are memoized per stop list and date.
type WindowProvider struct {
	client *Client
	cache  *otter.Cache[string, map[string]*domain.IdealVisitWindow]
}

func NewWindowProvider(client *Client, ttl time.Duration) *WindowProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cache := otter.Must(&otter.Options[string, map[string]*domain.IdealVisitWindow]{
		MaximumSize:      10_000,
		ExpiryCalculator: otter.ExpiryWriting[string, map[string]*domain.IdealVisitWindow](ttl),
	})
	return &WindowProvider{client: client, cache: cache}
}

// IdealWindows asks the model about every stop after the start that has no
// declared window. The start stop is never penalized, so it is skipped.
func (p *WindowProvider) IdealWindows(
	ctx context.Context,
	stops []domain.Stop,
	date time.Time,
) (_ map[string]*domain.IdealVisitWindow, err error) {
	defer obs.Time(ctx, "gemini.IdealWindows")(&err)

	ask := make([]domain.Stop, 0, len(stops))
	for i, s := range stops {
		if i == 0 || s.IdealWindow != nil {
			continue
		}
		ask = append(ask, s)
	}
	if len(ask) == 0 {
		return map[string]*domain.IdealVisitWindow{}, nil
	}

	key := windowCacheKey(ask, date)
	if cached, ok := p.cache.GetIfPresent(key); ok {
		return copyWindows(cached), nil
	}

	text, err := p.client.generate(ctx, windowPrompt(ask, date), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		ResponseMIMEType: "application/json",
		ResponseSchema:   windowSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("infer ideal windows: %w", err)
	}

	var decoded windowResponse
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, fmt.Errorf("infer ideal windows: decode response: %w", err)
	}

	known := make(map[string]struct{}, len(ask))
	for _, s := range ask {
		known[s.ID] = struct{}{}
	}

	out := make(map[string]*domain.IdealVisitWindow, len(decoded.Windows))
	for _, w := range decoded.Windows {
		if _, ok := known[w.StopID]; !ok || !w.HasWindow {
			continue
		}
		win := domain.IdealVisitWindow{StartHour: w.StartHour, EndHour: w.EndHour}
		if err := win.Validate(); err != nil {
			log.Printf("op=gemini.IdealWindows stop=%q dropped invalid window: %v", w.StopID, err)
			continue
		}
		out[w.StopID] = &win
	}

	p.cache.Set(key, out)
	return copyWindows(out), nil
}

func windowPrompt(stops []domain.Stop, date time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "A traveller visits the following places on %s (%s).\n", date.Format(time.DateOnly), date.Weekday())
	sb.WriteString("For each place, give the hour range in which arriving is ideal, based on opening hours and typical crowds.\n")
	sb.WriteString("Hours are whole clock hours 0-23; start_hour <= end_hour; an arrival at any minute of end_hour still counts.\n")
	sb.WriteString("Set has_window to false for places that can be visited at any time.\n\nPlaces:\n")
	for _, s := range stops {
		fmt.Fprintf(&sb, "- stop_id=%q name=%q address=%q\n", s.ID, s.Name, s.Address)
	}
	return sb.String()
}

func windowSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"windows": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"stop_id":    {Type: genai.TypeString, Description: "The stop_id exactly as given"},
						"has_window": {Type: genai.TypeBoolean, Description: "Whether arrival time matters for this place"},
						"start_hour": {Type: genai.TypeInteger, Description: "First ideal arrival hour, 0-23"},
						"end_hour":   {Type: genai.TypeInteger, Description: "Last ideal arrival hour, 0-23"},
					},
					PropertyOrdering: []string{"stop_id", "has_window", "start_hour", "end_hour"},
					Required:         []string{"stop_id", "has_window", "start_hour", "end_hour"},
				},
			},
		},
		Required: []string{"windows"},
	}
}

func windowCacheKey(stops []domain.Stop, date time.Time) string {
	h := sha256.New()
	h.Write([]byte(date.Format(time.DateOnly)))
	for _, s := range stops {
		fmt.Fprintf(h, "|%s|%s|%s|%s", s.ID, s.Name, s.Address, s.Coordinates.Key())
	}
	return hex.EncodeToString(h.Sum(nil))
}

func copyWindows(in map[string]*domain.IdealVisitWindow) map[string]*domain.IdealVisitWindow {
	out := make(map[string]*domain.IdealVisitWindow, len(in))
	for k, v := range in {
		w := *v
		out[k] = &w
	}
	return out
}
