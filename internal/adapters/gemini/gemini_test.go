package gemini

import (
	"context"
	"errors"
	"itinerary-service/internal/domain"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"
)

type fakeGenerator struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
	models  []string
}

func (f *fakeGenerator) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.models = append(f.models, model)
	f.prompts = append(f.prompts, contents[0].Parts[0].Text)

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}

	reply := ""
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: reply}}}},
		},
	}, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func testClient(gen *fakeGenerator) *Client {
	c := newClient(gen, "models/test-model")
	c.retryDelay = time.Millisecond
	return c
}

func tripStops() []domain.Stop {
	return []domain.Stop{
		{ID: "hotel", Name: "Hotel"},
		{ID: "museum", Name: "Art Museum", Address: "1 Museum Way"},
		{ID: "park", Name: "City Park", IdealWindow: &domain.IdealVisitWindow{StartHour: 7, EndHour: 9}},
		{ID: "station", Name: "Central Station"},
	}
}

func TestWindowProviderParsesAndCaches(t *testing.T) {
	gen := &fakeGenerator{replies: []string{`{"windows":[
		{"stop_id":"museum","has_window":true,"start_hour":10,"end_hour":12},
		{"stop_id":"station","has_window":false,"start_hour":0,"end_hour":0},
		{"stop_id":"unknown","has_window":true,"start_hour":1,"end_hour":2}
	]}`}}
	p := NewWindowProvider(testClient(gen), time.Hour)
	date := time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)

	got, err := p.IdealWindows(context.Background(), tripStops(), date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got["museum"] == nil || *got["museum"] != (domain.IdealVisitWindow{StartHour: 10, EndHour: 12}) {
		t.Fatalf("windows = %+v, want museum 10-12 only", got)
	}

	prompt := gen.prompts[0]
	if strings.Contains(prompt, `"hotel"`) || strings.Contains(prompt, `"park"`) {
		t.Fatalf("prompt should skip the start stop and stops with declared windows:\n%s", prompt)
	}
	if gen.models[0] != "test-model" {
		t.Fatalf("model = %q, want test-model", gen.models[0])
	}

	// Mutating the result must not leak into the cache.
	got["museum"].StartHour = 0

	again, err := p.IdealWindows(context.Background(), tripStops(), date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls() != 1 {
		t.Fatalf("generator called %d times, want 1", gen.calls())
	}
	if again["museum"].StartHour != 10 {
		t.Fatalf("cached window was mutated: %+v", again["museum"])
	}
}

func TestWindowProviderDropsInvalidWindows(t *testing.T) {
	gen := &fakeGenerator{replies: []string{`{"windows":[{"stop_id":"museum","has_window":true,"start_hour":18,"end_hour":9}]}`}}
	p := NewWindowProvider(testClient(gen), time.Hour)

	got, err := p.IdealWindows(context.Background(), tripStops(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("windows = %+v, want none", got)
	}
}

func TestWindowProviderNothingToAsk(t *testing.T) {
	gen := &fakeGenerator{}
	p := NewWindowProvider(testClient(gen), time.Hour)

	got, err := p.IdealWindows(context.Background(), tripStops()[:1], time.Now())
	if err != nil || len(got) != 0 {
		t.Fatalf("got %+v, %v; want empty, nil", got, err)
	}
	if gen.calls() != 0 {
		t.Fatalf("generator should not be called")
	}
}

func TestWindowProviderMalformedReply(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"sorry, I cannot help"}}
	p := NewWindowProvider(testClient(gen), time.Hour)

	if _, err := p.IdealWindows(context.Background(), tripStops(), time.Now()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClientRetriesTransientErrors(t *testing.T) {
	gen := &fakeGenerator{
		errs:    []error{errors.New("503 service unavailable"), nil},
		replies: []string{"hello"},
	}
	c := testClient(gen)

	text, err := c.generate(context.Background(), "hi", &genai.GenerateContentConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello" || gen.calls() != 2 {
		t.Fatalf("text = %q after %d calls; want hello after 2", text, gen.calls())
	}
}

func TestClientDoesNotRetryPermanentErrors(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("invalid argument: bad schema")}}
	c := testClient(gen)

	if _, err := c.generate(context.Background(), "hi", &genai.GenerateContentConfig{}); err == nil {
		t.Fatalf("expected error")
	}
	if gen.calls() != 1 {
		t.Fatalf("generator called %d times, want 1", gen.calls())
	}
}

func TestNarratorDescribe(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"  Leave the hotel at 09:00 and enjoy the museum.  "}}
	n := NewNarrator(testClient(gen))

	depart := time.Date(2025, 5, 3, 9, 0, 0, 0, time.UTC)
	trip := &domain.Trip{Name: "Museum day", Date: depart, Stops: tripStops()}
	schedule := domain.Schedule{
		StartHour: 9,
		Stops: []domain.ScheduledStop{
			{StopIndex: 0, StopID: "hotel", ArriveAt: depart, LeaveAt: depart},
			{StopIndex: 1, StopID: "museum", ArriveAt: depart.Add(20 * time.Minute), LeaveAt: depart.Add(80 * time.Minute), DeviationHours: 1},
		},
	}

	text, err := n.Describe(context.Background(), trip, schedule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Leave the hotel at 09:00 and enjoy the museum." {
		t.Fatalf("text = %q", text)
	}

	prompt := gen.prompts[0]
	for _, want := range []string{"Museum day", "09:00", "Art Museum: arrive 09:20, leave 10:20", "1 h outside"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
