package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/genai"
)

// generator is the subset of *genai.Models the adapters call.
type generator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client sends single-turn prompts to a Gemini model, retrying transient failures.
type Client struct {
	gen        generator
	model      string
	retryDelay time.Duration
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newClient(gc.Models, model), nil
}

func newClient(gen generator, model string) *Client {
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Client{gen: gen, model: model, retryDelay: 200 * time.Millisecond}
}

// generate returns the text of the first candidate.
func (c *Client) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	var resp *genai.GenerateContentResponse
	var lastErr error
	err := retry.Do(
		func() error {
			var genErr error
			resp, genErr = c.gen.GenerateContent(ctx, c.model, contents, cfg)
			lastErr = genErr
			return genErr
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("op=gemini.retry model=%s attempt=%d err=%v", c.model, n+1, err)
		}),
	)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return "", fmt.Errorf("gemini generate: %w", lastErr)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini generate: empty response")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", errors.New("gemini generate: no content in response")
	}

	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("gemini generate: empty text in response")
	}

	return text, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"rate limit", "quota", "timeout", "deadline", "unavailable",
		"internal server error", "429", "500", "502", "503", "504",
	} {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
