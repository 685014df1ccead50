// Package engine talks to the external Q&A analysis engine. The engine owns
// the actual natural-language analysis; this client only submits artifacts
// and relays the structured outcome.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

func NewClient(baseURL string, requestsPerSecond float64, timeout time.Duration, logger zerolog.Logger) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:     logger,
	}
}

type analyzeRequest struct {
	ArtifactRef string `json:"artifact_ref"`
}

type analyzeResponse struct {
	Outcome json.RawMessage `json:"outcome"`
	Error   string          `json:"error,omitempty"`
}

// Analyze submits one artifact for analysis and blocks until the engine
// returns an outcome or fails.
func (c *Client) Analyze(ctx context.Context, artifactRef string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(analyzeRequest{ArtifactRef: artifactRef})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	fullURL := c.baseURL + "/analyze"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("url", fullURL).Str("artifact_ref", artifactRef).Msg("submitting artifact to engine")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read engine response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed analyzeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode engine response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("engine analysis failed: %s", parsed.Error)
	}
	if len(parsed.Outcome) == 0 {
		return nil, fmt.Errorf("engine returned empty outcome")
	}

	return parsed.Outcome, nil
}
