package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"airguard/internal/models"
)

// DefaultTimeout bounds the classifier call; the upstream service defines no
// timeout of its own, and an unbounded wait would stall the router.
const DefaultTimeout = 10 * time.Second

// Request is the classifier wire input: one synchronized window per channel
// plus the current AQI.
type Request struct {
	Smoke       []float64 `json:"smoke"`
	Humidity    []float64 `json:"humidity"`
	Temperature []float64 `json:"temperature"`
	AQI         float64   `json:"aqi"`
}

type response struct {
	Cause                string  `json:"cause"`
	Confidence           float64 `json:"confidence"`
	FireProbability      float64 `json:"fire_probability"`
	PollutionProbability float64 `json:"pollution_probability"`
	DecisionSource       string  `json:"decision_source"`
	Error                bool    `json:"error,omitempty"`
	Message              string  `json:"message,omitempty"`
}

// Client calls the external FIRE/POLLUTION classifier over HTTP.
// It returns errors as-is; the fail-safe substitution is the caller's policy.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Classify posts the sensor window and returns the model verdict.
func (c *Client) Classify(ctx context.Context, req Request) (models.ClassificationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("marshal classifier request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("build classifier request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("call classifier: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.ClassificationResult{}, fmt.Errorf("classifier status %d: %s", resp.StatusCode, string(b))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.ClassificationResult{}, fmt.Errorf("decode classifier response: %w", err)
	}
	if out.Error {
		return models.ClassificationResult{}, fmt.Errorf("classifier error: %s", out.Message)
	}
	if out.Cause != models.CauseFire && out.Cause != models.CausePollution {
		return models.ClassificationResult{}, fmt.Errorf("classifier returned unknown cause %q", out.Cause)
	}

	source := out.DecisionSource
	if source == "" {
		source = models.DecisionModel
	}
	return models.ClassificationResult{
		Cause:                out.Cause,
		Confidence:           out.Confidence,
		FireProbability:      out.FireProbability,
		PollutionProbability: out.PollutionProbability,
		DecisionSource:       source,
	}, nil
}
