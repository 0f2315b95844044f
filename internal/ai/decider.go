// Package ai feeds AI-mode matches with paddle input. The decision itself is
// delegated to an external service; this package only translates the latest
// known target into up/down flags, the same input surface human key presses
// use.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Observation is the slice of match state the decider sees.
type Observation struct {
	BallX        float64 `json:"ballX"`
	BallY        float64 `json:"ballY"`
	BallDirX     float64 `json:"ballDirX"`
	BallDirY     float64 `json:"ballDirY"`
	BallSpeed    float64 `json:"ballSpeed"`
	PaddleY      float64 `json:"paddleY"`
	PaddleHeight float64 `json:"paddleHeight"`
	FieldWidth   float64 `json:"fieldWidth"`
	FieldHeight  float64 `json:"fieldHeight"`
}

// Decider produces a target paddle Y for an observation.
type Decider interface {
	TargetY(ctx context.Context, obs Observation) (float64, error)
}

// HTTPDecider asks the external AI decision service.
type HTTPDecider struct {
	url    string
	client *http.Client
}

// NewHTTPDecider creates a decider posting observations to the given URL.
// The timeout is short on purpose: a stale answer is better than a stalled
// controller.
func NewHTTPDecider(url string) *HTTPDecider {
	return &HTTPDecider{
		url:    url,
		client: &http.Client{Timeout: 500 * time.Millisecond},
	}
}

// TargetY posts the observation and decodes {"targetY": ...}.
func (d *HTTPDecider) TargetY(ctx context.Context, obs Observation) (float64, error) {
	body, err := json.Marshal(obs)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("ai service returned %d", resp.StatusCode)
	}

	var out struct {
		TargetY float64 `json:"targetY"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.TargetY, nil
}

// TrackingDecider is the in-process fallback when no service is configured:
// follow the ball's vertical position.
type TrackingDecider struct{}

// TargetY returns the ball's current Y.
func (TrackingDecider) TargetY(_ context.Context, obs Observation) (float64, error) {
	return obs.BallY, nil
}
