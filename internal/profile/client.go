// Package profile delivers finished match and tournament results to the
// external profile service. Delivery is fire-and-forget: failures are logged
// and dropped, and game cleanup never waits on the service.
package profile

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"pong-arena/internal/room"
)

const requestTimeout = 5 * time.Second

// Client posts result reports to the profile service. A nil Client is safe
// to skip at wiring time; a constructed Client with an empty base URL
// becomes a no-op that only logs.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a notifier for the given profile service base URL,
// e.g. "http://profile:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// NotifyMatch implements room.Notifier.
func (c *Client) NotifyMatch(report room.MatchReport) {
	go c.post("/internal/match", report)
}

// NotifyTournament implements room.Notifier.
func (c *Client) NotifyTournament(report room.TournamentReport) {
	go c.post("/internal/tournament", report)
}

func (c *Client) post(path string, body any) {
	if c.baseURL == "" {
		log.Printf("📊 Profile service disabled, dropping report for %s", path)
		return
	}

	payload, err := json.Marshal(body)
	if err != nil {
		log.Printf("⚠️ Profile report marshal failed for %s: %v", path, err)
		return
	}

	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("⚠️ Profile report to %s failed: %v", path, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("⚠️ Profile service rejected %s: HTTP %d", path, resp.StatusCode)
		return
	}
	log.Printf("📊 Profile report delivered to %s", path)
}
