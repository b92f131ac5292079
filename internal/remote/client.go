// Package remote reconciles local tracker state with the remote JSON
// document store: revision-checked saves plus a background poll loop.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cardhall/seatscore/internal/seatscore"
)

// ErrRejected is returned when the remote refuses a save. The remote does
// not distinguish a revision conflict from any other refusal, so neither
// do we.
var ErrRejected = errors.New("save rejected by remote")

// Client talks JSON over HTTP to the remote document endpoint. The mode
// parameter is an opaque routing hint for the remote backend.
type Client struct {
	baseURL string
	mode    string
	http    *http.Client
}

func NewClient(baseURL, mode string) *Client {
	return &Client{
		baseURL: baseURL,
		mode:    mode,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) endpoint() string {
	if c.mode == "" {
		return c.baseURL
	}
	return c.baseURL + "?mode=" + url.QueryEscape(c.mode)
}

// Load fetches the current remote snapshot. Any transport error or
// non-success status is returned as an error; the caller stays on local
// state.
func (c *Client) Load(ctx context.Context) (seatscore.Snapshot, error) {
	var snap seatscore.Snapshot

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return snap, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return snap, fmt.Errorf("fetching snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return snap, fmt.Errorf("remote returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decoding snapshot: %w", err)
	}

	if snap.SeatMap == nil {
		snap.SeatMap = map[string][]string{}
	}
	if snap.PlayerData == nil {
		snap.PlayerData = map[string]*seatscore.PlayerRecord{}
	}
	return snap, nil
}

type saveResponse struct {
	OK bool `json:"ok"`
}

// Save submits a snapshot tagged with the revision the caller just read.
// The remote rejects the write when the revision no longer matches; that
// rejection surfaces as ErrRejected.
func (c *Client) Save(ctx context.Context, snap seatscore.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote returned status %d", resp.StatusCode)
	}

	var result saveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if !result.OK {
		return ErrRejected
	}
	return nil
}
