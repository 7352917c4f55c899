package remote

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/fllscore/ddzledger/internal/ledger"
)

// AccessResult is the checkAccess outcome.
type AccessResult struct {
	HasAccess bool   `json:"hasAccess"`
	Role      string `json:"role"`
}

// CheckAccess verifies an email against the remote access list.
// Exempt from the auth requirement: it is how a session gets created.
func (c *Client) CheckAccess(ctx context.Context, email string) (AccessResult, error) {
	var out AccessResult
	err := c.get(ctx, ActionCheckAccess, url.Values{"email": {email}}, &out)
	return out, err
}

// Params is the shared configuration the ledger publishes.
type Params struct {
	Players      []string `json:"players"`
	ScoreOptions []int    `json:"scoreOptions"`
	Version      string   `json:"version"`
}

// Params fetches the player roster and score options.
func (c *Client) Params(ctx context.Context) (Params, error) {
	var out Params
	err := c.get(ctx, ActionGetParams, nil, &out)
	return out, err
}

// HistoryPage is one page of remote records, newest first.
type HistoryPage struct {
	Players []string            `json:"players"`
	Data    []ledger.GameRecord `json:"data"`
	Total   int                 `json:"total"`
	HasMore bool                `json:"hasMore"`
}

// History fetches a page of the remote ledger.
func (c *Client) History(ctx context.Context, offset, limit int) (HistoryPage, error) {
	var out HistoryPage
	err := c.get(ctx, ActionGetHistory, url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}, &out)
	return out, err
}

// Stats fetches the aggregate stats for a range.
func (c *Client) Stats(ctx context.Context, rng string) ([]ledger.PlayerStats, error) {
	var out struct {
		Stats []ledger.PlayerStats `json:"stats"`
	}
	err := c.get(ctx, ActionGetStats, url.Values{"range": {rng}}, &out)
	return out.Stats, err
}

// SubmitResult is the submit outcome. Timestamp is the server-assigned
// authoritative timestamp; it is empty when the response was eaten by
// the redirect or carried the benign validation warning.
type SubmitResult struct {
	Timestamp         string
	ValidationWarning bool
}

// Submit records one game on the remote ledger.
func (c *Client) Submit(ctx context.Context, landlord, farmer1, farmer2 string, landlordScore int, clientTimestamp string) (SubmitResult, error) {
	var out struct {
		Timestamp string `json:"timestamp"`
	}
	res, err := c.post(ctx, ActionSubmit, map[string]any{
		"landlord":        landlord,
		"farmer1":         farmer1,
		"farmer2":         farmer2,
		"landlordScore":   landlordScore,
		"clientTimestamp": clientTimestamp,
	}, &out)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Timestamp: out.Timestamp, ValidationWarning: res.ValidationWarning}, nil
}

// DeleteLastGame removes the record with the given server timestamp.
// Callers apply their own retry policy; this returns the raw outcome.
func (c *Client) DeleteLastGame(ctx context.Context, timestamp string) error {
	_, err := c.post(ctx, ActionDeleteLast, map[string]any{
		"timestamp":       timestamp,
		"clientTimestamp": timestamp,
	}, nil)
	return err
}

// Version fetches the deployed script version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	err := c.get(ctx, ActionGetVersion, nil, &out)
	return out.Version, err
}

// PingResult reports endpoint reachability.
type PingResult struct {
	OK      bool
	Latency time.Duration
}

// Ping measures reachability and latency with a lightweight read call.
func (c *Client) Ping(ctx context.Context) PingResult {
	start := time.Now()
	_, err := c.Params(ctx)
	return PingResult{OK: err == nil, Latency: time.Since(start)}
}
