package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/daniacca/hatchery/internal/summary"
)

// Batch states reported by the server.
const (
	StateProcessing = "processing"
	StateDisplaying = "displaying"
	StateDone       = "done"
)

// BatchStatus is a server's view of a submitted batch. Committed counts
// records written to the collection; Cursor is the selected summary entry,
// or -1 while no summary is shown.
type BatchStatus struct {
	ID        string          `json:"id"`
	State     string          `json:"state"`
	Records   int             `json:"records"`
	Committed int             `json:"committed"`
	Cursor    int             `json:"cursor"`
	Entries   []summary.Entry `json:"entries,omitempty"`
	Phase     string          `json:"phase,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// DexInfo is a species' collection entry.
type DexInfo struct {
	SpeciesID      hatch.SpeciesID `json:"species_id"`
	Name           string          `json:"name"`
	Entry          hatch.DexEntry  `json:"entry"`
	Caught         bool            `json:"caught"`
	SeenDisplay    string          `json:"seen_display"`
	CaughtDisplay  string          `json:"caught_display"`
	HatchedDisplay string          `json:"hatched_display"`
}

// ProgressionInfo is the progression entry of a species' root.
type ProgressionInfo struct {
	SpeciesID hatch.SpeciesID            `json:"species_id"`
	RootID    hatch.SpeciesID            `json:"root_id"`
	Entry     hatch.ProgressionEntry     `json:"entry"`
	EggMoves  [hatch.EggMoveSlots]string `json:"egg_moves"`
}

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to a hatchery server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the server at baseURL
// (e.g., "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitBatch sends the batch to the server. The server commits it in the
// background; use WaitForState to follow it.
func (c *Client) SubmitBatch(ctx context.Context, batch *BatchBuilder) (BatchStatus, error) {
	var st BatchStatus
	err := c.do(ctx, http.MethodPost, batch.Build(), http.StatusAccepted, &st, "batches")
	return st, err
}

// ListBatches returns every batch the server knows about, without entries.
func (c *Client) ListBatches(ctx context.Context) ([]BatchStatus, error) {
	var resp struct {
		Batches []BatchStatus `json:"batches"`
	}
	err := c.do(ctx, http.MethodGet, nil, http.StatusOK, &resp, "batches")
	return resp.Batches, err
}

// GetBatch returns the current status of a batch.
func (c *Client) GetBatch(ctx context.Context, id string) (BatchStatus, error) {
	var st BatchStatus
	err := c.do(ctx, http.MethodGet, nil, http.StatusOK, &st, "batches", id)
	return st, err
}

// Press sends a summary button
// to a displayed batch.
func (c *Client) Press(ctx context.Context, id string, button summary.Button) (BatchStatus, error) {
	var st BatchStatus
	body := map[string]string{"button": button.String()}
	err := c.do(ctx, http.MethodPost, body, http.StatusOK, &st, "batches", id, "input")
	return st, err
}

// Dismiss closes a displayed batch summary and returns the final status.
func (c *Client) Dismiss(ctx context.Context, id string) (BatchStatus, error) {
	var st BatchStatus
	err := c.do(ctx, http.MethodPost, nil, http.StatusOK, &st, "batches", id, "dismiss")
	return st, err
}

// WaitForState polls a batch until it reaches state, or fails once the
// batch is done in another state.
func (c *Client) WaitForState(ctx context.Context, id, state string, interval time.Duration) (BatchStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := c.GetBatch(ctx, id)
		if err != nil {
			return st, err
		}
		if st.State == state {
			return st, nil
		}
		if st.State == StateDone {
			return st, fmt.Errorf("batch %s finished before reaching %s: %s", id, state, st.Error)
		}

		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetDex returns the collection entry of a species.
func (c *Client) GetDex(ctx context.Context, species hatch.SpeciesID) (DexInfo, error) {
	var info DexInfo
	err := c.do(ctx, http.MethodGet, nil, http.StatusOK, &info, "dex", strconv.Itoa(int(species)))
	return info, err
}

// GetProgression returns the progression entry of a species' root.
func (c *Client) GetProgression(ctx context.Context, species hatch.SpeciesID) (ProgressionInfo, error) {
	var info ProgressionInfo
	err := c.do(ctx, http.MethodGet, nil, http.StatusOK, &info, "progression", strconv.Itoa(int(species)))
	return info, err
}

// GetSnapshot exports the server's collection.
func (c *Client) GetSnapshot(ctx context.Context) (hatch.Snapshot, error) {
	var snap hatch.Snapshot
	err := c.do(ctx, http.MethodGet, nil, http.StatusOK, &snap, "snapshot")
	return snap, err
}

// SaveSnapshot asks the server to write its collection to its snapshot
// directory under name and returns the written path.
func (c *Client) SaveSnapshot(ctx context.Context, name string) (string, error) {
	var resp struct {
		Path string `json:"path"`
	}
	err := c.doQuery(ctx, http.MethodPost, url.Values{"name": {name}}, nil, http.StatusOK, &resp, "snapshot")
	return resp.Path, err
}

// RegisterWebhook registers a webhook notifier on the server. An empty
// kinds list forwards every discovery.
func (c *Client) RegisterWebhook(ctx context.Context, id, webhookURL string, headers map[string]string, kinds ...hatch.DiscoveryKind) error {
	config := map[string]any{"url": webhookURL}
	if len(headers) > 0 {
		config["headers"] = headers
	}
	if len(kinds) > 0 {
		config["kinds"] = kinds
	}
	body := map[string]any{"type": "webhook", "id": id, "config": config}
	return c.do(ctx, http.MethodPost, body, http.StatusOK, nil, "notifiers")
}

// UnregisterNotifier removes a notifier from the server.
func (c *Client) UnregisterNotifier(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, nil, http.StatusOK, nil, "notifiers", id)
}

func (c *Client) do(ctx context.Context, method string, in any, want int, out any, path ...string) error {
	return c.doQuery(ctx, method, nil, in, want, out, path...)
}

func (c *Client) doQuery(ctx context.Context, method string, query url.Values, in any, want int, out any, path ...string) error {
	u, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		data, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
