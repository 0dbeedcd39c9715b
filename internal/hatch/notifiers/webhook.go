package notifiers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/daniacca/hatchery/internal/hatch"
)

const (
	defaultWebhookTimeout = 5 * time.Second

	// SignatureHeader carries the hex HMAC-SHA256 of the body when the
	// webhook has a secret.
	SignatureHeader = "X-Hatchery-Signature"
	EventHeader     = "X-Hatchery-Event"
	BatchHeader     = "X-Hatchery-Batch"
)

// WebhookConfig describes where and how discovery events are posted.
type WebhookConfig struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	// Kinds restricts delivery to these discovery kinds. Empty means all.
	Kinds  []hatch.DiscoveryKind `json:"kinds,omitempty"`
	Secret string                `json:"secret,omitempty"`
	// TimeoutMS bounds each delivery; zero means 5s.
	TimeoutMS int `json:"timeout_ms,omitempty"`
}

// WebhookNotifier posts discovery events as JSON to a webhook URL.
// Headers and kind filters may be changed while deliveries are running.
type WebhookNotifier struct {
	id     string
	url    string
	client *http.Client
	secret []byte

	mu      sync.RWMutex
	headers map[string]string
	kinds   map[hatch.DiscoveryKind]bool
}

// NewWebhookNotifier creates a webhook that forwards every event to url.
func NewWebhookNotifier(id, url string) *WebhookNotifier {
	wn, _ := NewWebhookNotifierFromConfig(id, WebhookConfig{URL: url})
	return wn
}

// NewWebhookNotifierFromConfig creates a webhook from cfg. It fails when
// the URL is missing.
func NewWebhookNotifierFromConfig(id string, cfg WebhookConfig) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook URL is required")
	}
	timeout := defaultWebhookTimeout
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}

	wn := &WebhookNotifier{
		id:      id,
		url:     cfg.URL,
		client:  &http.Client{Timeout: timeout},
		headers: make(map[string]string, len(cfg.Headers)),
	}
	for k, v := range cfg.Headers {
		wn.headers[k] = v
	}
	if len(cfg.Kinds) > 0 {
		wn.OnlyKinds(cfg.Kinds...)
	}
	if cfg.Secret != "" {
		wn.secret = []byte(cfg.Secret)
	}
	return wn, nil
}

// SetHeader sets a header sent with every delivery.
func (wn *WebhookNotifier) SetHeader(key, value string) {
	wn.mu.Lock()
	defer wn.mu.Unlock()
	wn.headers[key] = value
}

// OnlyKinds restricts the webhook to the given discovery kinds. Events of
// other kinds are dropped without error.
func (wn *WebhookNotifier) OnlyKinds(kinds ...hatch.DiscoveryKind) {
	set := make(map[hatch.DiscoveryKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	wn.mu.Lock()
	wn.kinds = set
	wn.mu.Unlock()
}

// accepts reports whether event passes the kind filter and returns the
// headers to send with it.
func (wn *WebhookNotifier) accepts(event hatch.DiscoveryEvent) (map[string]string, bool) {
	wn.mu.RLock()
	defer wn.mu.RUnlock()
	if len(wn.kinds) > 0 && !wn.kinds[event.Kind] {
		return nil, false
	}
	headers := make(map[string]string, len(wn.headers))
	for k, v := range wn.headers {
		headers[k] = v
	}
	return headers, true
}

func (wn *WebhookNotifier) ID() string   { return wn.id }
func (wn *WebhookNotifier) Type() string { return "webhook" }

// Sign returns the signature the webhook sends for body, or "" without a
// secret. Receivers recompute it to authenticate deliveries.
func (wn *WebhookNotifier) Sign(body []byte) string {
	if len(wn.secret) == 0 {
		return ""
	}
	mac := hmac.New(sha256.New, wn.secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Notify posts the event. Non-2xx responses are errors so the notification
// manager retries them.
func (wn *WebhookNotifier) Notify(ctx context.Context, event hatch.DiscoveryEvent) error {
	headers, ok := wn.accepts(event)
	if !ok {
		return nil
	}

	body, err := event.JSON()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wn.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, string(event.Kind))
	if event.BatchID != "" {
		req.Header.Set(BatchHeader, event.BatchID)
	}
	if sig := wn.Sign(body); sig != "" {
		req.Header.Set(SignatureHeader, sig)
	}

	resp, err := wn.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", wn.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", wn.id, resp.StatusCode)
	}
	return nil
}

// Close is a no-op; deliveries hold no connection between events.
func (wn *WebhookNotifier) Close() error {
	return nil
}
