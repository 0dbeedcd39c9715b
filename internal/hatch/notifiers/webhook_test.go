package notifiers

import (
	"context"
	"encoding/json"
	"io"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/daniacca/hatchery/internal/hatch"
)

func testEvent() hatch.DiscoveryEvent {
	return hatch.DiscoveryEvent{
		Kind:        hatch.DiscoveryEggMoveUnlocked,
		BatchID:     "batch-7",
		SpeciesID:   10,
		SpeciesName: "Tidepup",
		Slot:        2,
		MoveName:    "Aqua Ring",
		Timestamp:   1700000000,
	}
}

func TestWebhookNotifier(t *testing.T) {
	notifier := NewWebhookNotifier("test-webhook", "http://localhost:9999/webhook")

	if notifier.ID() != "test-webhook" {
		t.Errorf("Expected ID 'test-webhook', got '%s'", notifier.ID())
	}
	if notifier.Type() != "webhook" {
		t.Errorf("Expected type 'webhook', got '%s'", notifier.Type())
	}
	if err := notifier.Close(); err != nil {
		t.Errorf("Close should not return error: %v", err)
	}
}

func TestWebhookNotifier_Notify(t *testing.T) {
	type delivery struct {
		event   hatch.DiscoveryEvent
		headers http.Header
	}
	received := make(chan delivery, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		var d delivery
		d.headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &d.event); err != nil {
			t.Errorf("Invalid JSON body: %v", err)
		}
		received <- d
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier("hook", server.URL)
	notifier.SetHeader("Authorization", "Bearer secret")

	if err := notifier.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	d := <-received
	got, headers := d.event, d.headers

	if got.MoveName != "Aqua Ring" || got.SpeciesID != 10 || got.Slot != 2 {
		t.Errorf("Unexpected event received: %+v", got)
	}
	if headers.Get("Content-Type") != "application/json" {
		t.Errorf("Expected JSON content type, got %q", headers.Get("Content-Type"))
	}
	if headers.Get("X-Hatchery-Event") != "egg_move_unlocked" {
		t.Errorf("Expected event header, got %q", headers.Get("X-Hatchery-Event"))
	}
	if headers.Get("X-Hatchery-Batch") != "batch-7" {
		t.Errorf("Expected batch header, got %q", headers.Get("X-Hatchery-Batch"))
	}
	if headers.Get("Authorization") != "Bearer secret" {
		t.Errorf("Expected custom header, got %q", headers.Get("Authorization"))
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier("hook", server.URL)
	if err := notifier.Notify(context.Background(), testEvent()); err == nil {
		t.Error("Expected error for non-2xx status")
	}
}

func TestWebhookNotifier_OnlyKinds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier("hook", server.URL)
	notifier.OnlyKinds(hatch.DiscoveryNewCatch)

	if err := notifier.Notify(context.Background(), testEvent()); err != nil {
		t.Errorf("Expected filtered event to be dropped silently, got %v", err)
	}
	ev := testEvent()
	ev.Kind = hatch.DiscoveryNewCatch
	if err := notifier.Notify(context.Background(), ev); err != nil {
		t.Errorf("Notify failed: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("Expected 1 request, got %d", n)
	}
}

func TestNewWebhookNotifierFromConfig(t *testing.T) {
	if _, err := NewWebhookNotifierFromConfig("hook", WebhookConfig{}); err == nil {
		t.Error("Expected error without URL")
	}

	notifier, err := NewWebhookNotifierFromConfig("hook", WebhookConfig{
		URL:       "http://localhost:9999/webhook",
		Kinds:     []hatch.DiscoveryKind{hatch.DiscoveryNewCatch},
		TimeoutMS: 250,
	})
	if err != nil {
		t.Fatalf("NewWebhookNotifierFromConfig failed: %v", err)
	}
	if notifier.client.Timeout.Milliseconds() != 250 {
		t.Errorf("Expected 250ms timeout, got %v", notifier.client.Timeout)
	}
	if !notifier.kinds[hatch.DiscoveryNewCatch] || notifier.kinds[hatch.DiscoveryEggMoveUnlocked] {
		t.Errorf("Unexpected kind filter: %v", notifier.kinds)
	}
	if notifier.Sign([]byte("x")) != "" {
		t.Error("Expected no signature without a secret")
	}
}

func TestWebhookNotifier_Signature(t *testing.T) {
	received := make(chan string, 1)
	var notifier *WebhookNotifier
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if got, want := r.Header.Get(SignatureHeader), notifier.Sign(body); got != want {
			t.Errorf("Expected signature %q, got %q", want, got)
		}
		received <- r.Header.Get(SignatureHeader)
	}))
	defer server.Close()

	notifier, _ = NewWebhookNotifierFromConfig("hook", WebhookConfig{URL: server.URL, Secret: "s3cret"})
	if err := notifier.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if sig := <-received; !strings.HasPrefix(sig, "sha256=") || len(sig) != len("sha256=")+64 {
		t.Errorf("Unexpected signature %q", sig)
	}
}

func TestWebhookNotifier_SetHeaderWhileDelivering(t *testing.T) {
	var tagged atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Tenant") != "" {
			tagged.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier("hook", server.URL)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 50 {
			notifier.SetHeader("X-Tenant", fmt.Sprintf("tenant-%d", i))
			notifier.OnlyKinds(hatch.DiscoveryEggMoveUnlocked, hatch.DiscoveryNewCatch)
		}
	}()
	go func() {
		defer wg.Done()
		for range 20 {
			if err := notifier.Notify(context.Background(), testEvent()); err != nil {
				t.Errorf("Notify failed: %v", err)
			}
		}
	}()
	wg.Wait()

	notifier.SetHeader("X-Tenant", "final")
	if err := notifier.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if tagged.Load() == 0 {
		t.Error("Expected a header set after creation to be sent")
	}
}
