package notifiers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/gorilla/websocket"
)

func TestNewWebSocketNotifier(t *testing.T) {
	notifier := NewWebSocketNotifier("test-ws")
	defer notifier.Close()

	if notifier.ID() != "test-ws" {
		t.Errorf("Expected ID 'test-ws', got '%s'", notifier.ID())
	}
	if notifier.Type() != "websocket" {
		t.Errorf("Expected type 'websocket', got '%s'", notifier.Type())
	}
	if notifier.ClientCount() != 0 {
		t.Errorf("Expected no clients, got %d", notifier.ClientCount())
	}
}

func TestWebSocketNotifier_NotifyWithoutClients(t *testing.T) {
	notifier := NewWebSocketNotifier("test")
	defer notifier.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := notifier.Notify(ctx, testEvent()); err != nil {
		t.Errorf("Expected no error with no clients, got %v", err)
	}
}

func TestWebSocketNotifier_CloseTwice(t *testing.T) {
	notifier := NewWebSocketNotifier("test")
	if err := notifier.Close(); err != nil {
		t.Errorf("Expected no error on close, got %v", err)
	}
	if err := notifier.Close(); err != nil {
		t.Errorf("Expected no error on second close, got %v", err)
	}
	if err := notifier.Notify(context.Background(), testEvent()); err == nil {
		t.Error("Expected error notifying a closed notifier")
	}
}

func waitForClients(t *testing.T, notifier *WebSocketNotifier, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if notifier.ClientCount() == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients, got %d", n, notifier.ClientCount())
}

func TestWebSocketNotifier_Broadcast(t *testing.T) {
	notifier := NewWebSocketNotifier("ws")
	defer notifier.Close()

	server := httptest.NewServer(notifier)
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	var conns []*websocket.Conn
	for range 2 {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("Dial failed: %v", err)
		}
		defer conn.Close()
		conns = append(conns, conn)
	}
	waitForClients(t, notifier, 2)

	if err := notifier.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %d: ReadMessage failed: %v", i, err)
		}
		var ev hatch.DiscoveryEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("client %d: invalid JSON: %v", i, err)
		}
		if ev.Kind != hatch.DiscoveryEggMoveUnlocked || ev.BatchID != "batch-7" {
			t.Errorf("client %d: unexpected event %+v", i, ev)
		}
	}

	conns[0].Close()
	waitForClients(t, notifier, 1)
}

func TestWebSocketNotifier_Subscriptions(t *testing.T) {
	notifier := NewWebSocketNotifier("ws")
	defer notifier.Close()

	server := httptest.NewServer(notifier)
	defer server.Close()
	base := "ws" + strings.TrimPrefix(server.URL, "http")

	dial := func(query string) *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(base+query, nil)
		if err != nil {
			t.Fatalf("Dial %q failed: %v", query, err)
		}
		t.Cleanup(func() { conn.Close() })
		return conn
	}
	batchOnly := dial("/?batch=batch-7")
	catchesOnly := dial("/?kind=new_catch")
	waitForClients(t, notifier, 2)

	other := testEvent()
	other.BatchID = "batch-8"
	catch := testEvent()
	catch.Kind = hatch.DiscoveryNewCatch
	catch.BatchID = "batch-8"

	// batch-7 egg move, batch-8 egg move, batch-8 catch
	for _, ev := range []hatch.DiscoveryEvent{testEvent(), other, catch} {
		if err := notifier.Notify(context.Background(), ev); err != nil {
			t.Fatalf("Notify failed: %v", err)
		}
	}

	read := func(conn *websocket.Conn) hatch.DiscoveryEvent {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage failed: %v", err)
		}
		var ev hatch.DiscoveryEvent
		json.Unmarshal(data, &ev)
		return ev
	}

	if ev := read(batchOnly); ev.BatchID != "batch-7" || ev.Kind != hatch.DiscoveryEggMoveUnlocked {
		t.Errorf("Expected batch-7 egg move, got %+v", ev)
	}
	if ev := read(catchesOnly); ev.Kind != hatch.DiscoveryNewCatch {
		t.Errorf("Expected only the catch event, got %+v", ev)
	}

	// Nothing else is queued for the batch subscriber.
	batchOnly.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := batchOnly.ReadMessage(); err == nil {
		t.Error("Expected no further events for the batch subscriber")
	}
}

func TestSubscription_Wants(t *testing.T) {
	ev := testEvent()
	tests := []struct {
		name string
		sub  subscription
		want bool
	}{
		{name: "everything", sub: subscription{}, want: true},
		{name: "same batch", sub: subscription{batchID: "batch-7"}, want: true},
		{name: "other batch", sub: subscription{batchID: "batch-1"}, want: false},
		{name: "kind match", sub: subscription{kinds: map[hatch.DiscoveryKind]bool{hatch.DiscoveryEggMoveUnlocked: true}}, want: true},
		{name: "kind mismatch", sub: subscription{kinds: map[hatch.DiscoveryKind]bool{hatch.DiscoveryNewCatch: true}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.wants(ev); got != tt.want {
				t.Errorf("Expected %t, got %t", tt.want, got)
			}
		})
	}
}
