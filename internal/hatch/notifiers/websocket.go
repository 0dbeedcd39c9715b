package notifiers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// subscription is what a WebSocket client asked to receive.
type subscription struct {
	batchID string
	kinds   map[hatch.DiscoveryKind]bool
}

func subscriptionFromRequest(r *http.Request) subscription {
	q := r.URL.Query()
	sub := subscription{batchID: q.Get("batch")}
	if kinds := q["kind"]; len(kinds) > 0 {
		sub.kinds = make(map[hatch.DiscoveryKind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[hatch.DiscoveryKind(k)] = true
		}
	}
	return sub
}

func (s subscription) wants(event hatch.DiscoveryEvent) bool {
	if s.batchID != "" && s.batchID != event.BatchID {
		return false
	}
	return len(s.kinds) == 0 || s.kinds[event.Kind]
}

// WebSocketNotifier streams discovery events to connected WebSocket
// clients. A client may narrow its stream with query parameters:
// ?batch=<id> for one batch and ?kind=<kind> (repeatable) for event kinds.
type WebSocketNotifier struct {
	id        string
	mu        sync.RWMutex
	clients   map[*websocket.Conn]subscription
	upgrader  websocket.Upgrader
	broadcast chan hatch.DiscoveryEvent
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	logger    hatch.Logger
}

// NewWebSocketNotifier creates the notifier and starts its broadcaster.
func NewWebSocketNotifier(id string) *WebSocketNotifier {
	wsn := &WebSocketNotifier{
		id:        id,
		clients:   make(map[*websocket.Conn]subscription),
		broadcast: make(chan hatch.DiscoveryEvent, 256),
		done:      make(chan struct{}),
		logger:    hatch.NewNoOpLogger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	wsn.wg.Add(1)
	go wsn.run()
	return wsn
}

func (wsn *WebSocketNotifier) SetLogger(logger hatch.Logger) {
	if logger != nil {
		wsn.logger = logger
	}
}

func (wsn *WebSocketNotifier) ID() string   { return wsn.id }
func (wsn *WebSocketNotifier) Type() string { return "websocket" }

// ClientCount returns the number of connected clients.
func (wsn *WebSocketNotifier) ClientCount() int {
	wsn.mu.RLock()
	defer wsn.mu.RUnlock()
	return len(wsn.clients)
}

func (wsn *WebSocketNotifier) addClient(conn *websocket.Conn, sub subscription) bool {
	wsn.mu.Lock()
	defer wsn.mu.Unlock()
	select {
	case <-wsn.done:
		return false
	default:
	}
	wsn.clients[conn] = sub
	return true
}

func (wsn *WebSocketNotifier) removeClient(conn *websocket.Conn) {
	wsn.mu.Lock()
	delete(wsn.clients, conn)
	wsn.mu.Unlock()
	conn.Close()
}

// ServeHTTP upgrades the request and keeps the client subscribed until it
// disconnects. Clients only receive; anything they send is discarded.
func (wsn *WebSocketNotifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub := subscriptionFromRequest(r)
	conn, err := wsn.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wsn.logger.Warnf("WebSocket upgrade failed: remote=%s error=%v", r.RemoteAddr, err)
		return
	}
	if !wsn.addClient(conn, sub) {
		conn.Close()
		return
	}
	wsn.logger.Debugf("WebSocket client connected: remote=%s batch=%q", r.RemoteAddr, sub.batchID)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	wsn.removeClient(conn)
	wsn.logger.Debugf("WebSocket client disconnected: remote=%s", r.RemoteAddr)
}

// Notify queues the event for the broadcaster. It waits at most a second
// for room in the queue.
func (wsn *WebSocketNotifier) Notify(ctx context.Context, event hatch.DiscoveryEvent) error {
	select {
	case <-wsn.done:
		return fmt.Errorf("notifier %s is closed", wsn.id)
	default:
	}

	select {
	case wsn.broadcast <- event:
		return nil
	case <-wsn.done:
		return fmt.Errorf("notifier %s is closed", wsn.id)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
		return fmt.Errorf("notifier %s: broadcast queue full", wsn.id)
	}
}

func (wsn *WebSocketNotifier) run() {
	defer wsn.wg.Done()
	for {
		select {
		case <-wsn.done:
			return
		case event := <-wsn.broadcast:
			wsn.send(event)
		}
	}
}

// send writes event to every subscribed client and drops clients whose
// write fails.
func (wsn *WebSocketNotifier) send(event hatch.DiscoveryEvent) {
	data, err := event.JSON()
	if err != nil {
		wsn.logger.Errorf("WebSocket event encoding failed: kind=%s error=%v", event.Kind, err)
		return
	}

	wsn.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(wsn.clients))
	for conn, sub := range wsn.clients {
		if sub.wants(event) {
			conns = append(conns, conn)
		}
	}
	wsn.mu.RUnlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			wsn.logger.Debugf("WebSocket write failed, dropping client: error=%v", err)
			wsn.removeClient(conn)
		}
	}
}

// Close disconnects every client and stops the broadcaster. It is safe to
// call more than once.
func (wsn *WebSocketNotifier) Close() error {
	wsn.closeOnce.Do(func() {
		wsn.mu.Lock()
		close(wsn.done)
		for conn := range wsn.clients {
			conn.Close()
			delete(wsn.clients, conn)
		}
		wsn.mu.Unlock()
		wsn.wg.Wait()
	})
	return nil
}
