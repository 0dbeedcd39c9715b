package hatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DiscoveryKind names what a hatch discovered.
type DiscoveryKind string

const (
	DiscoveryNewCatch        DiscoveryKind = "new_catch"
	DiscoveryEggMoveUnlocked DiscoveryKind = "egg_move_unlocked"
)

// DiscoveryEvent is surfaced when a commit catches a species for the first
// time or newly unlocks an egg move.
type DiscoveryEvent struct {
	Kind        DiscoveryKind `json:"kind"`
	BatchID     string        `json:"batch_id,omitempty"`
	SpeciesID   SpeciesID     `json:"species_id"`
	SpeciesName string        `json:"species_name"`
	Shiny       bool          `json:"shiny,omitempty"`
	Slot        int           `json:"slot,omitempty"`
	MoveName    string        `json:"move_name,omitempty"`
	Timestamp   int64         `json:"timestamp"`
}

// JSON returns the event as JSON bytes
func (ev DiscoveryEvent) JSON() ([]byte, error) {
	return json.Marshal(ev)
}

// NewCatchEvent builds the discovery event for a first catch of c's species.
func NewCatchEvent(ctx context.Context, c *Creature) DiscoveryEvent {
	return DiscoveryEvent{
		Kind:        DiscoveryNewCatch,
		BatchID:     BatchIDFromContext(ctx),
		SpeciesID:   c.Species.ID,
		SpeciesName: c.Species.Name,
		Shiny:       c.Shiny,
		Timestamp:   time.Now().Unix(),
	}
}

// NewEggMoveEvent builds the discovery event for a newly unlocked egg move.
func NewEggMoveEvent(ctx context.Context, sp *Species, slot int) DiscoveryEvent {
	move, _ := sp.EggMove(slot)
	return DiscoveryEvent{
		Kind:        DiscoveryEggMoveUnlocked,
		BatchID:     BatchIDFromContext(ctx),
		SpeciesID:   sp.ID,
		SpeciesName: sp.Name,
		Slot:        slot,
		MoveName:    move.Name,
		Timestamp:   time.Now().Unix(),
	}
}

// Notifier is the interface that all notification channels must implement
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the type of notifier (e.g., "webhook", "websocket")
	Type() string

	// Notify sends a discovery event. Returns an error if notification fails.
	// The context can be used for cancellation and timeout.
	Notify(ctx context.Context, event DiscoveryEvent) error

	// Close closes the notifier and releases any resources
	Close() error
}

type notificationJob struct {
	event   DiscoveryEvent
	targets []string
}

// DeliveryStats counts what a NotificationManager did with queued events.
type DeliveryStats struct {
	Delivered uint64 `json:"delivered"`
	Retried   uint64 `json:"retried"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

// NotificationManager fans discovery events out to registered notifiers.
// Queued events are delivered in order by a single worker, retrying each
// notifier with exponential backoff.
type NotificationManager struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan notificationJob
	closed    bool
	wg        sync.WaitGroup
	logger    Logger

	queueSize  int
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration

	delivered, retried, failed, dropped atomic.Uint64
}

// ManagerOption configures a NotificationManager.
type ManagerOption func(*NotificationManager)

// ManagerLogger logs delivery failures to logger.
func ManagerLogger(logger Logger) ManagerOption {
	return func(nm *NotificationManager) { nm.logger = loggerOrNoop(logger) }
}

// ManagerQueueSize bounds the number of pending events; Enqueue drops
// events beyond it.
func ManagerQueueSize(n int) ManagerOption {
	return func(nm *NotificationManager) {
		if n > 0 {
			nm.queueSize = n
		}
	}
}

// ManagerRetries sets how often a failing notifier is retried and the
// first backoff, which doubles on each retry.
func ManagerRetries(n int, backoff time.Duration) ManagerOption {
	return func(nm *NotificationManager) {
		if n >= 0 {
			nm.maxRetries = n
		}
		if backoff > 0 {
			nm.backoff = backoff
		}
	}
}

// NewNotificationManager creates a manager and starts its worker.
func NewNotificationManager(opts ...ManagerOption) *NotificationManager {
	nm := &NotificationManager{
		notifiers:  make(map[string]Notifier),
		logger:     NewNoOpLogger(),
		queueSize:  1024,
		maxRetries: 3,
		backoff:    100 * time.Millisecond,
		timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(nm)
	}
	nm.jobs = make(chan notificationJob, nm.queueSize)

	nm.wg.Add(1)
	go nm.worker()
	return nm
}

// NewNotificationManagerWithLogger is NewNotificationManager(ManagerLogger(logger)).
func NewNotificationManagerWithLogger(logger Logger) *NotificationManager {
	return NewNotificationManager(ManagerLogger(logger))
}

// RegisterNotifier adds notifier under its ID.
func (nm *NotificationManager) RegisterNotifier(notifier Notifier) error {
	if notifier == nil {
		return errors.New("notifier cannot be nil")
	}
	id := notifier.ID()
	if id == "" {
		return errors.New("notifier ID cannot be empty")
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()
	if _, exists := nm.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}
	nm.notifiers[id] = notifier
	return nil
}

// UnregisterNotifier removes and closes a notifier.
func (nm *NotificationManager) UnregisterNotifier(id string) error {
	nm.mu.Lock()
	notifier, exists := nm.notifiers[id]
	delete(nm.notifiers, id)
	nm.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}
	if err := notifier.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}
	return nil
}

func (nm *NotificationManager) GetNotifier(id string) (Notifier, bool) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	notifier, exists := nm.notifiers[id]
	return notifier, exists
}

// ListNotifiers returns the registered notifier IDs, sorted.
func (nm *NotificationManager) ListNotifiers() []string {
	nm.mu.RLock()
	ids := make([]string, 0, len(nm.notifiers))
	for id := range nm.notifiers {
		ids = append(ids, id)
	}
	nm.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Stats returns the delivery counters so far.
func (nm *NotificationManager) Stats() DeliveryStats {
	return DeliveryStats{
		Delivered: nm.delivered.Load(),
		Retried:   nm.retried.Load(),
		Failed:    nm.failed.Load(),
		Dropped:   nm.dropped.Load(),
	}
}

// Enqueue queues event for asynchronous delivery. Empty notifierIDs targets
// every notifier registered at enqueue time. It never blocks: events are
// dropped when the queue is full or the manager is closed.
func (nm *NotificationManager) Enqueue(event DiscoveryEvent, notifierIDs []string) {
	if len(notifierIDs) == 0 {
		notifierIDs = nm.ListNotifiers()
		if len(notifierIDs) == 0 {
			return
		}
	}

	// Holding the read lock keeps Close from closing jobs mid-send.
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	if nm.closed {
		return
	}
	select {
	case nm.jobs <- notificationJob{event: event, targets: notifierIDs}:
	default:
		nm.dropped.Add(1)
		nm.logger.Warnf("Notification queue full, dropping event: kind=%s species=%d", event.Kind, event.SpeciesID)
	}
}

func (nm *NotificationManager) worker() {
	defer nm.wg.Done()
	for job := range nm.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), nm.timeout)
		for _, id := range job.targets {
			nm.deliver(ctx, id, job.event)
		}
		cancel()
	}
}

// deliver sends event to one notifier, retrying with exponential backoff.
func (nm *NotificationManager) deliver(ctx context.Context, notifierID string, event DiscoveryEvent) {
	notifier, ok := nm.GetNotifier(notifierID)
	if !ok {
		nm.failed.Add(1)
		nm.logger.Errorf("Notification failed: notifier=%s error=notifier not found", notifierID)
		return
	}

	backoff := nm.backoff
	for attempt := 0; ; attempt++ {
		err := notifier.Notify(ctx, event)
		if err == nil {
			nm.delivered.Add(1)
			return
		}
		if attempt == nm.maxRetries {
			nm.failed.Add(1)
			nm.logger.Errorf("Notification failed after %d attempts: notifier=%s kind=%s error=%v",
				attempt+1, notifierID, event.Kind, err)
			return
		}

		nm.retried.Add(1)
		nm.logger.Warnf("Notification attempt failed: notifier=%s attempt=%d error=%v", notifierID, attempt+1, err)
		select {
		case <-ctx.Done():
			nm.failed.Add(1)
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Notify delivers event to notifierIDs synchronously, without retries.
func (nm *NotificationManager) Notify(ctx context.Context, event DiscoveryEvent, notifierIDs []string) error {
	var errs []error
	for _, id := range notifierIDs {
		notifier, ok := nm.GetNotifier(id)
		if !ok {
			errs = append(errs, fmt.Errorf("notifier %s not found", id))
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("notifier %s failed: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Close stops accepting events, waits for queued ones to be delivered and
// closes every notifier. It is safe to call more than once.
func (nm *NotificationManager) Close() error {
	nm.mu.Lock()
	if nm.closed {
		nm.mu.Unlock()
		return nil
	}
	nm.closed = true
	close(nm.jobs)
	nm.mu.Unlock()

	nm.wg.Wait()

	nm.mu.Lock()
	notifiers := nm.notifiers
	nm.notifiers = make(map[string]Notifier)
	nm.mu.Unlock()

	var errs []error
	for id, notifier := range notifiers {
		if err := notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Announcer routes a store's discovery events to a notification manager.
// The zero value announces nothing.
type Announcer struct {
	mu      sync.RWMutex
	mgr     *NotificationManager
	targets []string
}

// Set points the announcer at mgr. An empty targets list means every
// registered notifier.
func (a *Announcer) Set(mgr *NotificationManager, targets ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mgr = mgr
	a.targets = targets
}

// Announce enqueues event if a manager is configured.
func (a *Announcer) Announce(event DiscoveryEvent) {
	a.mu.RLock()
	mgr, targets := a.mgr, a.targets
	a.mu.RUnlock()
	if mgr == nil {
		return
	}
	mgr.Enqueue(event, targets)
}
