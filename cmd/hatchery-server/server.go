package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/daniacca/hatchery/internal/collection"
	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/daniacca/hatchery/internal/hatch/notifiers"
	"github.com/daniacca/hatchery/internal/summary"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const wsNotifierID = "ws"

// batchRun is a submitted batch and the stage holding its summary.
type batchRun struct {
	coord   *hatch.Coordinator
	stage   *httpStage
	done    chan struct{}
	created time.Time
}

// batchStatus is the JSON view of a batch.
type batchStatus struct {
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

func (b *batchRun) status() batchStatus {
	st := batchStatus{
		ID:        b.coord.ID(),
		State:     b.coord.State().String(),
		Records:   len(b.coord.Records()),
		Committed: b.coord.Cursor(),
		Cursor:    -1,
		CreatedAt: b.created,
	}
	if entries, cursor, ok := b.stage.view(); ok {
		st.Entries = entries
		st.Cursor = cursor
	}
	if err := b.coord.Err(); err != nil {
		st.Error = err.Error()
		var batchErr *hatch.BatchError
		if errors.As(err, &batchErr) {
			st.Phase = string(batchErr.Phase)
		}
	}
	return st
}

// Server is the HTTP front of the hatch pipeline.
type Server struct {
	catalog     *hatch.Catalog
	store       collection.Backend
	notifierMgr *hatch.NotificationManager
	ws          *notifiers.WebSocketNotifier
	flow        *screenFlow
	snapshotDir string
	logger      *Logger

	// ctx bounds every running batch; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// commitMu makes batch processing single-flight on the shared store.
	commitMu sync.Mutex

	mu      sync.RWMutex
	batches map[string]*batchRun
}

// NewServer creates a server over store. Discovery events from the store go
// to every registered notifier; the WebSocket notifier is always registered.
func NewServer(logger *Logger, catalog *hatch.Catalog, store collection.Backend) *Server {
	mgr := hatch.NewNotificationManagerWithLogger(logger.With("notifications"))
	ws := notifiers.NewWebSocketNotifier(wsNotifierID)
	ws.SetLogger(logger.With("websocket"))
	if err := mgr.RegisterNotifier(ws); err != nil {
		logger.Errorf("Failed to register websocket notifier: %v", err)
	}
	store.SetNotificationManager(mgr)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		catalog:     catalog,
		store:       store,
		notifierMgr: mgr,
		ws:          ws,
		flow:        &screenFlow{logger: logger.With("screen")},
		logger:      logger.With("batches"),
		ctx:         ctx,
		cancel:      cancel,
		batches:     make(map[string]*batchRun),
	}
}

// SetSnapshotDir sets where POST /snapshot writes.
func (s *Server) SetSnapshotDir(dir string) {
	s.snapshotDir = dir
}

// RegisterWebhook adds a webhook notifier for discovery events.
func (s *Server) RegisterWebhook(id string, cfg notifiers.WebhookConfig) error {
	wh, err := notifiers.NewWebhookNotifierFromConfig(id, cfg)
	if err != nil {
		return err
	}
	return s.notifierMgr.RegisterNotifier(wh)
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/batches", func(r chi.Router) {
		r.Post("/", s.handleSubmitBatch)
		r.Get("/", s.handleListBatches)
		r.Get("/{id}", s.handleGetBatch)
		r.Post("/{id}/input", s.handleBatchInput)
		r.Post("/{id}/dismiss", s.handleDismissBatch)
	})

	r.Get("/dex/{species}", s.handleGetDex)
	r.Get("/progression/{species}", s.handleGetProgression)

	r.Get("/snapshot", s.handleGetSnapshot)
	r.Post("/snapshot", s.handleSaveSnapshot)

	r.Route("/notifiers", func(r chi.Router) {
		r.Get("/", s.handleListNotifiers)
		r.Post("/", s.handleRegisterNotifier)
		r.Delete("/{id}", s.handleUnregisterNotifier)
	})

	r.Handle("/ws", s.ws)
	return r
}

// startBatch runs coord in the background under the server context.
func (s *Server) startBatch(coord *hatch.Coordinator, stage *httpStage) *batchRun {
	run := &batchRun{
		coord:   coord,
		stage:   stage,
		done:    make(chan struct{}),
		created: time.Now(),
	}

	s.mu.Lock()
	s.batches[coord.ID()] = run
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(run.done)
		if err := coord.Run(s.ctx); err != nil {
			s.logger.Warnf("Batch finished with error: batch_id=%s error=%v", coord.ID(), err)
		}
	}()
	return run
}

func (s *Server) getBatch(id string) (*batchRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.batches[id]
	return run, ok
}

// Close abandons running batches, waits for them and shuts the notifiers
// down. The store is left open for the caller to close.
func (s *Server) Close() error {
	s.cancel()
	s.wg.Wait()
	return s.notifierMgr.Close()
}
