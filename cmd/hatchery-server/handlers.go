package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/daniacca/hatchery/internal/hatch/notifiers"
	"github.com/daniacca/hatchery/internal/hud"
	"github.com/daniacca/hatchery/internal/summary"
	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /batches
// Body: BatchConfig JSON
func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var cfg hatch.BatchConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid batch json: "+err.Error(), http.StatusBadRequest)
		return
	}

	hatches, err := hatch.BuildHatches(cfg, s.catalog)
	if err != nil {
		http.Error(w, "invalid batch: "+err.Error(), http.StatusBadRequest)
		return
	}

	records := hatch.NewRecords(s.store, hatches)
	hatch.SortRecords(records)

	stage := newHTTPStage(s.store)
	coord := hatch.NewCoordinator(records, stage, s.flow,
		hatch.WithLogger(s.logger),
		hatch.WithMessages(cfg.ShowMessages),
		hatch.WithCommitLock(&s.commitMu),
	)
	run := s.startBatch(coord, stage)

	s.logger.Infof("Batch submitted: batch_id=%s records=%d", coord.ID(), len(records))
	writeJSON(w, http.StatusAccepted, run.status())
}

// GET /batches
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	statuses := make([]batchStatus, 0, len(s.batches))
	for _, run := range s.batches {
		st := run.status()
		st.Entries = nil
		statuses = append(statuses, st)
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{"batches": statuses})
}

// GET /batches/{id}
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	run, ok := s.getBatch(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "batch not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run.status())
}

// POST /batches/{id}/input
// Body: { "button": "down" }
type inputRequest struct {
	Button string `json:"button"`
}

func (s *Server) handleBatchInput(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	run, ok := s.getBatch(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "batch not found", http.StatusNotFound)
		return
	}

	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	button, err := summary.ParseButton(req.Button)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.press(w, r, run, button)
}

// POST /batches/{id}/dismiss
func (s *Server) handleDismissBatch(w http.ResponseWriter, r *http.Request) {
	run, ok := s.getBatch(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "batch not found", http.StatusNotFound)
		return
	}
	s.press(w, r, run, summary.ButtonCancel)
}

// press applies button to a displayed batch. Cancel waits for the batch to
// finish so the response carries its final state.
func (s *Server) press(w http.ResponseWriter, r *http.Request, run *batchRun, button summary.Button) {
	if !run.stage.Press(button) {
		http.Error(w, "batch summary is not displayed", http.StatusConflict)
		return
	}

	if button == summary.ButtonCancel {
		select {
		case <-run.done:
		case <-r.Context().Done():
			return
		}
		s.logger.Debugf("Batch dismissed: batch_id=%s", run.coord.ID())
	}
	writeJSON(w, http.StatusOK, run.status())
}

// speciesParam resolves the {species} path parameter against the catalog.
func (s *Server) speciesParam(w http.ResponseWriter, r *http.Request) (*hatch.Species, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "species"))
	if err != nil {
		http.Error(w, "species must be a number", http.StatusBadRequest)
		return nil, false
	}
	sp, ok := s.catalog.Species(hatch.SpeciesID(id))
	if !ok {
		http.Error(w, "species not found", http.StatusNotFound)
		return nil, false
	}
	return sp, true
}

type dexResponse struct {
	SpeciesID hatch.SpeciesID `json:"species_id"`
	Name      string          `json:"name"`
	Entry     hatch.DexEntry  `json:"entry"`
	Caught    bool            `json:"caught"`
	// Counts abbreviated the way the battle HUD shows stats.
	SeenDisplay    string `json:"seen_display"`
	CaughtDisplay  string `json:"caught_display"`
	HatchedDisplay string `json:"hatched_display"`
}

// GET /dex/{species}
func (s *Server) handleGetDex(w http.ResponseWriter, r *http.Request) {
	sp, ok := s.speciesParam(w, r)
	if !ok {
		return
	}

	entry, err := s.store.ReadDexEntry(sp.ID)
	if err != nil {
		s.storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dexResponse{
		SpeciesID:      sp.ID,
		Name:           sp.Name,
		Entry:          entry,
		Caught:         entry.Caught(),
		SeenDisplay:    strings.TrimSpace(hud.FormatStat(entry.SeenCount)),
		CaughtDisplay:  strings.TrimSpace(hud.FormatStat(entry.CaughtCount)),
		HatchedDisplay: strings.TrimSpace(hud.FormatStat(entry.HatchedCount)),
	})
}

type progressionResponse struct {
	SpeciesID hatch.SpeciesID        `json:"species_id"`
	RootID    hatch.SpeciesID        `json:"root_id"`
	Entry     hatch.ProgressionEntry `json:"entry"`
	// EggMoves labels each slot with its move name, or "???" while locked.
	EggMoves [hatch.EggMoveSlots]string `json:"egg_moves"`
}

// GET /progression/{species}
// Evolved species resolve to their root species' entry.
func (s *Server) handleGetProgression(w http.ResponseWriter, r *http.Request) {
	sp, ok := s.speciesParam(w, r)
	if !ok {
		return
	}

	rootID := sp.RootSpeciesID()
	entry, err := s.store.ReadProgressionEntry(rootID)
	if err != nil {
		s.storeError(w, err)
		return
	}

	resp := progressionResponse{SpeciesID: sp.ID, RootID: rootID, Entry: entry}
	for slot := range resp.EggMoves {
		resp.EggMoves[slot] = summary.UnknownMove
		if move, ok := sp.EggMove(slot); ok && entry.EggMoveUnlocked(slot) {
			resp.EggMoves[slot] = move.Name
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, hatch.ErrEntryNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Errorf("Store read failed: %v", err)
	http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
}

// GET /snapshot
// Returns the whole collection as a snapshot document.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.ExportSnapshot(r.Context())
	if err != nil {
		s.logger.Errorf("Failed to export snapshot: %v", err)
		http.Error(w, "failed to export snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// POST /snapshot?name=collection
// Writes a snapshot file synchronously.
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshotDir == "" {
		http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "collection"
	}
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		http.Error(w, "invalid snapshot name", http.StatusBadRequest)
		return
	}

	snap, err := s.store.ExportSnapshot(r.Context())
	if err != nil {
		s.logger.Errorf("Failed to export snapshot: %v", err)
		http.Error(w, "failed to export snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	path := filepath.Join(s.snapshotDir, hatch.SnapshotFileName(name))
	if err := hatch.WriteSnapshotFile(path, snap); err != nil {
		s.logger.Errorf("Failed to save snapshot: path=%s error=%v", path, err)
		http.Error(w, "failed to save snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Debugf("Snapshot saved: path=%s", path)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "path": path})
}

// GET /notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	ids := s.notifierMgr.ListNotifiers()
	list := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		if notifier, ok := s.notifierMgr.GetNotifier(id); ok {
			list = append(list, map[string]string{"id": id, "type": notifier.Type()})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifiers": list, "stats": s.notifierMgr.Stats()})
}

// POST /notifiers
// Body: { "type": "webhook", "id": "my-webhook", "config": { "url": "http://...", "kinds": ["new_catch"], "secret": "..." } }
type registerNotifierRequest struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Config json.RawMessage `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	var notifier hatch.Notifier
	switch req.Type {
	case "webhook":
		var cfg notifiers.WebhookConfig
		if len(req.Config) > 0 {
			if err := json.Unmarshal(req.Config, &cfg); err != nil {
				http.Error(w, "invalid webhook config: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		wh, err := notifiers.NewWebhookNotifierFromConfig(req.ID, cfg)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		notifier = wh
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.notifierMgr.RegisterNotifier(notifier); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Infof("Notifier registered: id=%s type=%s", req.ID, req.Type)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == wsNotifierID {
		http.Error(w, "the websocket notifier cannot be removed", http.StatusBadRequest)
		return
	}
	if err := s.notifierMgr.UnregisterNotifier(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}
