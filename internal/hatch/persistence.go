package hatch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DexRecord is a dex entry keyed by species, as stored in a snapshot.
type DexRecord struct {
	SpeciesID SpeciesID `json:"species_id"`
	DexEntry
}

// ProgressionRecord is a progression entry keyed by root species.
type ProgressionRecord struct {
	SpeciesID SpeciesID `json:"species_id"`
	ProgressionEntry
}

// Snapshot represents a point-in-time capture of a collection store.
type Snapshot struct {
	Catalog     string              `json:"catalog"`
	TakenAt     int64               `json:"taken_at"`
	Dex         []DexRecord         `json:"dex"`
	Progression []ProgressionRecord `json:"progression"`
}

// ValidateSnapshot performs validation checks on a snapshot.
// It verifies that:
//   - No species appears twice in either table
//   - All species exist in the provided catalog (if catalog is not nil)
//   - Progression entries are keyed by root species
//
// If catalog is nil, only duplicate detection is performed.
func ValidateSnapshot(snapshot Snapshot, catalog *Catalog) error {
	seenDex := make(map[SpeciesID]struct{})
	for _, rec := range snapshot.Dex {
		if _, exists := seenDex[rec.SpeciesID]; exists {
			return fmt.Errorf("duplicate dex entry: species %d", rec.SpeciesID)
		}
		seenDex[rec.SpeciesID] = struct{}{}

		if catalog != nil {
			if _, ok := catalog.Species(rec.SpeciesID); !ok {
				return fmt.Errorf("dex entry has invalid species: %d (not found in catalog)", rec.SpeciesID)
			}
		}
	}

	seenProg := make(map[SpeciesID]struct{})
	for _, rec := range snapshot.Progression {
		if _, exists := seenProg[rec.SpeciesID]; exists {
			return fmt.Errorf("duplicate progression entry: species %d", rec.SpeciesID)
		}
		seenProg[rec.SpeciesID] = struct{}{}

		if catalog != nil {
			sp, ok := catalog.Species(rec.SpeciesID)
			if !ok {
				return fmt.Errorf("progression entry has invalid species: %d (not found in catalog)", rec.SpeciesID)
			}
			if sp.RootSpeciesID() != sp.ID {
				return fmt.Errorf("progression entry for species %d is not keyed by its root %d", sp.ID, sp.RootSpeciesID())
			}
		}
	}

	return nil
}

// EncodeSnapshotJSON encodes a snapshot to JSON format.
func EncodeSnapshotJSON(snapshot Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON decodes a snapshot from JSON format.
func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Snapshot captures the store's current state, ordered by species.
func (s *MemStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		TakenAt:     time.Now().Unix(),
		Dex:         make([]DexRecord, 0, len(s.dex)),
		Progression: make([]ProgressionRecord, 0, len(s.progression)),
	}
	if s.catalog != nil {
		snap.Catalog = s.catalog.Name
	}
	for id, entry := range s.dex {
		snap.Dex = append(snap.Dex, DexRecord{SpeciesID: id, DexEntry: entry.Clone()})
	}
	for id, entry := range s.progression {
		snap.Progression = append(snap.Progression, ProgressionRecord{SpeciesID: id, ProgressionEntry: entry.Clone()})
	}
	sort.Slice(snap.Dex, func(i, j int) bool { return snap.Dex[i].SpeciesID < snap.Dex[j].SpeciesID })
	sort.Slice(snap.Progression, func(i, j int) bool { return snap.Progression[i].SpeciesID < snap.Progression[j].SpeciesID })
	return snap
}

// Restore validates snapshot against the store's catalog and overlays it on
// the current state. Species missing from the snapshot keep their entries.
func (s *MemStore) Restore(snapshot Snapshot) error {
	if err := ValidateSnapshot(snapshot, s.catalog); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range snapshot.Dex {
		s.dex[rec.SpeciesID] = rec.DexEntry.Clone()
	}
	for _, rec := range snapshot.Progression {
		s.progression[rec.SpeciesID] = rec.ProgressionEntry.Clone()
	}
	return nil
}

// SetSnapshotDir sets the directory SaveSnapshot and LoadSnapshot use.
func (s *MemStore) SetSnapshotDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotDir = dir
}

func (s *MemStore) snapshotPath(name string) (string, error) {
	s.mu.RLock()
	dir := s.snapshotDir
	s.mu.RUnlock()
	if dir == "" {
		return "", fmt.Errorf("snapshot directory not configured")
	}
	return filepath.Join(dir, SnapshotFileName(name)), nil
}

// SaveSnapshot writes the store to <dir>/<name>.snapshot.json and returns
// the path.
func (s *MemStore) SaveSnapshot(name string) (string, error) {
	path, err := s.snapshotPath(name)
	if err != nil {
		return "", err
	}
	if err := WriteSnapshotFile(path, s.Snapshot()); err != nil {
		return "", err
	}
	s.logger.Infof("Snapshot saved: path=%s", path)
	return path, nil
}

// LoadSnapshot restores the store from <dir>/<name>.snapshot.json.
func (s *MemStore) LoadSnapshot(name string) error {
	path, err := s.snapshotPath(name)
	if err != nil {
		return err
	}
	snapshot, err := ReadSnapshotFile(path)
	if err != nil {
		return err
	}
	if err := s.Restore(snapshot); err != nil {
		return err
	}
	s.logger.Infof("Snapshot loaded: path=%s dex=%d progression=%d", path, len(snapshot.Dex), len(snapshot.Progression))
	return nil
}

// ExportSnapshot implements SnapshotSource.
func (s *MemStore) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	return s.Snapshot(), nil
}

// ImportSnapshot implements SnapshotSource.
func (s *MemStore) ImportSnapshot(ctx context.Context, snapshot Snapshot) error {
	return s.Restore(snapshot)
}

// SnapshotSource is a store whose full state can be exported and restored.
type SnapshotSource interface {
	ExportSnapshot(ctx context.Context) (Snapshot, error)
	ImportSnapshot(ctx context.Context, snapshot Snapshot) error
}

// SnapshotFileName returns the file name used for a named snapshot.
func SnapshotFileName(name string) string {
	return name + ".snapshot.json"
}

// WriteSnapshotFile encodes snapshot to path, replacing any existing file
// atomically.
func WriteSnapshotFile(path string, snapshot Snapshot) error {
	data, err := EncodeSnapshotJSON(snapshot)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// ReadSnapshotFile reads and decodes the snapshot at path.
func ReadSnapshotFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return DecodeSnapshotJSON(data)
}
