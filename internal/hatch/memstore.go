package hatch

import (
	"context"
	"fmt"
	"sync"
)

var _ CollectionStore = (*MemStore)(nil)

// MemStore is an in-memory CollectionStore seeded from a catalog.
type MemStore struct {
	mu          sync.RWMutex
	catalog     *Catalog
	dex         map[SpeciesID]DexEntry
	progression map[SpeciesID]ProgressionEntry

	announcer   Announcer
	logger      Logger
	snapshotDir string
}

// NewMemStore creates a store with an empty dex entry for every species in
// catalog and an empty progression entry for every root species.
func NewMemStore(catalog *Catalog) *MemStore {
	s := &MemStore{
		catalog:     catalog,
		dex:         make(map[SpeciesID]DexEntry),
		progression: make(map[SpeciesID]ProgressionEntry),
		logger:      NewNoOpLogger(),
	}
	if catalog != nil {
		for _, sp := range catalog.All() {
			s.dex[sp.ID] = DexEntry{}
		}
		for _, root := range catalog.Roots() {
			s.progression[root] = ProgressionEntry{}
		}
	}
	return s
}

// SetLogger sets the store's logger.
func (s *MemStore) SetLogger(logger Logger) {
	s.logger = loggerOrNoop(logger)
}

// SetNotificationManager routes discovery events to mgr.
func (s *MemStore) SetNotificationManager(mgr *NotificationManager, targets ...string) {
	s.announcer.Set(mgr, targets...)
}

// Close releases nothing; it lets MemStore stand in for stores that hold a
// connection.
func (s *MemStore) Close() error {
	return nil
}

// Catalog returns the catalog the store was seeded from.
func (s *MemStore) Catalog() *Catalog {
	return s.catalog
}

func (s *MemStore) ReadDexEntry(id SpeciesID) (DexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.dex[id]
	if !ok {
		return DexEntry{}, fmt.Errorf("%w: dex species %d", ErrEntryNotFound, id)
	}
	return entry.Clone(), nil
}

func (s *MemStore) ReadProgressionEntry(rootID SpeciesID) (ProgressionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.progression[rootID]
	if !ok {
		return ProgressionEntry{}, fmt.Errorf("%w: progression species %d", ErrEntryNotFound, rootID)
	}
	return entry.Clone(), nil
}

// SetDexEntry replaces the dex entry for id.
func (s *MemStore) SetDexEntry(id SpeciesID, entry DexEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dex[id] = entry.Clone()
}

// SetProgressionEntry replaces the progression entry for rootID.
func (s *MemStore) SetProgressionEntry(rootID SpeciesID, entry ProgressionEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progression[rootID] = entry.Clone()
}

func (s *MemStore) MarkCaught(ctx context.Context, c *Creature, incrementSeen, incrementCaught, notify bool) error {
	sp, err := speciesOf(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	dex := s.dex[sp.ID]
	prog := s.progression[sp.RootSpeciesID()]
	newCatch := ApplyCatch(&dex, &prog, c, incrementSeen, incrementCaught)
	s.dex[sp.ID] = dex
	s.progression[sp.RootSpeciesID()] = prog
	s.mu.Unlock()

	if newCatch {
		s.logger.Debugf("Species caught for the first time: species=%d", sp.ID)
		if notify {
			s.announcer.Announce(NewCatchEvent(ctx, c))
		}
	}
	return nil
}

func (s *MemStore) UpdateIndividualValues(ctx context.Context, id SpeciesID, ivs IVs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.dex[id]
	if !ok {
		return fmt.Errorf("%w: dex species %d", ErrEntryNotFound, id)
	}
	entry.IVs = ivs
	s.dex[id] = entry
	return nil
}

func (s *MemStore) TryUnlockEggMove(ctx context.Context, sp *Species, slot int, notify bool) (bool, error) {
	root := sp.RootSpeciesID()

	s.mu.Lock()
	prog, ok := s.progression[root]
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: progression species %d", ErrEntryNotFound, root)
	}
	unlocked, err := ApplyEggMoveUnlock(&prog, sp, slot)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.progression[root] = prog
	s.mu.Unlock()

	if unlocked && notify {
		s.announcer.Announce(NewEggMoveEvent(ctx, sp, slot))
	}
	return unlocked, nil
}
