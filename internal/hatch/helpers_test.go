package hatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

func fourMoves(base int) []Move {
	return []Move{
		{ID: base + 1, Name: fmt.Sprintf("Move %d", base+1), Type: "normal"},
		{ID: base + 2, Name: fmt.Sprintf("Move %d", base+2), Type: "fire"},
		{ID: base + 3, Name: fmt.Sprintf("Move %d", base+3), Type: "water"},
		{ID: base + 4, Name: fmt.Sprintf("Move %d", base+4), Type: "grass"},
	}
}

// testCatalog returns a small catalog:
//
//	1 Sproutle (common), 2 Sproutleaf (evolves from 1), 5 Emberkit (common),
//	10 Tidepup (common), 50 Stormwing (great, hidden ability), 99 Shellhusk
//	(master, no egg moves).
func testCatalog() *Catalog {
	return NewCatalog("test").WithSpecies(
		&Species{ID: 1, Name: "Sproutle", Tier: TierCommon, EggMoves: fourMoves(100), Abilities: [3]string{"Overgrow", "", "Chlorophyll"}},
		&Species{ID: 2, Name: "Sproutleaf", RootID: 1, Tier: TierCommon, EggMoves: fourMoves(100), Abilities: [3]string{"Overgrow", "", "Chlorophyll"}},
		&Species{ID: 5, Name: "Emberkit", Tier: TierCommon, EggMoves: fourMoves(200), Abilities: [3]string{"Blaze", "", ""}},
		&Species{ID: 10, Name: "Tidepup", Tier: TierCommon, EggMoves: fourMoves(300), Abilities: [3]string{"Torrent", "Swift Swim", ""}},
		&Species{ID: 50, Name: "Stormwing", Tier: TierGreat, EggMoves: fourMoves(400), Abilities: [3]string{"Static", "", "Volt Absorb"}},
		&Species{ID: 99, Name: "Shellhusk", Tier: TierMaster, Abilities: [3]string{"Shell Armor", "", ""}},
	)
}

func mustSpecies(c *Catalog, id SpeciesID) *Species {
	sp, ok := c.Species(id)
	if !ok {
		panic(fmt.Sprintf("species %d not in test catalog", id))
	}
	return sp
}

func newTestCreature(sp *Species, ivs IVs) *Creature {
	return &Creature{
		ID:      NewCreatureID(),
		Species: sp,
		Gender:  GenderMale,
		Nature:  3,
		IVs:     ivs,
		FromEgg: true,
	}
}

// recordingStore wraps a MemStore, logs every write in call order and tracks
// how many writes overlap. Hooks run inside the write before it is applied.
type recordingStore struct {
	*MemStore

	mu    sync.Mutex
	calls []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration

	failMarkCaught map[SpeciesID]error
	beforeWrite    func(call string)
}

func newRecordingStore(c *Catalog) *recordingStore {
	return &recordingStore{
		MemStore:       NewMemStore(c),
		failMarkCaught: make(map[SpeciesID]error),
	}
}

func (s *recordingStore) enter(call string) {
	n := s.inFlight.Add(1)
	for {
		cur := s.maxInFlight.Load()
		if n <= cur || s.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	hook := s.beforeWrite
	s.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
}

func (s *recordingStore) leave() {
	s.inFlight.Add(-1)
}

func (s *recordingStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *recordingStore) MarkCaught(ctx context.Context, c *Creature, incrementSeen, incrementCaught, notify bool) error {
	s.enter(fmt.Sprintf("caught:%d", c.Species.ID))
	defer s.leave()
	if err := s.failMarkCaught[c.Species.ID]; err != nil {
		return err
	}
	return s.MemStore.MarkCaught(ctx, c, incrementSeen, incrementCaught, notify)
}

func (s *recordingStore) UpdateIndividualValues(ctx context.Context, id SpeciesID, ivs IVs) error {
	s.enter(fmt.Sprintf("ivs:%d", id))
	defer s.leave()
	return s.MemStore.UpdateIndividualValues(ctx, id, ivs)
}

func (s *recordingStore) TryUnlockEggMove(ctx context.Context, sp *Species, slot int, notify bool) (bool, error) {
	s.enter(fmt.Sprintf("eggmove:%d:%d", sp.ID, slot))
	defer s.leave()
	return s.MemStore.TryUnlockEggMove(ctx, sp, slot, notify)
}

// stubStage is a PresentationStage whose Show runs showFunc.
type stubStage struct {
	mu       sync.Mutex
	shown    [][]*Record
	cleared  int
	showFunc func(ctx context.Context, records []*Record) error
}

func (s *stubStage) Show(ctx context.Context, records []*Record) error {
	s.mu.Lock()
	s.shown = append(s.shown, records)
	fn := s.showFunc
	s.mu.Unlock()
	if fn != nil {
		return fn(ctx, records)
	}
	return nil
}

func (s *stubStage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
}

type stubFlow struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *stubFlow) ReturnToDefault(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *stubFlow) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// mockNotifier is a test implementation of Notifier
type mockNotifier struct {
	id          string
	notifyFunc  func(context.Context, DiscoveryEvent) error
	closeFunc   func() error
	notifyCount int
	events      []DiscoveryEvent
	mu          sync.Mutex
}

func (m *mockNotifier) ID() string   { return m.id }
func (m *mockNotifier) Type() string { return "mock" }
func (m *mockNotifier) Notify(ctx context.Context, event DiscoveryEvent) error {
	m.mu.Lock()
	m.notifyCount++
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, event)
	}
	return nil
}
func (m *mockNotifier) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func (m *mockNotifier) getNotifyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifyCount
}

func (m *mockNotifier) getEvents() []DiscoveryEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DiscoveryEvent, len(m.events))
	copy(out, m.events)
	return out
}
