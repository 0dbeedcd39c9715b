package hatch

import (
	"context"
	"fmt"
)

// Hatch pairs a hatched creature with the egg-move slot its egg rolled.
type Hatch struct {
	Creature    *Creature
	EggMoveSlot int
}

// Record tracks one creature through a hatch batch: the collection state
// before the hatch, the commit against the store, and whether the egg move
// was newly unlocked.
//
// A record is written only by the coordinator that owns it and becomes
// read-only once the coordinator moves past it.
type Record struct {
	store       CollectionStore
	creature    *Creature
	eggMoveSlot int

	snapshotted  bool
	priorDex     DexEntry
	priorStarter ProgressionEntry

	committed    bool
	moveUnlocked bool
}

// NewRecord creates a record for creature against store.
func NewRecord(store CollectionStore, creature *Creature, eggMoveSlot int) *Record {
	return &Record{
		store:       store,
		creature:    creature,
		eggMoveSlot: eggMoveSlot,
	}
}

// NewRecords creates one record per hatch, in the given order.
func NewRecords(store CollectionStore, hatches []Hatch) []*Record {
	records := make([]*Record, 0, len(hatches))
	for _, h := range hatches {
		records = append(records, NewRecord(store, h.Creature, h.EggMoveSlot))
	}
	return records
}

// Creature returns the hatched creature.
func (r *Record) Creature() *Creature {
	return r.creature
}

// EggMoveSlot returns the egg-move slot evaluated for this hatch.
func (r *Record) EggMoveSlot() int {
	return r.eggMoveSlot
}

// Committed reports whether Commit has completed.
func (r *Record) Committed() bool {
	return r.committed
}

// CaptureSnapshot copies the current dex entry of the creature's species and
// the progression entry of its root species. It must run before Commit.
func (r *Record) CaptureSnapshot() error {
	sp, err := speciesOf(r.creature)
	if err != nil {
		return err
	}

	dex, err := r.store.ReadDexEntry(sp.ID)
	if err != nil {
		return fmt.Errorf("read dex entry for species %d: %w", sp.ID, err)
	}
	starter, err := r.store.ReadProgressionEntry(sp.RootSpeciesID())
	if err != nil {
		return fmt.Errorf("read progression entry for species %d: %w", sp.RootSpeciesID(), err)
	}

	r.priorDex = dex.Clone()
	r.priorStarter = starter.Clone()
	r.snapshotted = true
	return nil
}

// Commit applies the hatch to the store: the catch first, since it may create
// the species' dex entry, then the individual values, then the egg-move
// unlock so its notification follows the catch notification.
func (r *Record) Commit(ctx context.Context, showMessages bool) error {
	if !r.snapshotted {
		return fmt.Errorf("%w: commit before snapshot", ErrNotReady)
	}
	sp, err := speciesOf(r.creature)
	if err != nil {
		return err
	}

	if err := r.store.MarkCaught(ctx, r.creature, true, true, showMessages); err != nil {
		return fmt.Errorf("mark species %d caught: %w", sp.ID, err)
	}
	if err := r.store.UpdateIndividualValues(ctx, sp.ID, r.creature.IVs); err != nil {
		return fmt.Errorf("update individual values for species %d: %w", sp.ID, err)
	}
	unlocked, err := r.store.TryUnlockEggMove(ctx, sp, r.eggMoveSlot, showMessages)
	if err != nil {
		return fmt.Errorf("unlock egg move %d for species %d: %w", r.eggMoveSlot, sp.ID, err)
	}

	r.moveUnlocked = unlocked
	r.committed = true
	return nil
}

// EggMoveUnlocked reports whether this hatch newly unlocked its egg move.
func (r *Record) EggMoveUnlocked() (bool, error) {
	if !r.committed {
		return false, fmt.Errorf("%w: egg move read before commit", ErrNotReady)
	}
	return r.moveUnlocked, nil
}

// PriorDex returns the dex entry captured before the hatch.
func (r *Record) PriorDex() (DexEntry, error) {
	if !r.snapshotted {
		return DexEntry{}, fmt.Errorf("%w: dex read before snapshot", ErrNotReady)
	}
	return r.priorDex.Clone(), nil
}

// PriorStarter returns the root progression entry captured before the hatch.
func (r *Record) PriorStarter() (ProgressionEntry, error) {
	if !r.snapshotted {
		return ProgressionEntry{}, fmt.Errorf("%w: progression read before snapshot", ErrNotReady)
	}
	return r.priorStarter.Clone(), nil
}

// MustEggMoveUnlocked is like EggMoveUnlocked but panics on a sequencing bug.
func (r *Record) MustEggMoveUnlocked() bool {
	v, err := r.EggMoveUnlocked()
	if err != nil {
		panic(err)
	}
	return v
}

// MustPriorDex is like PriorDex but panics on a sequencing bug.
func (r *Record) MustPriorDex() DexEntry {
	v, err := r.PriorDex()
	if err != nil {
		panic(err)
	}
	return v
}

// MustPriorStarter is like PriorStarter but panics on a sequencing bug.
func (r *Record) MustPriorStarter() ProgressionEntry {
	v, err := r.PriorStarter()
	if err != nil {
		panic(err)
	}
	return v
}
