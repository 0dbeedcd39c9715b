package hatch

import (
	"context"
	"fmt"
)

// DexEntry is the per-species collection record.
type DexEntry struct {
	SeenAttr     DexAttr `json:"seen_attr"`
	CaughtAttr   DexAttr `json:"caught_attr"`
	NatureAttr   uint32  `json:"nature_attr"`
	SeenCount    int     `json:"seen_count"`
	CaughtCount  int     `json:"caught_count"`
	HatchedCount int     `json:"hatched_count"`
	IVs          IVs     `json:"ivs"`
}

// Clone returns an independent copy of the entry. IVs is an array, so the
// value copy is already deep.
func (d DexEntry) Clone() DexEntry {
	return d
}

// Caught reports whether any form of the species has been caught.
func (d DexEntry) Caught() bool {
	return d.CaughtAttr != 0
}

// ProgressionEntry is the per-root-species record of cumulative unlocks.
type ProgressionEntry struct {
	Moveset         []int `json:"moveset,omitempty"`
	EggMoves        uint8 `json:"egg_moves"`
	CandyCount      int   `json:"candy_count"`
	Friendship      int   `json:"friendship"`
	AbilityAttr     uint8 `json:"ability_attr"`
	PassiveAttr     uint8 `json:"passive_attr"`
	ValueReduction  int   `json:"value_reduction"`
	ClassicWinCount int   `json:"classic_win_count"`
}

// Clone returns an independent copy of the entry.
func (p ProgressionEntry) Clone() ProgressionEntry {
	out := p
	if p.Moveset != nil {
		out.Moveset = make([]int, len(p.Moveset))
		copy(out.Moveset, p.Moveset)
	}
	return out
}

// EggMoveUnlocked reports whether the egg move at slot is unlocked.
func (p ProgressionEntry) EggMoveUnlocked(slot int) bool {
	if slot < 0 || slot >= EggMoveSlots {
		return false
	}
	return p.EggMoves&(1<<uint(slot)) != 0
}

// CollectionStore is the game-data store the hatch pipeline reads and
// writes. Reads are synchronous; writes may block on storage.
type CollectionStore interface {
	ReadDexEntry(id SpeciesID) (DexEntry, error)
	ReadProgressionEntry(rootID SpeciesID) (ProgressionEntry, error)
	MarkCaught(ctx context.Context, c *Creature, incrementSeen, incrementCaught, notify bool) error
	UpdateIndividualValues(ctx context.Context, id SpeciesID, ivs IVs) error
	// TryUnlockEggMove reports true only when the slot was newly unlocked.
	TryUnlockEggMove(ctx context.Context, sp *Species, slot int, notify bool) (bool, error)
}

// ApplyCatch registers c as seen/caught on its dex entry and its root
// progression entry. It reports whether this is the first catch of the
// species. Store implementations share it so they agree on semantics.
func ApplyCatch(dex *DexEntry, prog *ProgressionEntry, c *Creature, incrementSeen, incrementCaught bool) bool {
	newCatch := dex.CaughtAttr == 0

	attr := c.DexAttr()
	dex.SeenAttr |= attr
	dex.CaughtAttr |= attr
	dex.NatureAttr |= c.NatureAttr()
	if incrementSeen {
		dex.SeenCount++
	}
	if incrementCaught {
		dex.CaughtCount++
		if c.FromEgg {
			dex.HatchedCount++
		}
	}
	if prog != nil {
		prog.AbilityAttr |= c.AbilityAttr()
	}
	return newCatch
}

// ApplyEggMoveUnlock sets the egg-move bit for slot on prog. It reports false
// when the species has no egg move at that slot or the bit is already set.
func ApplyEggMoveUnlock(prog *ProgressionEntry, sp *Species, slot int) (bool, error) {
	if slot < 0 || slot >= EggMoveSlots {
		return false, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	if _, ok := sp.EggMove(slot); !ok {
		return false, nil
	}
	bit := uint8(1) << uint(slot)
	if prog.EggMoves&bit != 0 {
		return false, nil
	}
	prog.EggMoves |= bit
	return true, nil
}

func speciesOf(c *Creature) (*Species, error) {
	if c == nil || c.Species == nil {
		return nil, fmt.Errorf("%w: creature has no species", ErrEntryNotFound)
	}
	return c.Species, nil
}
