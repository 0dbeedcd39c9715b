package hatch

import (
	"fmt"
	"strings"
)

// SpeciesID is the national number of a species.
type SpeciesID int

// EggMoveSlots is the number of egg moves a species can carry.
const EggMoveSlots = 4

// Tier is the egg rarity tier a species hatches from.
type Tier int

const (
	TierCommon Tier = iota
	TierGreat
	TierUltra
	TierMaster
)

var tierNames = [...]string{"common", "great", "ultra", "master"}

// tierTints are the background tints the summary grid uses per tier.
var tierTints = [...]uint32{0xabddab, 0xabafff, 0xffffaa, 0xdfffaf}

func (t Tier) String() string {
	if t < TierCommon || t > TierMaster {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// Tint returns the RGB tint associated with the tier.
func (t Tier) Tint() uint32 {
	if t < TierCommon || t > TierMaster {
		return 0xffffff
	}
	return tierTints[t]
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier parses a tier name (case-insensitive).
func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if strings.EqualFold(s, name) {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown egg tier %q", s)
}

// Move is an egg move a species can unlock by hatching.
type Move struct {
	ID   int
	Name string
	Type string
}

// Ability slots, in the order the progression ability bitmask uses.
const (
	AbilitySlot1 = iota
	AbilitySlot2
	AbilitySlotHidden
)

// Species describes a creature species as registered in the catalog.
type Species struct {
	ID        SpeciesID
	Name      string
	RootID    SpeciesID
	Tier      Tier
	EggMoves  []Move
	Abilities [3]string
	// EggIcon overrides the tier-based egg icon on the summary screen.
	EggIcon string
}

// RootSpeciesID returns the base species of the evolutionary line. Species
// without an explicit root are their own root.
func (s *Species) RootSpeciesID() SpeciesID {
	if s.RootID == 0 {
		return s.ID
	}
	return s.RootID
}

// EggMove returns the egg move at slot, if the species has one there.
func (s *Species) EggMove(slot int) (Move, bool) {
	if slot < 0 || slot >= len(s.EggMoves) {
		return Move{}, false
	}
	return s.EggMoves[slot], true
}

// HasHiddenAbility reports whether the species defines a hidden ability.
func (s *Species) HasHiddenAbility() bool {
	return s.Abilities[AbilitySlotHidden] != ""
}
