package summary

import (
	"fmt"

	"github.com/daniacca/hatchery/internal/hatch"
)

// UnknownMove is shown for egg moves that are still locked.
const UnknownMove = "???"

// ProgressionReader reads the live progression entry of a root species.
type ProgressionReader interface {
	ReadProgressionEntry(rootID hatch.SpeciesID) (hatch.ProgressionEntry, error)
}

// Delta is what a hatch added to the collection compared to the entries
// captured before it was committed.
type Delta struct {
	NewGender  bool `json:"new_gender,omitempty"`
	NewShiny   bool `json:"new_shiny,omitempty"`
	NewVariant bool `json:"new_variant,omitempty"`
	NewForm    bool `json:"new_form,omitempty"`
	NewNature  bool `json:"new_nature,omitempty"`
	NewAbility bool `json:"new_ability,omitempty"`
	// IVs is the per-stat change against the previously recorded values.
	IVs hatch.IVs `json:"ivs"`
}

// Improved reports whether any individual value went up.
func (d Delta) Improved() bool {
	for _, v := range d.IVs {
		if v > 0 {
			return true
		}
	}
	return false
}

// Entry is the display view of one hatch record.
type Entry struct {
	Index           int                        `json:"index"`
	SpeciesID       hatch.SpeciesID            `json:"species_id"`
	Number          string                     `json:"number"`
	Name            string                     `json:"name"`
	Tier            hatch.Tier                 `json:"tier"`
	Tint            uint32                     `json:"tint"`
	Icon            string                     `json:"icon"`
	Shiny           bool                       `json:"shiny"`
	Variant         int                        `json:"variant"`
	HiddenAbility   bool                       `json:"hidden_ability"`
	NewCatch        bool                       `json:"new_catch"`
	EggMoveSlot     int                        `json:"egg_move_slot"`
	EggMoveUnlocked bool                       `json:"egg_move_unlocked"`
	EggMoves        [hatch.EggMoveSlots]string `json:"egg_moves"`
	IVs             hatch.IVs                  `json:"ivs"`
	Delta           Delta                      `json:"delta"`
}

// BuildEntries builds one entry per committed record. Egg-move labels come
// from live progression so moves unlocked later in the batch show up on
// every entry of the same line.
func BuildEntries(records []*hatch.Record, live ProgressionReader) ([]Entry, error) {
	entries := make([]Entry, 0, len(records))
	for i, rec := range records {
		entry, err := BuildEntry(i, rec, live)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// BuildEntry builds the view of a single committed record.
func BuildEntry(index int, rec *hatch.Record, live ProgressionReader) (Entry, error) {
	c := rec.Creature()
	if c == nil || c.Species == nil {
		return Entry{}, fmt.Errorf("record %d: %w", index, hatch.ErrEntryNotFound)
	}
	sp := c.Species

	priorDex, err := rec.PriorDex()
	if err != nil {
		return Entry{}, fmt.Errorf("record %d: %w", index, err)
	}
	priorStarter, err := rec.PriorStarter()
	if err != nil {
		return Entry{}, fmt.Errorf("record %d: %w", index, err)
	}
	unlocked, err := rec.EggMoveUnlocked()
	if err != nil {
		return Entry{}, fmt.Errorf("record %d: %w", index, err)
	}
	current, err := live.ReadProgressionEntry(sp.RootSpeciesID())
	if err != nil {
		return Entry{}, fmt.Errorf("record %d: %w", index, err)
	}

	entry := Entry{
		Index:           index,
		SpeciesID:       sp.ID,
		Number:          fmt.Sprintf("%04d", int(sp.ID)),
		Name:            sp.Name,
		Tier:            sp.Tier,
		Tint:            sp.Tier.Tint(),
		Icon:            EggIcon(sp),
		Shiny:           c.Shiny,
		Variant:         c.Variant,
		HiddenAbility:   c.HasHiddenAbility(),
		NewCatch:        !priorDex.Caught(),
		EggMoveSlot:     rec.EggMoveSlot(),
		EggMoveUnlocked: unlocked,
		IVs:             c.IVs,
		Delta:           ComputeDelta(c, priorDex, priorStarter),
	}
	for slot := range hatch.EggMoveSlots {
		entry.EggMoves[slot] = UnknownMove
		if move, ok := sp.EggMove(slot); ok && current.EggMoveUnlocked(slot) {
			entry.EggMoves[slot] = move.Name
		}
	}
	return entry, nil
}

// EggIcon returns the icon key for the egg a species hatched from: the
// species override if set, otherwise its tier.
func EggIcon(sp *hatch.Species) string {
	if sp.EggIcon != "" {
		return sp.EggIcon
	}
	return sp.Tier.String()
}

const variantMask = hatch.DexAttrDefaultVariant | hatch.DexAttrVariant2 | hatch.DexAttrVariant3

// ComputeDelta compares a creature against the entries captured before its
// hatch was committed.
func ComputeDelta(c *hatch.Creature, priorDex hatch.DexEntry, priorStarter hatch.ProgressionEntry) Delta {
	attr := c.DexAttr()
	caught := priorDex.CaughtAttr

	d := Delta{
		NewGender:  attr&(hatch.DexAttrMale|hatch.DexAttrFemale)&^caught != 0,
		NewShiny:   c.Shiny && caught&hatch.DexAttrShiny == 0,
		NewVariant: c.Shiny && attr&variantMask&^caught != 0,
		NewForm:    hatch.DexAttrForm(c.FormIndex)&caught == 0,
		NewNature:  priorDex.NatureAttr&c.NatureAttr() == 0,
		NewAbility: priorStarter.AbilityAttr&c.AbilityAttr() == 0,
	}
	for i := range d.IVs {
		d.IVs[i] = c.IVs[i] - priorDex.IVs[i]
	}
	return d
}
