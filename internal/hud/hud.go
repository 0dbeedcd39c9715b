// Package hud holds the display rules of the battle info panel that do not
// depend on a renderer: stat abbreviation and the owned marker shown next to
// wild creatures.
package hud

import (
	"fmt"
	"strconv"

	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/dustin/go-humanize"
)

// FormatStat renders a stat value in at most three significant figures:
// 999, 1.89k, 101k, 1.21M. Values below 100 are padded so they line up with
// three-digit values.
func FormatStat(n int) string {
	switch {
	case n < 10:
		return fmt.Sprintf(" %d ", n)
	case n < 100:
		return fmt.Sprintf(" %d", n)
	case n < 1000:
		return strconv.Itoa(n)
	}

	value, prefix := humanize.ComputeSI(float64(roundSignificant(n, 3)))
	decimals := 0
	switch {
	case value < 10:
		decimals = 2
	case value < 100:
		decimals = 1
	}
	return strconv.FormatFloat(value, 'f', decimals, 64) + prefix
}

// roundSignificant rounds n half-up to the given number of significant
// digits. 999_950 becomes 1_000_000, which then formats as 1.00M.
func roundSignificant(n, digits int) int {
	factor := 1
	for v := n; v >= pow10(digits); v /= 10 {
		factor *= 10
	}
	return (n + factor/2) / factor * factor
}

func pow10(n int) int {
	p := 1
	for range n {
		p *= 10
	}
	return p
}

// Owned is the state of the owned marker.
type Owned int

const (
	// OwnedHidden means the species was never caught; no marker is shown.
	OwnedHidden Owned = iota
	// Owned means this exact appearance and ability are already registered.
	OwnedComplete
	// OwnedIncomplete means the species is caught but this creature would
	// still add something: an appearance attribute or its ability. The
	// marker is drawn greyed out.
	OwnedIncomplete
)

func (o Owned) String() string {
	switch o {
	case OwnedHidden:
		return "hidden"
	case OwnedComplete:
		return "owned"
	case OwnedIncomplete:
		return "owned-incomplete"
	default:
		return "unknown"
	}
}

// OwnedIcon decides the owned marker for c from its species' dex entry and
// its root species' progression entry.
func OwnedIcon(dex hatch.DexEntry, progression hatch.ProgressionEntry, c *hatch.Creature) Owned {
	if !dex.Caught() {
		return OwnedHidden
	}
	attr := c.DexAttr()
	if dex.CaughtAttr&attr != attr || progression.AbilityAttr&c.AbilityAttr() == 0 {
		return OwnedIncomplete
	}
	return OwnedComplete
}

// EntryReader reads the collection entries OwnedIcon needs.
type EntryReader interface {
	ReadDexEntry(id hatch.SpeciesID) (hatch.DexEntry, error)
	ReadProgressionEntry(rootID hatch.SpeciesID) (hatch.ProgressionEntry, error)
}

// LookupOwnedIcon reads the entries for c from r and returns its owned
// marker.
func LookupOwnedIcon(r EntryReader, c *hatch.Creature) (Owned, error) {
	if c == nil || c.Species == nil {
		return OwnedHidden, fmt.Errorf("creature without species: %w", hatch.ErrEntryNotFound)
	}
	dex, err := r.ReadDexEntry(c.Species.ID)
	if err != nil {
		return OwnedHidden, err
	}
	progression, err := r.ReadProgressionEntry(c.Species.RootSpeciesID())
	if err != nil {
		return OwnedHidden, err
	}
	return OwnedIcon(dex, progression, c), nil
}
