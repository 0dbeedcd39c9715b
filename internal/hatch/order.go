package hatch

import (
	"cmp"
	"slices"
)

// SortRecords orders a batch for display: egg tier ascending, then species ID
// ascending. Records with equal keys keep their relative order.
func SortRecords(records []*Record) {
	slices.SortStableFunc(records, compareRecords)
}

func compareRecords(a, b *Record) int {
	sa, sb := a.creature.Species, b.creature.Species
	if c := cmp.Compare(sa.Tier, sb.Tier); c != 0 {
		return c
	}
	return cmp.Compare(sa.ID, sb.ID)
}
