package hatch

import (
	"testing"
)

func TestSortRecords_TierThenSpecies(t *testing.T) {
	catalog := testCatalog()
	store := NewMemStore(catalog)
	records := NewRecords(store, []Hatch{
		{Creature: newTestCreature(mustSpecies(catalog, 50), IVs{})},
		{Creature: newTestCreature(mustSpecies(catalog, 10), IVs{})},
		{Creature: newTestCreature(mustSpecies(catalog, 5), IVs{})},
	})

	SortRecords(records)

	want := []SpeciesID{5, 10, 50}
	for i, rec := range records {
		if got := rec.Creature().Species.ID; got != want[i] {
			t.Errorf("position %d: expected species %d, got %d", i, want[i], got)
		}
	}
}

func TestSortRecords_Stable(t *testing.T) {
	catalog := testCatalog()
	store := NewMemStore(catalog)
	first := newTestCreature(mustSpecies(catalog, 10), IVs{1})
	second := newTestCreature(mustSpecies(catalog, 10), IVs{2})
	master := newTestCreature(mustSpecies(catalog, 99), IVs{})
	common := newTestCreature(mustSpecies(catalog, 1), IVs{})

	records := NewRecords(store, []Hatch{
		{Creature: master},
		{Creature: first},
		{Creature: common},
		{Creature: second},
	})
	SortRecords(records)

	want := []*Creature{common, first, second, master}
	for i, rec := range records {
		if rec.Creature() != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i].Species.Name, rec.Creature().Species.Name)
		}
	}
}

func TestSortRecords_Empty(t *testing.T) {
	var records []*Record
	SortRecords(records)
	if len(records) != 0 {
		t.Errorf("Expected empty slice, got %d records", len(records))
	}
}
