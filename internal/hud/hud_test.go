package hud

import (
	"context"
	"errors"
	"testing"

	"github.com/daniacca/hatchery/internal/hatch"
)

func TestFormatStat(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, " 0 "},
		{7, " 7 "},
		{42, " 42"},
		{999, "999"},
		{1000, "1.00k"},
		{1894, "1.89k"},
		{1895, "1.90k"},
		{12345, "12.3k"},
		{101234, "101k"},
		{999499, "999k"},
		{999500, "1.00M"},
		{1210000, "1.21M"},
		{45670000, "45.7M"},
	}
	for _, tt := range tests {
		if got := FormatStat(tt.in); got != tt.want {
			t.Errorf("FormatStat(%d): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestOwnedIcon(t *testing.T) {
	sp := &hatch.Species{ID: 4, Name: "Emberkit", Abilities: [3]string{"Blaze", "", "Solar Power"}}
	c := &hatch.Creature{Species: sp, Gender: hatch.GenderMale}
	full := c.DexAttr()

	tests := []struct {
		name string
		dex  hatch.DexEntry
		prog hatch.ProgressionEntry
		want Owned
	}{
		{"never caught", hatch.DexEntry{}, hatch.ProgressionEntry{AbilityAttr: 1}, OwnedHidden},
		{"fully registered", hatch.DexEntry{CaughtAttr: full}, hatch.ProgressionEntry{AbilityAttr: 1}, OwnedComplete},
		{"missing appearance", hatch.DexEntry{CaughtAttr: full &^ hatch.DexAttrMale | hatch.DexAttrFemale}, hatch.ProgressionEntry{AbilityAttr: 1}, OwnedIncomplete},
		{"missing ability", hatch.DexEntry{CaughtAttr: full}, hatch.ProgressionEntry{AbilityAttr: 4}, OwnedIncomplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OwnedIcon(tt.dex, tt.prog, c); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestLookupOwnedIcon(t *testing.T) {
	sp := &hatch.Species{ID: 4, Name: "Emberkit", Abilities: [3]string{"Blaze", "", ""}}
	store := hatch.NewMemStore(hatch.NewCatalog("hud").WithSpecies(sp))
	c := &hatch.Creature{Species: sp, FromEgg: true}

	got, err := LookupOwnedIcon(store, c)
	if err != nil || got != OwnedHidden {
		t.Fatalf("Expected hidden before catch, got %s, %v", got, err)
	}

	if err := store.MarkCaught(context.Background(), c, true, true, false); err != nil {
		t.Fatalf("MarkCaught failed: %v", err)
	}
	if got, _ := LookupOwnedIcon(store, c); got != OwnedComplete {
		t.Errorf("Expected owned after catch, got %s", got)
	}

	shiny := *c
	shiny.Shiny = true
	if got, _ := LookupOwnedIcon(store, &shiny); got != OwnedIncomplete {
		t.Errorf("Expected owned-incomplete for a new shiny, got %s", got)
	}

	if _, err := LookupOwnedIcon(store, &hatch.Creature{}); !errors.Is(err, hatch.ErrEntryNotFound) {
		t.Errorf("Expected ErrEntryNotFound, got %v", err)
	}
}
