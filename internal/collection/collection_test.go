package collection

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/daniacca/hatchery/internal/hatch/sqlstore"
)

func testCatalog() *hatch.Catalog {
	return hatch.NewCatalog("collection").WithSpecies(
		&hatch.Species{ID: 4, Name: "Emberkit", Abilities: [3]string{"Blaze", "", ""}},
	)
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    Spec
		wantErr bool
	}{
		{in: "", want: Spec{Kind: "memory"}},
		{in: "memory", want: Spec{Kind: "memory"}},
		{in: "sqlite:data/dex.db", want: Spec{Kind: "sqlite", Path: "data/dex.db"}},
		{in: "sqlite:", wantErr: true},
		{in: "redis://x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseSpec(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSpec(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseSpec(%q): expected %+v, got %+v, %v", tt.in, tt.want, got, err)
		}
	}
	if s := (Spec{Kind: "sqlite", Path: "x.db"}).String(); s != "sqlite:x.db" {
		t.Errorf("Expected sqlite:x.db, got %s", s)
	}
}

func TestOpen_Memory(t *testing.T) {
	backend, err := Open(context.Background(), "memory", testCatalog(), hatch.NewNoOpLogger())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer backend.Close()

	if _, ok := backend.(*hatch.MemStore); !ok {
		t.Errorf("Expected *hatch.MemStore, got %T", backend)
	}
	if _, err := backend.ReadDexEntry(4); err != nil {
		t.Errorf("Expected seeded dex entry, got %v", err)
	}
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dex.db")
	backend, err := Open(context.Background(), "sqlite:"+path, testCatalog(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer backend.Close()

	if _, ok := backend.(*sqlstore.Store); !ok {
		t.Errorf("Expected *sqlstore.Store, got %T", backend)
	}
	if _, err := backend.ReadProgressionEntry(4); err != nil {
		t.Errorf("Expected seeded progression entry, got %v", err)
	}
}

func TestOpen_BadSpec(t *testing.T) {
	if _, err := Open(context.Background(), "postgres", testCatalog(), nil); err == nil {
		t.Error("Expected error for unknown store")
	}
}
