package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/gdamore/tcell/v2"
)

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	screen.SetSize(120, 40)
	return screen
}

// screenText returns the visible text of the simulated screen, one string
// per row.
func screenText(screen tcell.SimulationScreen) []string {
	cells, width, height := screen.GetContents()
	rows := make([]string, height)
	for y := range height {
		var b strings.Builder
		for x := range width {
			runes := cells[y*width+x].Runes
			if len(runes) == 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteRune(runes[0])
		}
		rows[y] = b.String()
	}
	return rows
}

func committedRecords(t *testing.T, n int) ([]*hatch.Record, *hatch.MemStore) {
	t.Helper()
	catalog := testCatalog()
	store := hatch.NewMemStore(catalog)
	hatches := make([]hatch.Hatch, n)
	for i := range hatches {
		hatches[i] = hatch.Hatch{Creature: &hatch.Creature{Species: species(t, catalog, 7)}, EggMoveSlot: i % hatch.EggMoveSlots}
	}
	records := hatch.NewRecords(store, hatches)
	commit(t, records)
	return records, store
}

func TestTerminalStage_NavigateAndDismiss(t *testing.T) {
	records, store := committedRecords(t, 14)
	screen := newSimScreen(t)
	stage := NewTerminalStageWithScreen(store, screen)

	screen.InjectKey(tcell.KeyDown, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'l', tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	screen.InjectKey(tcell.KeyRight, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyRight, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	if err := stage.Show(context.Background(), records); err != nil {
		t.Fatalf("Show failed: %v", err)
	}

	model := stage.Model()
	if !model.Dismissed() {
		t.Error("Expected screen dismissed")
	}
	if model.Cursor() != 13 {
		t.Errorf("Expected cursor on last entry 13, got %d", model.Cursor())
	}

	text := strings.Join(screenText(screen), "\n")
	for _, want := range []string{"Hatched: 14", "0007NE", "#0007 Tidepup", "arrows/hjkl move"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected screen to contain %q", want)
		}
	}

	stage.Clear()
	stage.Clear()
	if err := stage.Show(context.Background(), records); !errors.Is(err, ErrScreenClosed) {
		t.Errorf("Expected ErrScreenClosed after Clear, got %v", err)
	}
}

func TestTerminalStage_EmptyBatch(t *testing.T) {
	screen := newSimScreen(t)
	stage := NewTerminalStageWithScreen(nil, screen)
	defer stage.Clear()

	screen.InjectKey(tcell.KeyDown, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	if err := stage.Show(context.Background(), nil); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if stage.Model().Cursor() != -1 {
		t.Errorf("Expected no cursor, got %d", stage.Model().Cursor())
	}
	if text := strings.Join(screenText(screen), "\n"); !strings.Contains(text, "No eggs hatched.") {
		t.Error("Expected empty batch message on screen")
	}
}

func TestTerminalStage_ContextCancel(t *testing.T) {
	records, store := committedRecords(t, 2)
	screen := newSimScreen(t)
	stage := NewTerminalStageWithScreen(store, screen)
	defer stage.Clear()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- stage.Show(ctx, records)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Show did not return after cancel")
	}
}

func TestTerminalStage_ScreenFinalizedWhileShowing(t *testing.T) {
	records, store := committedRecords(t, 1)
	screen := newSimScreen(t)
	stage := NewTerminalStageWithScreen(store, screen)

	done := make(chan error, 1)
	go func() {
		done <- stage.Show(context.Background(), records)
	}()

	time.Sleep(20 * time.Millisecond)
	stage.Clear()

	select {
	case err := <-done:
		if !errors.Is(err, ErrScreenClosed) {
			t.Errorf("Expected ErrScreenClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Show did not return after Clear")
	}
}

func TestButtonForKey(t *testing.T) {
	tests := []struct {
		key  tcell.Key
		ch   rune
		want Button
		ok   bool
	}{
		{tcell.KeyUp, 0, ButtonUp, true},
		{tcell.KeyRune, 'j', ButtonDown, true},
		{tcell.KeyRune, 'h', ButtonLeft, true},
		{tcell.KeyEnter, 0, ButtonAction, true},
		{tcell.KeyRune, ' ', ButtonAction, true},
		{tcell.KeyCtrlC, 0, ButtonCancel, true},
		{tcell.KeyRune, 'z', 0, false},
		{tcell.KeyF1, 0, 0, false},
	}
	for _, tt := range tests {
		got, ok := buttonForKey(tcell.NewEventKey(tt.key, tt.ch, tcell.ModNone))
		if ok != tt.ok || got != tt.want {
			t.Errorf("key %v %q: expected (%s, %t), got (%s, %t)", tt.key, tt.ch, tt.want, tt.ok, got, ok)
		}
	}
}
