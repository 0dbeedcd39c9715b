package summary

import "testing"

func entriesN(n int) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i].Index = i
	}
	return entries
}

func TestScreen_EmptyHasNoCursor(t *testing.T) {
	s := NewScreen(nil)
	if s.Cursor() != -1 {
		t.Errorf("Expected cursor -1, got %d", s.Cursor())
	}
	for _, b := range []Button{ButtonUp, ButtonDown, ButtonLeft, ButtonRight, ButtonAction} {
		if s.ProcessInput(b) {
			t.Errorf("Expected %s to do nothing on an empty screen", b)
		}
	}
	if _, ok := s.Selected(); ok {
		t.Error("Expected no selection")
	}
	if !s.ProcessInput(ButtonCancel) || !s.Dismissed() {
		t.Error("Expected cancel to dismiss")
	}
}

func TestScreen_Navigation(t *testing.T) {
	// 25 entries: rows of 11, 11 and 3.
	tests := []struct {
		name   string
		start  int
		button Button
		want   int
		moved  bool
	}{
		{"up from first row", 4, ButtonUp, 4, false},
		{"up from second row", 15, ButtonUp, 4, true},
		{"down from first row", 4, ButtonDown, 15, true},
		{"down into partial row", 13, ButtonDown, 24, true},
		{"down past partial row", 14, ButtonDown, 14, false},
		{"down from last row", 23, ButtonDown, 23, false},
		{"left from first column", 11, ButtonLeft, 11, false},
		{"left", 12, ButtonLeft, 11, true},
		{"right at row end", 10, ButtonRight, 10, false},
		{"right in full row", 9, ButtonRight, 10, true},
		{"right in partial row", 23, ButtonRight, 24, true},
		{"right at last entry", 24, ButtonRight, 24, false},
		{"action", 3, ButtonAction, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScreen(entriesN(25))
			s.cursor = tt.start
			moved := s.ProcessInput(tt.button)
			if moved != tt.moved {
				t.Errorf("Expected moved=%t, got %t", tt.moved, moved)
			}
			if s.Cursor() != tt.want {
				t.Errorf("Expected cursor %d, got %d", tt.want, s.Cursor())
			}
			if s.Dismissed() {
				t.Error("Expected screen not dismissed")
			}
		})
	}
}

func TestScreen_SingleRow(t *testing.T) {
	s := NewScreen(entriesN(3))
	if s.ProcessInput(ButtonDown) || s.ProcessInput(ButtonUp) {
		t.Error("Expected no vertical movement in a single row")
	}
	s.ProcessInput(ButtonRight)
	s.ProcessInput(ButtonRight)
	if s.ProcessInput(ButtonRight) {
		t.Error("Expected right to stop at the last entry")
	}
	if s.Cursor() != 2 {
		t.Errorf("Expected cursor 2, got %d", s.Cursor())
	}
}

func TestScreen_FullLastRow(t *testing.T) {
	s := NewScreen(entriesN(22))
	s.cursor = 10
	if !s.ProcessInput(ButtonDown) || s.Cursor() != 21 {
		t.Errorf("Expected to move down to 21, got %d", s.Cursor())
	}
	if s.ProcessInput(ButtonRight) {
		t.Error("Expected right to stop at the end of the last row")
	}
}

func TestPosition(t *testing.T) {
	col, row := Position(23)
	if col != 1 || row != 2 {
		t.Errorf("Expected (1, 2), got (%d, %d)", col, row)
	}
}

func TestParseButton(t *testing.T) {
	for b := ButtonUp; b <= ButtonCancel; b++ {
		got, err := ParseButton(b.String())
		if err != nil || got != b {
			t.Errorf("ParseButton(%q): expected %s, got %s, %v", b.String(), b, got, err)
		}
	}
	if _, err := ParseButton("jump"); err == nil {
		t.Error("Expected error for unknown button")
	}
}
