// Package summary renders a finished hatch batch: a grid of hatched
// creatures with a detail panel for the one under the cursor.
package summary

import "fmt"

// Columns is the width of the summary grid.
const Columns = 11

// Button is an abstract input the summary screen reacts to.
type Button int

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonAction
	ButtonCancel
)

func (b Button) String() string {
	switch b {
	case ButtonUp:
		return "up"
	case ButtonDown:
		return "down"
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonAction:
		return "action"
	case ButtonCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// ParseButton parses a button name as returned by Button.String.
func ParseButton(name string) (Button, error) {
	for b := ButtonUp; b <= ButtonCancel; b++ {
		if b.String() == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// Screen is the summary grid model. Entries are laid out row-major in rows of
// Columns; the last row may be partial.
type Screen struct {
	entries   []Entry
	cursor    int
	dismissed bool
}

// NewScreen creates a screen with the cursor on the first entry. An empty
// screen has no cursor (-1).
func NewScreen(entries []Entry) *Screen {
	s := &Screen{entries: entries, cursor: -1}
	if len(entries) > 0 {
		s.cursor = 0
	}
	return s
}

func (s *Screen) Entries() []Entry {
	return s.entries
}

// Cursor returns the index of the selected entry, or -1.
func (s *Screen) Cursor() int {
	return s.cursor
}

// Selected returns the entry under the cursor.
func (s *Screen) Selected() (Entry, bool) {
	if s.cursor < 0 || s.cursor >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[s.cursor], true
}

// Dismissed reports whether the user closed the screen.
func (s *Screen) Dismissed() bool {
	return s.dismissed
}

// Rows returns the number of grid rows.
func (s *Screen) Rows() int {
	return (len(s.entries) + Columns - 1) / Columns
}

// Position returns the grid column and row of entry i.
func Position(i int) (col, row int) {
	return i % Columns, i / Columns
}

// ProcessInput applies a button press and reports whether it changed
// anything. Cancel always dismisses; movement never leaves the populated
// part of the grid.
func (s *Screen) ProcessInput(b Button) bool {
	if b == ButtonCancel {
		s.dismissed = true
		return true
	}
	if s.cursor < 0 {
		return false
	}

	count := len(s.entries)
	rows := s.Rows()
	col, row := Position(s.cursor)
	lastCol := (count - 1) % Columns

	switch b {
	case ButtonUp:
		if row > 0 {
			return s.setCursor(s.cursor - Columns)
		}
	case ButtonDown:
		if row < rows-2 || (row < rows-1 && col <= lastCol) {
			return s.setCursor(s.cursor + Columns)
		}
	case ButtonLeft:
		if col > 0 {
			return s.setCursor(s.cursor - 1)
		}
	case ButtonRight:
		limit := Columns - 1
		if row == rows-1 {
			limit = lastCol
		}
		if col < limit {
			return s.setCursor(s.cursor + 1)
		}
	}
	return false
}

func (s *Screen) setCursor(cursor int) bool {
	if cursor == s.cursor || cursor < 0 || cursor >= len(s.entries) {
		return false
	}
	s.cursor = cursor
	return true
}
