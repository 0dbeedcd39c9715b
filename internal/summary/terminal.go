package summary

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/gdamore/tcell/v2"
)

var _ hatch.PresentationStage = (*TerminalStage)(nil)

// ErrScreenClosed is returned by Show when the terminal goes away before the
// summary is dismissed.
var ErrScreenClosed = errors.New("summary screen closed")

const (
	cellWidth  = 9
	gridTop    = 2
	gridLeft   = 1
	panelInset = 2
)

// TerminalStage shows the summary on a tcell screen and blocks until the user
// dismisses it.
//
// Keys: arrows or hjkl move, Esc / q / Backspace close.
type TerminalStage struct {
	live ProgressionReader

	mu     sync.Mutex
	screen tcell.Screen
	closed bool
	model  *Screen
}

// NewTerminalStage creates a stage that opens the process terminal on Show.
func NewTerminalStage(live ProgressionReader) *TerminalStage {
	return &TerminalStage{live: live}
}

// NewTerminalStageWithScreen creates a stage on an already initialized
// screen, such as a tcell.SimulationScreen.
func NewTerminalStageWithScreen(live ProgressionReader, screen tcell.Screen) *TerminalStage {
	return &TerminalStage{live: live, screen: screen}
}

// Model returns the grid model of the current or last Show.
func (s *TerminalStage) Model() *Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *TerminalStage) Show(ctx context.Context, records []*hatch.Record) error {
	entries, err := BuildEntries(records, liveOrEmpty(s.live))
	if err != nil {
		return err
	}

	screen, err := s.acquire()
	if err != nil {
		return err
	}

	model := NewScreen(entries)
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	draw(screen, model)
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return ErrScreenClosed
		case *tcell.EventInterrupt:
			if err := ctx.Err(); err != nil {
				return err
			}
		case *tcell.EventResize:
			screen.Sync()
			draw(screen, model)
		case *tcell.EventKey:
			button, ok := buttonForKey(ev)
			if !ok {
				continue
			}
			if model.ProcessInput(button) {
				if model.Dismissed() {
					return nil
				}
				draw(screen, model)
			}
		}
	}
}

// Clear releases the terminal. A screen supplied by the caller is finalized
// as well, since the stage is done with it.
func (s *TerminalStage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen == nil || s.closed {
		return
	}
	s.screen.Fini()
	s.closed = true
}

func (s *TerminalStage) acquire() (tcell.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrScreenClosed
	}
	if s.screen != nil {
		return s.screen, nil
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	s.screen = screen
	return screen, nil
}

func buttonForKey(ev *tcell.EventKey) (Button, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return ButtonUp, true
	case tcell.KeyDown:
		return ButtonDown, true
	case tcell.KeyLeft:
		return ButtonLeft, true
	case tcell.KeyRight:
		return ButtonRight, true
	case tcell.KeyEnter:
		return ButtonAction, true
	case tcell.KeyEscape, tcell.KeyBackspace, tcell.KeyBackspace2, tcell.KeyCtrlC:
		return ButtonCancel, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'k':
			return ButtonUp, true
		case 'j':
			return ButtonDown, true
		case 'h':
			return ButtonLeft, true
		case 'l':
			return ButtonRight, true
		case ' ':
			return ButtonAction, true
		case 'q':
			return ButtonCancel, true
		}
	}
	return 0, false
}

func draw(screen tcell.Screen, model *Screen) {
	screen.Clear()
	base := tcell.StyleDefault

	entries := model.Entries()
	drawText(screen, gridLeft, 0, base.Bold(true), fmt.Sprintf("Hatched: %d", len(entries)))

	for i, e := range entries {
		col, row := Position(i)
		x := gridLeft + col*cellWidth
		y := gridTop + row
		style := base.Background(tcell.NewHexColor(int32(e.Tint))).Foreground(tcell.ColorBlack)
		if i == model.Cursor() {
			style = style.Reverse(true)
		}
		drawText(screen, x, y, style, fmt.Sprintf("%s%-4s", e.Number, e.Badges()))
	}

	panelTop := gridTop + model.Rows() + 1
	if sel, ok := model.Selected(); ok {
		for i, line := range DetailLines(sel) {
			drawText(screen, gridLeft+panelInset, panelTop+i, base, line)
		}
	} else {
		drawText(screen, gridLeft+panelInset, panelTop, base, "No eggs hatched.")
	}

	_, height := screen.Size()
	drawText(screen, gridLeft, height-1, base.Foreground(tcell.ColorGray), "arrows/hjkl move  esc/q close")
	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
