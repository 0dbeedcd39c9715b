package main

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/daniacca/hatchery/internal/summary"
)

var _ hatch.PresentationStage = (*httpStage)(nil)

// httpStage holds a batch summary until a client dismisses it. Clients drive
// the cursor with button presses over HTTP.
type httpStage struct {
	live summary.ProgressionReader

	mu      sync.Mutex
	screen  *summary.Screen
	showing bool

	dismissed chan struct{}
	once      sync.Once
}

func newHTTPStage(live summary.ProgressionReader) *httpStage {
	return &httpStage{live: live, dismissed: make(chan struct{})}
}

func (s *httpStage) Show(ctx context.Context, records []*hatch.Record) error {
	entries, err := summary.BuildEntries(records, s.live)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.screen = summary.NewScreen(entries)
	s.showing = true
	s.mu.Unlock()

	select {
	case <-s.dismissed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *httpStage) Clear() {
	s.mu.Lock()
	s.showing = false
	s.mu.Unlock()
}

// Press applies a button to the summary. It reports false when no summary
// is being shown.
func (s *httpStage) Press(b summary.Button) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.showing {
		return false
	}
	s.screen.ProcessInput(b)
	if s.screen.Dismissed() {
		s.once.Do(func() { close(s.dismissed) })
	}
	return true
}

// view returns the entries and cursor of the current or last summary.
func (s *httpStage) view() ([]summary.Entry, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen == nil {
		return nil, -1, false
	}
	return s.screen.Entries(), s.screen.Cursor(), true
}

// screenFlow stands in for the client's screen manager. The server has no
// screen, so returning to the default mode is only counted and logged.
type screenFlow struct {
	logger *Logger
	resets atomic.Int64
}

func (f *screenFlow) ReturnToDefault(ctx context.Context) error {
	f.resets.Add(1)
	f.logger.Debugf("Screen flow returned to message mode: batch_id=%s", hatch.BatchIDFromContext(ctx))
	return nil
}
