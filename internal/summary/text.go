package summary

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/daniacca/hatchery/internal/hatch"
)

var _ hatch.PresentationStage = (*TextStage)(nil)

// TextStage writes the summary as a plain report and dismisses immediately.
// It is meant for non-interactive runs.
type TextStage struct {
	out  io.Writer
	live ProgressionReader

	// Last holds the entries of the most recent Show.
	Last []Entry
}

// NewTextStage creates a stage that writes to out.
func NewTextStage(out io.Writer, live ProgressionReader) *TextStage {
	return &TextStage{out: out, live: live}
}

func (s *TextStage) Show(ctx context.Context, records []*hatch.Record) error {
	entries, err := BuildEntries(records, liveOrEmpty(s.live))
	if err != nil {
		return err
	}
	s.Last = entries

	if len(entries) == 0 {
		_, err := fmt.Fprintln(s.out, "No eggs hatched.")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d eggs hatched\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "\n[%d] %-6s", e.Index+1, e.Tier)
		if badges := e.Badges(); badges != "" {
			fmt.Fprintf(&b, " %s", badges)
		}
		b.WriteByte('\n')
		for _, line := range DetailLines(e) {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	_, err = io.WriteString(s.out, b.String())
	return err
}

func (s *TextStage) Clear() {}

// liveOrEmpty returns reader, or a reader that reports every egg move as
// locked when reader is nil.
func liveOrEmpty(reader ProgressionReader) ProgressionReader {
	if reader != nil {
		return reader
	}
	return emptyProgression{}
}

type emptyProgression struct{}

func (emptyProgression) ReadProgressionEntry(hatch.SpeciesID) (hatch.ProgressionEntry, error) {
	return hatch.ProgressionEntry{}, nil
}
