package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/daniacca/hatchery/internal/collection"
	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/daniacca/hatchery/internal/hud"
	"github.com/daniacca/hatchery/internal/summary"
)

type options struct {
	catalogFile string
	batchFile   string
	store       string
	ui          string
	snapshot    string
	messages    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.catalogFile, "catalog-file", "", "path to the species catalog YAML file (required)")
	flag.StringVar(&opts.batchFile, "batch", "", "path to the hatch batch YAML file (required)")
	flag.StringVar(&opts.store, "store", "memory", "collection store: memory or sqlite:<path>")
	flag.StringVar(&opts.ui, "ui", "text", "summary screen: text or terminal")
	flag.StringVar(&opts.snapshot, "snapshot", "", "optional file to write a collection snapshot to after the batch")
	flag.BoolVar(&opts.messages, "messages", false, "print discovery messages even if the batch file does not ask for them")
	flag.Parse()

	if opts.catalogFile == "" || opts.batchFile == "" {
		fmt.Fprintf(os.Stderr, "error: --catalog-file and --batch are required\n")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	catalog, err := hatch.LoadCatalog(opts.catalogFile)
	if err != nil {
		return err
	}
	batch, err := hatch.LoadBatch(opts.batchFile)
	if err != nil {
		return err
	}
	if opts.messages {
		batch.ShowMessages = true
	}
	hatches, err := hatch.BuildHatches(batch, catalog)
	if err != nil {
		return err
	}

	store, err := collection.Open(ctx, opts.store, catalog, nil)
	if err != nil {
		return err
	}
	defer store.Close()

	stage, err := newStage(opts.ui, out, store)
	if err != nil {
		return err
	}

	mgr := hatch.NewNotificationManager()
	messages := &messageLog{}
	if err := mgr.RegisterNotifier(messages); err != nil {
		return err
	}
	store.SetNotificationManager(mgr)

	records := hatch.NewRecords(store, hatches)
	hatch.SortRecords(records)

	coord := hatch.NewCoordinator(records, stage, messageFlow{}, hatch.WithMessages(batch.ShowMessages))
	runErr := coord.Run(ctx)

	// Drain queued discoveries before printing them.
	mgr.Close()
	if lines := messages.Lines(); len(lines) > 0 {
		fmt.Fprintln(out, "\nDiscoveries:")
		for _, line := range lines {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}
	if runErr != nil {
		return runErr
	}

	if err := printCollection(out, records, store); err != nil {
		return err
	}

	if opts.snapshot != "" {
		snap, err := store.ExportSnapshot(ctx)
		if err != nil {
			return err
		}
		if err := hatch.WriteSnapshotFile(opts.snapshot, snap); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nSnapshot written to %s\n", opts.snapshot)
	}
	return nil
}

func newStage(ui string, out io.Writer, live summary.ProgressionReader) (hatch.PresentationStage, error) {
	switch ui {
	case "text":
		return summary.NewTextStage(out, live), nil
	case "terminal":
		return summary.NewTerminalStage(live), nil
	default:
		return nil, fmt.Errorf("unknown ui %q (want text or terminal)", ui)
	}
}

// messageLog collects discovery events so they can be printed after the
// summary instead of interleaving with it.
type messageLog struct {
	mu    sync.Mutex
	lines []string
}

func (m *messageLog) ID() string   { return "console" }
func (m *messageLog) Type() string { return "console" }
func (m *messageLog) Close() error { return nil }

func (m *messageLog) Notify(ctx context.Context, ev hatch.DiscoveryEvent) error {
	var line string
	switch ev.Kind {
	case hatch.DiscoveryNewCatch:
		line = fmt.Sprintf("%s was registered as caught!", ev.SpeciesName)
		if ev.Shiny {
			line = fmt.Sprintf("Shiny %s was registered as caught!", ev.SpeciesName)
		}
	case hatch.DiscoveryEggMoveUnlocked:
		line = fmt.Sprintf("%s unlocked the egg move %s!", ev.SpeciesName, ev.MoveName)
	default:
		line = fmt.Sprintf("%s: %s", ev.Kind, ev.SpeciesName)
	}

	m.mu.Lock()
	m.lines = append(m.lines, line)
	m.mu.Unlock()
	return nil
}

// Lines returns the collected messages in delivery order.
func (m *messageLog) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// messageFlow has no screen to reset; the summary is the last thing shown.
type messageFlow struct{}

func (messageFlow) ReturnToDefault(context.Context) error { return nil }

func printCollection(out io.Writer, records []*hatch.Record, store collection.Backend) error {
	fmt.Fprintln(out, "\nCollection:")
	seen := make(map[hatch.SpeciesID]bool)
	for _, rec := range records {
		c := rec.Creature()
		if seen[c.Species.ID] {
			continue
		}
		seen[c.Species.ID] = true

		dex, err := store.ReadDexEntry(c.Species.ID)
		if err != nil {
			return err
		}
		owned, err := hud.LookupOwnedIcon(store, c)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  #%04d %-12s %-16s caught %s  hatched %s\n",
			int(c.Species.ID), c.Species.Name, owned,
			strings.TrimSpace(hud.FormatStat(dex.CaughtCount)),
			strings.TrimSpace(hud.FormatStat(dex.HatchedCount)))
	}
	return nil
}
