// Package collection opens the collection store a binary is configured with.
package collection

import (
	"context"
	"fmt"
	"strings"

	"github.com/daniacca/hatchery/internal/hatch"
	"github.com/daniacca/hatchery/internal/hatch/sqlstore"
)

// Backend is a collection store the binaries can snapshot, observe and
// close. Both hatch.MemStore and sqlstore.Store implement it.
type Backend interface {
	hatch.CollectionStore
	hatch.SnapshotSource
	SetLogger(logger hatch.Logger)
	SetNotificationManager(mgr *hatch.NotificationManager, targets ...string)
	Close() error
}

var (
	_ Backend = (*hatch.MemStore)(nil)
	_ Backend = (*sqlstore.Store)(nil)
)

// Spec is a parsed store specification.
type Spec struct {
	// Kind is "memory" or "sqlite".
	Kind string
	// Path is the database file for sqlite.
	Path string
}

func (s Spec) String() string {
	if s.Kind == "sqlite" {
		return "sqlite:" + s.Path
	}
	return s.Kind
}

// ParseSpec parses "memory" or "sqlite:<path>". The empty string means
// memory.
func ParseSpec(spec string) (Spec, error) {
	switch {
	case spec == "" || spec == "memory":
		return Spec{Kind: "memory"}, nil
	case strings.HasPrefix(spec, "sqlite:"):
		path := strings.TrimPrefix(spec, "sqlite:")
		if path == "" {
			return Spec{}, fmt.Errorf("sqlite store needs a path: sqlite:<path>")
		}
		return Spec{Kind: "sqlite", Path: path}, nil
	default:
		return Spec{}, fmt.Errorf("unknown store %q (want memory or sqlite:<path>)", spec)
	}
}

// Open opens the store described by spec, seeded from catalog.
func Open(ctx context.Context, spec string, catalog *hatch.Catalog, logger hatch.Logger) (Backend, error) {
	parsed, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}

	var backend Backend
	switch parsed.Kind {
	case "sqlite":
		store, err := sqlstore.Open(ctx, parsed.Path, catalog)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", parsed.Path, err)
		}
		backend = store
	default:
		backend = hatch.NewMemStore(catalog)
	}

	if logger != nil {
		backend.SetLogger(logger)
		logger.Infof("Collection store opened: store=%s species=%d", parsed, len(catalog.All()))
	}
	return backend, nil
}
