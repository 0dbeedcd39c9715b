package hatch

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestNewBatchID(t *testing.T) {
	id1 := NewBatchID()
	if id1 == "" {
		t.Fatal("Expected non-empty ID")
	}

	parsed, err := uuid.Parse(id1)
	if err != nil {
		t.Fatalf("Expected a valid UUID, got %q: %v", id1, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("Expected UUID version 7, got %d", parsed.Version())
	}

	// Test uniqueness
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewBatchID()
		if ids[id] {
			t.Errorf("Duplicate ID found: %s", id)
		}
		ids[id] = true
	}
}

func TestBatchIDContext(t *testing.T) {
	if got := BatchIDFromContext(context.Background()); got != "" {
		t.Errorf("Expected empty batch ID, got %q", got)
	}

	ctx := WithBatchID(context.Background(), "batch-1")
	if got := BatchIDFromContext(ctx); got != "batch-1" {
		t.Errorf("Expected batch-1, got %q", got)
	}
}
