package hatch

import (
	"context"

	"github.com/google/uuid"
)

// NewBatchID returns a time-ordered identifier for a hatch batch.
func NewBatchID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewCreatureID returns a random identifier for a hatched creature.
func NewCreatureID() string {
	return uuid.New().String()
}

type batchIDKey struct{}

// WithBatchID returns a context carrying the batch identifier. Stores read it
// back to tag the discovery events they emit.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey{}, id)
}

// BatchIDFromContext returns the batch identifier stored in ctx, if any.
func BatchIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(batchIDKey{}).(string)
	return id
}
