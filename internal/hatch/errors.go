package hatch

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryNotFound is returned when a species has no collection entry.
	// For a registered species this is an invariant violation upstream.
	ErrEntryNotFound = errors.New("collection entry not found")

	// ErrNotReady is returned when a record is read or committed out of order.
	ErrNotReady = errors.New("hatch record state not ready")

	// ErrInvalidSlot is returned for an egg-move slot outside 0..3.
	ErrInvalidSlot = errors.New("invalid egg move slot")

	// ErrAlreadyStarted is returned when a coordinator is run twice.
	ErrAlreadyStarted = errors.New("hatch batch already started")
)

// BatchPhase names the stage of a batch in which it failed.
type BatchPhase string

const (
	PhaseSnapshot  BatchPhase = "snapshot"
	PhaseCommit    BatchPhase = "commit"
	PhaseDisplay   BatchPhase = "display"
	PhaseAbandoned BatchPhase = "abandoned"
)

// BatchError is the single terminal error a coordinator reports. Index is the
// record being processed when the batch stopped, or -1 for the display stage.
type BatchError struct {
	BatchID string
	Phase   BatchPhase
	Index   int
	Species SpeciesID
	Err     error
}

func (e *BatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("hatch batch %s failed during %s: %v", e.BatchID, e.Phase, e.Err)
	}
	return fmt.Sprintf("hatch batch %s failed during %s of record %d (species %d): %v",
		e.BatchID, e.Phase, e.Index, e.Species, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
