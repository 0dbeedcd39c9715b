package hatch

import (
	"context"
	"fmt"
	"sync"
)

// PresentationStage renders a finished batch. Show blocks until the user
// dismisses the summary; Clear releases whatever Show allocated.
type PresentationStage interface {
	Show(ctx context.Context, records []*Record) error
	Clear()
}

// ScreenFlow is the surrounding screen manager. ReturnToDefault puts it back
// in its default message state once the summary is dismissed.
type ScreenFlow interface {
	ReturnToDefault(ctx context.Context) error
}

// StateKind enumerates the coordinator's lifecycle.
type StateKind int

const (
	StateIdle StateKind = iota
	StateProcessing
	StateDisplaying
	StateDone
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateDisplaying:
		return "displaying"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// State is the coordinator's current state. Index is the record being
// processed while Kind is StateProcessing.
type State struct {
	Kind  StateKind
	Index int
}

func (s State) String() string {
	if s.Kind == StateProcessing {
		return fmt.Sprintf("processing(%d)", s.Index)
	}
	return s.Kind.String()
}

// Coordinator drives a batch of records through snapshot and commit one at a
// time, then hands the batch to a presentation stage.
type Coordinator struct {
	id           string
	records      []*Record
	stage        PresentationStage
	flow         ScreenFlow
	logger       Logger
	showMessages bool
	commitLock   sync.Locker

	mu      sync.Mutex
	state   State
	cursor  int
	started bool
	err     error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(logger Logger) Option {
	return func(c *Coordinator) { c.logger = loggerOrNoop(logger) }
}

// WithMessages makes commits surface discovery notifications.
func WithMessages(show bool) Option {
	return func(c *Coordinator) { c.showMessages = show }
}

// WithCommitLock makes the coordinator hold lock for the whole processing
// phase. Coordinators sharing a store should share a lock so only one batch
// writes to it at a time. The lock is released before the summary is shown.
func WithCommitLock(lock sync.Locker) Option {
	return func(c *Coordinator) { c.commitLock = lock }
}

// WithID overrides the generated batch identifier.
func WithID(id string) Option {
	return func(c *Coordinator) { c.id = id }
}

// NewCoordinator creates a coordinator for records, which must already be in
// display order (see SortRecords).
func NewCoordinator(records []*Record, stage PresentationStage, flow ScreenFlow, opts ...Option) *Coordinator {
	c := &Coordinator{
		id:      NewBatchID(),
		records: records,
		stage:   stage,
		flow:    flow,
		logger:  NewNoOpLogger(),
		state:   State{Kind: StateIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the batch identifier.
func (c *Coordinator) ID() string {
	return c.id
}

// Records returns the batch in processing order.
func (c *Coordinator) Records() []*Record {
	out := make([]*Record, len(c.records))
	copy(out, c.records)
	return out
}

// State returns the current state. Safe to call from other goroutines.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cursor returns the number of records committed so far, which is also the
// index of the record being processed while the batch is running.
func (c *Coordinator) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Err returns the terminal batch error once the coordinator is done.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Coordinator) setState(kind StateKind, index int) {
	c.mu.Lock()
	c.state = State{Kind: kind, Index: index}
	c.mu.Unlock()
}

func (c *Coordinator) finish(err error) error {
	c.mu.Lock()
	c.state = State{Kind: StateDone}
	c.err = err
	c.mu.Unlock()
	return err
}

// Run processes the batch and blocks until the summary is dismissed.
//
// If ctx is cancelled while a record is committing, that commit still runs to
// completion; the remaining records are skipped, the summary is not shown and
// the screen flow is returned to its default state.
func (c *Coordinator) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	ctx = WithBatchID(ctx, c.id)
	c.logger.Infof("Hatch batch started: batch_id=%s records=%d", c.id, len(c.records))

	if err := c.process(ctx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return c.abandon(ctx, len(c.records), err)
	}

	c.setState(StateDisplaying, len(c.records))
	showErr := c.stage.Show(ctx, c.records)
	c.stage.Clear()

	flowErr := c.flow.ReturnToDefault(context.WithoutCancel(ctx))
	if showErr != nil {
		c.logger.Errorf("Hatch summary failed: batch_id=%s error=%v", c.id, showErr)
		return c.finish(&BatchError{BatchID: c.id, Phase: PhaseDisplay, Index: -1, Err: showErr})
	}
	if flowErr != nil {
		c.logger.Errorf("Screen flow reset failed: batch_id=%s error=%v", c.id, flowErr)
		return c.finish(&BatchError{BatchID: c.id, Phase: PhaseDisplay, Index: -1, Err: flowErr})
	}

	c.logger.Infof("Hatch batch dismissed: batch_id=%s", c.id)
	return c.finish(nil)
}

// process snapshots and commits every record in order while holding the
// commit lock.
func (c *Coordinator) process(ctx context.Context) error {
	if c.commitLock != nil {
		c.commitLock.Lock()
		defer c.commitLock.Unlock()
	}

	for i, rec := range c.records {
		if err := ctx.Err(); err != nil {
			return c.abandon(ctx, i, err)
		}

		c.setState(StateProcessing, i)
		if err := rec.CaptureSnapshot(); err != nil {
			return c.fail(i, rec, PhaseSnapshot, err)
		}
		if err := rec.Commit(context.WithoutCancel(ctx), c.showMessages); err != nil {
			return c.fail(i, rec, PhaseCommit, err)
		}
		c.mu.Lock()
		c.cursor = i + 1
		c.mu.Unlock()

		unlocked, _ := rec.EggMoveUnlocked()
		c.logger.Debugf("Hatch record committed: batch_id=%s index=%d species=%d egg_move_unlocked=%t",
			c.id, i, speciesIDOf(rec), unlocked)
	}
	return nil
}

func (c *Coordinator) fail(index int, rec *Record, phase BatchPhase, err error) error {
	c.logger.Errorf("Hatch batch aborted: batch_id=%s phase=%s index=%d error=%v", c.id, phase, index, err)
	return c.finish(&BatchError{
		BatchID: c.id,
		Phase:   phase,
		Index:   index,
		Species: speciesIDOf(rec),
		Err:     err,
	})
}

func (c *Coordinator) abandon(ctx context.Context, index int, cause error) error {
	c.logger.Warnf("Hatch batch abandoned: batch_id=%s skipped=%d", c.id, len(c.records)-index)
	if err := c.flow.ReturnToDefault(context.WithoutCancel(ctx)); err != nil {
		c.logger.Errorf("Screen flow reset failed: batch_id=%s error=%v", c.id, err)
	}
	batchErr := &BatchError{BatchID: c.id, Phase: PhaseAbandoned, Index: index, Err: cause}
	if index < len(c.records) {
		batchErr.Species = speciesIDOf(c.records[index])
	}
	return c.finish(batchErr)
}

func speciesIDOf(rec *Record) SpeciesID {
	if rec == nil || rec.creature == nil || rec.creature.Species == nil {
		return 0
	}
	return rec.creature.Species.ID
}
