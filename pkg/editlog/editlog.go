// Package editlog implements the Operation Log (spec.md §4.H): a
// sequence of MoveData records batched per edit gesture and handed to
// an opaque external Mutator that returns a new OTIO document.
package editlog

import (
	"context"
	"sync"

	"github.com/Avalanche-io/gotio"

	"flipreview/pkg/rationaltime"
)

// ItemType distinguishes what a MoveData record moved.
type ItemType int

// Item types.
const (
	ItemClip ItemType = iota
	ItemTransition
	// ItemUndoOnly is a sentinel pushed before a geometry-mutating
	// gesture begins; the mutator interprets it as "snapshot the
	// current document before applying what follows" rather than as a
	// move of any item.
	ItemUndoOnly
)

// MoveData is one entry in the operation log (spec.md §4.H).
type MoveData struct {
	Type ItemType

	FromTrack, FromIndex, FromOtioIndex int
	ToTrack, ToIndex, ToOtioIndex       int

	// InOffset/OutOffset are only meaningful when Type == ItemTransition.
	InOffset, OutOffset *rationaltime.Time
}

// Mutator turns a batch of MoveData into a new OTIO document. It is
// opaque to the edit engine: the engine never inspects or retains the
// document itself, only the Timeline model rebuilt from it.
type Mutator interface {
	Apply(ctx context.Context, doc *gotio.Timeline, ops []MoveData) (*gotio.Timeline, error)
}

// Log accumulates MoveData for the gesture currently in progress and
// delivers it as one batch on Commit (spec.md §4.G: "batches all
// effects of one gesture into one delivery").
type Log struct {
	mu      sync.Mutex
	pending []MoveData
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// Push appends op to the batch for the gesture in progress.
func (l *Log) Push(op MoveData) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, op)
}

// Pending returns a copy of the operations accumulated so far, without
// clearing them.
func (l *Log) Pending() []MoveData {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]MoveData, len(l.pending))
	copy(out, l.pending)
	return out
}

// Discard clears the pending batch without committing it (gesture
// cancelled, e.g. Escape during a drag).
func (l *Log) Discard() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = nil
}

// Commit hands the pending batch to m and clears it. An empty batch is
// a no-op that returns doc unchanged. The caller is responsible for
// rebuilding the timeline model from the returned document.
func (l *Log) Commit(ctx context.Context, doc *gotio.Timeline, m Mutator) (*gotio.Timeline, error) {
	l.mu.Lock()
	ops := l.pending
	l.pending = nil
	l.mu.Unlock()

	if len(ops) == 0 {
		return doc, nil
	}
	return m.Apply(ctx, doc, ops)
}
