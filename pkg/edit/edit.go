// Package edit implements the Timeline Edit Engine (spec.md §4.G): a
// pointer-driven state machine over a timeline model, mapping screen
// geometry to rational time and emitting a batched operation log.
package edit

import (
	"context"
	"fmt"
	"sync"

	"flipreview/pkg/editlog"
	"flipreview/pkg/rationaltime"
	"flipreview/pkg/timeline"
)

// Mode is one of the engine's nine edit modes. Fill, Insert and
// Overwrite share ModeDrop because they differ only in drop-target
// semantics, not in state-machine shape (spec.md §4.G table).
type Mode int

// Modes.
const (
	ModeSelect Mode = iota
	ModeMove
	ModeRipple
	ModeRoll
	ModeTrim
	ModeSlip
	ModeSlide
	ModeSlice
	ModeDrop
)

// DropSemantics distinguishes the three ModeDrop variants.
type DropSemantics int

// Drop semantics.
const (
	DropFill DropSemantics = iota
	DropInsert
	DropOverwrite
)

// Edge names which side of an item a Trim/Ripple/Roll gesture grabbed.
type Edge int

// Edges.
const (
	EdgeIn Edge = iota
	EdgeOut
)

// ItemID stably identifies an item within one timeline generation by
// (track, index) rather than by pointer (spec.md §9: "registry keyed
// by stable ids... prevents dangling references after OTIO
// replacement").
type ItemID struct {
	Track int
	Index int
}

func (id ItemID) String() string {
	return fmt.Sprintf("%d:%d", id.Track, id.Index)
}

// TransitionID stably identifies a transition the same way ItemID
// identifies an item: by (track, index into that track's Transitions).
type TransitionID struct {
	Track int
	Index int
}

func (id TransitionID) String() string {
	return fmt.Sprintf("%d:T%d", id.Track, id.Index)
}

// gesture holds the in-progress drag/trim state between Begin and
// Commit/Cancel. Exactly one of item or transition identifies the
// thing being dragged: Roll ordinarily grabs a clip edge (item), but
// BeginRoll grabs a transition's own edge directly (transition).
type gesture struct {
	mode Mode
	drop DropSemantics
	edge Edge
	item ItemID
	transition *TransitionID

	startPos float64
	lastPos  float64

	// target is the drop slot currently under the cursor, for Move/Drop
	// modes.
	target *Slot

	// proposedEdgeTime is the clamped candidate time for Trim/Ripple/
	// Roll/Slice, whose commit effect is a single edge moving.
	proposedEdgeTime *rationaltime.Time
	// proposedRange is the clamped candidate range for Slip/Slide,
	// whose commit effect is a whole range shifting.
	proposedRange *rationaltime.Range
}

// Engine drives one timeline's edit state machine. It never mutates
// the OTIO document directly; gestures only ever produce MoveData
// batches in its Log, and Commit hands those to an external Mutator.
type Engine struct {
	mu sync.Mutex

	tl  *timeline.Timeline
	log *editlog.Log

	pxPerSecond float64
	trackOrigin float64
	trackHeight float64

	associatedClips bool

	selected map[ItemID]bool
	active   *gesture
}

// New returns an Engine over tl, logging operations to log.
func New(tl *timeline.Timeline, log *editlog.Log) *Engine {
	return &Engine{
		tl:          tl,
		log:         log,
		pxPerSecond: 1,
		trackHeight: 1,
		selected:    make(map[ItemID]bool),
	}
}

// SetScale sets the pixel origin and scale used by TimeToPos/PosToTime
// (spec.md §4.G: "pxPerSecond maps between pixel positions and
// rational time").
func (e *Engine) SetScale(trackOrigin, pxPerSecond float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trackOrigin = trackOrigin
	if pxPerSecond > 0 {
		e.pxPerSecond = pxPerSecond
	}
}

// SetTrackHeight sets the vertical pixel height used to lay out track
// rows for drop-target hit testing.
func (e *Engine) SetTrackHeight(h float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h > 0 {
		e.trackHeight = h
	}
}

// SetAssociatedClips toggles the "edit associated clips" preference
// (spec.md §4.G).
func (e *Engine) SetAssociatedClips(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.associatedClips = on
}

// Timeline returns the model the engine is currently driving.
func (e *Engine) Timeline() *timeline.Timeline {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tl
}

// TimeToPos maps t to a pixel position along its track:
// trackOrigin + (t-trackStart)*pxPerSecond, rounded to an integer
// pixel (spec.md §4.G).
func (e *Engine) TimeToPos(trackStart, t rationaltime.Time) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeToPos(trackStart, t)
}

func (e *Engine) timeToPos(trackStart, t rationaltime.Time) float64 {
	seconds := t.Sub(trackStart).ToSeconds()
	return roundToInt(e.trackOrigin + seconds*e.pxPerSecond)
}

// PosToTime is TimeToPos's inverse, rounded to the nearest frame at
// rate.
func (e *Engine) PosToTime(trackStart rationaltime.Time, pos, rate float64) rationaltime.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.posToTime(trackStart, pos, rate)
}

func (e *Engine) posToTime(trackStart rationaltime.Time, pos, rate float64) rationaltime.Time {
	seconds := (pos - e.trackOrigin) / e.pxPerSecond
	t := trackStart.Add(rationaltime.FromSeconds(seconds, rate))
	return t.RescaledTo(rate).RoundToFrame()
}

func roundToInt(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}

// Item looks up id's item in the current model.
func (e *Engine) Item(id ItemID) (timeline.Item, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.item(id)
}

func (e *Engine) item(id ItemID) (timeline.Item, bool) {
	if id.Track < 0 || id.Track >= len(e.tl.Tracks) {
		return timeline.Item{}, false
	}
	track := e.tl.Tracks[id.Track]
	if id.Index < 0 || id.Index >= len(track.Items) {
		return timeline.Item{}, false
	}
	return track.Items[id.Index], true
}

// Select replaces the selection set with ids, expanding each to its
// associated clip when that preference is on.
func (e *Engine) Select(ids ...ItemID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = make(map[ItemID]bool, len(ids))
	for _, id := range ids {
		e.selected[id] = true
		if e.associatedClips {
			if assoc, ok := e.associatedClip(id); ok {
				e.selected[assoc] = true
			}
		}
	}
}

// Selected returns the current selection.
func (e *Engine) Selected() []ItemID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ItemID, 0, len(e.selected))
	for id := range e.selected {
		out = append(out, id)
	}
	return out
}

// Begin starts a gesture for mode over item id at the initial pointer
// position pos. Every mode except Select pushes an UndoOnly sentinel
// before any geometry is mutated (spec.md §4.G: "the engine pushes a
// sentinel UndoOnly op before each geometry-mutating gesture starts").
func (e *Engine) Begin(mode Mode, edge Edge, id ItemID, pos float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return fmt.Errorf("edit: gesture already in progress")
	}
	if _, ok := e.item(id); !ok {
		return fmt.Errorf("edit: unknown item %v", id)
	}

	e.active = &gesture{mode: mode, edge: edge, item: id, startPos: pos, lastPos: pos}
	if mode != ModeSelect {
		e.log.Push(editlog.MoveData{Type: editlog.ItemUndoOnly})
	}
	return nil
}

// BeginDrop is Begin for ModeDrop, additionally recording which of the
// three drop semantics governs the gesture.
func (e *Engine) BeginDrop(drop DropSemantics, id ItemID, pos float64) error {
	if err := e.Begin(ModeDrop, EdgeIn, id, pos); err != nil {
		return err
	}
	e.mu.Lock()
	e.active.drop = drop
	e.mu.Unlock()
	return nil
}

// BeginRoll starts a Roll gesture on a transition's own edge (spec.md
// §4.G test S4): EdgeIn drags the transition's left edge (shortening
// or lengthening its InOffset), EdgeOut its right edge (its
// OutOffset).
func (e *Engine) BeginRoll(id TransitionID, edge Edge, pos float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return fmt.Errorf("edit: gesture already in progress")
	}
	if id.Track < 0 || id.Track >= len(e.tl.Tracks) {
		return fmt.Errorf("edit: unknown track %d", id.Track)
	}
	track := e.tl.Tracks[id.Track]
	if id.Index < 0 || id.Index >= len(track.Transitions) {
		return fmt.Errorf("edit: unknown transition %v", id)
	}

	e.active = &gesture{mode: ModeRoll, edge: edge, transition: &id, startPos: pos, lastPos: pos}
	e.log.Push(editlog.MoveData{Type: editlog.ItemUndoOnly})
	return nil
}

// Cancel abandons the in-progress gesture and discards any log entries
// it pushed (including its UndoOnly sentinel).
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = nil
	e.log.Discard()
}

// Update recomputes the in-progress gesture's preview for pointer
// position (x, y), applying the clamp rules in clamp.go. It never
// mutates the timeline model; callers read the clamped preview back
// via Preview before drawing or committing.
func (e *Engine) Update(x, y float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.active
	if g == nil {
		return fmt.Errorf("edit: no gesture in progress")
	}
	g.lastPos = x

	if g.transition != nil {
		return e.updateRollTransition(g, x)
	}

	item, ok := e.item(g.item)
	if !ok {
		return fmt.Errorf("edit: item %v no longer exists", g.item)
	}
	track := e.tl.Tracks[g.item.Track]

	switch g.mode {
	case ModeSelect:
		// No geometry change.

	case ModeTrim, ModeRipple, ModeRoll:
		rate := item.ParentRange.Start.Rate
		proposed := e.posToTime(rationaltime.Time{Rate: rate}, x, rate)
		opposite := item.ParentRange.Start
		if g.edge == EdgeIn {
			opposite = item.ParentRange.EndTimeExclusive()
		}
		proposed = clampEdgeCross(g.edge, opposite, proposed, minClipDuration(rate))
		proposed = clampToTransitionBoundary(track, g.item.Index, g.edge, proposed)
		g.proposedEdgeTime = &proposed

	case ModeSlip:
		rate := item.TrimmedRange.Start.Rate
		delta := rationaltime.FromSeconds((x-g.startPos)/e.pxPerSecond, rate)
		proposed := rationaltime.NewRange(item.TrimmedRange.Start.Add(delta), item.TrimmedRange.Duration)
		proposed = clampToAvailableRange(item, proposed)
		g.proposedRange = &proposed

	case ModeSlide:
		rate := item.ParentRange.Start.Rate
		delta := rationaltime.FromSeconds((x-g.startPos)/e.pxPerSecond, rate)
		proposed := rationaltime.NewRange(item.ParentRange.Start.Add(delta), item.ParentRange.Duration)
		g.proposedRange = &proposed

	case ModeSlice:
		rate := item.ParentRange.Start.Rate
		cut := e.posToTime(rationaltime.Time{Rate: rate}, x, rate)
		if !item.ParentRange.Contains(cut) {
			return fmt.Errorf("edit: slice point outside item range")
		}
		g.proposedEdgeTime = &cut

	case ModeMove, ModeDrop:
		slots := e.computeDropTargets(g.item)
		if slot, ok := HitTest(slots, x, y); ok {
			g.target = &slot
		}
	}
	return nil
}

// updateRollTransition clamps a transition-edge roll: the dragged edge
// cannot cross the transition's other edge closer than
// minTransitionDuration, nor eat into either flanking clip below
// in/out_offset >= 1 frame (spec.md §4.G test S4). Called with e.mu
// held.
func (e *Engine) updateRollTransition(g *gesture, x float64) error {
	track := e.tl.Tracks[g.transition.Track]
	tr := track.Transitions[g.transition.Index]
	prev, next, ok := neighboringItems(track, tr)
	if !ok {
		return fmt.Errorf("edit: transition %v has no flanking items", *g.transition)
	}

	trRange := tr.Range(prev, next)
	rate := trRange.Start.Rate
	proposed := e.posToTime(rationaltime.Time{Rate: rate}, x, rate)
	min := minTransitionDuration(rate)

	if g.edge == EdgeIn {
		proposed = clampEdgeCross(EdgeIn, trRange.EndTimeExclusive(), proposed, min)
		if floor := prev.ParentRange.Start.Add(minClipDuration(rate)); proposed.Before(floor) {
			proposed = floor
		}
		if ceil := prev.ParentRange.EndTimeExclusive().Sub(rationaltime.OneFrame(rate)); proposed.After(ceil) {
			proposed = ceil
		}
	} else {
		proposed = clampEdgeCross(EdgeOut, trRange.Start, proposed, min)
		if ceil := next.ParentRange.EndTimeExclusive().Sub(minClipDuration(rate)); proposed.After(ceil) {
			proposed = ceil
		}
		if floor := next.ParentRange.Start.Add(rationaltime.OneFrame(rate)); proposed.Before(floor) {
			proposed = floor
		}
	}
	g.proposedEdgeTime = &proposed
	return nil
}

// Preview returns the in-progress gesture's clamped candidate state:
// edgeTime for Trim/Ripple/Roll/Slice, rng for Slip/Slide, target for
// Move/Drop. All three are nil when there is no active gesture or the
// current mode doesn't produce that kind of preview.
func (e *Engine) Preview() (edgeTime *rationaltime.Time, rng *rationaltime.Range, target *Slot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil, nil, nil
	}
	return e.active.proposedEdgeTime, e.active.proposedRange, e.active.target
}

// Commit finalizes the in-progress gesture, hands the accumulated
// batch to m, rebuilds the timeline model from the document it
// returns, and swaps it in (spec.md §4.H: "the engine then swaps the
// authoritative document and rebuilds 4.F").
//
// Only structural reorders (Move, the three Drop semantics) produce
// MoveData: spec.md's MoveData schema carries from/to track+index and
// an optional Transition offset pair, nothing that could encode an
// arbitrary new clip range. Trim/Ripple/Roll-on-a-clip/Slip/Slide/
// Slice leave their clamped result in Preview for the caller to apply
// directly to the document; only their UndoOnly sentinel (pushed in
// Begin) reaches the log. Roll on a transition's own edge is the one
// case that does produce a MoveData, carrying the transition's new
// offsets.
func (e *Engine) Commit(ctx context.Context, m editlog.Mutator) (*timeline.Timeline, error) {
	e.mu.Lock()
	if e.active == nil {
		e.mu.Unlock()
		return e.tl, nil
	}
	e.pushMoveOps(e.active)
	doc := e.tl.Document()
	e.active = nil
	e.mu.Unlock()

	newDoc, err := e.log.Commit(ctx, doc, m)
	if err != nil {
		return nil, err
	}
	if newDoc == nil {
		return e.tl, nil
	}

	newTL, err := timeline.Build(newDoc)
	if err != nil {
		return nil, fmt.Errorf("edit: rebuild timeline after commit: %w", err)
	}

	e.mu.Lock()
	e.tl = newTL
	e.mu.Unlock()
	return newTL, nil
}

// pushMoveOps appends the MoveData batch for g's commit effect, if
// any. Called with e.mu held.
func (e *Engine) pushMoveOps(g *gesture) {
	switch g.mode {
	case ModeMove, ModeDrop:
		if g.target == nil {
			return
		}
		item, ok := e.item(g.item)
		if !ok {
			return
		}
		e.log.Push(editlog.MoveData{
			Type:          editlog.ItemClip,
			FromTrack:     g.item.Track,
			FromIndex:     g.item.Index,
			FromOtioIndex: item.OtioIndex,
			ToTrack:       g.target.Track,
			ToIndex:       g.target.Index,
		})
		if e.associatedClips {
			if assoc, ok := e.associatedClip(g.item); ok {
				assocItem, ok := e.item(assoc)
				if !ok {
					return
				}
				e.log.Push(editlog.MoveData{
					Type:          editlog.ItemClip,
					FromTrack:     assoc.Track,
					FromIndex:     assoc.Index,
					FromOtioIndex: assocItem.OtioIndex,
					ToTrack:       assoc.Track,
					ToIndex:       g.target.Index,
				})
			}
		}

	case ModeRoll:
		if g.transition == nil || g.proposedEdgeTime == nil {
			return
		}
		track := e.tl.Tracks[g.transition.Track]
		tr := track.Transitions[g.transition.Index]
		prev, next, ok := neighboringItems(track, tr)
		if !ok {
			return
		}
		in, out := tr.InOffset, tr.OutOffset
		if g.edge == EdgeIn {
			in = prev.ParentRange.EndTimeExclusive().Sub(*g.proposedEdgeTime)
		} else {
			out = g.proposedEdgeTime.Sub(next.ParentRange.Start)
		}
		e.log.Push(editlog.MoveData{
			Type:          editlog.ItemTransition,
			FromTrack:     g.transition.Track,
			FromIndex:     g.transition.Index,
			FromOtioIndex: tr.OtioIndex,
			ToTrack:       g.transition.Track,
			ToIndex:       g.transition.Index,
			ToOtioIndex:   tr.OtioIndex,
			InOffset:      &in,
			OutOffset:     &out,
		})
	}
}
