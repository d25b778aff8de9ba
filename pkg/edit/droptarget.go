package edit

import (
	"math"

	"flipreview/pkg/rationaltime"
	"flipreview/pkg/timeline"
)

// Rect is an axis-aligned screen-space box in pixels.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

const (
	hitBoxHalfWidth    = 8.0
	indicatorHalfWidth = 1.0
)

// Slot is one Move/Drop insertion point: HitBox is wide for hit
// testing, Indicator is the narrow vertical drop-line box drawn in the
// overlay (spec.md §4.G: "one expanded for hit-testing in screen
// space, one narrow for the vertical drop indicator").
type Slot struct {
	Track     int
	Index     int
	HitBox    Rect
	Indicator Rect
}

// computeDropTargets enumerates insertion slots on every track whose
// kind matches dragged's track, plus the paired audio/video track's
// slots when associatedClips is on (spec.md §4.G Move mode). Called
// with e.mu held.
func (e *Engine) computeDropTargets(dragged ItemID) []Slot {
	draggedTrack := e.tl.Tracks[dragged.Track]

	var slots []Slot
	for ti, track := range e.tl.Tracks {
		if track.Kind != draggedTrack.Kind {
			adjacent := ti == dragged.Track-1 || ti == dragged.Track+1
			if !(e.associatedClips && adjacent && isAssociatedKind(draggedTrack.Kind, track.Kind)) {
				continue
			}
		}
		y0 := float64(ti) * e.trackHeight
		y1 := y0 + e.trackHeight
		for idx := 0; idx <= len(track.Items); idx++ {
			pos := e.slotPos(track, idx)
			slots = append(slots, Slot{
				Track: ti,
				Index: idx,
				HitBox: Rect{
					X0: pos - hitBoxHalfWidth, X1: pos + hitBoxHalfWidth,
					Y0: y0, Y1: y1,
				},
				Indicator: Rect{
					X0: pos - indicatorHalfWidth, X1: pos + indicatorHalfWidth,
					Y0: y0, Y1: y1,
				},
			})
		}
	}
	return slots
}

func isAssociatedKind(a, b timeline.Kind) bool {
	return (a == timeline.KindVideo && b == timeline.KindAudio) ||
		(a == timeline.KindAudio && b == timeline.KindVideo)
}

// slotPos returns the pixel position of the insertion point before
// track.Items[idx] (or just past the track's last item, for
// idx==len(Items)). All tracks share one horizontal time axis, so the
// reference start is always time zero at the item's own rate.
func (e *Engine) slotPos(track timeline.Track, idx int) float64 {
	var t rationaltime.Time
	switch {
	case idx < len(track.Items):
		t = track.Items[idx].ParentRange.Start
	case len(track.Items) > 0:
		t = track.Items[len(track.Items)-1].ParentRange.EndTimeExclusive()
	default:
		return e.timeToPos(rationaltime.Time{}, rationaltime.Time{})
	}
	return e.timeToPos(rationaltime.Time{Rate: t.Rate}, t)
}

// HitTest returns the first slot whose HitBox contains (x, y). The
// currently hovered slot is what the overlay draw highlights (spec.md
// §4.G).
func HitTest(slots []Slot, x, y float64) (Slot, bool) {
	for _, s := range slots {
		if s.HitBox.contains(x, y) {
			return s, true
		}
	}
	return Slot{}, false
}

// DropTargets is the UI-facing entry point for enumerating slots to
// draw, independent of any gesture in progress.
func (e *Engine) DropTargets(dragged ItemID) []Slot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.computeDropTargets(dragged)
}

const associatedClipEpsilonFrames = 1e-6

// associatedClip implements the associated-clip rule: a clip's parent
// range exactly equals (by fuzzy compare on rescaled rate) a clip's
// parent range on an adjacent track of the paired kind (spec.md §4.G).
// Called with e.mu held.
func (e *Engine) associatedClip(id ItemID) (ItemID, bool) {
	item, ok := e.item(id)
	if !ok {
		return ItemID{}, false
	}
	track := e.tl.Tracks[id.Track]

	for ti, other := range e.tl.Tracks {
		if (ti != id.Track-1 && ti != id.Track+1) || !isAssociatedKind(track.Kind, other.Kind) {
			continue
		}
		for ii, candidate := range other.Items {
			if fuzzyEqualRange(item.ParentRange, candidate.ParentRange) {
				return ItemID{Track: ti, Index: ii}, true
			}
		}
	}
	return ItemID{}, false
}

// fuzzyEqualRange compares a and b after rescaling b to a's rate,
// tolerating sub-frame rounding error.
func fuzzyEqualRange(a, b rationaltime.Range) bool {
	rate := a.Start.Rate
	bStart := b.Start.RescaledTo(rate)
	bEnd := b.EndTimeExclusive().RescaledTo(rate)
	aEnd := a.EndTimeExclusive()

	return math.Abs(a.Start.Value-bStart.Value) < associatedClipEpsilonFrames &&
		math.Abs(aEnd.Value-bEnd.Value) < associatedClipEpsilonFrames
}
