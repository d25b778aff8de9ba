package edit

import (
	"flipreview/pkg/rationaltime"
	"flipreview/pkg/timeline"
)

// minClipDuration and minTransitionDuration are the floors an edge
// gesture must never cross (spec.md §4.G: "minimum duration 1 frame
// for a clip, 2 frames for a transition").
func minClipDuration(rate float64) rationaltime.Time {
	return rationaltime.OneFrame(rate)
}

func minTransitionDuration(rate float64) rationaltime.Time {
	return rationaltime.New(2, rate)
}

// clampEdgeCross prevents edge from moving closer to opposite than
// min (spec.md §4.G: "Edge cannot cross the opposite edge").
func clampEdgeCross(edge Edge, opposite, proposed, min rationaltime.Time) rationaltime.Time {
	switch edge {
	case EdgeIn:
		if limit := opposite.Sub(min); proposed.After(limit) {
			return limit
		}
	case EdgeOut:
		if limit := opposite.Add(min); proposed.Before(limit) {
			return limit
		}
	}
	return proposed
}

// transitionBoundary finds the transition (if any) flanking
// track.Items[itemIndex] on edge, and the time past which that edge
// must not move to avoid encroaching on the transition's reserved
// offset region.
func transitionBoundary(track timeline.Track, itemIndex int, edge Edge) (rationaltime.Time, bool) {
	item := track.Items[itemIndex]
	switch edge {
	case EdgeIn:
		// A transition immediately before this item reserves
		// OutOffset of this item's own footage from its start.
		for _, tr := range track.Transitions {
			if tr.OtioIndex == item.OtioIndex-1 {
				return item.ParentRange.Start.Add(tr.OutOffset), true
			}
		}
	case EdgeOut:
		// A transition immediately after this item reserves InOffset
		// of this item's own footage up to its end.
		for _, tr := range track.Transitions {
			if tr.OtioIndex == item.OtioIndex+1 {
				return item.ParentRange.EndTimeExclusive().Sub(tr.InOffset), true
			}
		}
	}
	return rationaltime.Time{}, false
}

// clampToTransitionBoundary applies transitionBoundary's limit on top
// of whatever edge-crossing clamp already narrowed proposed (spec.md
// §4.G: "the engine computes a transition boundary and clamps the
// move to it").
func clampToTransitionBoundary(track timeline.Track, itemIndex int, edge Edge, proposed rationaltime.Time) rationaltime.Time {
	boundary, ok := transitionBoundary(track, itemIndex, edge)
	if !ok {
		return proposed
	}
	switch edge {
	case EdgeIn:
		if proposed.After(boundary) {
			return boundary
		}
	case EdgeOut:
		if proposed.Before(boundary) {
			return boundary
		}
	}
	return proposed
}

// clampToAvailableRange clamps a proposed source-range trim so it
// never requests media outside the clip's available range, when one
// is known (spec.md §4.G: "unless no available range is known, in
// which case only the non-negative-start rule applies").
func clampToAvailableRange(item timeline.Item, proposed rationaltime.Range) rationaltime.Range {
	if item.AvailableRange == nil {
		if proposed.Start.Value < 0 {
			proposed.Start = rationaltime.Time{Value: 0, Rate: proposed.Start.Rate}
		}
		return proposed
	}

	avail := *item.AvailableRange
	if proposed.Start.Before(avail.Start) {
		proposed.Start = avail.Start
	}
	if end := proposed.EndTimeExclusive(); end.After(avail.EndTimeExclusive()) {
		proposed.Duration = avail.EndTimeExclusive().Sub(proposed.Start)
	}
	return proposed
}

// neighboringItems locates the items immediately flanking tr in
// track's Children ordering, by matching otioIndex.
func neighboringItems(track timeline.Track, tr timeline.Transition) (prev, next timeline.Item, ok bool) {
	var havePrev, haveNext bool
	for _, it := range track.Items {
		if it.OtioIndex == tr.OtioIndex-1 {
			prev, havePrev = it, true
		}
		if it.OtioIndex == tr.OtioIndex+1 {
			next, haveNext = it, true
		}
	}
	return prev, next, havePrev && haveNext
}
