// Package timeline is the read-mostly model mirroring the
// authoritative OTIO document (spec.md §4.F): for each track it
// precomputes an ordered items list with parent ranges, an otioIndex
// per item/transition to permit round-tripping edits back to OTIO,
// and a parallel transitions list.
package timeline

import (
	"fmt"

	"github.com/Avalanche-io/gotio"
	"github.com/Avalanche-io/gotio/opentime"

	"flipreview/pkg/ioinfo"
	"flipreview/pkg/rationaltime"
)

// Kind distinguishes the two track/item media kinds the core cares
// about, plus the gap item kind.
type Kind int

// Kinds.
const (
	KindVideo Kind = iota
	KindAudio
	KindGap
)

// Effect is one ordered entry in a clip's effect stack.
type Effect struct {
	Name string
	Kind string
}

// Item is a tagged union over clip and gap (spec.md §9 redesign note:
// a tagged union rather than a class hierarchy, since Go has no
// subtyping to mirror the original's Clip/Gap split).
type Item struct {
	Kind Kind

	Name string

	// TrimmedRange is the clip's own source range (zero Range for a
	// gap, which has no media reference).
	TrimmedRange rationaltime.Range
	// ParentRange is this item's range within its track, as derived
	// by the track (spec.md 4.F "derived parent ranges").
	ParentRange rationaltime.Range

	MediaReference *ioinfo.Path
	AvailableRange *rationaltime.Range

	Effects []Effect

	// OtioIndex is this item's position in the underlying gotio
	// track's Children(), used to round-trip edits.
	OtioIndex int
}

// Transition sits between two items in a single track; its own range
// is derived, never stored (spec.md §3 Timeline Model).
type Transition struct {
	InOffset, OutOffset rationaltime.Time
	OtioIndex           int
}

// Range returns the transition's derived time range given its
// neighbouring items' parent ranges (spec.md §3 invariant 2's basis):
// [prev.end-InOffset, next.start+OutOffset).
func (tr Transition) Range(prev, next Item) rationaltime.Range {
	start := prev.ParentRange.EndTimeExclusive().Sub(tr.InOffset)
	end := next.ParentRange.Start.Add(tr.OutOffset)
	return rationaltime.NewRange(start, end.Sub(start))
}

// Track is an ordered sequence alternating items and transitions.
type Track struct {
	Kind        Kind
	Items       []Item
	Transitions []Transition
	Duration    rationaltime.Time
}

// Timeline is the whole mirrored document.
type Timeline struct {
	Tracks          []Track
	GlobalStartTime rationaltime.Time
	Rate            float64

	doc *gotio.Timeline
}

// Document returns the underlying OTIO document this Timeline mirrors,
// for passing to an external Mutator.
func (t *Timeline) Document() *gotio.Timeline { return t.doc }

// Build mirrors doc into a Timeline. Called whenever the external
// mutator commits an operation and hands back a new document (spec.md
// §3: "Timeline model nodes are recreated wholesale from OTIO").
func Build(doc *gotio.Timeline) (*Timeline, error) {
	rate := 24.0
	if gst := doc.GlobalStartTime(); gst != nil {
		rate = gst.Rate()
	}

	tl := &Timeline{
		doc:  doc,
		Rate: rate,
	}
	if gst := doc.GlobalStartTime(); gst != nil {
		tl.GlobalStartTime = rationaltime.New(gst.Value(), gst.Rate())
	}

	for _, child := range doc.Tracks().Children() {
		gTrack, ok := child.(*gotio.Track)
		if !ok {
			continue
		}
		track, err := buildTrack(gTrack)
		if err != nil {
			return nil, fmt.Errorf("build track %q: %w", gTrack.Name(), err)
		}
		tl.Tracks = append(tl.Tracks, track)
	}
	return tl, nil
}

func buildTrack(gTrack *gotio.Track) (Track, error) {
	track := Track{Kind: kindForTrack(gTrack)}

	for i, child := range gTrack.Children() {
		parentRange, err := gTrack.RangeOfChildAtIndex(i)
		if err != nil {
			return Track{}, fmt.Errorf("range of child %d: %w", i, err)
		}

		switch c := child.(type) {
		case *gotio.Clip:
			item, err := buildClipItem(c, parentRange, i)
			if err != nil {
				return Track{}, err
			}
			track.Items = append(track.Items, item)
			track.Duration = track.Duration.Add(item.ParentRange.Duration)

		case *gotio.Gap:
			item := Item{
				Kind:        KindGap,
				ParentRange: toRange(parentRange),
				OtioIndex:   i,
			}
			track.Items = append(track.Items, item)
			track.Duration = track.Duration.Add(item.ParentRange.Duration)

		case *gotio.Transition:
			track.Transitions = append(track.Transitions, Transition{
				InOffset:  toTime(c.InOffset()),
				OutOffset: toTime(c.OutOffset()),
				OtioIndex: i,
			})
		}
	}
	return track, nil
}

func buildClipItem(c *gotio.Clip, parentRange opentime.TimeRange, otioIndex int) (Item, error) {
	item := Item{
		Kind:        KindVideo,
		Name:        c.Name(),
		ParentRange: toRange(parentRange),
		OtioIndex:   otioIndex,
	}

	if sr := c.SourceRange(); sr != nil {
		item.TrimmedRange = toRange(*sr)
	}

	for _, e := range c.Effects() {
		item.Effects = append(item.Effects, Effect{Name: e.Name(), Kind: e.EffectName()})
	}

	if ref := c.MediaReference(); ref != nil {
		if ext, ok := ref.(*gotio.ExternalReference); ok {
			p := ioinfo.Path{Directory: "", BaseName: ext.TargetURL()}
			item.MediaReference = &p
			if ar := ext.AvailableRange(); ar != nil {
				r := toRange(*ar)
				item.AvailableRange = &r
			}
		}
	}
	return item, nil
}

func kindForTrack(t *gotio.Track) Kind {
	if t.Kind() == "Audio" {
		return KindAudio
	}
	return KindVideo
}

func toTime(t opentime.RationalTime) rationaltime.Time {
	return rationaltime.New(t.Value(), t.Rate())
}

func toRange(r opentime.TimeRange) rationaltime.Range {
	return rationaltime.NewRange(toTime(r.StartTime()), toTime(r.Duration()))
}
