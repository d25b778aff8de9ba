package timeline

import (
	"testing"

	"github.com/Avalanche-io/gotio/opentime"

	"flipreview/pkg/rationaltime"
)

func TestToTimeConvertsValueAndRate(t *testing.T) {
	got := toTime(opentime.NewRationalTime(48, 24))
	want := rationaltime.New(48, 24)
	if got != want {
		t.Fatalf("toTime: got %+v, want %+v", got, want)
	}
}

func TestToRangeConvertsStartAndDuration(t *testing.T) {
	start := opentime.NewRationalTime(24, 24)
	dur := opentime.NewRationalTime(48, 24)
	got := toRange(opentime.NewTimeRange(start, dur))

	want := rationaltime.NewRange(rationaltime.New(24, 24), rationaltime.New(48, 24))
	if got != want {
		t.Fatalf("toRange: got %+v, want %+v", got, want)
	}
}

func TestTransitionRangeSpansNeighbourEdges(t *testing.T) {
	prev := Item{ParentRange: rationaltime.NewRange(rationaltime.New(0, 24), rationaltime.New(100, 24))}
	next := Item{ParentRange: rationaltime.NewRange(rationaltime.New(100, 24), rationaltime.New(100, 24))}
	tr := Transition{
		InOffset:  rationaltime.New(12, 24),
		OutOffset: rationaltime.New(12, 24),
	}

	got := tr.Range(prev, next)

	wantStart := rationaltime.New(88, 24)
	wantDuration := rationaltime.New(24, 24)
	if got.Start != wantStart {
		t.Fatalf("transition start: got %+v, want %+v", got.Start, wantStart)
	}
	if got.Duration != wantDuration {
		t.Fatalf("transition duration: got %+v, want %+v", got.Duration, wantDuration)
	}
}

func TestTransitionRangeZeroOffsetsMeetAtCut(t *testing.T) {
	prev := Item{ParentRange: rationaltime.NewRange(rationaltime.New(0, 24), rationaltime.New(50, 24))}
	next := Item{ParentRange: rationaltime.NewRange(rationaltime.New(50, 24), rationaltime.New(50, 24))}
	tr := Transition{InOffset: rationaltime.New(0, 24), OutOffset: rationaltime.New(0, 24)}

	got := tr.Range(prev, next)
	if got.Duration != (rationaltime.Time{Value: 0, Rate: 24}) {
		t.Fatalf("expected zero-duration transition at the cut, got %+v", got.Duration)
	}
}
