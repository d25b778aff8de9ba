// Package rationaltime implements rational-rate time arithmetic for
// media timelines. Values are never compared or combined as floating
// point seconds; everything is rescaled to a common rate first.
package rationaltime

import "math"

// Time is a point in time expressed as a frame count at a given rate.
type Time struct {
	Value float64 // number of frames (or samples) since zero
	Rate  float64 // frames per second
}

// New returns a Time.
func New(value, rate float64) Time {
	return Time{Value: value, Rate: rate}
}

// FromSeconds returns a Time of value*rate at rate.
func FromSeconds(seconds, rate float64) Time {
	return Time{Value: seconds * rate, Rate: rate}
}

// ToSeconds converts to floating point seconds. Only used at
// presentation boundaries (UI labels, logs) — never for comparison.
func (t Time) ToSeconds() float64 {
	if t.Rate == 0 {
		return 0
	}
	return t.Value / t.Rate
}

// RescaledTo returns t expressed at rate, preserving its seconds value.
func (t Time) RescaledTo(rate float64) Time {
	if t.Rate == rate {
		return t
	}
	return Time{Value: t.Value * rate / t.Rate, Rate: rate}
}

// Add returns t+other, rescaling other to t's rate first.
func (t Time) Add(other Time) Time {
	other = other.RescaledTo(t.Rate)
	return Time{Value: t.Value + other.Value, Rate: t.Rate}
}

// Sub returns t-other, rescaling other to t's rate first.
func (t Time) Sub(other Time) Time {
	other = other.RescaledTo(t.Rate)
	return Time{Value: t.Value - other.Value, Rate: t.Rate}
}

// Compare returns -1, 0 or 1 comparing t to other after rescaling
// other to t's rate.
func (t Time) Compare(other Time) int {
	other = other.RescaledTo(t.Rate)
	switch {
	case t.Value < other.Value:
		return -1
	case t.Value > other.Value:
		return 1
	default:
		return 0
	}
}

// Before reports whether t < other.
func (t Time) Before(other Time) bool { return t.Compare(other) < 0 }

// After reports whether t > other.
func (t Time) After(other Time) bool { return t.Compare(other) > 0 }

// Equal reports whether t == other once rescaled to a common rate.
func (t Time) Equal(other Time) bool { return t.Compare(other) == 0 }

// RoundToFrame rounds t to the nearest whole frame at its own rate.
func (t Time) RoundToFrame() Time {
	return Time{Value: math.Round(t.Value), Rate: t.Rate}
}

// OneFrame returns the duration of a single frame at rate.
func OneFrame(rate float64) Time {
	return Time{Value: 1, Rate: rate}
}

// Range is a half-open interval [Start, Start+Duration) at a rational
// rate.
type Range struct {
	Start    Time
	Duration Time
}

// NewRange returns a Range.
func NewRange(start, duration Time) Range {
	return Range{Start: start, Duration: duration}
}

// EndTimeExclusive returns Start+Duration (not in the range).
func (r Range) EndTimeExclusive() Time {
	return r.Start.Add(r.Duration)
}

// EndTimeInclusive returns the time of the range's last frame.
func (r Range) EndTimeInclusive() Time {
	return r.EndTimeExclusive().Sub(OneFrame(r.Start.Rate))
}

// Contains reports whether t falls within [Start, Start+Duration).
func (r Range) Contains(t Time) bool {
	return !t.Before(r.Start) && t.Before(r.EndTimeExclusive())
}

// ContainsRange reports whether other lies entirely within r.
func (r Range) ContainsRange(other Range) bool {
	return !other.Start.Before(r.Start) && !other.EndTimeExclusive().After(r.EndTimeExclusive())
}

// Overlaps reports whether r and other share any instant.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.EndTimeExclusive()) && other.Start.Before(r.EndTimeExclusive())
}

// Intersection returns the overlapping sub-range of r and other, and
// whether one exists.
func (r Range) Intersection(other Range) (Range, bool) {
	if !r.Overlaps(other) {
		return Range{}, false
	}
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.EndTimeExclusive()
	otherEnd := other.EndTimeExclusive()
	if otherEnd.Before(end) {
		end = otherEnd
	}
	return Range{Start: start, Duration: end.Sub(start)}, true
}

// Extended returns r extended to also cover other's extent (the union
// of their spans; does not require overlap/adjacency).
func (r Range) Extended(other Range) Range {
	start := r.Start
	if other.Start.Before(start) {
		start = other.Start
	}
	end := r.EndTimeExclusive()
	otherEnd := other.EndTimeExclusive()
	if otherEnd.After(end) {
		end = otherEnd
	}
	return Range{Start: start, Duration: end.Sub(start)}
}

// RescaledTo returns r with both Start and Duration expressed at rate.
func (r Range) RescaledTo(rate float64) Range {
	return Range{Start: r.Start.RescaledTo(rate), Duration: r.Duration.RescaledTo(rate)}
}
