// Package ioinfo holds the media reference and probe-result types
// shared by the thumbnail/waveform service: Path, IOInfo, and the
// canonical fingerprint strings used as cache keys.
package ioinfo

import (
	"fmt"
	"sort"
	"strings"
)

// Path identifies a media reference: either a file on disk (directory +
// base name, optional frame-number field + extension) or an in-memory
// buffer (§4.E "overloads accepting in-memory byte buffers").
type Path struct {
	Directory  string
	BaseName   string
	Extension  string
	FrameField string // e.g. "%04d" for seq.0001.exr; empty for single files
	Padding    int    // zero-padding width of the frame number, 0 if none

	Memory []byte // non-nil for in-memory buffer inputs; Directory/BaseName unused
}

// String reconstructs the canonical file name. Equality of Paths for
// cache purposes is string equality of this reconstruction.
func (p Path) String() string {
	if p.Memory != nil {
		return fmt.Sprintf("memory://%d", len(p.Memory))
	}
	name := p.BaseName
	if p.FrameField != "" {
		name += p.FrameField
	}
	name += p.Extension
	return joinPath(p.Directory, name)
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimRight(dir, "/") + "/" + name
}

// IsSequence reports whether the path names an image sequence (has a
// frame-number field).
func (p Path) IsSequence() bool {
	return p.FrameField != ""
}

// FrameName returns the reconstructed name for a specific frame number
// of a sequence, zero-padded to Padding digits.
func (p Path) FrameName(frame int) string {
	if !p.IsSequence() {
		return p.String()
	}
	format := fmt.Sprintf("%%0%dd", p.Padding)
	name := p.BaseName + fmt.Sprintf(format, frame) + p.Extension
	return joinPath(p.Directory, name)
}

// Options is a sorted-by-key option map used in requests. Two option
// sets with the same key/value pairs produce the same fingerprint
// fragment regardless of map iteration order.
type Options map[string]string

// fingerprintFragment renders options as "k1:v1;k2:v2" sorted by key.
func (o Options) fingerprintFragment() string {
	if len(o) == 0 {
		return ""
	}
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+o[k])
	}
	return strings.Join(parts, ";")
}

// InfoFingerprint returns the canonical cache key for an info request.
func InfoFingerprint(path Path, opts Options) string {
	return join(path.String(), opts.fingerprintFragment())
}

// ThumbnailFingerprint returns the canonical cache key for a thumbnail
// request.
func ThumbnailFingerprint(height int, path Path, time string, opts Options) string {
	return join(fmt.Sprintf("%d", height), path.String(), time, opts.fingerprintFragment())
}

// WaveformFingerprint returns the canonical cache key for a waveform
// request.
func WaveformFingerprint(size string, path Path, timeRange string, opts Options) string {
	return join(size, path.String(), timeRange, opts.fingerprintFragment())
}

func join(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ";")
}
