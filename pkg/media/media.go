// Package media defines the Media Plugin external interface (spec.md
// §6): implementations are looked up by path extension and opened to
// yield probe info and frame/audio sources.
package media

import (
	"context"
	"image"

	"flipreview/pkg/ioinfo"
	"flipreview/pkg/rationaltime"
)

// VideoSource yields decoded frames for one open media reference. A
// worker holds at most one VideoSource per path at a time (see
// pkg/ioreadcache).
type VideoSource interface {
	// ReadFrame decodes the frame nearest to t and always returns an
	// RGBA8 image regardless of the source's native pixel type
	// (spec.md §4.D).
	ReadFrame(ctx context.Context, t rationaltime.Time) (*image.RGBA, error)
	Close() error
}

// AudioSource yields decoded sample ranges for one open media
// reference.
type AudioSource interface {
	// ReadRange decodes interleaved float32 samples covering r.
	ReadRange(ctx context.Context, r rationaltime.Range) ([]float32, error)
	Close() error
}

// Plugin is a media backend capable of probing a reference and
// opening it for frame/audio extraction. Required capabilities per
// spec.md §6: video decode, optional audio decode, bounded thread
// count per stream.
type Plugin interface {
	// Extensions lists the lowercase, dot-less file extensions this
	// plugin claims (e.g. "mov", "mp4", "exr").
	Extensions() []string
	Probe(ctx context.Context, path ioinfo.Path) (ioinfo.IOInfo, error)
	OpenVideo(ctx context.Context, path ioinfo.Path) (VideoSource, error)
	OpenAudio(ctx context.Context, path ioinfo.Path) (AudioSource, error)
}

// Registry dispatches to a Plugin by path extension.
type Registry struct {
	byExtension map[string]Plugin
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byExtension: make(map[string]Plugin)}
}

// Register adds plugin under every extension it claims, overwriting
// any earlier registration for the same extension.
func (r *Registry) Register(plugin Plugin) {
	for _, ext := range plugin.Extensions() {
		r.byExtension[ext] = plugin
	}
}

// Lookup returns the plugin registered for ext (without the leading
// dot, case-sensitive — callers normalize), or false if none matches.
func (r *Registry) Lookup(ext string) (Plugin, bool) {
	p, ok := r.byExtension[ext]
	return p, ok
}
