// Package writer defines the Writer Plugin external interface
// (spec.md §6): given a target path, an IOInfo, and an options map, a
// Writer accepts one image per timecode and/or one audio buffer per
// range.
package writer

import (
	"image"

	"flipreview/pkg/ioinfo"
	"flipreview/pkg/rationaltime"
)

// Options recognized by the core's writer pass-through (spec.md §6,
// verbatim option names as typed keys instead of free-form strings).
type Options struct {
	OpenEXRCompression         string
	OpenEXRPixelType           string
	OpenEXRZipCompressionLevel int
	OpenEXRDWACompressionLevel int
	OpenEXRSpeed               string

	FFmpegWriteProfile    string
	FFmpegAudioCodec      string
	FFmpegThreadCount     int
	FFmpegSpeed           string
	FFmpegPresetFile      string
	FFmpegPixelFormat     string
	FFmpegHardwareEncode  bool
	FFmpegColorRange      string
	FFmpegColorSpace      string
	FFmpegColorPrimaries  string
	FFmpegColorTRC        string

	Timecode string
}

// Writer accepts frames and/or audio for one output file.
type Writer interface {
	WriteFrame(t rationaltime.Time, img *image.RGBA) error
	WriteAudio(r rationaltime.Range, samples []float32) error
	Close() error
}

// Plugin opens a Writer for path. Identified by extension the same
// way media.Plugin is (spec.md §6).
type Plugin interface {
	Extensions() []string
	Open(path string, info ioinfo.IOInfo, opts Options) (Writer, error)
}

// Registry dispatches to a Plugin by output extension.
type Registry struct {
	byExtension map[string]Plugin
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byExtension: make(map[string]Plugin)}
}

// Register adds plugin under every extension it claims.
func (r *Registry) Register(plugin Plugin) {
	for _, ext := range plugin.Extensions() {
		r.byExtension[ext] = plugin
	}
}

// Lookup returns the plugin registered for ext, or false if none
// matches.
func (r *Registry) Lookup(ext string) (Plugin, bool) {
	p, ok := r.byExtension[ext]
	return p, ok
}

// rewriteTable maps a codec name to the extensions it mandates or
// permits (spec.md §4.I). The first entry is preferred when the
// requested extension isn't in the list.
var rewriteTable = map[string][]string{
	"prores":   {".mov"},
	"vp9":      {".mp4", ".mkv", ".webm"},
	"av1":      {".mp4", ".mkv"},
	"cineform": {".mov"},
	"hap":      {".mov"},
}

// RewriteExtension returns the extension the save pipeline should use
// for codecName and the requested extension, and whether a rewrite
// happened. If codecName is unknown or requested is already permitted,
// it returns requested unchanged.
func RewriteExtension(codecName, requested string) (string, bool) {
	permitted, ok := rewriteTable[codecName]
	if !ok {
		return requested, false
	}
	for _, ext := range permitted {
		if ext == requested {
			return requested, false
		}
	}
	return permitted[0], true
}
