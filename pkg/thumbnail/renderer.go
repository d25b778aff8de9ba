package thumbnail

import (
	"context"
	"image"

	"flipreview/pkg/cache"
)

// ThumbnailRenderer abstracts the offscreen GPU readback step (spec.md
// §4.D thumbnail worker specifics, §9 redesign note): the core never
// talks to a graphics API directly, it hands a decoded frame to a
// renderer and gets back an RGBA8 raster sized to the request. This
// lets a real GPU backend be swapped in without touching the worker.
type ThumbnailRenderer interface {
	// Render scales frame to the requested output height, preserving
	// aspect ratio via pixelAspectRatio, and always yields RGBA8
	// regardless of frame's own representation.
	Render(ctx context.Context, frame *image.RGBA, height int, pixelAspectRatio float64) (*cache.RasterImage, error)
}

// cpuRenderer is the in-process stand-in used when no GPU backend is
// wired in: a box-filter resize done entirely on the CPU. Correct but
// slow relative to a real offscreen-framebuffer readback; fine for a
// UI-only thumbnail.
type cpuRenderer struct{}

// NewCPURenderer returns the default software ThumbnailRenderer.
func NewCPURenderer() ThumbnailRenderer {
	return cpuRenderer{}
}

func (cpuRenderer) Render(_ context.Context, frame *image.RGBA, height int, pixelAspectRatio float64) (*cache.RasterImage, error) {
	if height <= 0 {
		height = 1
	}
	srcBounds := frame.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()
	if srcW == 0 || srcH == 0 {
		return &cache.RasterImage{Image: image.NewRGBA(image.Rect(0, 0, 1, height))}, nil
	}

	aspectCorrectedWidth := float64(srcW) * pixelAspectRatio
	dstW := int(aspectCorrectedWidth * float64(height) / float64(srcH))
	if dstW < 1 {
		dstW = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, height))
	for y := 0; y < height; y++ {
		srcY := y * srcH / height
		for x := 0; x < dstW; x++ {
			srcX := x * srcW / dstW
			dst.Set(x, y, frame.At(srcBounds.Min.X+srcX, srcBounds.Min.Y+srcY))
		}
	}
	return &cache.RasterImage{Image: dst}, nil
}
