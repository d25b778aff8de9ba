package thumbnail

import "flipreview/pkg/cache"

// buildWaveformMesh implements the waveform worker's per-column
// min/max reduction (spec.md §4.D waveform worker specifics): for each
// output column x, the min and max sample over its source window is
// turned into a filled quad spanning [h/2-h/2*max, h/2-h/2*min].
// Degenerate (min >= max) columns are skipped.
func buildWaveformMesh(samples []float32, width, height int) *cache.WaveformMesh {
	mesh := &cache.WaveformMesh{}
	if len(samples) == 0 || width <= 0 || height <= 0 {
		return mesh
	}

	halfHeight := float32(height) / 2

	for x := 0; x < width; x++ {
		x0 := x * len(samples) / width
		x1 := (x + 1) * len(samples) / width
		if x1 <= x0 {
			x1 = x0 + 1
		}
		if x1 > len(samples) {
			x1 = len(samples)
		}

		min, max := samples[x0], samples[x0]
		for _, s := range samples[x0:x1] {
			if s < min {
				min = s
			}
			if s > max {
				max = s
			}
		}
		if min >= max {
			continue
		}

		y0 := halfHeight - halfHeight*max
		y1 := halfHeight - halfHeight*min
		mesh.Quads = append(mesh.Quads, cache.Triangle{
			X0: float32(x), Y0: y0,
			X1: float32(x + 1), Y1: y1,
		})
	}
	return mesh
}
