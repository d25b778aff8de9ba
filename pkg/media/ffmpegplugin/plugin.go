package ffmpegplugin

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"os/exec"

	"flipreview/pkg/ioinfo"
	"flipreview/pkg/media"
	"flipreview/pkg/rationaltime"
)

// Plugin is the ffmpeg/ffprobe-backed media.Plugin. It shells out for
// every operation rather than linking libav directly, mirroring the
// teacher's subprocess-first approach to media handling.
type Plugin struct {
	ffmpegBin  string
	ffprobeBin string
	extensions []string
}

// New returns a Plugin that invokes the given ffmpeg/ffprobe binaries
// for the given extensions (without leading dots, lowercase).
func New(ffmpegBin, ffprobeBin string, extensions []string) *Plugin {
	return &Plugin{ffmpegBin: ffmpegBin, ffprobeBin: ffprobeBin, extensions: extensions}
}

// Extensions implements media.Plugin.
func (p *Plugin) Extensions() []string { return p.extensions }

// Probe implements media.Plugin.
func (p *Plugin) Probe(ctx context.Context, path ioinfo.Path) (ioinfo.IOInfo, error) {
	return p.probe(ctx, path.String())
}

// OpenVideo implements media.Plugin.
func (p *Plugin) OpenVideo(ctx context.Context, path ioinfo.Path) (media.VideoSource, error) {
	info, err := p.probe(ctx, path.String())
	if err != nil {
		return nil, err
	}
	if !info.HasVideo() {
		return nil, fmt.Errorf("%s: no video streams", path.String())
	}
	return &videoSource{plugin: p, path: path, info: info.Video[0]}, nil
}

// OpenAudio implements media.Plugin.
func (p *Plugin) OpenAudio(ctx context.Context, path ioinfo.Path) (media.AudioSource, error) {
	info, err := p.probe(ctx, path.String())
	if err != nil {
		return nil, err
	}
	if !info.HasAudio() {
		return nil, fmt.Errorf("%s: no audio stream", path.String())
	}
	return &audioSource{plugin: p, path: path, info: *info.Audio}, nil
}

// videoSource decodes one frame per ReadFrame call by reseeking
// ffmpeg; spec.md's IOReadCache (pkg/ioreadcache) is what makes this
// affordable by keeping the plugin-level reader warm across requests
// for the same path.
type videoSource struct {
	plugin *Plugin
	path   ioinfo.Path
	info   ioinfo.VideoStreamInfo
}

// ReadFrame decodes the frame nearest t and returns it as RGBA8,
// regardless of the source's native pixel type (spec.md §4.D).
func (v *videoSource) ReadFrame(ctx context.Context, t rationaltime.Time) (*image.RGBA, error) {
	seconds := t.ToSeconds()
	cmd := exec.CommandContext(ctx, v.plugin.ffmpegBin,
		"-v", "quiet",
		"-ss", fmt.Sprintf("%f", seconds),
		"-i", v.path.String(),
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", v.info.Width, v.info.Height),
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("decode frame at %v: %s: %w", seconds, stderr.String(), err)
	}

	want := v.info.Width * v.info.Height * 4
	got := stdout.Bytes()
	if len(got) < want {
		return nil, fmt.Errorf("decode frame at %v: got %d bytes, want %d", seconds, len(got), want)
	}

	img := image.NewRGBA(image.Rect(0, 0, v.info.Width, v.info.Height))
	copy(img.Pix, got[:want])
	return img, nil
}

func (v *videoSource) Close() error { return nil }

type audioSource struct {
	plugin *Plugin
	path   ioinfo.Path
	info   ioinfo.AudioInfo
}

// ReadRange decodes interleaved float32 samples covering r by piping
// ffmpeg's raw PCM output through a decode-and-trim pass.
func (a *audioSource) ReadRange(ctx context.Context, r rationaltime.Range) ([]float32, error) {
	start := r.Start.ToSeconds()
	duration := r.Duration.ToSeconds()

	cmd := exec.CommandContext(ctx, a.plugin.ffmpegBin,
		"-v", "quiet",
		"-ss", fmt.Sprintf("%f", start),
		"-t", fmt.Sprintf("%f", duration),
		"-i", a.path.String(),
		"-f", "f32le",
		"-ac", fmt.Sprintf("%d", a.info.ChannelCount),
		"-ar", fmt.Sprintf("%d", a.info.SampleRate),
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("decode audio range %v+%v: %s: %w", start, duration, stderr.String(), err)
	}

	raw := stdout.Bytes()
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		samples[i] = math.Float32frombits(bits)
	}
	return samples, nil
}

func (a *audioSource) Close() error { return nil }
