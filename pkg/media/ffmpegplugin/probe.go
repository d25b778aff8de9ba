package ffmpegplugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"flipreview/pkg/ioinfo"
	"flipreview/pkg/rationaltime"
)

// probeResult mirrors ffprobe's `-print_format json -show_format
// -show_streams` output, trimmed to the fields the core cares about.
type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"` // "video" or "audio"
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	PixFmt        string `json:"pix_fmt,omitempty"`
	ColorRange    string `json:"color_range,omitempty"`
	ColorSpace    string `json:"color_space,omitempty"`
	SampleAspect  string `json:"sample_aspect_ratio,omitempty"`
	RFrameRate    string `json:"r_frame_rate,omitempty"`
	BitRate       string `json:"bit_rate,omitempty"`
	SampleRate    string `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	SampleFmt     string `json:"sample_fmt,omitempty"`
	Duration      string `json:"duration,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
}

type probeFormat struct {
	Duration string            `json:"duration,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// probe runs the plugin's configured ffprobe binary (p.ffprobeBin)
// against path and decodes the result into an IOInfo, grounded on the JSON
// tag layout of a real ffprobe JSON decoder seen in the pack.
func (p *Plugin) probe(ctx context.Context, path string) (ioinfo.IOInfo, error) {
	cmd := exec.CommandContext(ctx, p.ffprobeBin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ioinfo.Empty(), fmt.Errorf("ffprobe %s: %s: %w", path, stderr.String(), err)
	}

	var result probeResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return ioinfo.Empty(), fmt.Errorf("decode ffprobe output: %w", err)
	}

	return toIOInfo(result), nil
}

func toIOInfo(r probeResult) ioinfo.IOInfo {
	info := ioinfo.IOInfo{Tags: r.Format.Tags}

	for _, s := range r.Streams {
		switch s.CodecType {
		case "video":
			rate := parseFrameRate(s.RFrameRate)
			info.Video = append(info.Video, ioinfo.VideoStreamInfo{
				Name:            fmt.Sprintf("video%d", s.Index),
				Width:           s.Width,
				Height:          s.Height,
				PixelType:       pixelTypeFor(s.PixFmt),
				YUVCoefficients: yuvCoefficientsFor(s.ColorSpace),
				VideoLevels:     videoLevelsFor(s.ColorRange),
				PixelAspectRatio: parseAspectRatio(s.SampleAspect),
				CodecName:       s.CodecName,
				BitRate:         parseInt64(s.BitRate),
			})
			if rate > 0 {
				info.VideoRange = rationaltime.NewRange(
					rationaltime.New(0, rate),
					rationaltime.FromSeconds(parseFloat(s.Duration), rate),
				)
			}
		case "audio":
			sampleRate := parseFloat(s.SampleRate)
			info.Audio = &ioinfo.AudioInfo{
				Name:         fmt.Sprintf("audio%d", s.Index),
				ChannelCount: s.Channels,
				SampleRate:   int(sampleRate),
				SampleFormat: s.SampleFmt,
				CodecName:    s.CodecName,
			}
			if sampleRate > 0 {
				info.AudioRange = rationaltime.NewRange(
					rationaltime.New(0, sampleRate),
					rationaltime.FromSeconds(parseFloat(s.Duration), sampleRate),
				)
			}
		}
	}
	return info
}

func pixelTypeFor(pixFmt string) ioinfo.PixelType {
	switch pixFmt {
	case "rgba", "bgra":
		return ioinfo.PixelTypeRGBA8
	case "rgb48le", "rgb48be":
		return ioinfo.PixelTypeRGB16
	case "rgba64le", "rgba64be":
		return ioinfo.PixelTypeRGBA16
	case "gbrpf32le":
		return ioinfo.PixelTypeRGBAF
	default:
		// Any other format, planar/YUV included, is reported as RGB8
		// for display; frame readback is RGBA8 regardless.
		return ioinfo.PixelTypeRGB8
	}
}

func yuvCoefficientsFor(colorSpace string) ioinfo.YUVCoefficients {
	switch colorSpace {
	case "bt709":
		return ioinfo.YUVRec709
	case "bt2020nc", "bt2020c":
		return ioinfo.YUV2020
	default:
		return ioinfo.YUVRec601
	}
}

func videoLevelsFor(colorRange string) ioinfo.VideoLevels {
	if colorRange == "pc" || colorRange == "full" {
		return ioinfo.VideoLevelsFull
	}
	return ioinfo.VideoLevelsLegal
}

func parseFrameRate(rFrameRate string) float64 {
	var num, den float64
	if _, err := fmt.Sscanf(rFrameRate, "%f/%f", &num, &den); err != nil || den == 0 {
		return 0
	}
	return num / den
}

func parseAspectRatio(ratio string) float64 {
	var num, den float64
	if _, err := fmt.Sscanf(ratio, "%f:%f", &num, &den); err != nil || den == 0 {
		return 1
	}
	return num / den
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
