package ioinfo

import "flipreview/pkg/rationaltime"

// PixelType enumerates raster pixel layouts the core cares about.
// Video decode/readback is always normalized to RGBA8 for thumbnails
// (spec.md §4.D); IOInfo reports the source's native type for the
// inspector panel.
type PixelType string

// Pixel type constants the probe/writer layer recognizes.
const (
	PixelTypeRGBA8  PixelType = "RGBA_U8"
	PixelTypeRGB8   PixelType = "RGB_U8"
	PixelTypeRGB16  PixelType = "RGB_U16"
	PixelTypeRGBA16 PixelType = "RGBA_U16"
	PixelTypeRGBAF  PixelType = "RGBA_F32"
)

// YUVCoefficients names the color matrix used to interpret YUV planes.
type YUVCoefficients string

// Known coefficient sets.
const (
	YUVRec601 YUVCoefficients = "REC601"
	YUVRec709 YUVCoefficients = "REC709"
	YUV2020   YUVCoefficients = "REC2020"
)

// VideoLevels distinguishes legal ("TV") from full ("PC") range.
type VideoLevels string

// Known level ranges.
const (
	VideoLevelsLegal VideoLevels = "LEGAL_RANGE"
	VideoLevelsFull  VideoLevels = "FULL_RANGE"
)

// VideoStreamInfo describes one decodable video stream.
type VideoStreamInfo struct {
	Name            string
	Width           int
	Height          int
	PixelType       PixelType
	YUVCoefficients YUVCoefficients
	VideoLevels     VideoLevels
	PixelAspectRatio float64
	CodecName       string
	BitRate         int64
}

// AudioInfo describes the (at most one, per spec.md Non-goals) audio
// stream.
type AudioInfo struct {
	Name          string
	ChannelCount  int
	SampleRate    int
	SampleFormat  string
	CodecName     string
}

// IOInfo is the immutable probe result for a media reference.
type IOInfo struct {
	Video      []VideoStreamInfo
	Audio      *AudioInfo // nil if the file has no audio stream
	VideoRange rationaltime.Range
	AudioRange rationaltime.Range
	Tags       map[string]string
}

// HasVideo reports whether any video stream was found.
func (i IOInfo) HasVideo() bool { return len(i.Video) > 0 }

// HasAudio reports whether an audio stream was found.
func (i IOInfo) HasAudio() bool { return i.Audio != nil }

// Empty returns the zero-value IOInfo used to resolve a failed or
// cancelled info request (spec.md §4.D failure policy): "ready, but
// empty", distinguishable from "still loading".
func Empty() IOInfo {
	return IOInfo{}
}

// IsEmpty reports whether i is the "failed/cancelled" sentinel value.
func (i IOInfo) IsEmpty() bool {
	return !i.HasVideo() && !i.HasAudio()
}
