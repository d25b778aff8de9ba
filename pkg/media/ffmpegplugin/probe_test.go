package ffmpegplugin

import (
	"testing"

	"flipreview/pkg/ioinfo"
)

func TestToIOInfoVideoAndAudio(t *testing.T) {
	result := probeResult{
		Streams: []probeStream{
			{
				Index: 0, CodecType: "video", CodecName: "prores",
				Width: 1920, Height: 1080, PixFmt: "rgba",
				ColorRange: "pc", ColorSpace: "bt709",
				RFrameRate: "24000/1001", Duration: "10.0",
			},
			{
				Index: 1, CodecType: "audio", CodecName: "pcm_s24le",
				SampleRate: "48000", Channels: 2, SampleFmt: "s32",
				Duration: "10.0",
			},
		},
	}

	info := toIOInfo(result)

	if !info.HasVideo() || !info.HasAudio() {
		t.Fatal("expected both video and audio to be recognized")
	}
	if info.Video[0].PixelType != ioinfo.PixelTypeRGBA8 {
		t.Fatalf("expected RGBA8, got %v", info.Video[0].PixelType)
	}
	if info.Video[0].VideoLevels != ioinfo.VideoLevelsFull {
		t.Fatalf("expected full range, got %v", info.Video[0].VideoLevels)
	}
	if info.Audio.ChannelCount != 2 || info.Audio.SampleRate != 48000 {
		t.Fatalf("unexpected audio info: %+v", info.Audio)
	}
}

func TestToIOInfoEmptyWhenNoStreams(t *testing.T) {
	info := toIOInfo(probeResult{})
	if !info.IsEmpty() {
		t.Fatal("expected empty IOInfo for a result with no streams")
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := parseFrameRate("24000/1001"); got < 23.9 || got > 24.0 {
		t.Fatalf("unexpected frame rate: %v", got)
	}
	if got := parseFrameRate("0/0"); got != 0 {
		t.Fatalf("expected 0 for malformed rate, got %v", got)
	}
}

func TestPixelTypeDefaultsToRGB8(t *testing.T) {
	if pixelTypeFor("yuv420p") != ioinfo.PixelTypeRGB8 {
		t.Fatal("expected planar YUV formats to report as RGB8 for display")
	}
}
