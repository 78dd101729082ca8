package encoder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sigmenx/tinykvm/internal/capture"
)

func TestNewRejectsMJPEGInput(t *testing.T) {
	_, err := New(Config{Width: 640, Height: 480, Bitrate: 400000, InputFormat: capture.PixelFormatMJPEG, FPS: 30})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestBuildPipelineStringHasNoBFramesAndZeroLatencyTune(t *testing.T) {
	cfg := Config{Width: 1280, Height: 720, Bitrate: 2_000_000, InputFormat: capture.PixelFormatYUYV422, FPS: 30}
	s := buildPipelineString(cfg, "YUY2", 30)

	assert.Contains(t, s, "tune=zerolatency")
	assert.Contains(t, s, "bframes=0")
	assert.Contains(t, s, "key-int-max=30")
	assert.Contains(t, s, "bitrate=2000")
	assert.Contains(t, s, "width=1280")
	assert.Contains(t, s, "height=720")
	assert.True(t, strings.HasSuffix(s, "appsink name=encsink"))
}

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 7: "7", 123: "123", -42: "-42"}
	for in, want := range cases {
		if got := itoa(in); got != want {
			t.Errorf("itoa(%d) = %q, want %q", in, got, want)
		}
	}
}
