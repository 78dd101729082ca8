//go:build linux

package capture

import "testing"

func TestPixelFormatFourCCRoundTrip(t *testing.T) {
	formats := []PixelFormat{PixelFormatYUYV422, PixelFormatUYVY422, PixelFormatRGB565LE, PixelFormatMJPEG}
	for _, f := range formats {
		cc := f.fourCC()
		if got := pixelFormatFromFourCC(cc); got != f {
			t.Errorf("pixelFormatFromFourCC(%#x) = %v, want %v", cc, got, f)
		}
	}
}

func TestCStringStopsAtNUL(t *testing.T) {
	b := []uint8{'u', 'v', 'c', 0, 'x', 'x'}
	if got := cString(b); got != "uvc" {
		t.Errorf("cString = %q, want %q", got, "uvc")
	}
}

func TestCanonicalResolutionsFallback(t *testing.T) {
	if len(canonicalResolutions) != 3 {
		t.Fatalf("len(canonicalResolutions) = %d, want 3", len(canonicalResolutions))
	}
	if canonicalResolutions[0] != (Size{1920, 1080}) {
		t.Errorf("canonicalResolutions[0] = %+v, want {1920 1080}", canonicalResolutions[0])
	}
}
