package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertYUYVGrayscale(t *testing.T) {
	// Y=235 (white), U=V=128 (neutral chroma) for a 2x2 frame: every pixel
	// should come out as pure white regardless of the YUYV packing.
	raw := []byte{235, 128, 235, 128, 235, 128, 235, 128}
	out := make([]byte, 2*2*3)

	err := ConvertToRGB24(PixelFormatYUYV422, raw, 2, 2, out)
	require.NoError(t, err)

	for i := 0; i < len(out); i += 3 {
		assert.InDelta(t, 255, out[i], 2)
		assert.InDelta(t, 255, out[i+1], 2)
		assert.InDelta(t, 255, out[i+2], 2)
	}
}

func TestConvertUYVYMatchesYUYVReordering(t *testing.T) {
	// Same two source pixels (Y0=100,U=90,Y1=150,V=200) in each packing;
	// both must decode to the same two RGB pixels.
	yuyv := []byte{100, 90, 150, 200}
	uyvy := []byte{90, 100, 200, 150}

	outYUYV := make([]byte, 2*1*3)
	outUYVY := make([]byte, 2*1*3)
	require.NoError(t, ConvertToRGB24(PixelFormatYUYV422, yuyv, 2, 1, outYUYV))
	require.NoError(t, ConvertToRGB24(PixelFormatUYVY422, uyvy, 2, 1, outUYVY))

	assert.Equal(t, outYUYV, outUYVY)
}

func TestConvertRGB565PrimaryColors(t *testing.T) {
	// Pure red (0xF800 LE), pure green (0x07E0 LE), pure blue (0x001F LE).
	raw := []byte{0x00, 0xF8, 0xE0, 0x07, 0x1F, 0x00}
	out := make([]byte, 3*3)

	require.NoError(t, ConvertToRGB24(PixelFormatRGB565LE, raw, 3, 1, out))

	assert.InDelta(t, 255, out[0], 10) // red
	assert.Equal(t, byte(0), out[1])
	assert.Equal(t, byte(0), out[2])

	assert.Equal(t, byte(0), out[3])
	assert.InDelta(t, 255, out[4], 5) // green
	assert.Equal(t, byte(0), out[5])

	assert.Equal(t, byte(0), out[6])
	assert.Equal(t, byte(0), out[7])
	assert.InDelta(t, 255, out[8], 10) // blue
}

func TestConvertMJPEGDelegatesToStdlib(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, &jpeg.Options{Quality: 95}))

	out := make([]byte, 4*4*3)
	require.NoError(t, ConvertToRGB24(PixelFormatMJPEG, buf.Bytes(), 4, 4, out))

	// Lossy JPEG won't round-trip exactly; just check it's in the ballpark.
	assert.InDelta(t, 10, out[0], 15)
	assert.InDelta(t, 20, out[1], 15)
	assert.InDelta(t, 30, out[2], 15)
}

func TestConvertRejectsUndersizedOutput(t *testing.T) {
	raw := make([]byte, 8)
	out := make([]byte, 2) // too small for a 2x2 frame
	err := ConvertToRGB24(PixelFormatYUYV422, raw, 2, 2, out)
	assert.Error(t, err)
}

func TestConvertRejectsShortInput(t *testing.T) {
	raw := make([]byte, 2) // too short for 2x2 YUYV (needs 8 bytes)
	out := make([]byte, 2*2*3)
	err := ConvertToRGB24(PixelFormatYUYV422, raw, 2, 2, out)
	assert.Error(t, err)
}
