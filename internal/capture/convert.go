package capture

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/pkg/errors"
)

// ConvertToRGB24 writes a tightly packed 24-bit RGB image of size
// width*height*3 into out, decoding raw according to format. Callers must
// not assume len(raw) == width*height*bpp: for MJPEG, raw is a
// kernel-reported compressed payload of whatever length the JPEG happens
// to compress to.
//
// Uses the integer fixed-point BT.601 coefficients (equivalent to the
// floating-point form up to rounding): R = clip((298*(Y-16) + 409*(V-128) + 128) >> 8),
// and similarly for G and B.
func ConvertToRGB24(format PixelFormat, raw []byte, width, height int, out []byte) error {
	want := width * height * 3
	if len(out) < want {
		return errors.Errorf("capture: output buffer too small: have %d, want %d", len(out), want)
	}

	switch format {
	case PixelFormatYUYV422:
		return convertYUYV(raw, width, height, out)
	case PixelFormatUYVY422:
		return convertUYVY(raw, width, height, out)
	case PixelFormatRGB565LE:
		return convertRGB565(raw, width, height, out)
	case PixelFormatMJPEG:
		return convertMJPEG(raw, width, height, out)
	default:
		return errors.Errorf("capture: unsupported pixel format %v", format)
	}
}

// yuvToRGB converts one YCbCr triple to RGB using the integer fixed-point
// BT.601 form, clipping to [0, 255].
func yuvToRGB(y, u, v int) (r, g, b byte) {
	c := y - 16
	d := u - 128
	e := v - 128

	r = clip8((298*c + 409*e + 128) >> 8)
	g = clip8((298*c - 100*d - 208*e + 128) >> 8)
	b = clip8((298*c + 516*d + 128) >> 8)
	return
}

func clip8(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// convertYUYV decodes YUYV422 (byte order Y0 U0 Y1 V0 per 2 pixels).
func convertYUYV(raw []byte, width, height int, out []byte) error {
	need := width * height * 2
	if len(raw) < need {
		return errors.Errorf("capture: YUYV422 input too short: have %d, want %d", len(raw), need)
	}
	si, di := 0, 0
	for py := 0; py < height; py++ {
		for px := 0; px < width; px += 2 {
			y0, u, y1, v := raw[si], raw[si+1], raw[si+2], raw[si+3]
			r0, g0, b0 := yuvToRGB(int(y0), int(u), int(v))
			out[di], out[di+1], out[di+2] = r0, g0, b0
			if px+1 < width {
				r1, g1, b1 := yuvToRGB(int(y1), int(u), int(v))
				out[di+3], out[di+4], out[di+5] = r1, g1, b1
			}
			si += 4
			di += 6
		}
	}
	return nil
}

// convertUYVY decodes UYVY422 (byte order U0 Y0 V0 Y1 per 2 pixels).
func convertUYVY(raw []byte, width, height int, out []byte) error {
	need := width * height * 2
	if len(raw) < need {
		return errors.Errorf("capture: UYVY422 input too short: have %d, want %d", len(raw), need)
	}
	si, di := 0, 0
	for py := 0; py < height; py++ {
		for px := 0; px < width; px += 2 {
			u, y0, v, y1 := raw[si], raw[si+1], raw[si+2], raw[si+3]
			r0, g0, b0 := yuvToRGB(int(y0), int(u), int(v))
			out[di], out[di+1], out[di+2] = r0, g0, b0
			if px+1 < width {
				r1, g1, b1 := yuvToRGB(int(y1), int(u), int(v))
				out[di+3], out[di+4], out[di+5] = r1, g1, b1
			}
			si += 4
			di += 6
		}
	}
	return nil
}

// convertRGB565 decodes RGB565LE (5-6-5, little-endian uint16 per pixel).
func convertRGB565(raw []byte, width, height int, out []byte) error {
	need := width * height * 2
	if len(raw) < need {
		return errors.Errorf("capture: RGB565LE input too short: have %d, want %d", len(raw), need)
	}
	si, di := 0, 0
	for i := 0; i < width*height; i++ {
		px := uint16(raw[si]) | uint16(raw[si+1])<<8
		r5 := (px >> 11) & 0x1F
		g6 := (px >> 5) & 0x3F
		b5 := px & 0x1F

		out[di] = byte(r5<<3 | r5>>2)
		out[di+1] = byte(g6<<2 | g6>>4)
		out[di+2] = byte(b5<<3 | b5>>2)

		si += 2
		di += 3
	}
	return nil
}

// convertMJPEG delegates decoding to the standard library's JPEG decoder
// and repacks the result as tightly packed RGB24.
func convertMJPEG(raw []byte, width, height int, out []byte) error {
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(err, "capture: MJPEG decode")
	}

	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return errors.Errorf("capture: decoded MJPEG is %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}

	di := 0
	nrgba, isNRGBA := img.(*image.NRGBA)
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			var r, g, bl uint32
			if isNRGBA {
				o := nrgba.PixOffset(b.Min.X+px, b.Min.Y+py)
				r, g, bl = uint32(nrgba.Pix[o]), uint32(nrgba.Pix[o+1]), uint32(nrgba.Pix[o+2])
			} else {
				rr, gg, bb, _ := img.At(b.Min.X+px, b.Min.Y+py).RGBA()
				r, g, bl = rr>>8, gg>>8, bb>>8
			}
			out[di], out[di+1], out[di+2] = byte(r), byte(g), byte(bl)
			di += 3
		}
	}
	return nil
}
