//go:build linux

package capture

import "unsafe"

// Video4Linux2 ioctl request numbers and wire structs. Hand-declared rather
// than imported: golang.org/x/sys/unix does not expose the v4l2 ioctl
// surface, only the generic unix.Syscall/unix.Mmap primitives, so every Go
// V4L2 client in the wild (including the teacher's own internal/v4l2
// package) declares these itself.
const (
	v4l2BufTypeVideoCapture       = 1
	v4l2BufTypeVideoCaptureMplane = 9

	v4l2MemoryMMAP = 1

	v4l2FieldAny  = 0
	v4l2FieldNone = 1

	v4l2FrmsizeTypeDiscrete   = 1
	v4l2FrmsizeTypeContinuous = 2
	v4l2FrmsizeTypeStepwise   = 3

	v4l2FrmivalTypeDiscrete   = 1
	v4l2FrmivalTypeContinuous = 2
	v4l2FrmivalTypeStepwise   = 3

	vidiocQueryCap          = 0x80685600
	vidiocEnumFmt           = 0xc0405602
	vidiocSFmt              = 0xc0cc5605
	vidiocReqBufs           = 0xc0145608
	vidiocQueryBuf          = 0xc0585609
	vidiocQBuf              = 0xc058560f
	vidiocDQBuf             = 0xc0585611
	vidiocStreamOn          = 0x40045612
	vidiocStreamOff         = 0x40045613
	vidiocEnumFramesizes    = 0xc02c564a
	vidiocEnumFrameIntervals = 0xc034564b
	vidiocSParm             = 0xc0cc5616
)

// FourCC encodes a 4-character pixel format tag as V4L2 does: four bytes
// packed little-endian into a uint32.
func fourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

var (
	fourCCYUYV = fourCC('Y', 'U', 'Y', 'V')
	fourCCUYVY = fourCC('U', 'Y', 'V', 'Y')
	fourCCRGBP = fourCC('R', 'G', 'B', 'P') // RGB565LE, V4L2_PIX_FMT_RGB565
	fourCCMJPG = fourCC('M', 'J', 'P', 'G')
)

type v4l2Capability struct {
	driver       [16]uint8
	card         [32]uint8
	busInfo      [32]uint8
	version      uint32
	capabilities uint32
	deviceCaps   uint32
	reserved     [3]uint32
}

type v4l2FmtDesc struct {
	index       uint32
	typ         uint32
	flags       uint32
	description [32]uint8
	pixelformat uint32
	reserved    [4]uint32
}

type v4l2FrmSizeDiscrete struct {
	width  uint32
	height uint32
}

type v4l2FrmSizeStepwise struct {
	minWidth   uint32
	maxWidth   uint32
	stepWidth  uint32
	minHeight  uint32
	maxHeight  uint32
	stepHeight uint32
}

// v4l2FrmSizeEnum mirrors struct v4l2_frmsizeenum. The union of discrete /
// stepwise fields is modeled as the larger of the two raw byte blobs; only
// one is accessed depending on typ.
type v4l2FrmSizeEnum struct {
	index       uint32
	pixelFormat uint32
	typ         uint32
	union       [24]byte
	reserved    [2]uint32
}

func (f *v4l2FrmSizeEnum) discrete() v4l2FrmSizeDiscrete {
	return *(*v4l2FrmSizeDiscrete)(unsafe.Pointer(&f.union[0]))
}

func (f *v4l2FrmSizeEnum) stepwise() v4l2FrmSizeStepwise {
	return *(*v4l2FrmSizeStepwise)(unsafe.Pointer(&f.union[0]))
}

type v4l2Fract struct {
	numerator   uint32
	denominator uint32
}

type v4l2FrmIvalStepwise struct {
	min  v4l2Fract
	max  v4l2Fract
	step v4l2Fract
}

// v4l2FrmIvalEnum mirrors struct v4l2_frmivalenum.
type v4l2FrmIvalEnum struct {
	index       uint32
	pixelFormat uint32
	width       uint32
	height      uint32
	typ         uint32
	union       [24]byte
	reserved    [2]uint32
}

func (f *v4l2FrmIvalEnum) discrete() v4l2Fract {
	return *(*v4l2Fract)(unsafe.Pointer(&f.union[0]))
}

func (f *v4l2FrmIvalEnum) stepwise() v4l2FrmIvalStepwise {
	return *(*v4l2FrmIvalStepwise)(unsafe.Pointer(&f.union[0]))
}

type v4l2PixFormat struct {
	width        uint32
	height       uint32
	pixelformat  uint32
	field        uint32
	bytesperline uint32
	sizeimage    uint32
	colorspace   uint32
	priv         uint32
	flags        uint32
	ycbcrEnc     uint32
	quantization uint32
	xferFunc     uint32
}

// v4l2VideoMaxPlanes mirrors VIDEO_MAX_PLANES: the fixed plane-array
// capacity the kernel's v4l2_pix_format_mplane reserves, regardless of how
// many planes a given format actually uses.
const v4l2VideoMaxPlanes = 8

type v4l2PlanePixFormat struct {
	sizeimage    uint32
	bytesperline uint32
	reserved     [6]uint16
}

// v4l2PixFormatMplane mirrors struct v4l2_pix_format_mplane, the format
// descriptor used for V4L2_BUF_TYPE_VIDEO_CAPTURE_MPLANE devices in place
// of v4l2PixFormat. Every pixel format this package supports occupies a
// single physical plane even when negotiated through the multi-planar
// API, so only planeFmt[0]/numPlanes==1 is ever populated.
type v4l2PixFormatMplane struct {
	width        uint32
	height       uint32
	pixelformat  uint32
	field        uint32
	colorspace   uint32
	planeFmt     [v4l2VideoMaxPlanes]v4l2PlanePixFormat
	numPlanes    uint8
	flags        uint8
	ycbcrEnc     uint8 // shares storage with hsv_enc in the kernel struct
	quantization uint8
	xferFunc     uint8
	reserved     [7]uint8
}

// v4l2Format mirrors struct v4l2_format for the VIDEO_CAPTURE and
// VIDEO_CAPTURE_MPLANE cases: a 4-byte type tag followed by a union whose
// first member is v4l2_pix_format (single-plane) or v4l2_pix_format_mplane
// (multi-planar). The union is over-sized to 200 bytes to match the
// kernel struct's layout regardless of which member the driver reads.
type v4l2Format struct {
	typ uint32
	fmt [200]byte
}

func (f *v4l2Format) setPixFormat(p v4l2PixFormat) {
	*(*v4l2PixFormat)(unsafe.Pointer(&f.fmt[0])) = p
}

func (f *v4l2Format) pixFormat() v4l2PixFormat {
	return *(*v4l2PixFormat)(unsafe.Pointer(&f.fmt[0]))
}

func (f *v4l2Format) setPixFormatMplane(p v4l2PixFormatMplane) {
	*(*v4l2PixFormatMplane)(unsafe.Pointer(&f.fmt[0])) = p
}

func (f *v4l2Format) pixFormatMplane() v4l2PixFormatMplane {
	return *(*v4l2PixFormatMplane)(unsafe.Pointer(&f.fmt[0]))
}

type v4l2RequestBuffers struct {
	count    uint32
	typ      uint32
	memory   uint32
	reserved [2]uint32
}

type v4l2Timecode struct {
	typ      uint32
	flags    uint32
	frames   uint8
	seconds  uint8
	minutes  uint8
	hours    uint8
	userbits [4]uint8
}

type v4l2Timeval struct {
	sec  int64
	usec int64
}

// v4l2Plane mirrors struct v4l2_plane, used per-plane for
// V4L2_BUF_TYPE_VIDEO_CAPTURE_MPLANE buffers in place of the scalar
// offset/length fields v4l2Buffer carries directly. Its own union m holds
// mem_offset (mmap) / userptr / fd depending on memory type; only the
// mem_offset member (mmap capture) is read or written here.
type v4l2Plane struct {
	bytesused uint32
	length    uint32
	m         [8]byte // union: mem_offset uint32 | userptr uintptr | fd int32
	dataOffset uint32
	reserved  [11]uint32
}

func (p *v4l2Plane) memOffset() uint32 {
	return *(*uint32)(unsafe.Pointer(&p.m[0]))
}

func (p *v4l2Plane) setMemOffset(o uint32) {
	*(*uint32)(unsafe.Pointer(&p.m[0])) = o
}

// v4l2Buffer mirrors struct v4l2_buffer. The kernel struct's union m holds
// either a plain mmap offset (single-plane capture) or a pointer to a
// caller-owned array of v4l2Plane (multi-planar capture); since the
// pointer member makes the union 8 bytes wide on 64-bit, it is modeled as
// an 8-byte blob rather than a bare uint32 field sitting next to length —
// packing offset and length as adjacent uint32s, as this struct did
// before multi-planar support was added, is only correct by coincidence
// on the single-plane path and silently misaligns every field after it
// once the union needs to carry a pointer.
type v4l2Buffer struct {
	index     uint32
	typ       uint32
	bytesused uint32
	flags     uint32
	field     uint32
	timestamp v4l2Timeval
	timecode  v4l2Timecode
	sequence  uint32
	memory    uint32
	m         [8]byte
	length    uint32
	reserved2 uint32
	reserved  uint32
}

func (b *v4l2Buffer) offset() uint32 {
	return *(*uint32)(unsafe.Pointer(&b.m[0]))
}

func (b *v4l2Buffer) setOffset(o uint32) {
	*(*uint32)(unsafe.Pointer(&b.m[0])) = o
}

func (b *v4l2Buffer) setPlanes(planes *v4l2Plane) {
	*(**v4l2Plane)(unsafe.Pointer(&b.m[0])) = planes
}

// v4l2StreamParm mirrors struct v4l2_streamparm with the v4l2_captureparm
// member of its union, padded to the union's 200-byte size.
type v4l2StreamParm struct {
	typ      uint32
	capability   uint32
	capturemode  uint32
	timeperframe v4l2Fract
	extendedmode uint32
	readbuffers  uint32
	reserved     [4]uint32
	_            [160]byte
}
