//go:build linux

// Package capture implements kernel video acquisition: opening a V4L2
// device, negotiating a pixel format, managing a ring of memory-mapped
// kernel buffers, and converting captured frames to packed RGB24.
//
// Grounded on the teacher's internal/v4l2/device.go (ioctl wrapper style,
// mmap-based buffer management, enqueue/dequeue split API), generalized
// from its single-buffer implementation to the four-buffer ring and
// multi-plane probing this component requires.
package capture

import (
	"syscall"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/sigmenx/tinykvm/internal/logging"
)

var log = logging.DefaultLogger.WithTag("capture")

// NumBuffers is the size of the mmap'd kernel buffer ring. Fixed at 4 per
// the data model: large enough to absorb scheduling jitter between
// dequeue/enqueue without the kernel starving for free buffers.
const NumBuffers = 4

// Sentinel errors matching the error-handling taxonomy: Busy, Format, IO.
var (
	ErrBusy   = errors.New("capture: device busy")
	ErrFormat = errors.New("capture: unsupported or rejected format")
	ErrIO     = errors.New("capture: I/O error")
)

// PixelFormat identifies a raw frame encoding.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatYUYV422
	PixelFormatUYVY422
	PixelFormatRGB565LE
	PixelFormatMJPEG
)

func (f PixelFormat) fourCC() uint32 {
	switch f {
	case PixelFormatYUYV422:
		return fourCCYUYV
	case PixelFormatUYVY422:
		return fourCCUYVY
	case PixelFormatRGB565LE:
		return fourCCRGBP
	case PixelFormatMJPEG:
		return fourCCMJPG
	default:
		return 0
	}
}

func pixelFormatFromFourCC(cc uint32) PixelFormat {
	switch cc {
	case fourCCYUYV:
		return PixelFormatYUYV422
	case fourCCUYVY:
		return PixelFormatUYVY422
	case fourCCRGBP:
		return PixelFormatRGB565LE
	case fourCCMJPG:
		return PixelFormatMJPEG
	default:
		return PixelFormatUnknown
	}
}

// Config is an immutable capture configuration.
type Config struct {
	Width       int
	Height      int
	PixelFormat PixelFormat
	FPS         int
}

// FormatInfo is one entry returned by EnumerateFormats.
type FormatInfo struct {
	Name   string
	FourCC uint32
}

// Buffer describes one dequeued frame: its backing bytes and which ring
// slot it came from. The slot must be returned via Enqueue exactly once.
type Buffer struct {
	Data  []byte
	Index int
}

// Device owns a V4L2 character device: its file descriptor, the
// single-vs-multi-plane discipline probed at open, and (while streaming)
// the mmap'd buffer ring.
type Device struct {
	path string
	fd   int

	bufType uint32 // v4l2BufTypeVideoCapture or v4l2BufTypeVideoCaptureMplane

	mmaps     [NumBuffers][]byte
	streaming bool
	cfg       Config
}

// Open opens the device read/write, non-blocking, and probes whether it
// reports single-plane or multi-plane video capture. The probe result is
// fixed for the device's lifetime.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "open %s: %v", path, err)
	}

	d := &Device{path: path, fd: fd}
	if err := d.probeBufferType(); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return d, nil
}

func (d *Device) probeBufferType() error {
	var cap v4l2Capability
	if err := d.ioctl(vidiocQueryCap, unsafe.Pointer(&cap)); err != nil {
		return errors.Wrapf(ErrIO, "query capability: %v", err)
	}

	const (
		v4l2CapVideoCapture       = 0x00000001
		v4l2CapVideoCaptureMplane = 0x00001000
	)
	switch {
	case cap.capabilities&v4l2CapVideoCaptureMplane != 0:
		d.bufType = v4l2BufTypeVideoCaptureMplane
	case cap.capabilities&v4l2CapVideoCapture != 0:
		d.bufType = v4l2BufTypeVideoCapture
	default:
		return errors.Wrap(ErrFormat, "device does not report a video capture capability")
	}
	return nil
}

func (d *Device) isMplane() bool {
	return d.bufType == v4l2BufTypeVideoCaptureMplane
}

func (d *Device) ioctl(request uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), request, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// EnumerateFormats returns the ordered list of (name, fourcc) the device
// advertises. Only valid after Open.
func (d *Device) EnumerateFormats() ([]FormatInfo, error) {
	var formats []FormatInfo
	for idx := uint32(0); ; idx++ {
		desc := v4l2FmtDesc{index: idx, typ: d.bufType}
		if err := d.ioctl(vidiocEnumFmt, unsafe.Pointer(&desc)); err != nil {
			if err == syscall.EINVAL {
				break
			}
			return formats, errors.Wrap(ErrIO, "enum fmt")
		}
		formats = append(formats, FormatInfo{
			Name:   cString(desc.description[:]),
			FourCC: desc.pixelformat,
		})
	}
	return formats, nil
}

// EnumerateResolutions returns the discrete sizes the device advertises for
// fourcc. A stepwise or continuous range is replaced by the canonical set
// {1920x1080, 1280x720, 640x480}, since downstream encoders and UIs need
// concrete, enumerable choices.
func (d *Device) EnumerateResolutions(fourcc uint32) []Size {
	var sizes []Size
	for idx := uint32(0); ; idx++ {
		fe := v4l2FrmSizeEnum{index: idx, pixelFormat: fourcc}
		if err := d.ioctl(vidiocEnumFramesizes, unsafe.Pointer(&fe)); err != nil {
			break
		}
		switch fe.typ {
		case v4l2FrmsizeTypeDiscrete:
			disc := fe.discrete()
			sizes = append(sizes, Size{int(disc.width), int(disc.height)})
		case v4l2FrmsizeTypeStepwise, v4l2FrmsizeTypeContinuous:
			return canonicalResolutions
		}
	}
	if len(sizes) == 0 {
		return canonicalResolutions
	}
	return sizes
}

// Size is a width/height pair in pixels.
type Size struct{ W, H int }

var canonicalResolutions = []Size{{1920, 1080}, {1280, 720}, {640, 480}}

// EnumerateFramerates returns the discrete fps values the device advertises
// for (fourcc, w, h). Stepwise/continuous substitutes {60, 30}; an empty
// result substitutes {30}.
func (d *Device) EnumerateFramerates(fourcc uint32, w, h int) []int {
	var rates []int
	for idx := uint32(0); ; idx++ {
		fe := v4l2FrmIvalEnum{index: idx, pixelFormat: fourcc, width: uint32(w), height: uint32(h)}
		if err := d.ioctl(vidiocEnumFrameIntervals, unsafe.Pointer(&fe)); err != nil {
			break
		}
		switch fe.typ {
		case v4l2FrmivalTypeDiscrete:
			fract := fe.discrete()
			if fract.numerator != 0 {
				rates = append(rates, int(fract.denominator/fract.numerator))
			}
		case v4l2FrmivalTypeStepwise, v4l2FrmivalTypeContinuous:
			return []int{60, 30}
		}
	}
	if len(rates) == 0 {
		return []int{30}
	}
	return rates
}

// Start negotiates the format, sets the frame interval, requests four
// buffers, maps them into the process, queues all four, and enables
// streaming. Idempotent: Start while already streaming first Stops.
func (d *Device) Start(cfg Config) error {
	if d.streaming {
		if err := d.Stop(); err != nil {
			return err
		}
	}

	var format v4l2Format
	format.typ = d.bufType
	if d.isMplane() {
		format.setPixFormatMplane(v4l2PixFormatMplane{
			width:       uint32(cfg.Width),
			height:      uint32(cfg.Height),
			pixelformat: cfg.PixelFormat.fourCC(),
			field:       v4l2FieldAny,
			numPlanes:   1,
		})
	} else {
		format.setPixFormat(v4l2PixFormat{
			width:       uint32(cfg.Width),
			height:      uint32(cfg.Height),
			pixelformat: cfg.PixelFormat.fourCC(),
			field:       v4l2FieldAny,
		})
	}
	if err := d.ioctl(vidiocSFmt, unsafe.Pointer(&format)); err != nil {
		return errors.Wrap(ErrFormat, "set format")
	}

	parm := v4l2StreamParm{typ: d.bufType, timeperframe: v4l2Fract{numerator: 1, denominator: uint32(cfg.FPS)}}
	// Best-effort: not every driver supports S_PARM; ignore failures.
	_ = d.ioctl(vidiocSParm, unsafe.Pointer(&parm))

	rb := v4l2RequestBuffers{count: NumBuffers, typ: d.bufType, memory: v4l2MemoryMMAP}
	if err := d.ioctl(vidiocReqBufs, unsafe.Pointer(&rb)); err != nil {
		return errors.Wrap(ErrBusy, "request buffers")
	}
	if rb.count < NumBuffers {
		return errors.Wrapf(ErrBusy, "kernel granted only %d of %d buffers", rb.count, NumBuffers)
	}

	for i := 0; i < NumBuffers; i++ {
		length, offset, err := d.queryBuffer(uint32(i))
		if err != nil {
			return errors.Wrap(ErrIO, "query buffer")
		}
		mm, err := unix.Mmap(d.fd, int64(offset), int(length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return errors.Wrap(ErrIO, "mmap")
		}
		d.mmaps[i] = mm

		if err := d.enqueueRaw(i); err != nil {
			return errors.Wrap(ErrIO, "initial enqueue")
		}
	}

	if err := d.ioctl(vidiocStreamOn, unsafe.Pointer(&d.bufType)); err != nil {
		return errors.Wrap(ErrIO, "stream on")
	}

	d.cfg = cfg
	d.streaming = true
	return nil
}

// Stop disables streaming, unmaps buffers, and releases kernel buffers by
// explicitly requesting zero — skipping this step is the most common cause
// of the next Start failing with ErrBusy.
func (d *Device) Stop() error {
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if d.streaming {
		note(d.ioctl(vidiocStreamOff, unsafe.Pointer(&d.bufType)))
	}
	for i := range d.mmaps {
		if d.mmaps[i] != nil {
			note(unix.Munmap(d.mmaps[i]))
			d.mmaps[i] = nil
		}
	}
	rb := v4l2RequestBuffers{count: 0, typ: d.bufType, memory: v4l2MemoryMMAP}
	note(d.ioctl(vidiocReqBufs, unsafe.Pointer(&rb)))

	d.streaming = false
	if firstErr != nil {
		return errors.Wrap(ErrIO, firstErr.Error())
	}
	return nil
}

// Close stops capture (if running) and closes the file descriptor.
func (d *Device) Close() error {
	stopErr := d.Stop()
	closeErr := unix.Close(d.fd)
	if stopErr != nil {
		return stopErr
	}
	return closeErr
}

// queryBuffer returns the (length, offset) of buffer index's single
// physical plane. For mplane devices the kernel writes these into a
// one-element v4l2Plane array pointed to from the v4l2Buffer's union,
// rather than into the scalar length/offset fields QUERYBUF uses on the
// single-plane path.
func (d *Device) queryBuffer(index uint32) (length, offset uint32, err error) {
	qb := v4l2Buffer{index: index, typ: d.bufType, memory: v4l2MemoryMMAP}
	if d.isMplane() {
		var planes [1]v4l2Plane
		qb.length = uint32(len(planes))
		qb.setPlanes(&planes[0])
		if err = d.ioctl(vidiocQueryBuf, unsafe.Pointer(&qb)); err != nil {
			return
		}
		return planes[0].length, planes[0].memOffset(), nil
	}
	if err = d.ioctl(vidiocQueryBuf, unsafe.Pointer(&qb)); err != nil {
		return
	}
	return qb.length, qb.offset(), nil
}

func (d *Device) enqueueRaw(index int) error {
	qb := v4l2Buffer{index: uint32(index), typ: d.bufType, memory: v4l2MemoryMMAP}
	if d.isMplane() {
		var planes [1]v4l2Plane
		qb.length = uint32(len(planes))
		qb.setPlanes(&planes[0])
	}
	return d.ioctl(vidiocQBuf, unsafe.Pointer(&qb))
}

// Dequeue waits up to timeout for a ready buffer, using poll(2) on the
// device fd as the readiness primitive, then removes it from the kernel
// queue. Returns (nil, false, nil) on timeout.
func (d *Device) Dequeue(timeout time.Duration) (*Buffer, bool, error) {
	if !d.streaming {
		panic("capture: Dequeue called while not streaming")
	}

	pfds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(pfds, int(timeout/time.Millisecond))
	if err != nil {
		if err == syscall.EINTR {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(ErrIO, "poll")
	}
	if n == 0 {
		return nil, false, nil
	}

	qb := v4l2Buffer{typ: d.bufType, memory: v4l2MemoryMMAP}
	var planes [1]v4l2Plane
	if d.isMplane() {
		qb.length = uint32(len(planes))
		qb.setPlanes(&planes[0])
	}
	if err := d.ioctl(vidiocDQBuf, unsafe.Pointer(&qb)); err != nil {
		if err == syscall.EAGAIN {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(ErrIO, "dqbuf")
	}

	bytesused := qb.bytesused
	if d.isMplane() {
		bytesused = planes[0].bytesused
	}

	idx := int(qb.index)
	return &Buffer{Data: d.mmaps[idx][:bytesused], Index: idx}, true, nil
}

// Enqueue returns buffer index to the kernel. Must be called at most once
// per successful Dequeue.
func (d *Device) Enqueue(index int) error {
	if err := d.enqueueRaw(index); err != nil {
		return errors.Wrap(ErrIO, "qbuf")
	}
	return nil
}

func cString(b []uint8) string {
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	return string(b)
}
