// Package encoder wraps a GStreamer appsrc/appsink pipeline to transform
// packed raw video frames into H.264 access units with minimal latency.
//
// Grounded on helixml-helix's api/pkg/desktop/gst_pipeline.go (appsink
// pull-sample pattern, pipeline-string construction, gst.Init via
// sync.Once) and mic_stream.go (appsrc push-buffer pattern, SetProperty
// sequencing). Unlike both of those — which stream frames onto a channel
// for an independent consumer goroutine — this encoder exposes a
// synchronous push-then-drain call per the controller's one-frame-in,
// N-packets-out contract: Encode blocks until the appsink has no
// more buffers immediately available, then returns.
package encoder

import (
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"github.com/pkg/errors"

	"github.com/sigmenx/tinykvm/internal/capture"
	"github.com/sigmenx/tinykvm/internal/logging"
)

var log = logging.DefaultLogger.WithTag("encoder")

var gstInitOnce sync.Once

func initGStreamer() {
	gstInitOnce.Do(func() {
		gst.Init(nil)
	})
}

// inputCaps maps the three encodable raw formats to their GStreamer raw
// video caps string, used to build the appsrc's fixed "caps" property.
var inputCaps = map[capture.PixelFormat]string{
	capture.PixelFormatYUYV422:  "YUY2",
	capture.PixelFormatUYVY422:  "UYVY",
	capture.PixelFormatRGB565LE: "RGB16",
}

// ErrUnsupportedFormat is returned by New when input_pixel_format is not one
// of the three encodable raw formats (MJPEG is excluded: it is already
// compressed and never fed to this encoder).
var ErrUnsupportedFormat = errors.New("encoder: unsupported input pixel format")

// Config is fixed at construction.
type Config struct {
	Width, Height int
	Bitrate       int // bits per second
	InputFormat   capture.PixelFormat
	FPS           int
}

// Packet is one H.264 access unit produced by a single Encode call.
type Packet struct {
	Data []byte
	PTS  time.Duration
}

// Encoder drives an appsrc ! videoconvert ! x264enc ! h264parse ! appsink
// pipeline tuned for zero-latency streaming: no B-frames, a one-second GOP,
// and the fastest x264 preset.
type Encoder struct {
	cfg      Config
	pipeline *gst.Pipeline
	src      *app.Source
	sink     *app.Sink
	frameNo  uint64
}

// New validates the input format, builds the pipeline and sets it to the
// PLAYING state. The controller must not construct an Encoder for MJPEG input;
// doing so returns ErrUnsupportedFormat and the remote path stays disabled.
func New(cfg Config) (*Encoder, error) {
	caps, ok := inputCaps[cfg.InputFormat]
	if !ok {
		return nil, ErrUnsupportedFormat
	}

	initGStreamer()

	gopSize := cfg.FPS
	if gopSize <= 0 {
		gopSize = 30
	}

	pipelineStr := buildPipelineString(cfg, caps, gopSize)
	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		return nil, errors.Wrap(err, "encoder: parse pipeline")
	}

	srcElem, err := pipeline.GetElementByName("rawsrc")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, errors.Wrap(err, "encoder: get appsrc")
	}
	sinkElem, err := pipeline.GetElementByName("encsink")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, errors.Wrap(err, "encoder: get appsink")
	}

	src := app.SrcFromElement(srcElem)
	sink := app.SinkFromElement(sinkElem)

	src.SetProperty("format", gst.FormatTime)
	src.SetProperty("is-live", true)
	src.SetProperty("block", false)

	sink.SetProperty("emit-signals", false)
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", uint(4))
	sink.SetProperty("drop", false)

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, errors.Wrap(err, "encoder: start pipeline")
	}

	return &Encoder{cfg: cfg, pipeline: pipeline, src: src, sink: sink}, nil
}

// buildPipelineString assembles the GStreamer launch-syntax pipeline:
// a raw-caps appsrc, a format conversion to planar 4:2:0, x264enc tuned for
// zero-latency with no B-frames and a one-second GOP, Annex-B h264parse
// with SPS/PPS injected before every IDR, and an appsink.
func buildPipelineString(cfg Config, rawFormat string, gopSize int) string {
	return "appsrc name=rawsrc format=time is-live=true caps=" +
		"video/x-raw,format=" + rawFormat + ",width=" + itoa(cfg.Width) + ",height=" + itoa(cfg.Height) +
		",framerate=" + itoa(cfg.FPS) + "/1" +
		" ! videoconvert ! video/x-raw,format=I420" +
		" ! x264enc tune=zerolatency speed-preset=ultrafast bframes=0 key-int-max=" + itoa(gopSize) +
		" bitrate=" + itoa(cfg.Bitrate/1000) +
		" ! h264parse config-interval=-1" +
		" ! video/x-h264,stream-format=byte-stream,alignment=au" +
		" ! appsink name=encsink"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Encode pushes one raw frame into the pipeline (whose videoconvert stage
// performs the pixel-format conversion), then drains every compressed
// packet the appsink has ready, invoking callback once per packet. A failed
// push is logged and the frame dropped; the pipeline is left running for
// the next frame. Errors the pipeline posts on its bus are not observed here.
func (e *Encoder) Encode(raw []byte, callback func(pkt Packet)) {
	pts := time.Duration(e.frameNo) * time.Second / time.Duration(max1(e.cfg.FPS))
	e.frameNo++

	buf := gst.NewBufferFromBytes(raw)
	buf.SetPresentationTimestamp(gst.ClockTime(pts))
	buf.SetDuration(gst.ClockTime(time.Second / time.Duration(max1(e.cfg.FPS))))

	if ret := e.src.PushBuffer(buf); ret != gst.FlowOK {
		log.Warn("encoder: push buffer failed: %v", ret)
		return
	}

	for {
		sample := e.sink.TryPullSample(0)
		if sample == nil {
			return
		}
		gstBuf := sample.GetBuffer()
		if gstBuf == nil {
			continue
		}
		mapInfo := gstBuf.Map(gst.MapRead)
		if mapInfo == nil {
			continue
		}
		data := append([]byte(nil), mapInfo.Bytes()...)
		gstBuf.Unmap()

		callback(Packet{Data: data, PTS: pts})
	}
}

// Close tears down the pipeline.
func (e *Encoder) Close() error {
	if e.pipeline == nil {
		return nil
	}
	return e.pipeline.SetState(gst.StateNull)
}

func max1(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
