// Package pipeline implements the PipelineController: the single worker
// goroutine that owns the capture device, the video encoder, and the
// broadcast server, and drives them through one ordered run-loop iteration
// at a time. Grounded on the original implementation's VideoController
// (padskvm/Controller/pro_videothread.h: dirty-flag reconciliation, owned
// collaborators, desired-config fields) translated from a Qt QThread with
// a mutex+wait-condition into a goroutine parked on sync.Cond.
package pipeline

import (
	"sync"
	"time"

	"github.com/sigmenx/tinykvm/internal/broadcast"
	"github.com/sigmenx/tinykvm/internal/capture"
	"github.com/sigmenx/tinykvm/internal/encoder"
	"github.com/sigmenx/tinykvm/internal/hid"
	"github.com/sigmenx/tinykvm/internal/logging"
)

var log = logging.DefaultLogger.WithTag("pipeline")

const (
	dequeueTimeout           = 200 * time.Millisecond
	idleSleep                = 10 * time.Millisecond
	signalLossTimeoutCount   = 10
)

// DesiredState is the configuration the controller reconciles hardware
// towards. Copied out under the lock by the worker on every iteration that
// has a dirty flag set.
type DesiredState struct {
	Width, Height int
	PixelFormat   capture.PixelFormat
	FPS           int
	Bitrate       int

	ServerOn   bool
	ServerAddr string

	DevicePath string
}

// FrameSink receives a copy of every captured frame after RGB24 conversion,
// e.g. for a local preview widget. Optional: PipelineController works fine
// with none attached.
type FrameSink interface {
	OnFrame(rgb []byte, width, height int)
}

// Controller is the T2 worker described in the concurrency model: it owns
// capture+encoder+server and performs all I/O on them from a single
// goroutine.
type Controller struct {
	mu      sync.Mutex
	cond    *sync.Cond
	desired DesiredState
	dirtyCapture bool
	dirtyServer  bool
	abort        bool

	dev      *capture.Device
	enc      *encoder.Encoder
	srv      *broadcast.Server
	capturing bool

	currentCfg capture.Config
	consecutiveTimeouts int

	sink     FrameSink
	hidQueue *hid.Queue

	rgbBuf []byte
}

// New constructs an idle controller. Remote HID commands decoded from
// browser messages are pushed onto hidQueue; Call SetDesiredState then Run.
func New(hidQueue *hid.Queue) *Controller {
	c := &Controller{hidQueue: hidQueue}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// SetFrameSink attaches (or detaches, with nil) a local frame sink.
func (c *Controller) SetFrameSink(sink FrameSink) {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()
}

// SetDesiredState updates the desired configuration and marks the
// appropriate dirty flags, waking the worker if it is parked.
func (c *Controller) SetDesiredState(d DesiredState) {
	c.mu.Lock()
	captureChanged := d.Width != c.desired.Width || d.Height != c.desired.Height ||
		d.PixelFormat != c.desired.PixelFormat || d.FPS != c.desired.FPS || d.DevicePath != c.desired.DevicePath
	serverChanged := d.ServerOn != c.desired.ServerOn || d.ServerAddr != c.desired.ServerAddr ||
		d.Bitrate != c.desired.Bitrate
	c.desired = d
	if captureChanged {
		c.dirtyCapture = true
	}
	if serverChanged {
		c.dirtyServer = true
	}
	c.cond.Signal()
	c.mu.Unlock()
}

// Stop signals the worker to exit. Run returns once the current iteration
// completes.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.abort = true
	c.cond.Signal()
	c.mu.Unlock()
}

// Run executes the controller's ordered run-loop phases until Stop is
// called. Intended to be the entire body of the T2 goroutine.
func (c *Controller) Run() {
	for {
		desired, dirtyCapture, dirtyServer, shouldExit := c.waitAndClearDirty()
		if shouldExit {
			c.teardown()
			return
		}

		if dirtyCapture {
			if err := c.reconcileCapture(desired); err != nil {
				log.Warn("pipeline: capture reconcile failed: %v", err)
				c.mu.Lock()
				c.capturing = false
				c.mu.Unlock()
				continue
			}
		}
		if dirtyServer || dirtyCapture {
			c.reconcileServer(desired)
		}

		if c.srv != nil {
			if err := c.srv.PollAccept(); err != nil {
				log.Warn("pipeline: poll_accept: %v", err)
			}
			for _, msg := range c.srv.PollInbound() {
				c.routeInbound(msg.Data)
			}
		}

		c.pumpOneFrame(desired)
	}
}

// waitAndClearDirty implements phase 1 (wait/wake) and the dirty-flag half
// of phase 2 (copy out desired state, clear flags), all under the lock.
func (c *Controller) waitAndClearDirty() (desired DesiredState, dirtyCapture, dirtyServer, shouldExit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for !c.abort && !c.capturing && !c.dirtyCapture && !c.dirtyServer {
		c.cond.Wait()
	}
	if c.abort {
		return DesiredState{}, false, false, true
	}

	desired = c.desired
	dirtyCapture = c.dirtyCapture
	dirtyServer = c.dirtyServer
	c.dirtyCapture = false
	c.dirtyServer = false
	return
}

// reconcileCapture implements the capture half of phase 2: stop if running,
// then start with the new config. Restarting always invalidates the
// encoder, since width/height/format may have changed.
func (c *Controller) reconcileCapture(desired DesiredState) error {
	if c.dev != nil {
		if err := c.dev.Close(); err != nil {
			log.Warn("pipeline: capture close: %v", err)
		}
		c.dev = nil
	}

	dev, err := capture.Open(desired.DevicePath)
	if err != nil {
		return err
	}
	cfg := capture.Config{Width: desired.Width, Height: desired.Height, PixelFormat: desired.PixelFormat, FPS: desired.FPS}
	if err := dev.Start(cfg); err != nil {
		dev.Close()
		return err
	}

	c.dev = dev
	c.currentCfg = cfg
	c.rgbBuf = make([]byte, desired.Width*desired.Height*3)
	c.consecutiveTimeouts = 0

	c.mu.Lock()
	c.capturing = true
	c.mu.Unlock()

	c.destroyEncoder()
	return nil
}

// reconcileServer implements the server/encoder half of phase 2.
func (c *Controller) reconcileServer(desired DesiredState) {
	if !desired.ServerOn {
		c.destroyEncoder()
		if c.srv != nil {
			c.srv.Close()
			c.srv = nil
		}
		return
	}

	if c.srv == nil {
		srv, err := broadcast.Listen(desired.ServerAddr)
		if err != nil {
			log.Warn("pipeline: listen %s: %v", desired.ServerAddr, err)
			return
		}
		c.srv = srv
		log.Info("pipeline: server listening on %s", desired.ServerAddr)
	}

	if c.enc == nil && c.dev != nil {
		encCfg := encoder.Config{
			Width: c.currentCfg.Width, Height: c.currentCfg.Height,
			Bitrate: desired.Bitrate, InputFormat: c.currentCfg.PixelFormat, FPS: desired.FPS,
		}
		enc, err := encoder.New(encCfg)
		if err != nil {
			if err != encoder.ErrUnsupportedFormat {
				log.Warn("pipeline: encoder construction failed: %v", err)
			}
			return
		}
		c.enc = enc
	}
}

func (c *Controller) destroyEncoder() {
	if c.enc != nil {
		c.enc.Close()
		c.enc = nil
	}
}

// routeInbound implements phase 3's message routing by leading byte.
func (c *Controller) routeInbound(msg []byte) {
	if len(msg) == 0 {
		return
	}
	switch msg[0] {
	case 0x02:
		if len(msg) < 7 {
			return
		}
		buttons := msg[1]
		x := uint16(msg[2]) | uint16(msg[3])<<8
		y := uint16(msg[4]) | uint16(msg[5])<<8
		wheel := int8(msg[6])
		hidX := uint16(uint32(x) * 4095 / 32767)
		hidY := uint16(uint32(y) * 4095 / 32767)
		if c.hidQueue != nil {
			c.hidQueue.Push(hid.MouseAbs{X: hidX, Y: hidY, Buttons: buttons, Wheel: wheel})
		}
	case 0x01:
		if len(msg) < 3 {
			return
		}
		if c.hidQueue != nil {
			c.hidQueue.Push(hid.Keyboard{Modifiers: msg[1], Keycode: msg[2]})
		}
	default:
		// Unrecognized message shape: dropped per spec.
	}
}

// pumpOneFrame implements phase 4.
func (c *Controller) pumpOneFrame(desired DesiredState) {
	if c.dev == nil {
		time.Sleep(idleSleep)
		return
	}

	buf, ok, err := c.dev.Dequeue(dequeueTimeout)
	if err != nil {
		log.Warn("pipeline: dequeue: %v", err)
		return
	}
	if !ok {
		c.consecutiveTimeouts++
		if c.consecutiveTimeouts > signalLossTimeoutCount {
			log.Warn("pipeline: signal loss, restarting capture")
			c.restartCaptureInPlace()
			c.consecutiveTimeouts = 0
		}
		return
	}
	c.consecutiveTimeouts = 0

	if c.sink != nil {
		if err := capture.ConvertToRGB24(c.currentCfg.PixelFormat, buf.Data, c.currentCfg.Width, c.currentCfg.Height, c.rgbBuf); err == nil {
			cp := append([]byte(nil), c.rgbBuf...)
			c.sink.OnFrame(cp, c.currentCfg.Width, c.currentCfg.Height)
		}
	}

	if c.enc != nil && c.srv != nil && c.srv.PeerCount() > 0 {
		c.enc.Encode(buf.Data, func(pkt encoder.Packet) {
			c.srv.Broadcast(pkt.Data)
		})
	}

	if err := c.dev.Enqueue(buf.Index); err != nil {
		log.Warn("pipeline: enqueue: %v", err)
	}
}

func (c *Controller) restartCaptureInPlace() {
	if c.dev == nil {
		return
	}
	if err := c.dev.Stop(); err != nil {
		log.Warn("pipeline: stop during restart: %v", err)
	}
	if err := c.dev.Start(c.currentCfg); err != nil {
		log.Warn("pipeline: restart failed: %v", err)
		c.mu.Lock()
		c.capturing = false
		c.mu.Unlock()
	}
}

func (c *Controller) teardown() {
	c.destroyEncoder()
	if c.srv != nil {
		c.srv.Close()
		c.srv = nil
	}
	if c.dev != nil {
		c.dev.Close()
		c.dev = nil
	}
}
