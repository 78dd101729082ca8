package hid

import (
	"math"
	"sync"
	"time"
)

// Mode selects how local pointer events are translated into HID commands.
type Mode int

const (
	// ModeNone discards local pointer and wheel events entirely. Keyboard
	// events (KeyEvent) are translated in every mode.
	ModeNone Mode = iota
	// ModeAbsolute maps pointer position through Geometry into absolute
	// device coordinates.
	ModeAbsolute
	// ModeRelative drives the touch-style relative gesture state machine.
	ModeRelative
)

const (
	moveRateLimit  = 20 * time.Millisecond // at most ~50 Hz of move events
	tapThresholdPx = 3                     // Manhattan distance under which a press+release counts as a tap/click
)

// Controller is the HID controller: it owns the command queue, the serial
// driver, the local-event translation state, and the 100 Hz consumer tick.
type Controller struct {
	queue  *Queue
	driver *Driver

	mu       sync.Mutex
	mode     Mode
	geometry Geometry

	// Relative-mode gesture state.
	lastReported   point
	pressStart     point
	isDown         bool
	isClick        bool
	totalMotion    int
	lastMoveTime   time.Time
	haveLastReport bool

	// Keyboard auto-repeat tracking: the set of toolkit keycodes currently
	// reported down, so a repeated key-down with no intervening key-up can
	// be discarded.
	keysDown map[ToolkitKeycode]bool
}

type point struct{ X, Y int }

// NewController wires a Controller to the given queue and serial driver.
// driver may be nil (e.g. in tests), in which case Tick logs nothing and
// simply drains the queue.
func NewController(queue *Queue, driver *Driver) *Controller {
	return &Controller{queue: queue, driver: driver, keysDown: make(map[ToolkitKeycode]bool)}
}

// SetMode switches the local-event translation mode, clearing any in-flight
// relative-mode gesture state.
func (c *Controller) SetMode(m Mode) {
	c.mu.Lock()
	c.mode = m
	c.isDown = false
	c.isClick = false
	c.haveLastReport = false
	for k := range c.keysDown {
		delete(c.keysDown, k)
	}
	c.mu.Unlock()
}

// Mode reports the current local-event translation mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetSourceSize updates the geometry cache's source resolution.
func (c *Controller) SetSourceSize(s Size) {
	c.mu.Lock()
	c.geometry.SetSourceSize(s)
	c.mu.Unlock()
}

// SetWidgetSize updates the geometry cache's widget size.
func (c *Controller) SetWidgetSize(s Size) {
	c.mu.Lock()
	c.geometry.SetWidgetSize(s)
	c.mu.Unlock()
}

// Tick is the 100 Hz consumer: it drains the command queue completely and
// writes one packet per command. Intended to be driven by a ticker on its
// own goroutine (T3 in the concurrency model); never blocks beyond the
// underlying non-blocking serial write.
func (c *Controller) Tick() {
	cmds := c.queue.DrainAll()
	if c.driver == nil {
		return
	}
	for _, cmd := range cmds {
		if err := c.driver.Send(cmd); err != nil {
			log.Warn("hid: serial write failed: %v", err)
		}
	}
}

// Run drives Tick on a 100 Hz ticker until stop is closed.
func (c *Controller) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// PointerMove handles a local pointer-move event at widget coordinates
// (px, py).
func (c *Controller) PointerMove(px, py int, buttonsDown bool) {
	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()

	switch mode {
	case ModeAbsolute:
		c.absoluteMove(px, py)
	case ModeRelative:
		c.relativeMove(px, py)
	}
}

// PointerButton handles a local button press/release at widget coordinates.
// button identifies which button (ButtonLeft, ButtonRight, ...); pressed is
// true on press, false on release.
func (c *Controller) PointerButton(px, py int, button byte, pressed bool) {
	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()

	switch mode {
	case ModeAbsolute:
		c.absoluteButton(px, py, button, pressed)
	case ModeRelative:
		c.relativeButton(px, py, button, pressed)
	}
}

// PointerWheel handles a wheel tick. Converted to a relative wheel command
// in both ModeAbsolute and ModeRelative, since the absolute protocol has no
// wheel; ignored in ModeNone.
func (c *Controller) PointerWheel(delta int) {
	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()
	if mode == ModeNone {
		return
	}
	sign := int8(0)
	if delta > 0 {
		sign = 1
	} else if delta < 0 {
		sign = -1
	}
	c.queue.Push(MouseRel{Wheel: sign})
}

// KeyEvent handles a local keyboard event reported in the toolkit's keycode
// space (§4.5 keyboard translation): code identifies the physical key,
// mods is the toolkit's Ctrl/Shift/Alt/Meta bitmask (modifier state, not a
// separate keycode), and pressed distinguishes key-down from key-up.
//
// Auto-repeat key-downs (a press for a key already tracked as down, with no
// intervening release) are discarded, since the wire protocol expects an
// explicit release between any two presses of the same key. A key-down
// produces Keyboard{mods, hid_code}; a key-up produces Keyboard{mods, 0}.
// Pressing only a modifier, with no other key down, still emits
// Keyboard{mods, 0} since there is no keycode for a modifier alone.
func (c *Controller) KeyEvent(code ToolkitKeycode, mods byte, pressed bool) {
	c.mu.Lock()
	if pressed {
		if c.keysDown[code] {
			c.mu.Unlock()
			return
		}
		c.keysDown[code] = true
	} else {
		delete(c.keysDown, code)
	}
	c.mu.Unlock()

	hidMods := translateModifiers(mods)
	var hidCode Keycode
	if pressed {
		hidCode = toolkitToHID[code] // zero value if unmapped: mods-only report
	}
	c.queue.Push(Keyboard{Modifiers: hidMods, Keycode: hidCode})
}

func (c *Controller) absoluteMove(px, py int) {
	now := time.Now()
	c.mu.Lock()
	if !c.lastMoveTime.IsZero() && now.Sub(c.lastMoveTime) < moveRateLimit {
		c.mu.Unlock()
		return
	}
	c.lastMoveTime = now
	x, y := c.geometry.ClampToHID(px, py)
	c.mu.Unlock()

	c.queue.Push(MouseAbs{X: x, Y: y})
}

func (c *Controller) absoluteButton(px, py int, button byte, pressed bool) {
	c.mu.Lock()
	x, y := c.geometry.ClampToHID(px, py)
	c.mu.Unlock()

	var buttons byte
	if pressed {
		buttons = button
	}
	// Button events always pass, bypassing the move rate limit.
	c.queue.Push(MouseAbs{X: x, Y: y, Buttons: buttons})
}

func (c *Controller) relativeMove(px, py int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isDown {
		return
	}

	dx := px - c.lastReported.X
	dy := py - c.lastReported.Y
	if manhattan(dx, dy) <= tapThresholdPx {
		return
	}

	c.lastReported = point{px, py}
	c.isClick = false
	c.queue.Push(MouseRel{DX: clampInt8(dx), DY: clampInt8(dy)})
}

func (c *Controller) relativeButton(px, py int, button byte, pressed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch button {
	case ButtonLeft:
		if pressed {
			c.pressStart = point{px, py}
			c.lastReported = point{px, py}
			c.isClick = true
			c.isDown = true
			return
		}
		// Release: emit a tap if motion since press stayed under threshold.
		if c.isClick {
			dx := px - c.pressStart.X
			dy := py - c.pressStart.Y
			if manhattan(dx, dy) < tapThresholdPx {
				c.queue.Push(MouseRel{Buttons: ButtonLeft})
				c.queue.Push(MouseRel{})
			}
		}
		c.isDown = false
		c.isClick = false
	case ButtonRight:
		if pressed {
			c.queue.Push(MouseRel{Buttons: ButtonRight})
			c.queue.Push(MouseRel{})
		}
	}
}

func manhattan(dx, dy int) int {
	return int(math.Abs(float64(dx)) + math.Abs(float64(dy)))
}
