package hid

// Keycode is a USB-HID usage-page-0x07 keyboard keycode, as sent in a
// Keyboard command's Keycode field.
type Keycode = byte

// USB-HID keyboard usage IDs for the keys the browser client and local
// window-toolkit translators need to name. Not exhaustive: only the keys
// reachable from the supported input surfaces are listed, matching the
// teacher's habit of defining constants on demand rather than transcribing
// the entire USB HID usage table.
const (
	KeyA Keycode = 0x04
	KeyB Keycode = 0x05
	KeyC Keycode = 0x06
	KeyD Keycode = 0x07
	KeyE Keycode = 0x08
	KeyF Keycode = 0x09
	KeyG Keycode = 0x0A
	KeyH Keycode = 0x0B
	KeyI Keycode = 0x0C
	KeyJ Keycode = 0x0D
	KeyK Keycode = 0x0E
	KeyL Keycode = 0x0F
	KeyM Keycode = 0x10
	KeyN Keycode = 0x11
	KeyO Keycode = 0x12
	KeyP Keycode = 0x13
	KeyQ Keycode = 0x14
	KeyR Keycode = 0x15
	KeyS Keycode = 0x16
	KeyT Keycode = 0x17
	KeyU Keycode = 0x18
	KeyV Keycode = 0x19
	KeyW Keycode = 0x1A
	KeyX Keycode = 0x1B
	KeyY Keycode = 0x1C
	KeyZ Keycode = 0x1D

	Key1 Keycode = 0x1E
	Key2 Keycode = 0x1F
	Key3 Keycode = 0x20
	Key4 Keycode = 0x21
	Key5 Keycode = 0x22
	Key6 Keycode = 0x23
	Key7 Keycode = 0x24
	Key8 Keycode = 0x25
	Key9 Keycode = 0x26
	Key0 Keycode = 0x27

	KeyEnter     Keycode = 0x28
	KeyEscape    Keycode = 0x29
	KeyBackspace Keycode = 0x2A
	KeyTab       Keycode = 0x2B
	KeySpace     Keycode = 0x2C
	KeyMinus     Keycode = 0x2D
	KeyEqual     Keycode = 0x2E
	KeyLeftBrace Keycode = 0x2F
	KeyRightBrace Keycode = 0x30
	KeyBackslash Keycode = 0x31
	KeySemicolon Keycode = 0x33
	KeyApostrophe Keycode = 0x34
	KeyGrave     Keycode = 0x35
	KeyComma     Keycode = 0x36
	KeyDot       Keycode = 0x37
	KeySlash     Keycode = 0x38
	KeyCapsLock  Keycode = 0x39

	KeyF1  Keycode = 0x3A
	KeyF2  Keycode = 0x3B
	KeyF3  Keycode = 0x3C
	KeyF4  Keycode = 0x3D
	KeyF5  Keycode = 0x3E
	KeyF6  Keycode = 0x3F
	KeyF7  Keycode = 0x40
	KeyF8  Keycode = 0x41
	KeyF9  Keycode = 0x42
	KeyF10 Keycode = 0x43
	KeyF11 Keycode = 0x44
	KeyF12 Keycode = 0x45

	KeyPrintScreen Keycode = 0x46
	KeyScrollLock  Keycode = 0x47
	KeyPause       Keycode = 0x48
	KeyInsert      Keycode = 0x49
	KeyHome        Keycode = 0x4A
	KeyPageUp      Keycode = 0x4B
	KeyDelete      Keycode = 0x4C
	KeyEnd         Keycode = 0x4D
	KeyPageDown    Keycode = 0x4E
	KeyRight       Keycode = 0x4F
	KeyLeft        Keycode = 0x50
	KeyDown        Keycode = 0x51
	KeyUp          Keycode = 0x52
)

// Keyboard modifier bits, ORed together into a Keyboard command's Modifiers
// byte (USB HID boot-protocol modifier byte layout).
const (
	ModLeftCtrl   byte = 1 << 0
	ModLeftShift  byte = 1 << 1
	ModLeftAlt    byte = 1 << 2
	ModLeftMeta   byte = 1 << 3
	ModRightCtrl  byte = 1 << 4
	ModRightShift byte = 1 << 5
	ModRightAlt   byte = 1 << 6
	ModRightMeta  byte = 1 << 7
)

// ToolkitKeycode identifies a key in the local windowing toolkit's keycode
// space, which this package takes to be Linux evdev keycodes (the space a
// toolkit delivers raw key events in on the platforms this runs on).
type ToolkitKeycode int

// Linux evdev keycodes for the keys KeyEvent understands, named the way the
// toolkit reports them rather than after the HID usage they translate to.
const (
	evEsc       ToolkitKeycode = 1
	ev1         ToolkitKeycode = 2
	ev2         ToolkitKeycode = 3
	ev3         ToolkitKeycode = 4
	ev4         ToolkitKeycode = 5
	ev5         ToolkitKeycode = 6
	ev6         ToolkitKeycode = 7
	ev7         ToolkitKeycode = 8
	ev8         ToolkitKeycode = 9
	ev9         ToolkitKeycode = 10
	ev0         ToolkitKeycode = 11
	evMinus     ToolkitKeycode = 12
	evEqual     ToolkitKeycode = 13
	evBackspace ToolkitKeycode = 14
	evTab       ToolkitKeycode = 15
	evQ         ToolkitKeycode = 16
	evW         ToolkitKeycode = 17
	evE         ToolkitKeycode = 18
	evR         ToolkitKeycode = 19
	evT         ToolkitKeycode = 20
	evY         ToolkitKeycode = 21
	evU         ToolkitKeycode = 22
	evI         ToolkitKeycode = 23
	evO         ToolkitKeycode = 24
	evP         ToolkitKeycode = 25
	evLeftBrace ToolkitKeycode = 26
	evRightBrace ToolkitKeycode = 27
	evEnter     ToolkitKeycode = 28
	evLeftCtrl  ToolkitKeycode = 29
	evA         ToolkitKeycode = 30
	evS         ToolkitKeycode = 31
	evD         ToolkitKeycode = 32
	evF         ToolkitKeycode = 33
	evG         ToolkitKeycode = 34
	evH         ToolkitKeycode = 35
	evJ         ToolkitKeycode = 36
	evK         ToolkitKeycode = 37
	evL         ToolkitKeycode = 38
	evSemicolon ToolkitKeycode = 39
	evApostrophe ToolkitKeycode = 40
	evGrave     ToolkitKeycode = 41
	evLeftShift ToolkitKeycode = 42
	evBackslash ToolkitKeycode = 43
	evZ         ToolkitKeycode = 44
	evX         ToolkitKeycode = 45
	evC         ToolkitKeycode = 46
	evV         ToolkitKeycode = 47
	evB         ToolkitKeycode = 48
	evN         ToolkitKeycode = 49
	evM         ToolkitKeycode = 50
	evComma     ToolkitKeycode = 51
	evDot       ToolkitKeycode = 52
	evSlash     ToolkitKeycode = 53
	evRightShift ToolkitKeycode = 54
	evLeftAlt   ToolkitKeycode = 56
	evSpace     ToolkitKeycode = 57
	evCapsLock  ToolkitKeycode = 58
	evF1        ToolkitKeycode = 59
	evF2        ToolkitKeycode = 60
	evF3        ToolkitKeycode = 61
	evF4        ToolkitKeycode = 62
	evF5        ToolkitKeycode = 63
	evF6        ToolkitKeycode = 64
	evF7        ToolkitKeycode = 65
	evF8        ToolkitKeycode = 66
	evF9        ToolkitKeycode = 67
	evF10       ToolkitKeycode = 68
	evRightCtrl ToolkitKeycode = 97
	evRightAlt  ToolkitKeycode = 100
	evHome      ToolkitKeycode = 102
	evUp        ToolkitKeycode = 103
	evPageUp    ToolkitKeycode = 104
	evLeft      ToolkitKeycode = 105
	evRight     ToolkitKeycode = 106
	evEnd       ToolkitKeycode = 107
	evDown      ToolkitKeycode = 108
	evPageDown  ToolkitKeycode = 109
	evInsert    ToolkitKeycode = 110
	evDelete    ToolkitKeycode = 111
	evF11       ToolkitKeycode = 87
	evF12       ToolkitKeycode = 88
	evLeftMeta  ToolkitKeycode = 125
	evRightMeta ToolkitKeycode = 126
)

// toolkitToHID maps the toolkit keycode space to USB-HID usage IDs. Plain
// modifier keys (Ctrl/Shift/Alt/Meta, left or right) are intentionally
// absent: the toolkit reports those through the modifier bitmask passed
// alongside every event, not as a keycode of their own, so "Ctrl alone"
// produces a Keyboard{mods, 0} with no entry looked up here.
var toolkitToHID = map[ToolkitKeycode]Keycode{
	evA: KeyA, evB: KeyB, evC: KeyC, evD: KeyD, evE: KeyE, evF: KeyF, evG: KeyG,
	evH: KeyH, evI: KeyI, evJ: KeyJ, evK: KeyK, evL: KeyL, evM: KeyM, evN: KeyN,
	evO: KeyO, evP: KeyP, evQ: KeyQ, evR: KeyR, evS: KeyS, evT: KeyT, evU: KeyU,
	evV: KeyV, evW: KeyW, evX: KeyX, evY: KeyY, evZ: KeyZ,

	ev1: Key1, ev2: Key2, ev3: Key3, ev4: Key4, ev5: Key5,
	ev6: Key6, ev7: Key7, ev8: Key8, ev9: Key9, ev0: Key0,

	evEnter: KeyEnter, evEsc: KeyEscape, evBackspace: KeyBackspace, evTab: KeyTab,
	evSpace: KeySpace, evMinus: KeyMinus, evEqual: KeyEqual,
	evLeftBrace: KeyLeftBrace, evRightBrace: KeyRightBrace, evBackslash: KeyBackslash,
	evSemicolon: KeySemicolon, evApostrophe: KeyApostrophe, evGrave: KeyGrave,
	evComma: KeyComma, evDot: KeyDot, evSlash: KeySlash, evCapsLock: KeyCapsLock,

	evF1: KeyF1, evF2: KeyF2, evF3: KeyF3, evF4: KeyF4, evF5: KeyF5, evF6: KeyF6,
	evF7: KeyF7, evF8: KeyF8, evF9: KeyF9, evF10: KeyF10, evF11: KeyF11, evF12: KeyF12,

	evInsert: KeyInsert, evHome: KeyHome, evPageUp: KeyPageUp, evDelete: KeyDelete,
	evEnd: KeyEnd, evPageDown: KeyPageDown,
	evRight: KeyRight, evLeft: KeyLeft, evDown: KeyDown, evUp: KeyUp,
}

// Toolkit modifier bits, as reported alongside a key event: one bit per
// logical modifier with no left/right distinction.
const (
	ToolkitCtrl  byte = 1 << 0
	ToolkitShift byte = 1 << 1
	ToolkitAlt   byte = 1 << 2
	ToolkitMeta  byte = 1 << 3
)

// translateModifiers maps the toolkit's logical Ctrl/Shift/Alt/Meta bits
// onto the HID boot-protocol modifier byte's left-hand bits. The bit
// positions happen to coincide (both are Ctrl=bit0, Shift=bit1, Alt=bit2,
// Meta=bit3), but this is spelled out explicitly rather than passed
// through, since the two bytes mean different things and would silently
// drift apart if either numbering ever changed.
func translateModifiers(toolkitMods byte) byte {
	var hidMods byte
	if toolkitMods&ToolkitCtrl != 0 {
		hidMods |= ModLeftCtrl
	}
	if toolkitMods&ToolkitShift != 0 {
		hidMods |= ModLeftShift
	}
	if toolkitMods&ToolkitAlt != 0 {
		hidMods |= ModLeftAlt
	}
	if toolkitMods&ToolkitMeta != 0 {
		hidMods |= ModLeftMeta
	}
	return hidMods
}
