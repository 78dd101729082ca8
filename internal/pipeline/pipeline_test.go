package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sigmenx/tinykvm/internal/hid"
)

func TestRouteInboundMouseAbsRescalesToHIDSpace(t *testing.T) {
	q := hid.NewQueue()
	c := New(q)

	// x=32767,y=32767 (browser's max) must rescale to the HID max, 4095.
	msg := []byte{0x02, hid.ButtonLeft, 0xFF, 0x7F, 0xFF, 0x7F, 0x01}
	c.routeInbound(msg)

	cmds := q.DrainAll()
	if assertLen(t, cmds, 1) {
		m, ok := cmds[0].(hid.MouseAbs)
		if !ok {
			t.Fatalf("cmds[0] is %T, want hid.MouseAbs", cmds[0])
		}
		assert.Equal(t, uint16(4095), m.X)
		assert.Equal(t, uint16(4095), m.Y)
		assert.Equal(t, hid.ButtonLeft, m.Buttons)
	}
}

func TestRouteInboundMouseAbsOriginMapsToZero(t *testing.T) {
	q := hid.NewQueue()
	c := New(q)

	msg := []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	c.routeInbound(msg)

	cmds := q.DrainAll()
	if assertLen(t, cmds, 1) {
		m := cmds[0].(hid.MouseAbs)
		assert.Equal(t, uint16(0), m.X)
		assert.Equal(t, uint16(0), m.Y)
	}
}

func TestRouteInboundKeyboard(t *testing.T) {
	q := hid.NewQueue()
	c := New(q)

	c.routeInbound([]byte{0x01, hid.ModLeftShift, hid.KeyA})

	cmds := q.DrainAll()
	if assertLen(t, cmds, 1) {
		k := cmds[0].(hid.Keyboard)
		assert.Equal(t, hid.ModLeftShift, k.Modifiers)
		assert.Equal(t, hid.KeyA, k.Keycode)
	}
}

func TestRouteInboundUnknownLeadingByteDropped(t *testing.T) {
	q := hid.NewQueue()
	c := New(q)

	c.routeInbound([]byte{0xFF, 0x00})
	assert.Equal(t, 0, q.Len())
}

func TestRouteInboundTruncatedMessageDropped(t *testing.T) {
	q := hid.NewQueue()
	c := New(q)

	c.routeInbound([]byte{0x02, 0x00, 0x00}) // too short for MouseAbs
	assert.Equal(t, 0, q.Len())
}

func assertLen(t *testing.T, cmds []hid.Command, want int) bool {
	t.Helper()
	if len(cmds) != want {
		t.Errorf("len(cmds) = %d, want %d", len(cmds), want)
		return false
	}
	return true
}
