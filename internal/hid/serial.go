package hid

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	"github.com/tarm/serial"

	"github.com/sigmenx/tinykvm/internal/logging"
)

var log = logging.DefaultLogger.WithTag("hid")

// Wire protocol constants for the CH9329-class serial HID emulator. Ported
// from TinyQtKvm/drv_ch9329.cpp's constant block.
const (
	frameHead0 = 0x57
	frameHead1 = 0xAB
	frameAddr  = 0x00

	cmdGetInfo      = 0x01
	cmdSendKeyboard = 0x02
	cmdSendMouseAbs = 0x04
	cmdSendMouseRel = 0x05
)

// ErrHandshakeFailed is returned by Open when the device does not answer a
// get-info request with a frame beginning with the expected header byte.
var ErrHandshakeFailed = errors.New("hid: handshake failed")

// Driver owns the serial connection to the HID emulator and translates
// Commands into framed writes. It is the single owner of the port; only the
// consumer goroutine (and the synchronous handshake performed by Open) ever
// touch it, per the spec's concurrency model.
type Driver struct {
	port *serial.Port
}

// Open configures and opens the serial port, then performs a synchronous
// get-info handshake to confirm a responsive device is on the other end.
func Open(name string, baud int) (*Driver, error) {
	cfg := &serial.Config{
		Name:        name,
		Baud:        baud,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 300 * time.Millisecond,
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "hid: open %s", name)
	}

	d := &Driver{port: port}
	if err := d.checkConnection(); err != nil {
		port.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the serial port.
func (d *Driver) Close() error {
	return d.port.Close()
}

// checkConnection sends a get-info request and waits (synchronously, only
// valid during Open) for a reply beginning with the protocol's header byte.
func (d *Driver) checkConnection() error {
	if err := d.sendPacket(cmdGetInfo, nil); err != nil {
		return errors.Wrap(err, "hid: get-info write")
	}

	resp := make([]byte, 64)
	n, err := d.port.Read(resp)
	if err != nil || n == 0 || resp[0] != frameHead0 {
		return ErrHandshakeFailed
	}
	return nil
}

// Send writes the framed serial packet for a single Command. Writes are
// non-blocking from the caller's perspective: they queue into the serial
// driver's own output buffer.
func (d *Driver) Send(cmd Command) error {
	switch c := cmd.(type) {
	case MouseAbs:
		x, y := clampAbs(c.X), clampAbs(c.Y)
		payload := []byte{
			0x02, c.Buttons,
			byte(x), byte(x >> 8),
			byte(y), byte(y >> 8),
			byte(c.Wheel),
		}
		return d.sendPacket(cmdSendMouseAbs, payload)
	case MouseRel:
		payload := []byte{0x01, c.Buttons, byte(c.DX), byte(c.DY), byte(c.Wheel)}
		return d.sendPacket(cmdSendMouseRel, payload)
	case Keyboard:
		payload := []byte{c.Modifiers, 0x00, c.Keycode, 0, 0, 0, 0, 0}
		return d.sendPacket(cmdSendKeyboard, payload)
	default:
		return errors.Errorf("hid: unknown command type %T", cmd)
	}
}

// clampAbs enforces the wire format's 1..4095 range for absolute coordinates
// (spec §6: "x,y in 1..=4095 (clamped)").
func clampAbs(v uint16) uint16 {
	if v < 1 {
		return 1
	}
	if v > 4095 {
		return 4095
	}
	return v
}

// sendPacket assembles and writes one framed packet:
// [0x57][0xAB][0x00][cmd][len][payload...][sum], where sum is the truncated
// 8-bit sum of every preceding byte.
func (d *Driver) sendPacket(cmd byte, payload []byte) error {
	var buf bytes.Buffer
	buf.WriteByte(frameHead0)
	buf.WriteByte(frameHead1)
	buf.WriteByte(frameAddr)
	buf.WriteByte(cmd)
	buf.WriteByte(byte(len(payload)))
	buf.Write(payload)

	sum := byte(0)
	for _, b := range buf.Bytes() {
		sum += b
	}
	buf.WriteByte(sum)

	_, err := d.port.Write(buf.Bytes())
	return err
}

// EncodeFrame is the pure, side-effect-free half of sendPacket, exposed for
// tests that want to assert on wire bytes without a real serial port.
func EncodeFrame(cmd byte, payload []byte) []byte {
	frame := make([]byte, 0, 5+len(payload)+1)
	frame = append(frame, frameHead0, frameHead1, frameAddr, cmd, byte(len(payload)))
	frame = append(frame, payload...)

	var sum byte
	for _, b := range frame {
		sum += b
	}
	return append(frame, sum)
}
