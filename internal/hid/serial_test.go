package hid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeFrameChecksum(t *testing.T) {
	frame := EncodeFrame(cmdGetInfo, nil)
	assert.Equal(t, []byte{0x57, 0xAB, 0x00, 0x01, 0x00}, frame[:5])

	var sum byte
	for _, b := range frame[:len(frame)-1] {
		sum += b
	}
	assert.Equal(t, sum, frame[len(frame)-1], "trailing byte must be the truncated 8-bit sum of the rest")
}

func TestEncodeFrameMouseAbsPayload(t *testing.T) {
	payload := []byte{0x02, ButtonLeft, 0xFF, 0x0F, 0x01, 0x00, 0x00}
	frame := EncodeFrame(cmdSendMouseAbs, payload)

	assert.Equal(t, byte(0x04), frame[3], "command byte")
	assert.Equal(t, byte(len(payload)), frame[4], "length byte")
	assert.Equal(t, payload, frame[5:5+len(payload)])
}

func TestClampAbsRange(t *testing.T) {
	assert.Equal(t, uint16(1), clampAbs(0))
	assert.Equal(t, uint16(4095), clampAbs(5000))
	assert.Equal(t, uint16(2048), clampAbs(2048))
}
