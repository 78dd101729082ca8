package broadcast

import (
	"time"

	"github.com/gorilla/websocket"
)

// peerState tracks a connected browser's lifecycle.
type peerState int

const (
	peerOpen peerState = iota
	peerClosing
)

// peer wraps one upgraded WebSocket connection. Touched exclusively by the
// single pipeline worker that owns the Server; no internal locking.
type peer struct {
	conn  *websocket.Conn
	state peerState
}

// pollTimeout bounds how long a single non-blocking read/write attempt may
// take before giving up for this tick; kept tiny since the caller is a
// worker loop that must not stall on one slow peer.
const pollTimeout = 1 * time.Millisecond

// maxInboundFrameBytes is the largest inbound control frame this server
// accepts. Pointer/keyboard events are a handful of bytes; anything past
// this is ignored rather than forwarded, per the documented wire contract.
const maxInboundFrameBytes = 125

func newPeer(conn *websocket.Conn) *peer {
	return &peer{conn: conn, state: peerOpen}
}

// writeBinary sends one binary WebSocket frame, opcode 0x2, unmasked
// (server-to-client frames are never masked per RFC 6455).
func (p *peer) writeBinary(data []byte) error {
	p.conn.SetWriteDeadline(time.Now().Add(pollTimeout))
	return p.conn.WriteMessage(websocket.BinaryMessage, data)
}

// tryReadMessage performs one non-blocking read attempt. Returns
// (nil, false, nil) if nothing was available within pollTimeout.
func (p *peer) tryReadMessage() (data []byte, ok bool, err error) {
	p.conn.SetReadDeadline(time.Now().Add(pollTimeout))
	typ, msg, err := p.conn.ReadMessage()
	if err != nil {
		if ne, isNet := err.(interface{ Timeout() bool }); isNet && ne.Timeout() {
			return nil, false, nil
		}
		return nil, false, err
	}
	if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
		return nil, false, nil
	}
	if len(msg) > maxInboundFrameBytes {
		// Oversized frame: dropped outright, not partially accepted.
		return nil, false, nil
	}
	return msg, true, nil
}

func (p *peer) close() {
	p.conn.Close()
}
