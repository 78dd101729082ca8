package broadcast

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeHTTPOneShotIndex(t *testing.T) {
	s := &Server{}
	client, server := net.Pipe()
	defer client.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	go s.serveHTTPOneShot(server, req)

	resp, err := http.ReadResponse(bufio.NewReader(client), req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
}

func TestServeHTTPOneShotJmuxer(t *testing.T) {
	s := &Server{}
	client, server := net.Pipe()
	defer client.Close()

	req := httptest.NewRequest(http.MethodGet, "/jmuxer.min.js", nil)
	go s.serveHTTPOneShot(server, req)

	resp, err := http.ReadResponse(bufio.NewReader(client), req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))
}

func TestServeHTTPOneShotUnknownPathClosedWithoutResponse(t *testing.T) {
	s := &Server{}
	client, server := net.Pipe()
	defer client.Close()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	go s.serveHTTPOneShot(server, req)

	resp, err := http.ReadResponse(bufio.NewReader(client), req)
	require.Error(t, err)
	assert.Nil(t, resp)
}

func TestBroadcastOnEmptyPeerSetIsNoop(t *testing.T) {
	s := &Server{}
	s.Broadcast([]byte{0x01, 0x02})
	assert.Equal(t, 0, s.PeerCount())
}

func TestBroadcastDropsFailingPeers(t *testing.T) {
	// A peer whose underlying connection is broken must be dropped from the
	// set, rather than aborting the broadcast to the remaining peers.
	s := &Server{}
	client, server := net.Pipe()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

	upgraded := make(chan *websocket.Conn, 1)
	go func() {
		br := bufio.NewReader(server)
		shim := newHijackShim(server, br)
		wsConn, err := upgrader.Upgrade(shim, req, nil)
		if err != nil {
			upgraded <- nil
			return
		}
		upgraded <- wsConn
	}()

	resp, err := http.ReadResponse(bufio.NewReader(client), req)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	wsConn := <-upgraded
	require.NotNil(t, wsConn)

	// Close the client half so the next write on the server half observes
	// a broken connection instead of succeeding.
	client.Close()

	s.peers = []*peer{newPeer(wsConn)}
	s.Broadcast([]byte{0x01, 0x02})

	assert.Equal(t, 0, s.PeerCount())
}

func TestItoa(t *testing.T) {
	assert.Equal(t, "0", itoa(0))
	assert.Equal(t, "404", itoa(404))
	assert.Equal(t, "8080", itoa(8080))
}
