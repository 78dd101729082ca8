// Package broadcast implements the non-blocking WebSocket fan-out server:
// a listening socket that the pipeline worker polls for new connections,
// inbound browser messages, and outbound frame broadcasts — all without
// ever blocking the worker.
//
// Grounded on the original implementation's WebServer class
// (padskvm/Driver/drv_webserver.cpp: non-blocking accept, bounded header
// read, path dispatch, length-prefixed binary broadcast frame, masked
// inbound frame decode) and on the teacher's internal/signaling/local.go
// for the idiomatic Go counterpart — gorilla/websocket's Upgrader — used
// here via a custom http.Hijacker shim since the worker owns the accept
// loop itself rather than handing it to http.Server.
package broadcast

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/sigmenx/tinykvm/internal/logging"
)

var log = logging.DefaultLogger.WithTag("broadcast")

// maxHeaderBytes bounds the one-shot HTTP request head read performed
// before routing, matching the original's 2 KB stack buffer.
const maxHeaderBytes = 2048

const acceptPollTimeout = 1 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server owns the listening socket and the set of connected peers. Every
// method is intended to be called from a single goroutine (the pipeline
// worker); none of it is safe for concurrent use.
type Server struct {
	listener net.Listener
	peers    []*peer
}

// Listen opens a non-blocking, address-reusable listening socket on addr
// (e.g. ":8080"). Does not accept connections; call PollAccept for that.
func Listen(addr string) (*Server, error) {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(nil, "tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "broadcast: listen")
	}
	return &Server{listener: ln}, nil
}

// Close closes the listener and every open peer connection.
func (s *Server) Close() error {
	for _, p := range s.peers {
		p.close()
	}
	s.peers = nil
	return s.listener.Close()
}

// PeerCount reports the number of currently open peers.
func (s *Server) PeerCount() int {
	return len(s.peers)
}

// PollAccept attempts one non-blocking accept. On a new connection it reads
// the HTTP request head (bounded) and dispatches: a WebSocket upgrade
// request becomes a new Open peer; a plain GET for "/" or "/index.html" or
// "/jmuxer.min.js" gets a one-shot response; anything else is closed
// without a response.
func (s *Server) PollAccept() error {
	if dl, ok := s.listener.(interface{ SetDeadline(time.Time) error }); ok {
		dl.SetDeadline(time.Now().Add(acceptPollTimeout))
	}

	conn, err := s.listener.Accept()
	if err != nil {
		if ne, isNet := err.(net.Error); isNet && ne.Timeout() {
			return nil
		}
		return errors.Wrap(err, "broadcast: accept")
	}

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	br := bufio.NewReader(io.LimitReader(conn, maxHeaderBytes))
	req, err := http.ReadRequest(br)
	if err != nil {
		conn.Close()
		return nil
	}
	conn.SetReadDeadline(time.Time{})

	if websocket.IsWebSocketUpgrade(req) {
		shim := newHijackShim(conn, br)
		wsConn, err := upgrader.Upgrade(shim, req, nil)
		if err != nil {
			log.Warn("broadcast: handshake failed: %v", err)
			conn.Close()
			return nil
		}
		s.peers = append(s.peers, newPeer(wsConn))
		log.Info("broadcast: new peer, %d connected", len(s.peers))
		return nil
	}

	s.serveHTTPOneShot(conn, req)
	return nil
}

func (s *Server) serveHTTPOneShot(conn net.Conn, req *http.Request) {
	defer conn.Close()

	var body []byte
	var contentType string
	switch req.URL.Path {
	case "/", "/index.html":
		body = []byte(indexHTML)
		contentType = "text/html"
	case "/jmuxer.min.js":
		body = []byte(jmuxerJS)
		contentType = "application/javascript"
	default:
		// Any other path: closed without a response.
		return
	}

	writeStatusLine(conn, 200, "OK", body, contentType)
}

func writeStatusLine(conn net.Conn, code int, reason string, body []byte, contentType string) {
	bw := bufio.NewWriter(conn)
	bw.WriteString("HTTP/1.1 " + itoa(code) + " " + reason + "\r\n")
	if contentType != "" {
		bw.WriteString("Content-Type: " + contentType + "\r\n")
	}
	bw.WriteString("Content-Length: " + itoa(len(body)) + "\r\n\r\n")
	bw.Write(body)
	bw.Flush()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Broadcast writes one binary WebSocket frame containing data to every
// Open peer. A peer whose write fails is dropped from the peer set and its
// socket closed before the next peer is attempted.
func (s *Server) Broadcast(data []byte) {
	if len(s.peers) == 0 {
		return
	}

	live := s.peers[:0]
	for _, p := range s.peers {
		if err := p.writeBinary(data); err != nil {
			p.close()
			continue
		}
		live = append(live, p)
	}
	s.peers = live
}

// InboundMessage is one decoded frame returned by PollInbound.
type InboundMessage struct {
	Data []byte
}

// PollInbound performs one non-blocking read per peer and returns every
// message received this tick, in peer-iteration order. Close frames remove
// the peer (handled internally by gorilla/websocket's ReadMessage, which
// surfaces a CloseError); frames over maxInboundFrameBytes are dropped
// whole by tryReadMessage rather than returned, matching the documented
// inbound wire contract.
func (s *Server) PollInbound() []InboundMessage {
	var out []InboundMessage
	live := s.peers[:0]
	for _, p := range s.peers {
		data, ok, err := p.tryReadMessage()
		if err != nil {
			p.close()
			continue
		}
		live = append(live, p)
		if ok {
			out = append(out, InboundMessage{Data: data})
		}
	}
	s.peers = live
	return out
}
