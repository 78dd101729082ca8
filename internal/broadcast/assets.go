package broadcast

// indexHTML is the small HTML shell served at "/" and "/index.html": a
// canvas-less video element fed by jmuxer.min.js over the WebSocket
// connection opened at "/ws". Pointer and key events are packed into the
// same binary frames routeInbound parses: 0x02 for absolute mouse state
// (buttons, x, y scaled to 0..32767, signed wheel delta) and 0x01 for a
// keyboard report (modifier byte, HID keycode). The page does not map
// browser keys to HID keycodes: every key-down sends a 0x01 frame whose
// modifier and keycode bytes are both zero, and key-up sends nothing.
const indexHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>tinykvm</title></head>
<body style="margin:0;background:#000">
<video id="v" autoplay muted playsinline style="width:100%;height:100%"></video>
<script src="/jmuxer.min.js"></script>
<script>
var ws = new WebSocket("ws://" + location.host + "/ws");
ws.binaryType = "arraybuffer";
var jmuxer = new JMuxer({node: "v", mode: "video", flushingTime: 0});
ws.onmessage = function(ev) {
  jmuxer.feed({video: new Uint8Array(ev.data)});
};

var video = document.getElementById("v");
var buttons = 0;

function sendMouse(ev, wheel) {
  if (ws.readyState !== WebSocket.OPEN) return;
  var rect = video.getBoundingClientRect();
  var x = Math.max(0, Math.min(32767, Math.round((ev.clientX - rect.left) / rect.width * 32767)));
  var y = Math.max(0, Math.min(32767, Math.round((ev.clientY - rect.top) / rect.height * 32767)));
  var frame = new Uint8Array(7);
  frame[0] = 0x02;
  frame[1] = buttons;
  frame[2] = x & 0xff;
  frame[3] = (x >> 8) & 0xff;
  frame[4] = y & 0xff;
  frame[5] = (y >> 8) & 0xff;
  frame[6] = (wheel || 0) & 0xff;
  ws.send(frame.buffer);
}

function buttonBit(n) {
  return n === 2 ? 2 : n === 1 ? 4 : 1; // left=bit0, right=bit1, middle=bit2
}

video.addEventListener("mousemove", function(ev) { sendMouse(ev, 0); });
video.addEventListener("mousedown", function(ev) {
  buttons |= buttonBit(ev.button);
  sendMouse(ev, 0);
});
video.addEventListener("mouseup", function(ev) {
  buttons &= ~buttonBit(ev.button);
  sendMouse(ev, 0);
});
video.addEventListener("wheel", function(ev) {
  sendMouse(ev, ev.deltaY > 0 ? -1 : 1);
  ev.preventDefault();
}, {passive: false});
video.addEventListener("contextmenu", function(ev) { ev.preventDefault(); });

document.addEventListener("keydown", function(ev) {
  if (ws.readyState !== WebSocket.OPEN) return;
  ws.send(new Uint8Array([0x01, 0, 0]).buffer);
});
</script>
</body>
</html>
`

// jmuxerJS is a minimal Annex-B H.264-over-MediaSource demuxer, standing in
// for the real jmuxer.min.js client library referenced by the original
// implementation's embedded Qt resource bundle (not present in this tree;
// this stub implements just enough of its public surface — the
// constructor and feed() — for the page above to drive MediaSource).
const jmuxerJS = `
function JMuxer(opts) {
  this.node = document.getElementById(opts.node);
  this.mediaSource = new MediaSource();
  this.node.src = URL.createObjectURL(this.mediaSource);
  this.queue = [];
  var self = this;
  this.mediaSource.addEventListener("sourceopen", function() {
    self.sourceBuffer = self.mediaSource.addSourceBuffer('video/mp4; codecs="avc1.42E01E"');
    self.sourceBuffer.addEventListener("updateend", function() { self._pump(); });
  });
}
JMuxer.prototype.feed = function(data) {
  this.queue.push(data.video);
  this._pump();
};
JMuxer.prototype._pump = function() {
  if (!this.sourceBuffer || this.sourceBuffer.updating || this.queue.length === 0) return;
  this.sourceBuffer.appendBuffer(this.queue.shift());
};
`
