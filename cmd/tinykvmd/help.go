package main

import (
	"fmt"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"
)

var (
	flagInput       string
	flagWidth       int
	flagHeight      int
	flagFPS         int
	flagPixelFormat string
	flagBitrate     int

	flagServerAddr string
	flagNoServer   bool

	flagHidPort string
	flagHidBaud int

	flagLogLevel string

	flagHelp    bool
	flagVersion bool
)

func init() {
	flag.StringVarP(&flagInput, "input", "i", "/dev/video0", "V4L2 capture device")
	flag.IntVarP(&flagWidth, "width", "x", 1280, "Capture width")
	flag.IntVarP(&flagHeight, "height", "y", 720, "Capture height")
	flag.IntVarP(&flagFPS, "fps", "r", 30, "Capture framerate")
	flag.StringVarP(&flagPixelFormat, "format", "f", "YUYV422", "Capture pixel format: YUYV422, UYVY422, RGB565LE, MJPEG")
	flag.IntVarP(&flagBitrate, "bitrate", "b", 2000, "Video bitrate, in Kbps")

	flag.StringVarP(&flagServerAddr, "listen", "l", ":8080", "Broadcast server listen address")
	flag.BoolVar(&flagNoServer, "no-server", false, "Disable the broadcast server (capture only)")

	flag.StringVar(&flagHidPort, "hid-port", "/dev/ttyUSB0", "CH9329 HID emulator serial port")
	flag.IntVar(&flagHidBaud, "hid-baud", 9600, "HID emulator serial baud rate")

	flag.StringVar(&flagLogLevel, "log-level", "", "Override LOGLEVEL's default level (e.g. debug, warn); tag=level directives are not accepted")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

const helpString = `IP-KVM bridge: V4L2 capture, H.264 encode, browser broadcast, USB-HID control

Usage: tinykvmd [OPTION]...

Video source:
  -i, --input=FILE       V4L2 capture device (default: /dev/video0)
  -x, --width=NUM        Capture width (default: 1280)
  -y, --height=NUM       Capture height (default: 720)
  -r, --fps=NUM          Capture framerate (default: 30)
  -f, --format=NAME      Capture pixel format (default: YUYV422)
  -b, --bitrate=NUM      Video bitrate, in Kbps (default: 2000)

Broadcast server:
  -l, --listen=ADDR      Listen address (default: :8080)
      --no-server        Disable the broadcast server

HID control:
      --hid-port=DEV     CH9329 serial port (default: /dev/ttyUSB0)
      --hid-baud=NUM     CH9329 serial baud rate (default: 9600)

Miscellaneous:
      --log-level=LEVEL  Override LOGLEVEL's default level
  -h, --help             Prints this help message and exits
  -v, --version          Prints version information and exits
`

func help() {
	b := color.New(color.FgCyan)
	g := color.New(color.FgGreen)

	g.Println(" _    _             _             _")
	b.Println("| |_ (_) _ _  _  _ | |__ __ __ __ | |__")
	g.Println("|  _|| || ' \\| || || / /\\ V /| ' \\ _ _")
	b.Println(" \\__||_||_||_|\\_, ||_\\_\\ \\_/ |_||_|(_|_)")
	g.Println("              |__/")

	fmt.Println(helpString)
}

func version() {
	fmt.Println("tinykvmd (development build)")
}
