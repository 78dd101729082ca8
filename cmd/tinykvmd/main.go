// Command tinykvmd bridges a local V4L2 capture device and a CH9329-class
// USB-HID emulator to a browser: it streams H.264 over a WebSocket and
// drives mouse/keyboard from the browser page back through the HID
// emulator.
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/sigmenx/tinykvm/internal/capture"
	"github.com/sigmenx/tinykvm/internal/hid"
	"github.com/sigmenx/tinykvm/internal/logging"
	"github.com/sigmenx/tinykvm/internal/pipeline"
)

var log = logging.DefaultLogger.WithTag("main")

func main() {
	flag.Parse()

	if flagHelp {
		help()
		os.Exit(0)
	}
	if flagVersion {
		version()
		os.Exit(0)
	}
	if flagLogLevel != "" {
		if level, err := logging.ParseLevel(flagLogLevel); err != nil {
			log.Error("--log-level: %v", err)
			os.Exit(1)
		} else {
			logging.SetDefaultLevel(level)
		}
	}

	pixelFormat, err := parsePixelFormat(flagPixelFormat)
	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}

	hidQueue := hid.NewQueue()

	hidDriver, err := hid.Open(flagHidPort, flagHidBaud)
	if err != nil {
		log.Warn("hid: %v (continuing without HID control)", err)
	}

	hidController := hid.NewController(hidQueue, hidDriver)
	stopHid := make(chan struct{})
	go hidController.Run(stopHid)

	ctrl := pipeline.New(hidQueue)
	ctrl.SetDesiredState(pipeline.DesiredState{
		Width:       flagWidth,
		Height:      flagHeight,
		PixelFormat: pixelFormat,
		FPS:         flagFPS,
		Bitrate:     flagBitrate * 1000,
		ServerOn:    !flagNoServer,
		ServerAddr:  flagServerAddr,
		DevicePath:  flagInput,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		close(stopHid)
		if hidDriver != nil {
			hidDriver.Close()
		}
		ctrl.Stop()
	}()

	log.Info("tinykvmd starting: %s %dx%d@%d, server=%v %s", flagInput, flagWidth, flagHeight, flagFPS, !flagNoServer, flagServerAddr)
	ctrl.Run()
}

func parsePixelFormat(s string) (capture.PixelFormat, error) {
	switch strings.ToUpper(s) {
	case "YUYV422", "YUYV":
		return capture.PixelFormatYUYV422, nil
	case "UYVY422", "UYVY":
		return capture.PixelFormatUYVY422, nil
	case "RGB565LE", "RGB565":
		return capture.PixelFormatRGB565LE, nil
	case "MJPEG", "MJPG":
		return capture.PixelFormatMJPEG, nil
	default:
		return capture.PixelFormatUnknown, errUnsupportedPixelFormat(s)
	}
}

type errUnsupportedPixelFormat string

func (e errUnsupportedPixelFormat) Error() string {
	return "unsupported pixel format: " + string(e)
}
