// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// pi0disp drives an SPI-attached ST7789V panel: still images, demo
// animations and power control.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/ytani01/pi0disp/conf"
	"github.com/ytani01/pi0disp/httpmirror"
	"github.com/ytani01/pi0disp/st7789v"
	"github.com/ytani01/pi0disp/termdisp"
)

const usage = `usage: pi0disp <command> [flags]

commands:
  image <file>   display an image file
  text <msg>     display a text message
  balls          bouncing balls animation
  face           analog clock face
  coltest        color test pattern
  sleep          put the panel to sleep
  wake           wake the panel up
  off            turn the display off
  bl <on|off>    switch the backlight

common flags:
  -conf path     configuration file (default /etc/pi0disp.toml)
  -rotation deg  override the configured rotation (0, 90, 180, 270)
  -term          preview on the terminal as well
  -http addr     serve an MJPEG mirror of the frames on addr
  -nohw          do not touch the hardware, previews only
  -v             verbose logging
`

type app struct {
	cfg    *conf.Config
	dev    *st7789v.Dev
	term   *termdisp.Dev
	mirror *httpmirror.Mirror

	// Per-command options.
	fill     bool
	fontPath string
	fontSize float64
	nBalls   int
	hold     time.Duration
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "pi0disp: %s.\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}
	cmd := os.Args[1]
	run, ok := map[string]func(*app, *flag.FlagSet, []string) error{
		"image":   cmdImage,
		"text":    cmdText,
		"balls":   cmdBalls,
		"face":    cmdFace,
		"coltest": cmdColTest,
		"sleep":   cmdSleep,
		"wake":    cmdWake,
		"off":     cmdOff,
		"bl":      cmdBacklight,
	}[cmd]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	confPath := fs.String("conf", "/etc/pi0disp.toml", "configuration file")
	rotation := fs.Int("rotation", -1, "override the configured rotation")
	term := fs.Bool("term", false, "preview on the terminal")
	httpAddr := fs.String("http", "", "serve an MJPEG mirror on this address")
	noHW := fs.Bool("nohw", false, "do not touch the hardware")
	verbose := fs.Bool("v", false, "verbose logging")

	a := &app{}
	fs.BoolVar(&a.fill, "fill", false, "image: crop to fill the panel instead of letterboxing")
	fs.StringVar(&a.fontPath, "font", "", "text: TrueType font file")
	fs.Float64Var(&a.fontSize, "size", 32, "text: font size in points")
	fs.IntVar(&a.nBalls, "n", 10, "balls: number of balls")
	fs.DurationVar(&a.hold, "hold", 0, "keep a still image shown this long, 0 until interrupted")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	cfg, err := conf.Load(*confPath)
	if err != nil {
		return err
	}
	if *rotation >= 0 {
		cfg.Panel.Rotation = *rotation
	}

	// The power commands set a panel state that must survive process exit;
	// Close would shut the display down again.
	persistent := map[string]bool{"sleep": true, "wake": true, "off": true, "bl": true}[cmd]

	a.cfg = cfg
	if !*noHW {
		if a.dev, err = openDisplay(cfg); err != nil {
			return err
		}
		if !persistent {
			defer a.dev.Close()
		}
		log.Printf("opened %s", a.dev)
	} else if !*term && *httpAddr == "" {
		return fmt.Errorf("-nohw requires -term or -http")
	}

	w, h := panelSize(cfg)
	if *term {
		// A terminal cell is a huge pixel; shrink the preview.
		a.term = termdisp.New(&termdisp.Opts{W: w / 4, H: h / 8})
		defer a.term.Halt()
	}
	if *httpAddr != "" {
		a.mirror = httpmirror.New(&httpmirror.Opts{W: w, H: h})
		srv := &http.Server{Addr: *httpAddr, Handler: a.mirror}
		go func() {
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				log.Printf("http: %v", err)
			}
		}()
		defer srv.Close()
		defer a.mirror.Halt()
		log.Printf("serving MJPEG mirror on %s", *httpAddr)
	}

	return run(a, fs, fs.Args())
}

// openDisplay brings up the host drivers and the panel.
func openDisplay(cfg *conf.Config) (*st7789v.Dev, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	p, err := spireg.Open(cfg.SPI.Port)
	if err != nil {
		return nil, err
	}
	dc := gpioreg.ByName(cfg.SPI.DC)
	if dc == nil {
		return nil, fmt.Errorf("unknown DC pin %q", cfg.SPI.DC)
	}
	rst := gpioreg.ByName(cfg.SPI.Reset)
	if rst == nil {
		return nil, fmt.Errorf("unknown reset pin %q", cfg.SPI.Reset)
	}
	var bl gpio.PinOut
	if cfg.SPI.Backlight != "" {
		if bl = gpioreg.ByName(cfg.SPI.Backlight); bl == nil {
			return nil, fmt.Errorf("unknown backlight pin %q", cfg.SPI.Backlight)
		}
	}
	return st7789v.NewSPI(p, dc, rst, bl, cfg.DisplayOpts())
}

// panelSize returns the logical, post-rotation size.
func panelSize(cfg *conf.Config) (int, int) {
	w, h := cfg.Panel.Width, cfg.Panel.Height
	if cfg.Panel.Rotation == 90 || cfg.Panel.Rotation == 270 {
		w, h = h, w
	}
	return w, h
}

// bounds returns the drawing area shared by all active outputs.
func (a *app) bounds() (int, int) {
	return panelSize(a.cfg)
}

// interrupted returns a channel that receives SIGINT or SIGTERM.
func interrupted() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}

func cmdSleep(a *app, fs *flag.FlagSet, args []string) error {
	if a.dev == nil {
		return fmt.Errorf("sleep needs hardware")
	}
	return a.dev.Sleep()
}

func cmdWake(a *app, fs *flag.FlagSet, args []string) error {
	if a.dev == nil {
		return fmt.Errorf("wake needs hardware")
	}
	return a.dev.Wake()
}

func cmdOff(a *app, fs *flag.FlagSet, args []string) error {
	if a.dev == nil {
		return fmt.Errorf("off needs hardware")
	}
	return a.dev.Off()
}

func cmdBacklight(a *app, fs *flag.FlagSet, args []string) error {
	if a.dev == nil {
		return fmt.Errorf("bl needs hardware")
	}
	switch {
	case len(args) == 1 && args[0] == "on":
		return a.dev.Backlight(true)
	case len(args) == 1 && args[0] == "off":
		return a.dev.Backlight(false)
	}
	return fmt.Errorf("usage: pi0disp bl <on|off>")
}
