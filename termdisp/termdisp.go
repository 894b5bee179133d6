// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termdisp implements a 2D display.Drawer that renders to a terminal
// using ANSI color codes.
//
// It mirrors the panel geometry of an ST7789V device, which makes it handy
// for developing animations on a desktop before attaching real hardware.
package termdisp

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	// W and H are the emulated panel size in character cells. Keep them far
	// below real panel resolutions; a terminal cell is a big pixel.
	W int
	H int
	// Palette converts colors to ANSI codes. nil selects ansi256.Default.
	Palette *ansi256.Palette
}

// Dev is a panel emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette

	buffer *image.RGBA
	buf    bytes.Buffer
	drawn  bool
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	return NewWriter(colorable.NewColorableStdout(), opts)
}

// NewWriter returns a Dev that writes its ANSI output to w.
func NewWriter(w io.Writer, opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	return &Dev{
		w:       w,
		palette: *p,
		buffer:  image.NewRGBA(image.Rect(0, 0, opts.W, opts.H)),
	}
}

func (d *Dev) String() string {
	return "termdisp"
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the shell is not left with a colored
// background.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.buffer.Bounds()
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.buffer, r.Intersect(d.Bounds()), src, sp, draw.Src)
	return d.refresh()
}

// Render displays img, scaled 1:1 from its origin.
func (d *Dev) Render(img image.Image) error {
	return d.Draw(d.Bounds(), img, img.Bounds().Min)
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	if d.drawn {
		// Move back up over the previous frame instead of scrolling.
		for i := 0; i < d.buffer.Rect.Dy(); i++ {
			d.buf.WriteString("\033[A")
		}
	}
	d.drawn = true
	for y := 0; y < d.buffer.Rect.Dy(); y++ {
		d.buf.WriteString("\r")
		for x := 0; x < d.buffer.Rect.Dx(); x++ {
			c := d.buffer.RGBAAt(x, y)
			_, _ = io.WriteString(&d.buf, d.palette.Block(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}))
		}
		d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
