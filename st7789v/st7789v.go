// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789v

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3/rpi"

	"github.com/ytani01/pi0disp/st7789v/perf"
)

// Rotation selects the panel orientation, clockwise in 90° steps.
type Rotation uint16

// Valid rotations.
const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

func (r Rotation) valid() bool {
	switch r {
	case Rotation0, Rotation90, Rotation180, Rotation270:
		return true
	}
	return false
}

// swapsAxes reports whether the rotation exchanges rows and columns, which
// also swaps the logical width/height and the hardware offsets.
func (r Rotation) swapsAxes() bool {
	return r == Rotation90 || r == Rotation270
}

func (r Rotation) madctl(bgr bool) byte {
	var v byte
	switch r {
	case Rotation90:
		v = madctlMX | madctlMV
	case Rotation180:
		v = madctlMX | madctlMY
	case Rotation270:
		v = madctlMY | madctlMV
	}
	if bgr {
		v |= madctlBGR
	}
	return v
}

func (r Rotation) String() string {
	return fmt.Sprintf("%d", uint16(r))
}

// Set sets the Rotation to a value represented by the string s. Set
// implements the flag.Value interface.
func (r *Rotation) Set(s string) error {
	switch s {
	case "0":
		*r = Rotation0
	case "90":
		*r = Rotation90
	case "180":
		*r = Rotation180
	case "270":
		*r = Rotation270
	default:
		return fmt.Errorf("unknown rotation %q: expected 0, 90, 180 or 270", s)
	}
	return nil
}

// Errors returned by the driver. Transport failures are returned wrapped and
// unmodified otherwise; the driver never retries them.
var (
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("st7789v: device is closed")
	// ErrNotAwake is returned when pixels are pushed at a sleeping panel.
	ErrNotAwake = errors.New("st7789v: display is not awake")
	// ErrOff is returned after Off; only Close is valid then.
	ErrOff = errors.New("st7789v: display is powered off")
	// ErrInvalidRotation rejects rotations outside the four canonical values.
	ErrInvalidRotation = errors.New("st7789v: rotation must be 0, 90, 180 or 270")
	// ErrNoBacklight is returned when no backlight pin was wired.
	ErrNoBacklight = errors.New("st7789v: no backlight pin configured")
)

// Opts holds the panel configuration, resolved once before construction. The
// driver never consults any configuration source afterwards.
type Opts struct {
	// W and H are the native panel dimensions before rotation.
	W int
	H int
	// Rotation is the initial orientation.
	Rotation Rotation
	// XOffset and YOffset locate the glass inside the controller RAM. They
	// follow the panel, not the rotation: the driver swaps them as needed.
	XOffset int
	YOffset int
	// BGR sets the color order bit in the orientation register.
	BGR bool
	// Invert enables display inversion; most ST7789V panels need it for
	// correct colors.
	Invert bool
	// Gamma is the correction exponent applied during color packing.
	// Zero disables correction.
	Gamma float64
	// Speed is the SPI clock rate.
	Speed physic.Frequency
	// MaxRegions and MergeThreshold tune the region optimizer used by
	// RenderRegions. Zero selects the perf package defaults.
	MaxRegions     int
	MergeThreshold int
}

// DefaultOpts is the recommended configuration for the common 240x320 panel.
var DefaultOpts = Opts{
	W:      240,
	H:      320,
	Invert: true,
	Speed:  32 * physic.MegaHertz,
}

type devState uint8

const (
	stateResetting devState = iota
	stateAwake
	stateAsleep
	stateOff
	stateClosed
)

// Dev is an open handle to an ST7789V panel.
//
// Dev assumes exclusive single-threaded ownership: it performs no internal
// locking and every bus write blocks until the transport completes.
type Dev struct {
	// Communication.
	c   conn.Conn
	dc  gpio.PinOut
	rst gpio.PinOut
	bl  gpio.PinOut // optional

	// Fixed configuration.
	nativeW, nativeH int
	xOffset, yOffset int
	bgr              bool
	invert           bool
	gamma            bool
	maxRegions       int
	mergeThreshold   int

	// Optimization pipeline.
	conv  *perf.Converter
	chunk *perf.Chunker

	// Orientation-dependent state.
	rect                 image.Rectangle
	rotation             Rotation
	colOffset, rowOffset int

	// Last confirmed frame and addressing window.
	frame    frameState
	win      [4]int
	winValid bool

	pix []byte // scratch for packed pixel data

	state devState
}

// NewSPI returns a Dev that drives an ST7789V panel over 4-wire SPI.
//
// dc selects between command and data bytes, rst is the hardware reset line
// and bl the backlight; bl may be nil when the backlight is hardwired.
//
// The panel is reset and brought up before NewSPI returns, so a failure here
// means the driver cannot be constructed; there is no partial handle.
func NewSPI(p spi.Port, dc, rst, bl gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if dc == nil || dc == gpio.INVALID {
		return nil, errors.New("st7789v: a data/command pin is required")
	}
	if rst == nil || rst == gpio.INVALID {
		return nil, errors.New("st7789v: a reset pin is required")
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("st7789v: %w", err)
	}
	speed := opts.Speed
	if speed == 0 {
		speed = DefaultOpts.Speed
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7789v: %w", err)
	}
	return newDev(c, dc, rst, bl, opts)
}

// NewSPIHat returns a Dev wired to the pins used by the common Raspberry Pi
// ST7789V hats: DC on GPIO24, RST on GPIO25, backlight on GPIO23.
func NewSPIHat(p spi.Port, opts *Opts) (*Dev, error) {
	return NewSPI(p, rpi.P1_18, rpi.P1_22, rpi.P1_16, opts)
}

// newDev is the protocol-independent part of construction, split out so tests
// can substitute the connection.
func newDev(c conn.Conn, dc, rst, bl gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts.W <= 0 || opts.H <= 0 {
		return nil, fmt.Errorf("st7789v: invalid panel size %dx%d", opts.W, opts.H)
	}
	if !opts.Rotation.valid() {
		return nil, ErrInvalidRotation
	}
	d := &Dev{
		c:              c,
		dc:             dc,
		rst:            rst,
		bl:             bl,
		nativeW:        opts.W,
		nativeH:        opts.H,
		xOffset:        opts.XOffset,
		yOffset:        opts.YOffset,
		bgr:            opts.BGR,
		invert:         opts.Invert,
		gamma:          opts.Gamma > 0,
		maxRegions:     opts.MaxRegions,
		mergeThreshold: opts.MergeThreshold,
		conv:           perf.NewConverter(),
		chunk:          perf.NewChunker(),
		state:          stateResetting,
	}
	if d.maxRegions <= 0 {
		d.maxRegions = perf.DefaultMaxRegions
	}
	if d.mergeThreshold <= 0 {
		d.mergeThreshold = perf.DefaultMergeThreshold
	}
	if d.gamma {
		d.conv.SetGamma(opts.Gamma)
	}
	d.applyRotation(opts.Rotation)

	eh := &errorHandler{d: d}
	// Reset pulse with the settle times from the datasheet.
	eh.rstOut(gpio.High)
	eh.wait(10 * time.Millisecond)
	eh.rstOut(gpio.Low)
	eh.wait(10 * time.Millisecond)
	eh.rstOut(gpio.High)
	eh.wait(150 * time.Millisecond)

	initDisplay(eh, d.invert)
	setOrientation(eh, d.rotation, d.bgr)
	eh.blOut(gpio.High)
	if eh.err != nil {
		return nil, fmt.Errorf("st7789v: init: %w", eh.err)
	}
	d.state = stateAwake
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("st7789v.Dev{%s, %s, %dx%d}", d.c, d.dc, d.rect.Dx(), d.rect.Dy())
}

// Bounds implements display.Drawer. It returns the logical, post-rotation
// panel bounds; Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// ColorModel implements display.Drawer.
//
// Pixels are quantized to RGB565 during transfer; the driver accepts 24-bit
// RGB input.
func (d *Dev) ColorModel() color.Model {
	return color.RGBAModel
}

// Rotation returns the current orientation.
func (d *Dev) Rotation() Rotation {
	return d.rotation
}

// applyRotation recomputes the logical bounds and effective hardware offsets.
// When the axes are swapped the x offset feeds the row commands and vice
// versa.
func (d *Dev) applyRotation(r Rotation) {
	d.rotation = r
	if r.swapsAxes() {
		d.rect = image.Rect(0, 0, d.nativeH, d.nativeW)
		d.colOffset, d.rowOffset = d.yOffset, d.xOffset
	} else {
		d.rect = image.Rect(0, 0, d.nativeW, d.nativeH)
		d.colOffset, d.rowOffset = d.xOffset, d.yOffset
	}
	d.winValid = false
	d.frame.reset(d.rect.Dx(), d.rect.Dy())
}

// SetRotation reorients the panel. The logical bounds swap between portrait
// and landscape for 90° and 270°, the window cache is invalidated and the
// next render transfers a full frame.
func (d *Dev) SetRotation(r Rotation) error {
	switch d.state {
	case stateClosed:
		return ErrClosed
	case stateOff:
		return ErrOff
	}
	if !r.valid() {
		return ErrInvalidRotation
	}
	eh := &errorHandler{d: d}
	setOrientation(eh, r, d.bgr)
	if eh.err != nil {
		return fmt.Errorf("st7789v: %w", eh.err)
	}
	d.applyRotation(r)
	return nil
}

func (d *Dev) ready() error {
	switch d.state {
	case stateAwake:
		return nil
	case stateClosed:
		return ErrClosed
	case stateOff:
		return ErrOff
	default:
		return ErrNotAwake
	}
}

// Render displays img, transferring only what changed.
//
// The first call pushes a full frame. Subsequent calls diff against the last
// rendered frame and transfer the single bounding box of all changed pixels;
// when nothing changed no bus traffic happens at all. img must cover the
// logical bounds.
func (d *Dev) Render(img image.Image) error {
	if err := d.ready(); err != nil {
		return err
	}
	if !d.rect.In(img.Bounds()) {
		return fmt.Errorf("st7789v: image bounds %v do not cover the panel %v", img.Bounds(), d.rect)
	}
	next := rgbBytes(img, d.rect)

	r := d.rect
	if d.frame.buf != nil {
		var changed bool
		r, changed = d.frame.diff(next)
		if !changed {
			return nil
		}
	}
	if err := d.sendRegion(cropRGB(next, d.rect.Dx(), r), r); err != nil {
		return err
	}
	// Only a confirmed transfer moves the diff baseline.
	d.frame.commit(next)
	return nil
}

// RenderRegion displays the sub-rectangle r of img, bypassing change
// detection: the caller asserts that exactly this area changed.
//
// r is clamped to the panel bounds; an empty result is a no-op. The stored
// frame is patched after a successful transfer so later Render calls keep a
// correct baseline.
func (d *Dev) RenderRegion(img image.Image, r image.Rectangle) error {
	if err := d.ready(); err != nil {
		return err
	}
	r = perf.ClampRegion(r, d.rect.Dx(), d.rect.Dy())
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return nil
	}
	if !r.In(img.Bounds()) {
		return fmt.Errorf("st7789v: image bounds %v do not cover region %v", img.Bounds(), r)
	}
	rgb := rgbBytes(img, r)
	if err := d.sendRegion(rgb, r); err != nil {
		return err
	}
	d.frame.patch(r, rgb)
	return nil
}

// RenderRegions displays a batch of dirty rectangles from img, first fusing
// overlapping and nearby ones to bound the number of transfers.
//
// A failure mid-batch leaves the already transferred regions patched and the
// rest untouched, so the next Render re-detects the difference.
func (d *Dev) RenderRegions(img image.Image, regions []image.Rectangle) error {
	if err := d.ready(); err != nil {
		return err
	}
	for _, r := range perf.MergeRegions(regions, d.maxRegions, d.mergeThreshold) {
		if err := d.RenderRegion(img, r); err != nil {
			return err
		}
	}
	return nil
}

// Draw implements display.Drawer.
//
// It draws synchronously; once it returns the panel is updated.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.rect)
	if r.Empty() {
		return nil
	}
	if r == d.rect && sp == (image.Point{}) && src.Bounds() == d.rect {
		return d.Render(src)
	}
	buf := image.NewRGBA(r)
	draw.Draw(buf, r, src, sp, draw.Src)
	return d.RenderRegion(buf, r)
}

// sendRegion packs the region pixels, positions the addressing window and
// streams the data.
func (d *Dev) sendRegion(rgb []byte, r image.Rectangle) error {
	n := 2 * r.Dx() * r.Dy()
	if cap(d.pix) < n {
		d.pix = make([]byte, n)
	}
	pix := d.pix[:n]
	if _, err := d.conv.Pack(pix, rgb, d.gamma); err != nil {
		return fmt.Errorf("st7789v: %w", err)
	}
	if err := d.setWindow(r); err != nil {
		return err
	}
	return d.writePixels(pix)
}

// setWindow positions the controller addressing window at the logical
// rectangle r. Setting the same window twice in a row is a no-op.
func (d *Dev) setWindow(r image.Rectangle) error {
	win := [4]int{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y}
	if d.winValid && d.win == win {
		return nil
	}
	eh := &errorHandler{d: d}
	setAddressWindow(eh,
		r.Min.X+d.colOffset, r.Min.Y+d.rowOffset,
		r.Max.X-1+d.colOffset, r.Max.Y-1+d.rowOffset)
	if eh.err != nil {
		d.winValid = false
		return fmt.Errorf("st7789v: %w", eh.err)
	}
	d.win = win
	d.winValid = true
	return nil
}

// writePixels streams packed pixel bytes to the current window in chunks
// sized by the adaptive chunker, and feeds the observed throughput back.
func (d *Dev) writePixels(pix []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("st7789v: %w", err)
	}
	chunk := d.chunk.ChunkSize()
	start := time.Now()
	for off := 0; off < len(pix); off += chunk {
		end := min(off+chunk, len(pix))
		if err := d.c.Tx(pix[off:end], nil); err != nil {
			return fmt.Errorf("st7789v: %w", err)
		}
	}
	d.chunk.Record(len(pix), time.Since(start))
	return nil
}

// Sleep puts the panel into sleep-in mode and switches the backlight off.
// Sleeping an already sleeping panel is not an error.
func (d *Dev) Sleep() error {
	switch d.state {
	case stateClosed:
		return ErrClosed
	case stateOff:
		return ErrOff
	case stateAsleep:
		return nil
	}
	eh := &errorHandler{d: d}
	eh.sendCommand(cmdSLPIN)
	eh.blOut(gpio.Low)
	if eh.err != nil {
		return fmt.Errorf("st7789v: %w", eh.err)
	}
	d.state = stateAsleep
	return nil
}

// Wake brings the panel out of sleep and switches the backlight on.
func (d *Dev) Wake() error {
	switch d.state {
	case stateClosed:
		return ErrClosed
	case stateOff:
		return ErrOff
	case stateAwake:
		return nil
	}
	eh := &errorHandler{d: d}
	eh.sendCommand(cmdSLPOUT)
	eh.blOut(gpio.High)
	if eh.err != nil {
		return fmt.Errorf("st7789v: %w", eh.err)
	}
	d.state = stateAwake
	return nil
}

// Off turns the display and backlight off. The only valid operation
// afterwards is Close.
func (d *Dev) Off() error {
	switch d.state {
	case stateClosed:
		return ErrClosed
	case stateOff:
		return nil
	}
	eh := &errorHandler{d: d}
	eh.sendCommand(cmdDISPOFF)
	eh.blOut(gpio.Low)
	if eh.err != nil {
		return fmt.Errorf("st7789v: %w", eh.err)
	}
	d.state = stateOff
	return nil
}

// Invert switches display color inversion at runtime.
func (d *Dev) Invert(on bool) error {
	switch d.state {
	case stateClosed:
		return ErrClosed
	case stateOff:
		return ErrOff
	}
	eh := &errorHandler{d: d}
	if on {
		eh.sendCommand(cmdINVON)
	} else {
		eh.sendCommand(cmdINVOFF)
	}
	if eh.err != nil {
		return fmt.Errorf("st7789v: %w", eh.err)
	}
	return nil
}

// Backlight switches the backlight line.
func (d *Dev) Backlight(on bool) error {
	if d.state == stateClosed {
		return ErrClosed
	}
	if d.bl == nil {
		return ErrNoBacklight
	}
	l := gpio.Low
	if on {
		l = gpio.High
	}
	if err := d.bl.Out(l); err != nil {
		return fmt.Errorf("st7789v: %w", err)
	}
	return nil
}

// Halt implements conn.Resource; it turns the display off.
func (d *Dev) Halt() error {
	return d.Off()
}

// Close shuts the panel down: best-effort inversion off, display off and
// sleep-in, then the backlight is released and the frame buffer dropped.
// Close is idempotent and never fails.
func (d *Dev) Close() {
	if d.state == stateClosed {
		return
	}
	eh := &errorHandler{d: d}
	eh.sendCommand(cmdINVOFF)
	eh.sendCommand(cmdDISPOFF)
	eh.sendCommand(cmdSLPIN)
	eh.blOut(gpio.Low)
	d.frame.buf = nil
	d.pix = nil
	d.state = stateClosed
}

var _ display.Drawer = &Dev{}
var _ conn.Resource = &Dev{}
