// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package httpmirror streams a copy of the frames pushed to a panel as
// multipart motion images over HTTP.
//
// Register a Mirror as an http.Handler and feed it the same frames that go to
// the hardware: connected browsers get a snapshot immediately and an update
// whenever the content changes. The wire protocol is "MJPEG"
// (multipart/x-mixed-replace) as used by IP cameras, carrying PNG frames by
// default; clients can request JPEG with "?format=jpeg".
package httpmirror

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"mime"
	"net/http"
	"net/textproto"
	"sync"

	"periph.io/x/conn/v3/display"
)

// Format selects the encoding for streamed frames.
type Format string

// Supported encodings. PNG is lossless and compresses computer-drawn
// graphics well; JPEG suits photographic content.
const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

func (f Format) mimeType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// Opts represents the options available for a Mirror.
type Opts struct {
	// W and H are the mirrored panel size in pixels.
	W int
	H int
	// Format is the encoding sent to clients that do not request one.
	Format Format
	// JPEGQuality is the encoder quality for JPEG output; zero selects
	// jpeg.DefaultQuality.
	JPEGQuality int
}

// Mirror keeps the last pushed frame and serves it to streaming clients.
// It is safe for concurrent use.
type Mirror struct {
	format  Format
	quality int

	mu      sync.Mutex
	buffer  *image.RGBA
	encoded map[Format][]byte
	clients map[*client]struct{}
}

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

// New returns a Mirror of the given size.
func New(opts *Opts) *Mirror {
	buffer := image.NewRGBA(image.Rect(0, 0, opts.W, opts.H))
	draw.Draw(buffer, buffer.Bounds(), image.Black, image.Point{}, draw.Src)
	quality := opts.JPEGQuality
	if quality == 0 {
		quality = jpeg.DefaultQuality
	}
	format := opts.Format
	if format == "" {
		format = PNG
	}
	return &Mirror{
		format:  format,
		quality: quality,
		buffer:  buffer,
		encoded: map[Format][]byte{},
		clients: map[*client]struct{}{},
	}
}

func (m *Mirror) String() string {
	return "httpmirror"
}

// Halt implements conn.Resource; it terminates all streaming requests
// asynchronously.
func (m *Mirror) Halt() error {
	m.mu.Lock()
	for c := range m.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
	m.mu.Unlock()
	return nil
}

// ColorModel implements display.Drawer.
func (m *Mirror) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements display.Drawer.
func (m *Mirror) Bounds() image.Rectangle {
	return m.buffer.Bounds()
}

// Draw implements display.Drawer.
func (m *Mirror) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	m.mu.Lock()
	draw.Draw(m.buffer, r.Intersect(m.buffer.Bounds()), src, sp, draw.Src)
	m.changedLocked()
	m.mu.Unlock()
	return nil
}

// Push replaces the mirrored frame with img and wakes all clients.
func (m *Mirror) Push(img image.Image) error {
	return m.Draw(m.buffer.Bounds(), img, img.Bounds().Min)
}

// changedLocked drops stale encodings and signals every streaming client.
func (m *Mirror) changedLocked() {
	for f := range m.encoded {
		delete(m.encoded, f)
	}
	for c := range m.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
}

// snapshot returns the current frame encoded as f, encoding at most once per
// frame and format.
func (m *Mirror) snapshot(f Format) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if encoded, ok := m.encoded[f]; ok {
		return encoded, nil
	}
	var buf bytes.Buffer
	var err error
	switch f {
	case JPEG:
		err = jpeg.Encode(&buf, m.buffer, &jpeg.Options{Quality: m.quality})
	default:
		err = png.Encode(&buf, m.buffer)
	}
	if err != nil {
		return nil, err
	}
	m.encoded[f] = buf.Bytes()
	return buf.Bytes(), nil
}

// ServeHTTP implements http.Handler. The response is an endless stream of
// frames; it ends when the client disconnects or Halt is called.
func (m *Mirror) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	format := m.format
	switch value := r.URL.Query().Get("format"); value {
	case "":
	case "png":
		format = PNG
	case "jpg", "jpeg":
		format = JPEG
	default:
		http.Error(w, fmt.Sprintf("unrecognized image format %q", value), http.StatusBadRequest)
		return
	}

	pw := makePartWriter(w)
	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
			"boundary": pw.boundary,
		}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	m.mu.Lock()
	m.clients[c] = struct{}{}
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.clients, c)
		m.mu.Unlock()
	}()

	partHeaders := make(textproto.MIMEHeader)
	partHeaders.Set("Content-Type", mime.FormatMediaType(format.mimeType(), nil))
	partHeaders.Set("Content-Transfer-Encoding", "binary")

	for {
		payload, err := m.snapshot(format)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// A write error means the client went away; there is no way to
		// report an error inside an image stream anyway.
		if err := pw.writeFrame(partHeaders, payload); err != nil {
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		select {
		case <-c.refresh:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}

var _ display.Drawer = (*Mirror)(nil)
var _ http.Handler = (*Mirror)(nil)
