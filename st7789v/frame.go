// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789v

import (
	"bytes"
	"image"
)

// frameState holds the last pixel data confirmed to be on the panel, as
// packed 8-bit RGB in logical (post-rotation) orientation. It is the baseline
// for change detection and is only updated after a successful transfer.
type frameState struct {
	buf  []byte // nil until the first render
	w, h int
}

func (f *frameState) reset(w, h int) {
	f.buf = nil
	f.w = w
	f.h = h
}

// diff returns the bounding box of all pixels that differ between the stored
// frame and next. The scan narrows rows first with bulk comparisons, then
// columns pixel by pixel, so an unchanged frame costs a handful of
// bytes.Equal calls.
//
// Spatially separate changes collapse into a single box; callers that know
// better use the region path instead.
func (f *frameState) diff(next []byte) (image.Rectangle, bool) {
	stride := f.w * 3
	y0, y1 := 0, f.h

	for ; y0 < y1; y0++ {
		row := y0 * stride
		if !bytes.Equal(f.buf[row:row+stride], next[row:row+stride]) {
			break
		}
	}
	for ; y1 > y0; y1-- {
		row := (y1 - 1) * stride
		if !bytes.Equal(f.buf[row:row+stride], next[row:row+stride]) {
			break
		}
	}
	if y0 == y1 {
		return image.Rectangle{}, false
	}

	x0, x1 := 0, f.w
scanLeft:
	for ; x0 < x1; x0++ {
		for y := y0; y < y1; y++ {
			o := y*stride + x0*3
			if !bytes.Equal(f.buf[o:o+3], next[o:o+3]) {
				break scanLeft
			}
		}
	}
scanRight:
	for ; x1 > x0; x1-- {
		for y := y0; y < y1; y++ {
			o := y*stride + (x1-1)*3
			if !bytes.Equal(f.buf[o:o+3], next[o:o+3]) {
				break scanRight
			}
		}
	}
	return image.Rect(x0, y0, x1, y1), true
}

// commit replaces the stored frame with next.
func (f *frameState) commit(next []byte) {
	if f.buf == nil {
		f.buf = make([]byte, len(next))
	}
	copy(f.buf, next)
}

// patch copies region pixels (r.Dx()*r.Dy()*3 RGB bytes) into the stored
// frame at r, creating a blank frame first when none exists yet.
func (f *frameState) patch(r image.Rectangle, rgb []byte) {
	if f.buf == nil {
		f.buf = make([]byte, f.w*f.h*3)
	}
	stride := f.w * 3
	rowLen := r.Dx() * 3
	for y := 0; y < r.Dy(); y++ {
		dst := (r.Min.Y+y)*stride + r.Min.X*3
		copy(f.buf[dst:dst+rowLen], rgb[y*rowLen:(y+1)*rowLen])
	}
}

// cropRGB extracts the rectangle r from a full-frame RGB buffer of the given
// pixel width as a contiguous RGB buffer.
func cropRGB(rgb []byte, width int, r image.Rectangle) []byte {
	stride := width * 3
	rowLen := r.Dx() * 3
	if r.Min.X == 0 && rowLen == stride {
		return rgb[r.Min.Y*stride : r.Max.Y*stride]
	}
	out := make([]byte, r.Dy()*rowLen)
	for y := 0; y < r.Dy(); y++ {
		src := (r.Min.Y+y)*stride + r.Min.X*3
		copy(out[y*rowLen:(y+1)*rowLen], rgb[src:src+rowLen])
	}
	return out
}

// rgbBytes reads the pixels of r from img as packed 8-bit RGB. *image.RGBA
// and *image.NRGBA sources take a direct row copy path; anything else goes
// through the color model.
func rgbBytes(img image.Image, r image.Rectangle) []byte {
	out := make([]byte, r.Dx()*r.Dy()*3)
	switch src := img.(type) {
	case *image.RGBA:
		rgbFromPix(out, src.Pix, src.Stride, src.Rect, r)
	case *image.NRGBA:
		// NRGBA is only equal to premultiplied RGBA at full alpha, which is
		// what rendered frames use.
		rgbFromPix(out, src.Pix, src.Stride, src.Rect, r)
	default:
		i := 0
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				c := img.At(x, y)
				cr, cg, cb, _ := c.RGBA()
				out[i] = byte(cr >> 8)
				out[i+1] = byte(cg >> 8)
				out[i+2] = byte(cb >> 8)
				i += 3
			}
		}
	}
	return out
}

func rgbFromPix(out, pix []byte, stride int, bounds, r image.Rectangle) {
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o := (y-bounds.Min.Y)*stride + (r.Min.X-bounds.Min.X)*4
		for x := r.Min.X; x < r.Max.X; x++ {
			out[i] = pix[o]
			out[i+1] = pix[o+1]
			out[i+2] = pix[o+2]
			i += 3
			o += 4
		}
	}
}
