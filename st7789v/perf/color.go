// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package perf

import (
	"errors"
	"fmt"
	"math"
)

// Converter packs 24-bit RGB pixel streams into the big-endian RGB565 format
// expected by the ST7789V in 16bpp mode.
//
// Packing is exact 5/6/5-bit truncation: red keeps bits 7-3, green bits 7-2,
// blue bits 7-3. The per-channel lookup tables are computed once at
// construction and reused for every call.
type Converter struct {
	r [256]uint16 // red, shifted into bits 15-11
	g [256]uint16 // green, bits 10-5
	b [256]uint16 // blue, bits 4-0

	gamma    float64
	gammaLUT [256]uint8
}

// NewConverter returns a Converter with gamma correction disabled
// (exponent 1.0).
func NewConverter() *Converter {
	c := &Converter{}
	for i := 0; i < 256; i++ {
		c.r[i] = uint16(i>>3) << 11
		c.g[i] = uint16(i>>2) << 5
		c.b[i] = uint16(i >> 3)
	}
	c.SetGamma(1.0)
	return c
}

// SetGamma selects the gamma exponent applied by Pack when requested.
//
// The correction table is regenerated only when the exponent actually
// changes, so calling SetGamma with the current value is free.
func (c *Converter) SetGamma(gamma float64) {
	if gamma == c.gamma {
		return
	}
	for i := range c.gammaLUT {
		if gamma == 1.0 {
			c.gammaLUT[i] = uint8(i)
		} else {
			c.gammaLUT[i] = uint8(255.0 * math.Pow(float64(i)/255.0, 1.0/gamma))
		}
	}
	c.gamma = gamma
}

// Gamma returns the active gamma exponent.
func (c *Converter) Gamma() float64 {
	return c.gamma
}

// Pack converts src, a stream of 8-bit RGB triplets, into big-endian RGB565
// words in dst and returns the number of bytes written.
//
// When applyGamma is true each channel is remapped through the gamma table
// before packing; the gamma step never leaks into the packing tables.
func (c *Converter) Pack(dst, src []byte, applyGamma bool) (int, error) {
	if len(src)%3 != 0 {
		return 0, errors.New("perf: RGB pixel stream length must be a multiple of 3")
	}
	n := len(src) / 3
	if len(dst) < 2*n {
		return 0, fmt.Errorf("perf: destination needs %d bytes, got %d", 2*n, len(dst))
	}
	if applyGamma && c.gamma != 1.0 {
		for i, j := 0, 0; i < len(src); i, j = i+3, j+2 {
			v := c.r[c.gammaLUT[src[i]]] | c.g[c.gammaLUT[src[i+1]]] | c.b[c.gammaLUT[src[i+2]]]
			dst[j] = byte(v >> 8)
			dst[j+1] = byte(v)
		}
		return 2 * n, nil
	}
	for i, j := 0, 0; i < len(src); i, j = i+3, j+2 {
		v := c.r[src[i]] | c.g[src[i+1]] | c.b[src[i+2]]
		dst[j] = byte(v >> 8)
		dst[j+1] = byte(v)
	}
	return 2 * n, nil
}
