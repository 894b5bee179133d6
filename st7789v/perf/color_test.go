// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package perf

import (
	"bytes"
	"testing"
)

func TestPackPrimaries(t *testing.T) {
	c := NewConverter()
	for _, tc := range []struct {
		name string
		rgb  []byte
		want []byte
	}{
		{name: "red", rgb: []byte{255, 0, 0}, want: []byte{0xF8, 0x00}},
		{name: "green", rgb: []byte{0, 255, 0}, want: []byte{0x07, 0xE0}},
		{name: "blue", rgb: []byte{0, 0, 255}, want: []byte{0x00, 0x1F}},
		{name: "black", rgb: []byte{0, 0, 0}, want: []byte{0x00, 0x00}},
		{name: "white", rgb: []byte{255, 255, 255}, want: []byte{0xFF, 0xFF}},
		{name: "mid gray", rgb: []byte{0x80, 0x80, 0x80}, want: []byte{0x84, 0x10}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := make([]byte, 2)
			n, err := c.Pack(got, tc.rgb, false)
			if err != nil {
				t.Fatalf("Pack() failed: %v", err)
			}
			if n != 2 {
				t.Errorf("Pack() wrote %d bytes, want 2", n)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("Pack(%v) = %02X %02X, want %02X %02X", tc.rgb, got[0], got[1], tc.want[0], tc.want[1])
			}
		})
	}
}

// Packing then unpacking must recover the 5/6/5-bit truncation of each
// channel, for every channel value.
func TestPackTruncationExact(t *testing.T) {
	c := NewConverter()
	rgb := make([]byte, 3)
	dst := make([]byte, 2)
	for v := 0; v < 256; v++ {
		rgb[0], rgb[1], rgb[2] = byte(v), byte(v), byte(v)
		if _, err := c.Pack(dst, rgb, false); err != nil {
			t.Fatalf("Pack() failed: %v", err)
		}
		word := uint16(dst[0])<<8 | uint16(dst[1])
		r := byte(word>>11) << 3
		g := byte(word>>5&0x3F) << 2
		b := byte(word&0x1F) << 3
		if r != byte(v)&0xF8 || g != byte(v)&0xFC || b != byte(v)&0xF8 {
			t.Fatalf("value %d unpacked to (%d, %d, %d), want (%d, %d, %d)",
				v, r, g, b, byte(v)&0xF8, byte(v)&0xFC, byte(v)&0xF8)
		}
	}
}

func TestPackLengthErrors(t *testing.T) {
	c := NewConverter()
	if _, err := c.Pack(make([]byte, 4), []byte{1, 2}, false); err == nil {
		t.Error("Pack() accepted a truncated RGB stream")
	}
	if _, err := c.Pack(make([]byte, 1), []byte{1, 2, 3}, false); err == nil {
		t.Error("Pack() accepted a too-small destination")
	}
}

func TestGamma(t *testing.T) {
	c := NewConverter()
	c.SetGamma(2.2)

	// The 1/2.2 exponent brightens the lower range.
	rgb := []byte{64, 64, 64}
	lin := make([]byte, 2)
	cor := make([]byte, 2)
	if _, err := c.Pack(lin, rgb, false); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}
	if _, err := c.Pack(cor, rgb, true); err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}
	linWord := uint16(lin[0])<<8 | uint16(lin[1])
	corWord := uint16(cor[0])<<8 | uint16(cor[1])
	if corWord>>11 <= linWord>>11 {
		t.Errorf("gamma 2.2 did not brighten red channel: linear %04X, corrected %04X", linWord, corWord)
	}

	// Endpoints are fixed points of the curve.
	black := make([]byte, 2)
	white := make([]byte, 2)
	c.Pack(black, []byte{0, 0, 0}, true)
	c.Pack(white, []byte{255, 255, 255}, true)
	if !bytes.Equal(black, []byte{0x00, 0x00}) {
		t.Errorf("gamma moved black: % 02X", black)
	}
	if !bytes.Equal(white, []byte{0xFF, 0xFF}) {
		t.Errorf("gamma moved white: % 02X", white)
	}
}

func TestGammaIdentity(t *testing.T) {
	c := NewConverter()
	src := []byte{10, 100, 200, 0, 255, 30}
	plain := make([]byte, 4)
	gamma := make([]byte, 4)
	c.Pack(plain, src, false)
	c.Pack(gamma, src, true)
	if !bytes.Equal(plain, gamma) {
		t.Errorf("gamma 1.0 altered output: % 02X vs % 02X", plain, gamma)
	}
}
