// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termdisp

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestBounds(t *testing.T) {
	d := NewWriter(&bytes.Buffer{}, &Opts{W: 8, H: 4})
	if got := d.Bounds(); got != image.Rect(0, 0, 8, 4) {
		t.Errorf("Bounds() = %v, want 8x4", got)
	}
}

func TestRender(t *testing.T) {
	var out bytes.Buffer
	d := NewWriter(&out, &Opts{W: 4, H: 2})

	img := image.NewRGBA(d.Bounds())
	img.SetRGBA(0, 0, color.RGBA{R: 0xFF, A: 0xFF})
	if err := d.Render(img); err != nil {
		t.Fatal(err)
	}

	s := out.String()
	if got := strings.Count(s, "\n"); got != 2 {
		t.Errorf("first frame printed %d lines, want 2", got)
	}
	if strings.Contains(s, "\033[A") {
		t.Error("first frame should not move the cursor up")
	}

	// The second frame rewinds over the first.
	out.Reset()
	if err := d.Render(img); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out.String(), "\033[A"); got != 2 {
		t.Errorf("second frame moved up %d lines, want 2", got)
	}
}

func TestHalt(t *testing.T) {
	var out bytes.Buffer
	d := NewWriter(&out, &Opts{W: 2, H: 2})
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "\033[0m") {
		t.Error("Halt() did not reset terminal attributes")
	}
}
