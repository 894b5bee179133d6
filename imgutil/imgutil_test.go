// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package imgutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestScaled(t *testing.T) {
	for _, tc := range []struct {
		name  string
		src   image.Rectangle
		w, h  int
		cover bool
		want  image.Rectangle
	}{
		{
			name: "fit wide into portrait",
			src:  image.Rect(0, 0, 200, 100),
			w:    100, h: 200,
			want: image.Rect(0, 75, 100, 125),
		},
		{
			name: "fit tall into portrait",
			src:  image.Rect(0, 0, 50, 200),
			w:    100, h: 200,
			want: image.Rect(25, 0, 75, 200),
		},
		{
			name: "fit exact",
			src:  image.Rect(0, 0, 100, 200),
			w:    100, h: 200,
			want: image.Rect(0, 0, 100, 200),
		},
		{
			name: "fill wide into portrait",
			src:  image.Rect(0, 0, 200, 100),
			w:    100, h: 200,
			cover: true,
			want: image.Rect(-150, 0, 250, 200),
		},
		{
			name: "fill tall into portrait",
			src:  image.Rect(0, 0, 50, 200),
			w:    100, h: 200,
			cover: true,
			want: image.Rect(0, -100, 100, 300),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := scaled(tc.src, tc.w, tc.h, tc.cover); got != tc.want {
				t.Errorf("scaled() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFitLetterboxes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	draw.Draw(src, src.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	out := Fit(src, 20, 20)
	if got := out.Bounds(); got != image.Rect(0, 0, 20, 20) {
		t.Fatalf("Fit bounds = %v", got)
	}
	if got := out.RGBAAt(10, 2); got != (color.RGBA{A: 0xFF}) {
		t.Errorf("letterbox bar = %v, want black", got)
	}
	if got := out.RGBAAt(10, 10); got != (color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}) {
		t.Errorf("scaled content = %v, want white", got)
	}
}

func TestFillCovers(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	draw.Draw(src, src.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	out := Fill(src, 20, 20)
	for _, p := range []image.Point{{0, 0}, {19, 19}, {10, 10}} {
		if got := out.RGBAAt(p.X, p.Y); got != (color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}) {
			t.Errorf("pixel %v = %v, want white", p, got)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	src := image.NewRGBA(image.Rect(0, 0, 3, 3))
	src.SetRGBA(1, 1, color.RGBA{R: 0xFF, A: 0xFF})
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 3, 3) {
		t.Errorf("Bounds() = %v", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Load() accepted a missing file")
	}
}

func TestToRGBA(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if got := ToRGBA(rgba); got != rgba {
		t.Error("ToRGBA copied an *image.RGBA")
	}
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(0, 0, color.Gray{Y: 0x80})
	got := ToRGBA(gray)
	if got.RGBAAt(0, 0).R != 0x80 {
		t.Errorf("converted pixel = %v", got.RGBAAt(0, 0))
	}
}
