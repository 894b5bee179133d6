// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package imgutil prepares images for a fixed-size panel: decoding, scaling
// and letterboxing.
package imgutil

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// Load decodes the image file at path. PNG, JPEG and GIF are supported.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imgutil: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imgutil: %s: %w", path, err)
	}
	return img, nil
}

// Fit scales img to fit entirely inside w x h, preserving the aspect ratio
// and centering it on a black background.
func Fit(img image.Image, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return out
	}
	dst := scaled(b, w, h, false)
	xdraw.CatmullRom.Scale(out, dst, img, b, xdraw.Src, nil)
	return out
}

// Fill scales img to cover w x h completely, preserving the aspect ratio and
// cropping the overflow evenly on both sides.
func Fill(img image.Image, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return out
	}
	dst := scaled(b, w, h, true)
	xdraw.CatmullRom.Scale(out, dst, img, b, xdraw.Src, nil)
	return out
}

// scaled returns the destination rectangle for scaling src into a w x h
// target: contained and centered when cover is false, covering and cropped
// when true.
func scaled(src image.Rectangle, w, h int, cover bool) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	// Compare the aspect ratios without floating point: src is wider than
	// the target iff sw*h > w*sh.
	wider := sw*h > w*sh
	var dw, dh int
	if wider != cover {
		dw = w
		dh = sh * w / sw
	} else {
		dh = h
		dw = sw * h / sh
	}
	x := (w - dw) / 2
	y := (h - dh) / 2
	return image.Rect(x, y, x+dw, y+dh)
}

// ToRGBA returns img as *image.RGBA, copying only when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	xdraw.Draw(out, out.Bounds(), img, img.Bounds().Min, xdraw.Src)
	return out
}
