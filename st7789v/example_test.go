// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789v_test

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"time"

	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/ytani01/pi0disp/st7789v"
)

func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	p, err := spireg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	dev, err := st7789v.NewSPIHat(p, &st7789v.DefaultOpts)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Close()

	// Animate a square; only the pixels that change cross the bus.
	frame := image.NewRGBA(dev.Bounds())
	for x := 0; x < 200; x += 4 {
		draw.Draw(frame, frame.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
		draw.Draw(frame, image.Rect(x, 100, x+40, 140), &image.Uniform{C: color.RGBA{R: 0xFF, A: 0xFF}}, image.Point{}, draw.Src)
		if err := dev.Render(frame); err != nil {
			log.Fatal(err)
		}
		time.Sleep(33 * time.Millisecond)
	}
}
