// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"image"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/ytani01/pi0disp/imgutil"
	"github.com/ytani01/pi0disp/sprite"
)

// holdStill keeps the process alive so a rendered still stays visible, for
// -hold or until interrupted.
func (a *app) holdStill() error {
	stop := interrupted()
	if a.hold > 0 {
		select {
		case <-stop:
		case <-time.After(a.hold):
		}
		return nil
	}
	<-stop
	return nil
}

func cmdImage(a *app, fs *flag.FlagSet, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: pi0disp image [flags] <file>")
	}
	img, err := imgutil.Load(args[0])
	if err != nil {
		return err
	}
	w, h := a.bounds()
	frame := imgutil.Fit(img, w, h)
	if a.fill {
		frame = imgutil.Fill(img, w, h)
	}
	if err := a.render(frame, nil); err != nil {
		return err
	}
	return a.holdStill()
}

// fontFace loads the -font TrueType file, falling back to the built-in fixed
// font.
func (a *app) fontFace() (font.Face, error) {
	if a.fontPath == "" {
		return basicfont.Face7x13, nil
	}
	data, err := os.ReadFile(a.fontPath)
	if err != nil {
		return nil, err
	}
	f, err := freetype.ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.fontPath, err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: a.fontSize}), nil
}

func cmdText(a *app, fs *flag.FlagSet, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: pi0disp text [flags] <message>")
	}
	face, err := a.fontFace()
	if err != nil {
		return err
	}
	w, h := a.bounds()
	dc := gg.NewContext(w, h)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetFontFace(face)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringWrapped(args[0], float64(w)/2, float64(h)/2, 0.5, 0.5,
		float64(w)-8, 1.3, gg.AlignCenter)

	if err := a.render(imgutil.ToRGBA(dc.Image()), nil); err != nil {
		return err
	}
	return a.holdStill()
}

func cmdColTest(a *app, fs *flag.FlagSet, args []string) error {
	w, h := a.bounds()
	dc := gg.NewContext(w, h)

	// Classic bars on the top half.
	bars := [][3]float64{
		{1, 1, 1}, {1, 1, 0}, {0, 1, 1}, {0, 1, 0},
		{1, 0, 1}, {1, 0, 0}, {0, 0, 1}, {0, 0, 0},
	}
	barW := float64(w) / float64(len(bars))
	for i, c := range bars {
		dc.SetRGB(c[0], c[1], c[2])
		dc.DrawRectangle(float64(i)*barW, 0, barW, float64(h)/2)
		dc.Fill()
	}

	// Channel ramps on the bottom half.
	ramps := [][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}}
	rampH := float64(h) / 2 / float64(len(ramps))
	for i, c := range ramps {
		y := float64(h)/2 + float64(i)*rampH
		for x := 0; x < w; x++ {
			v := float64(x) / float64(w-1)
			dc.SetRGB(c[0]*v, c[1]*v, c[2]*v)
			dc.DrawRectangle(float64(x), y, 1, rampH)
			dc.Fill()
		}
	}

	if err := a.render(imgutil.ToRGBA(dc.Image()), nil); err != nil {
		return err
	}
	return a.holdStill()
}

// cmdFace shows an analog clock. The whole frame is redrawn every tick and
// handed to the diff engine, which reduces the bus traffic to the area swept
// by the hands.
func cmdFace(a *app, fs *flag.FlagSet, args []string) error {
	w, h := a.bounds()
	cx, cy := float64(w)/2, float64(h)/2
	radius := float64(min(w, h))/2 - 6

	hand := func(dc *gg.Context, angle, length, width float64) {
		dc.SetLineWidth(width)
		dc.DrawLine(cx, cy, cx+length*math.Sin(angle), cy-length*math.Cos(angle))
		dc.Stroke()
	}

	return a.animate(func(now time.Time) (*image.RGBA, []image.Rectangle, bool) {
		dc := gg.NewContext(w, h)
		dc.SetRGB(0, 0, 0)
		dc.Clear()

		dc.SetRGB(0.85, 0.85, 0.85)
		dc.SetLineWidth(3)
		dc.DrawCircle(cx, cy, radius)
		dc.Stroke()
		for i := 0; i < 12; i++ {
			angle := float64(i) * math.Pi / 6
			sin, cos := math.Sin(angle), math.Cos(angle)
			dc.SetLineWidth(2)
			dc.DrawLine(cx+0.88*radius*sin, cy-0.88*radius*cos,
				cx+0.97*radius*sin, cy-0.97*radius*cos)
			dc.Stroke()
		}

		hour, minute, sec := now.Clock()
		dc.SetRGB(0.9, 0.9, 0.9)
		hand(dc, (float64(hour%12)+float64(minute)/60)*math.Pi/6, 0.5*radius, 5)
		hand(dc, (float64(minute)+float64(sec)/60)*math.Pi/30, 0.75*radius, 3)
		dc.SetRGB(1, 0.2, 0.2)
		hand(dc, float64(sec)*math.Pi/30, 0.9*radius, 1.5)

		return imgutil.ToRGBA(dc.Image()), nil, true
	})
}

type ball struct {
	s      *sprite.Sprite
	d      int
	vx, vy int
}

func newBall(w, h int) *ball {
	d := 16 + rand.Intn(24)
	dc := gg.NewContext(d, d)
	dc.SetRGB(0.3+0.7*rand.Float64(), 0.3+0.7*rand.Float64(), 0.3+0.7*rand.Float64())
	dc.DrawCircle(float64(d)/2, float64(d)/2, float64(d)/2-0.5)
	dc.Fill()

	b := &ball{
		s:  sprite.New(dc.Image()),
		d:  d,
		vx: 1 + rand.Intn(4),
		vy: 1 + rand.Intn(4),
	}
	if rand.Intn(2) == 0 {
		b.vx = -b.vx
	}
	if rand.Intn(2) == 0 {
		b.vy = -b.vy
	}
	b.s.MoveTo(image.Point{X: rand.Intn(w - d), Y: rand.Intn(h - d)})
	return b
}

// step advances the ball one frame, reflecting off the walls.
func (b *ball) step(w, h int) {
	p := b.s.Pos()
	nx, ny := p.X+b.vx, p.Y+b.vy
	if nx < 0 {
		nx, b.vx = -nx, -b.vx
	}
	if nx+b.d > w {
		nx, b.vx = 2*(w-b.d)-nx, -b.vx
	}
	if ny < 0 {
		ny, b.vy = -ny, -b.vy
	}
	if ny+b.d > h {
		ny, b.vy = 2*(h-b.d)-ny, -b.vy
	}
	b.s.MoveTo(image.Point{X: nx, Y: ny})
}

func cmdBalls(a *app, fs *flag.FlagSet, args []string) error {
	w, h := a.bounds()
	if a.nBalls < 1 {
		return fmt.Errorf("need at least one ball")
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(0.02, 0.02, 0.1)
	dc.Clear()
	dc.SetRGB(0.4, 0.4, 0.5)
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, float64(w)-2, float64(h)-2)
	dc.Stroke()

	scene := sprite.NewScene(dc.Image())
	balls := make([]*ball, a.nBalls)
	for i := range balls {
		balls[i] = newBall(w, h)
		scene.Add(balls[i].s)
	}

	return a.animate(func(time.Time) (*image.RGBA, []image.Rectangle, bool) {
		for _, b := range balls {
			b.step(w, h)
		}
		frame, dirty := scene.Compose()
		return frame, dirty, true
	})
}
