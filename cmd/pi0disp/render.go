// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image"
	"log"
	"time"

	"github.com/ytani01/pi0disp/st7789v/perf"
)

// render fans one frame out to every active output. dirty lists the changed
// areas; nil means the whole frame.
func (a *app) render(frame *image.RGBA, dirty []image.Rectangle) error {
	if a.dev != nil {
		var err error
		if dirty == nil {
			err = a.dev.Render(frame)
		} else {
			err = a.dev.RenderRegions(frame, dirty)
		}
		if err != nil {
			return err
		}
	}
	if a.term != nil {
		preview := imgScale(frame, a.term.Bounds())
		if err := a.term.Render(preview); err != nil {
			return err
		}
	}
	if a.mirror != nil {
		if err := a.mirror.Push(frame); err != nil {
			return err
		}
	}
	return nil
}

// animate runs step at the configured frame rate until the process is
// interrupted or step returns false. FPS statistics are logged once per
// second.
func (a *app) animate(step func(now time.Time) (*image.RGBA, []image.Rectangle, bool)) error {
	fps := a.cfg.Render.FPS
	if fps <= 0 {
		fps = 30
	}
	tick := time.NewTicker(time.Second / time.Duration(fps))
	defer tick.Stop()
	stop := interrupted()

	mon := perf.NewMonitor()
	lastReport := time.Now()

	for {
		select {
		case <-stop:
			return nil
		case now := <-tick.C:
			start := mon.FrameStart()
			frame, dirty, more := step(now)
			if frame != nil {
				if err := a.render(frame, dirty); err != nil {
					return err
				}
			}
			mon.FrameEnd(start)
			if !more {
				return nil
			}
			if now.Sub(lastReport) >= time.Second {
				lastReport = now
				log.Printf("%.1f fps, %s/frame over %d frames",
					mon.FPS(), mon.AverageProcessTime(), mon.Frames())
			}
		}
	}
}

// imgScale downsamples frame to the preview bounds with nearest sampling;
// preview quality does not justify a filtered scaler per frame.
func imgScale(frame *image.RGBA, b image.Rectangle) *image.RGBA {
	out := image.NewRGBA(b)
	fb := frame.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		sy := fb.Min.Y + (y-b.Min.Y)*fb.Dy()/b.Dy()
		for x := b.Min.X; x < b.Max.X; x++ {
			sx := fb.Min.X + (x-b.Min.X)*fb.Dx()/b.Dx()
			out.SetRGBA(x, y, frame.RGBAAt(sx, sy))
		}
	}
	return out
}
