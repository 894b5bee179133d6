// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sprite composites movable images over a background and tracks which
// screen areas they dirtied.
//
// It pairs with the region render path of the st7789v driver: a Scene hands
// back exactly the rectangles that changed since the last frame, so an
// animation with a few small sprites only pushes those areas over the bus.
package sprite

import (
	"image"
	"image/draw"
)

// Sprite is a movable image. The zero position is the background origin;
// sprites may extend past the scene edges, the dirty rectangles are clipped
// during composition.
type Sprite struct {
	src image.Image

	pos     image.Point
	visible bool

	prevPos     image.Point
	prevVisible bool
	dirty       bool
}

// New returns a visible Sprite drawn from src.
func New(src image.Image) *Sprite {
	return &Sprite{
		src:     src,
		visible: true,
		dirty:   true,
	}
}

// Rect returns the current on-scene bounds.
func (s *Sprite) Rect() image.Rectangle {
	return s.src.Bounds().Sub(s.src.Bounds().Min).Add(s.pos)
}

func (s *Sprite) prevRect() image.Rectangle {
	return s.src.Bounds().Sub(s.src.Bounds().Min).Add(s.prevPos)
}

// Pos returns the current position.
func (s *Sprite) Pos() image.Point {
	return s.pos
}

// MoveTo places the sprite with its top-left corner at p.
func (s *Sprite) MoveTo(p image.Point) {
	if s.pos == p {
		return
	}
	s.pos = p
	s.dirty = true
}

// MoveBy shifts the sprite by (dx, dy).
func (s *Sprite) MoveBy(dx, dy int) {
	s.MoveTo(s.pos.Add(image.Point{X: dx, Y: dy}))
}

// Show makes the sprite visible.
func (s *Sprite) Show() {
	if !s.visible {
		s.visible = true
		s.dirty = true
	}
}

// Hide removes the sprite from the scene.
func (s *Sprite) Hide() {
	if s.visible {
		s.visible = false
		s.dirty = true
	}
}

func (s *Sprite) commit() {
	s.prevPos = s.pos
	s.prevVisible = s.visible
	s.dirty = false
}

// Scene owns a frame buffer, a static background and a set of sprites.
type Scene struct {
	bg      image.Image
	frame   *image.RGBA
	sprites []*Sprite
	started bool
}

// NewScene returns a Scene the size of bg.
func NewScene(bg image.Image) *Scene {
	b := bg.Bounds()
	return &Scene{
		bg:    bg,
		frame: image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy())),
	}
}

// Add appends a sprite. Later sprites draw on top of earlier ones.
func (sc *Scene) Add(s *Sprite) {
	sc.sprites = append(sc.sprites, s)
}

// Bounds returns the scene bounds.
func (sc *Scene) Bounds() image.Rectangle {
	return sc.frame.Bounds()
}

// Compose redraws everything that moved since the last call and returns the
// frame together with the dirtied rectangles, clipped to the scene. The first
// call paints the whole scene and reports it as one rectangle.
//
// The returned frame is owned by the Scene and valid until the next call.
func (sc *Scene) Compose() (*image.RGBA, []image.Rectangle) {
	bounds := sc.frame.Bounds()

	if !sc.started {
		sc.started = true
		sc.drawBackground(bounds)
		for _, s := range sc.sprites {
			if s.visible {
				sc.drawSprite(s, bounds)
			}
			s.commit()
		}
		return sc.frame, []image.Rectangle{bounds}
	}

	var dirty []image.Rectangle
	for _, s := range sc.sprites {
		if !s.dirty {
			continue
		}
		if s.prevVisible {
			if r := s.prevRect().Intersect(bounds); !r.Empty() {
				dirty = append(dirty, r)
			}
		}
		if s.visible {
			if r := s.Rect().Intersect(bounds); !r.Empty() {
				dirty = append(dirty, r)
			}
		}
	}

	for _, r := range dirty {
		sc.drawBackground(r)
	}
	// Repaint every visible sprite that touches a dirtied area, in z order,
	// so overlapping sprites stack the same way each frame.
	for _, s := range sc.sprites {
		if s.visible {
			sr := s.Rect()
			for _, r := range dirty {
				if sr.Overlaps(r) {
					sc.drawSprite(s, r)
				}
			}
		}
		s.commit()
	}
	return sc.frame, dirty
}

func (sc *Scene) drawBackground(r image.Rectangle) {
	sp := r.Min.Sub(sc.frame.Bounds().Min).Add(sc.bg.Bounds().Min)
	draw.Draw(sc.frame, r, sc.bg, sp, draw.Src)
}

// drawSprite paints the part of s that falls inside clip.
func (sc *Scene) drawSprite(s *Sprite, clip image.Rectangle) {
	r := s.Rect().Intersect(clip)
	if r.Empty() {
		return
	}
	sp := s.src.Bounds().Min.Add(r.Min.Sub(s.Rect().Min))
	draw.Draw(sc.frame, r, s.src, sp, draw.Over)
}
