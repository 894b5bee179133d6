// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package perf

import (
	"testing"
	"time"
)

// fakeClock drives a Chunker without real waiting.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time {
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.t = f.t.Add(d)
}

func newTestChunker() (*Chunker, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	c := NewChunker()
	c.now = clk.now
	c.lastAdjust = clk.t
	return c, clk
}

// feed records n samples at the given throughput (bytes per second).
func feed(c *Chunker, n int, throughput float64) {
	const bytes = 4096
	for i := 0; i < n; i++ {
		c.Record(bytes, time.Duration(float64(bytes)/throughput*float64(time.Second)))
	}
}

func TestChunkerDefault(t *testing.T) {
	c := NewChunker()
	if got := c.ChunkSize(); got != DefaultChunkSize {
		t.Errorf("ChunkSize() = %d, want %d", got, DefaultChunkSize)
	}
}

func TestChunkerGrowsOnImprovement(t *testing.T) {
	c, clk := newTestChunker()
	feed(c, 10, 1e6)
	clk.advance(3 * time.Second)
	feed(c, 10, 2e6) // first sample adjusts with short history: hold
	clk.advance(3 * time.Second)
	feed(c, 1, 2e6) // full history, >5% better: grow by 20%
	if got, want := c.ChunkSize(), DefaultChunkSize*6/5; got != want {
		t.Errorf("ChunkSize() = %d, want %d", got, want)
	}
}

func TestChunkerShrinksOnDegradation(t *testing.T) {
	c, clk := newTestChunker()
	feed(c, 10, 2e6)
	clk.advance(3 * time.Second)
	feed(c, 10, 1e6)
	clk.advance(3 * time.Second)
	feed(c, 1, 1e6) // full history, >5% worse: shrink by 20%
	if got, want := c.ChunkSize(), DefaultChunkSize*4/5; got != want {
		t.Errorf("ChunkSize() = %d, want %d", got, want)
	}
}

func TestChunkerHoldsInsideDeadBand(t *testing.T) {
	c, clk := newTestChunker()
	feed(c, 10, 1e6)
	clk.advance(3 * time.Second)
	feed(c, 10, 1.02e6)
	clk.advance(3 * time.Second)
	feed(c, 1, 1.02e6) // within 5%: hold
	if got := c.ChunkSize(); got != DefaultChunkSize {
		t.Errorf("ChunkSize() = %d, want %d", got, DefaultChunkSize)
	}
}

func TestChunkerRespectsBounds(t *testing.T) {
	c, clk := newTestChunker()
	// Keep improving: size must saturate at the maximum.
	tp := 1e6
	for i := 0; i < 30; i++ {
		feed(c, 10, tp)
		clk.advance(3 * time.Second)
		tp *= 2
	}
	if got := c.ChunkSize(); got > MaxChunkSize {
		t.Errorf("ChunkSize() = %d, exceeds MaxChunkSize %d", got, MaxChunkSize)
	}

	c, clk = newTestChunker()
	tp = 1e12
	for i := 0; i < 60; i++ {
		feed(c, 10, tp)
		clk.advance(3 * time.Second)
		tp /= 2
	}
	if got := c.ChunkSize(); got < MinChunkSize {
		t.Errorf("ChunkSize() = %d, below MinChunkSize %d", got, MinChunkSize)
	}
}

func TestChunkerIgnoresBadSamples(t *testing.T) {
	c, _ := newTestChunker()
	c.Record(0, time.Millisecond)
	c.Record(4096, 0)
	c.Record(4096, -time.Second)
	if len(c.samples) != 0 {
		t.Errorf("bad samples were recorded: %d", len(c.samples))
	}
}

// The adjustment runs on the wall-clock interval, not on every sample.
func TestChunkerAdjustsOnInterval(t *testing.T) {
	c, _ := newTestChunker()
	feed(c, 10, 1e6)
	feed(c, 10, 10e6) // big improvement, but no time has passed
	if got := c.ChunkSize(); got != DefaultChunkSize {
		t.Errorf("ChunkSize() = %d before interval elapsed, want %d", got, DefaultChunkSize)
	}
}
