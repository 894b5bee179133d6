// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package perf

import "time"

// Chunk size bounds. A chunk that is too small wastes syscall overhead, one
// that is too big holds the bus and a large buffer for too long.
const (
	DefaultChunkSize = 4096
	MinChunkSize     = 1024
	MaxChunkSize     = 16384
)

const (
	chunkWindow    = 20
	adjustInterval = 2 * time.Second
)

// Chunker sizes pixel transfers from observed bus throughput.
//
// It keeps a bounded ring of recent (bytes, duration) samples and every
// adjustInterval compares the mean throughput of the newest ten samples
// against the ten before them: more than 5% better grows the chunk size by
// 20%, more than 5% worse shrinks it by 20%, anything in between holds.
//
// Chunker is not safe for concurrent use; it is owned by a single driver.
type Chunker struct {
	size int
	min  int
	max  int

	samples    []float64 // bytes per second, newest last
	lastAdjust time.Time

	now func() time.Time // replaced in tests
}

// NewChunker returns a Chunker starting at DefaultChunkSize.
func NewChunker() *Chunker {
	c := &Chunker{
		size: DefaultChunkSize,
		min:  MinChunkSize,
		max:  MaxChunkSize,
		now:  time.Now,
	}
	c.lastAdjust = c.now()
	return c
}

// ChunkSize returns the current chunk size in bytes. It never blocks on a
// recalculation.
func (c *Chunker) ChunkSize() int {
	return c.size
}

// Record adds a transfer sample. Samples with a non-positive duration are
// ignored.
func (c *Chunker) Record(bytes int, elapsed time.Duration) {
	if elapsed <= 0 || bytes <= 0 {
		return
	}
	c.samples = append(c.samples, float64(bytes)/elapsed.Seconds())
	if len(c.samples) > chunkWindow {
		c.samples = c.samples[1:]
	}
	if len(c.samples) >= 10 && c.now().Sub(c.lastAdjust) > adjustInterval {
		c.adjust()
	}
}

func (c *Chunker) adjust() {
	recent := mean(c.samples[len(c.samples)-10:])
	older := recent
	if len(c.samples) >= 20 {
		older = mean(c.samples[len(c.samples)-20 : len(c.samples)-10])
	}
	switch {
	case recent > older*1.05:
		c.size = min(c.max, c.size*6/5)
	case recent < older*0.95:
		c.size = max(c.min, c.size*4/5)
	}
	c.lastAdjust = c.now()
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
