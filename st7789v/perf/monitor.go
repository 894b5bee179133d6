// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package perf

import "time"

const monitorWindow = 60

// Monitor tracks frame pacing for animation loops: achieved frame rate and
// per-frame processing time over a sliding window.
type Monitor struct {
	frameTimes   []time.Duration
	processTimes []time.Duration
	lastFrame    time.Time
	started      time.Time
	frames       int

	now func() time.Time // replaced in tests
}

// NewMonitor returns an empty Monitor.
func NewMonitor() *Monitor {
	m := &Monitor{now: time.Now}
	m.started = m.now()
	return m
}

// FrameStart marks the beginning of a frame and returns its start time, to
// be passed to FrameEnd.
func (m *Monitor) FrameStart() time.Time {
	t := m.now()
	if m.frames > 0 {
		m.frameTimes = appendBounded(m.frameTimes, t.Sub(m.lastFrame))
	}
	m.lastFrame = t
	m.frames++
	return t
}

// FrameEnd records the processing time of the frame started at start.
func (m *Monitor) FrameEnd(start time.Time) {
	m.processTimes = appendBounded(m.processTimes, m.now().Sub(start))
}

// FPS returns the mean frame rate over the sliding window, or 0 before the
// second frame.
func (m *Monitor) FPS() float64 {
	if len(m.frameTimes) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range m.frameTimes {
		sum += d
	}
	avg := sum / time.Duration(len(m.frameTimes))
	if avg <= 0 {
		return 0
	}
	return float64(time.Second) / float64(avg)
}

// AverageProcessTime returns the mean per-frame processing time over the
// sliding window.
func (m *Monitor) AverageProcessTime() time.Duration {
	if len(m.processTimes) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range m.processTimes {
		sum += d
	}
	return sum / time.Duration(len(m.processTimes))
}

// Frames returns the number of frames started.
func (m *Monitor) Frames() int {
	return m.frames
}

// Uptime returns the time elapsed since the Monitor was created.
func (m *Monitor) Uptime() time.Duration {
	return m.now().Sub(m.started)
}

func appendBounded(ring []time.Duration, d time.Duration) []time.Duration {
	ring = append(ring, d)
	if len(ring) > monitorWindow {
		ring = ring[1:]
	}
	return ring
}
