// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package perf

import (
	"image"
	"sort"
)

// Defaults for MergeRegions, tuned for a 240x320 panel on a slow SPI bus.
const (
	// DefaultMaxRegions bounds the number of separate window-set/transfer
	// pairs per frame.
	DefaultMaxRegions = 8
	// DefaultMergeThreshold is the gap, in pixels, below which two regions
	// are cheaper to transfer as one.
	DefaultMergeThreshold = 50
)

// ClampRegion clips r to [0, width) x [0, height).
//
// Degenerate coordinates are not normalized: a region that is empty after
// clamping stays empty and the caller must check r.Dx() > 0 && r.Dy() > 0.
// ClampRegion is idempotent.
func ClampRegion(r image.Rectangle, width, height int) image.Rectangle {
	if r.Min.X < 0 {
		r.Min.X = 0
	}
	if r.Min.Y < 0 {
		r.Min.Y = 0
	}
	if r.Max.X > width {
		r.Max.X = width
	}
	if r.Max.Y > height {
		r.Max.Y = height
	}
	return r
}

// MergeRegions fuses a set of candidate dirty rectangles into at most
// maxRegions rectangles covering at least the same area.
//
// The first pass is a cheap proximity merge: rectangles are processed in
// ascending area order and fused with the first already-accepted rectangle
// that overlaps or lies within mergeThreshold pixels along both axes; when
// none qualifies, the remaining candidates are scanned once for a fusable
// partner before the rectangle is accepted standalone. If the result still
// exceeds maxRegions, the pair whose bounding-box fusion adds the least area
// is merged repeatedly until the budget holds.
//
// Empty and inverted rectangles are dropped. The union of the output always
// covers the union of the valid inputs.
func MergeRegions(regions []image.Rectangle, maxRegions, mergeThreshold int) []image.Rectangle {
	valid := make([]image.Rectangle, 0, len(regions))
	for _, r := range regions {
		if r.Dx() > 0 && r.Dy() > 0 {
			valid = append(valid, r)
		}
	}
	if len(valid) <= 1 {
		return valid
	}
	sort.Slice(valid, func(i, j int) bool {
		return area(valid[i]) < area(valid[j])
	})

	var merged []image.Rectangle
	for len(valid) > 0 {
		cur := valid[0]
		valid = valid[1:]

		fused := false
		for i, m := range merged {
			if nearby(cur, m, mergeThreshold) {
				merged[i] = m.Union(cur)
				fused = true
				break
			}
		}
		if fused {
			continue
		}
		for j, other := range valid {
			if nearby(cur, other, mergeThreshold) {
				cur = cur.Union(other)
				valid = append(valid[:j], valid[j+1:]...)
				break
			}
		}
		merged = append(merged, cur)
	}

	// Over budget: force-merge the cheapest pair until the count fits.
	for maxRegions > 0 && len(merged) > maxRegions {
		bi, bj := 0, 1
		best := -1
		for i := 0; i < len(merged); i++ {
			for j := i + 1; j < len(merged); j++ {
				cost := area(merged[i].Union(merged[j])) - area(merged[i]) - area(merged[j])
				if best < 0 || cost < best {
					bi, bj, best = i, j, cost
				}
			}
		}
		merged[bi] = merged[bi].Union(merged[bj])
		merged = append(merged[:bj], merged[bj+1:]...)
	}
	return merged
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

// nearby reports whether a and b overlap or are separated by at most
// threshold pixels along both axes. The gap is negative when the rectangles
// overlap on that axis.
func nearby(a, b image.Rectangle, threshold int) bool {
	xGap := max(a.Min.X, b.Min.X) - min(a.Max.X, b.Max.X)
	yGap := max(a.Min.Y, b.Min.Y) - min(a.Max.Y, b.Max.Y)
	return xGap <= threshold && yGap <= threshold
}
