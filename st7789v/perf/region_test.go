// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package perf

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClampRegion(t *testing.T) {
	for _, tc := range []struct {
		name string
		r    image.Rectangle
		want image.Rectangle
	}{
		{name: "inside", r: image.Rect(10, 10, 20, 20), want: image.Rect(10, 10, 20, 20)},
		{name: "negative origin", r: image.Rect(-5, -7, 20, 20), want: image.Rect(0, 0, 20, 20)},
		{name: "past edges", r: image.Rect(200, 300, 400, 500), want: image.Rect(200, 300, 240, 320)},
		{name: "fully outside", r: image.Rect(300, 400, 500, 600), want: image.Rectangle{Min: image.Point{X: 300, Y: 400}, Max: image.Point{X: 240, Y: 320}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := ClampRegion(tc.r, 240, 320)
			if got != tc.want {
				t.Errorf("ClampRegion(%v) = %v, want %v", tc.r, got, tc.want)
			}
			if again := ClampRegion(got, 240, 320); again != got {
				t.Errorf("ClampRegion is not idempotent: %v -> %v", got, again)
			}
		})
	}
}

func TestMergeRegionsDropsInvalid(t *testing.T) {
	got := MergeRegions([]image.Rectangle{
		{},
		image.Rect(0, 0, 0, 10),
		{Min: image.Point{X: 10, Y: 10}, Max: image.Point{X: 5, Y: 20}},
	}, DefaultMaxRegions, DefaultMergeThreshold)
	if len(got) != 0 {
		t.Errorf("MergeRegions() kept invalid regions: %v", got)
	}
}

func TestMergeRegionsProximity(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   []image.Rectangle
		want []image.Rectangle
	}{
		{
			name: "overlapping pair fuses",
			in:   []image.Rectangle{image.Rect(0, 0, 20, 20), image.Rect(10, 10, 30, 30)},
			want: []image.Rectangle{image.Rect(0, 0, 30, 30)},
		},
		{
			name: "nearby pair fuses",
			in:   []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(40, 0, 50, 10)},
			want: []image.Rectangle{image.Rect(0, 0, 50, 10)},
		},
		{
			name: "distant pair stays apart",
			in:   []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(100, 100, 111, 111)},
			want: []image.Rectangle{image.Rect(0, 0, 10, 10), image.Rect(100, 100, 111, 111)},
		},
		{
			name: "single region passes through",
			in:   []image.Rectangle{image.Rect(5, 5, 15, 15)},
			want: []image.Rectangle{image.Rect(5, 5, 15, 15)},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeRegions(tc.in, DefaultMaxRegions, DefaultMergeThreshold)
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("MergeRegions() difference (-got +want):\n%s", diff)
			}
		})
	}
}

// The union of the output must cover the union of the valid inputs, and the
// output count must respect the budget.
func TestMergeRegionsCoverage(t *testing.T) {
	in := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(100, 0, 110, 10),
		image.Rect(0, 200, 10, 210),
		image.Rect(200, 200, 210, 210),
		image.Rect(50, 50, 60, 60),
		image.Rect(120, 120, 130, 130),
	}
	const maxRegions = 3
	got := MergeRegions(in, maxRegions, 10)
	if len(got) > maxRegions {
		t.Fatalf("MergeRegions() returned %d regions, budget is %d", len(got), maxRegions)
	}
	for _, r := range in {
		covered := false
		for _, m := range got {
			if r.In(m) {
				covered = true
				break
			}
		}
		if !covered {
			t.Errorf("input %v is not covered by any output region %v", r, got)
		}
	}
}

// Forced merges must pick the pair whose fusion wastes the least area.
func TestMergeRegionsForcedMergePicksCheapestPair(t *testing.T) {
	in := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(12, 0, 23, 10),      // cheap to fuse with the first (tiny gap)
		image.Rect(500, 500, 512, 512), // expensive to fuse with anything
	}
	got := MergeRegions(in, 2, 1)
	want := []image.Rectangle{
		image.Rect(0, 0, 23, 10),
		image.Rect(500, 500, 512, 512),
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("MergeRegions() difference (-got +want):\n%s", diff)
	}
}
