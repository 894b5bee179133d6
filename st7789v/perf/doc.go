// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package perf provides the optimization building blocks used by the st7789v
// driver: RGB565 color packing, dirty region merging and adaptive SPI
// transfer chunking.
//
// Everything in this package is independent of the panel hardware and can be
// used on its own.
package perf
