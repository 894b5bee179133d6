// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package st7789v controls a Sitronix ST7789V TFT panel over 4-wire SPI.
//
// The driver targets small boards like the Raspberry Pi Zero where the SPI
// bus is the bottleneck: frames are diffed against the last rendered one so
// only changed pixels cross the bus, pixel data is packed to big-endian
// RGB565 through lookup tables, and transfers are split into chunks whose
// size adapts to the observed bus throughput.
//
// # Datasheet
//
// https://www.rhydolabz.com/documents/33/ST7789.pdf
package st7789v
