// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pi0disp drives SPI-attached ST7789V TFT panels from small boards
// like the Raspberry Pi Zero.
//
// The driver itself lives in package st7789v. The remaining packages are the
// plumbing around it: conf loads the TOML configuration, sprite and imgutil
// prepare frames, termdisp and httpmirror preview them off-device, and
// cmd/pi0disp is the command line tool.
package pi0disp
