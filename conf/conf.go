// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package conf loads the pi0disp configuration file.
//
// The file is TOML. Everything is optional; absent values fall back to the
// defaults for the common 240x320 panel wired like the usual Raspberry Pi
// hats. Configuration is resolved once at startup: the resulting Opts are
// plain values and nothing re-reads the file afterwards.
package conf

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"periph.io/x/conn/v3/physic"

	"github.com/ytani01/pi0disp/st7789v"
)

// Config is the root of the configuration file.
type Config struct {
	SPI    SPI    `toml:"spi"`
	Panel  Panel  `toml:"panel"`
	Render Render `toml:"render"`
}

// SPI names the bus and pins.
type SPI struct {
	// Port is a periph spireg port name, "" for the first available bus.
	Port string `toml:"port"`
	// SpeedHz is the SPI clock rate.
	SpeedHz int `toml:"speed_hz"`
	// DC, Reset and Backlight are gpioreg pin names. Backlight may be empty
	// when the backlight is hardwired.
	DC        string `toml:"dc"`
	Reset     string `toml:"reset"`
	Backlight string `toml:"backlight"`
}

// Panel describes the glass.
type Panel struct {
	Width    int  `toml:"width"`
	Height   int  `toml:"height"`
	Rotation int  `toml:"rotation"`
	XOffset  int  `toml:"x_offset"`
	YOffset  int  `toml:"y_offset"`
	BGR      bool `toml:"bgr"`
	Invert   bool `toml:"invert"`
}

// Render tunes the update pipeline.
type Render struct {
	Gamma          float64 `toml:"gamma"`
	MaxRegions     int     `toml:"max_regions"`
	MergeThreshold int     `toml:"merge_threshold"`
	// FPS caps the animation frame rate in the demo commands.
	FPS int `toml:"fps"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		SPI: SPI{
			SpeedHz:   32_000_000,
			DC:        "GPIO24",
			Reset:     "GPIO25",
			Backlight: "GPIO23",
		},
		Panel: Panel{
			Width:  240,
			Height: 320,
			Invert: true,
		},
		Render: Render{
			FPS: 30,
		},
	}
}

// Load reads the configuration from path. A missing file is not an error:
// the defaults are returned. Values absent from the file keep their default.
func Load(path string) (*Config, error) {
	c := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c, nil
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("conf: %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("conf: %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.Panel.Rotation {
	case 0, 90, 180, 270:
	default:
		return fmt.Errorf("invalid rotation %d", c.Panel.Rotation)
	}
	if c.Panel.Width <= 0 || c.Panel.Height <= 0 {
		return fmt.Errorf("invalid panel size %dx%d", c.Panel.Width, c.Panel.Height)
	}
	if c.SPI.SpeedHz <= 0 {
		return fmt.Errorf("invalid SPI speed %d", c.SPI.SpeedHz)
	}
	return nil
}

// DisplayOpts converts the configuration into driver options.
func (c *Config) DisplayOpts() *st7789v.Opts {
	return &st7789v.Opts{
		W:              c.Panel.Width,
		H:              c.Panel.Height,
		Rotation:       st7789v.Rotation(c.Panel.Rotation),
		XOffset:        c.Panel.XOffset,
		YOffset:        c.Panel.YOffset,
		BGR:            c.Panel.BGR,
		Invert:         c.Panel.Invert,
		Gamma:          c.Render.Gamma,
		Speed:          physic.Frequency(c.SPI.SpeedHz) * physic.Hertz,
		MaxRegions:     c.Render.MaxRegions,
		MergeThreshold: c.Render.MergeThreshold,
	}
}
