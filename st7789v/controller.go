// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789v

import "time"

// ST7789V command set (datasheet section 8.1).
const (
	cmdNOP     byte = 0x00
	cmdSWRESET byte = 0x01
	cmdSLPIN   byte = 0x10
	cmdSLPOUT  byte = 0x11
	cmdNORON   byte = 0x13
	cmdINVOFF  byte = 0x20
	cmdINVON   byte = 0x21
	cmdDISPOFF byte = 0x28
	cmdDISPON  byte = 0x29
	cmdCASET   byte = 0x2A
	cmdRASET   byte = 0x2B
	cmdRAMWR   byte = 0x2C
	cmdMADCTL  byte = 0x36
	cmdCOLMOD  byte = 0x3A

	cmdPORCTRL   byte = 0xB2
	cmdGCTRL     byte = 0xB7
	cmdVCOMS     byte = 0xBB
	cmdLCMCTRL   byte = 0xC0
	cmdVDVVRHEN  byte = 0xC2
	cmdVRHS      byte = 0xC3
	cmdVDVS      byte = 0xC4
	cmdFRCTRL2   byte = 0xC6
	cmdPWCTRL1   byte = 0xD0
	cmdPVGAMCTRL byte = 0xE0
	cmdNVGAMCTRL byte = 0xE1
)

// MADCTL bits.
const (
	madctlMY  byte = 0x80 // row address order
	madctlMX  byte = 0x40 // column address order
	madctlMV  byte = 0x20 // row/column exchange
	madctlBGR byte = 0x08 // BGR panel wiring
)

// colmod16bpp selects the 65K-color 16-bit pixel interface.
const colmod16bpp byte = 0x55

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	wait(time.Duration)
}

type initStep struct {
	cmd   byte
	data  []byte
	delay time.Duration
}

// initSequence is the ST7789V bring-up: sleep-out, pixel format, porch and
// voltage settings, gamma curves, then display on. Delays are the settle
// times mandated by the datasheet.
func initSequence(invert bool) []initStep {
	inv := cmdINVOFF
	if invert {
		inv = cmdINVON
	}
	return []initStep{
		{cmd: cmdSWRESET, delay: 150 * time.Millisecond},
		{cmd: cmdSLPOUT, delay: 500 * time.Millisecond},
		{cmd: cmdCOLMOD, data: []byte{colmod16bpp}},
		{cmd: cmdPORCTRL, data: []byte{0x0C, 0x0C, 0x00, 0x33, 0x33}},
		{cmd: cmdGCTRL, data: []byte{0x35}},
		{cmd: cmdVCOMS, data: []byte{0x19}},
		{cmd: cmdLCMCTRL, data: []byte{0x2C}},
		{cmd: cmdVDVVRHEN, data: []byte{0x01, 0xFF}},
		{cmd: cmdVRHS, data: []byte{0x11}},
		{cmd: cmdVDVS, data: []byte{0x20}},
		{cmd: cmdFRCTRL2, data: []byte{0x0F}},
		{cmd: cmdPWCTRL1, data: []byte{0xA4, 0xA1}},
		{cmd: cmdPVGAMCTRL, data: []byte{
			0xD0, 0x00, 0x02, 0x07, 0x0A, 0x28, 0x32, 0x44,
			0x42, 0x06, 0x0E, 0x12, 0x14, 0x17, 0x00}},
		{cmd: cmdNVGAMCTRL, data: []byte{
			0xD0, 0x00, 0x02, 0x07, 0x0A, 0x28, 0x31, 0x54,
			0x47, 0x0E, 0x1C, 0x17, 0x1B, 0x1B, 0x00}},
		{cmd: inv},
		{cmd: cmdNORON},
		{cmd: cmdDISPON, delay: 100 * time.Millisecond},
	}
}

func initDisplay(ctrl controller, invert bool) {
	for _, s := range initSequence(invert) {
		ctrl.sendCommand(s.cmd)
		if len(s.data) > 0 {
			ctrl.sendData(s.data)
		}
		if s.delay > 0 {
			ctrl.wait(s.delay)
		}
	}
}

// setOrientation writes the MADCTL register for the given rotation and color
// order.
func setOrientation(ctrl controller, r Rotation, bgr bool) {
	ctrl.sendCommand(cmdMADCTL)
	ctrl.sendData([]byte{r.madctl(bgr)})
}

// setAddressWindow issues CASET/RASET for the inclusive hardware window and
// leaves the controller in RAMWR, ready to accept a pixel stream.
func setAddressWindow(ctrl controller, x0, y0, x1, y1 int) {
	ctrl.sendCommand(cmdCASET)
	ctrl.sendData([]byte{byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)})
	ctrl.sendCommand(cmdRASET)
	ctrl.sendData([]byte{byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)})
	ctrl.sendCommand(cmdRAMWR)
}
