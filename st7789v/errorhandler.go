// Copyright 2025 The pi0disp Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package st7789v

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// sleep is replaced in tests to skip the datasheet settle times.
var sleep = time.Sleep

// errorHandler sequences bus and pin operations, keeping the first error and
// turning everything after it into a no-op. It implements controller.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) rstOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.rst.Out(l)
}

func (eh *errorHandler) dcOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.dc.Out(l)
}

// blOut drives the backlight line; a no-op when no backlight pin is wired.
func (eh *errorHandler) blOut(l gpio.Level) {
	if eh.err != nil || eh.d.bl == nil {
		return
	}
	eh.err = eh.d.bl.Out(l)
}

func (eh *errorHandler) cTx(w []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.c.Tx(w, nil)
}

func (eh *errorHandler) sendCommand(cmd byte) {
	eh.dcOut(gpio.Low)
	eh.cTx([]byte{cmd})
}

func (eh *errorHandler) sendData(data []byte) {
	eh.dcOut(gpio.High)
	eh.cTx(data)
}

func (eh *errorHandler) wait(d time.Duration) {
	if eh.err != nil {
		return
	}
	sleep(d)
}
