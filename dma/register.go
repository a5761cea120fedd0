// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dma

import (
	"io"
)

type rwer interface {
	io.ReaderAt
	io.WriterAt
}

type reg32 struct {
	r func() uint32
	w func(v uint32)
}

func newReg32(dev *Device, rw rwer, offset int64) reg32 {
	return reg32{
		r: func() uint32 {
			return dev.readU32(rw, offset)
		},
		w: func(v uint32) {
			dev.writeU32(rw, offset, v)
		},
	}
}

func (reg *reg32) set(mask uint32) {
	reg.w(reg.r() | mask)
}

func (reg *reg32) clear(mask uint32) {
	reg.w(reg.r() &^ mask)
}

// channel is one direction of the AXI DMA engine.
type channel struct {
	name string

	cr   reg32 // control register
	sr   reg32 // status register
	cur  reg32 // current descriptor
	tail reg32 // tail descriptor

	sg     rwer   // descriptor memory
	sgAddr uint32 // physical address of the descriptor memory
	ram    rwer   // sample memory
	ramAdr uint32 // physical address of the sample memory
}

func (ch *channel) descAddr(i int) uint32 {
	return ch.sgAddr + uint32(i)*descSize
}
