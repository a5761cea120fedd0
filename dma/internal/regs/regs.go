// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regs holds the memory map of the ADC/DAC DMA bitstream
// and the register layout of the AXI DMA engine.
package regs // import "github.com/go-lpc/fra/dma/internal/regs"

// Memory map.
const (
	CTL_BASE = 0x60000000 // control registers
	CTL_SPAN = 0x1000

	STS_BASE = 0x50000000 // status registers
	STS_SPAN = 0x1000

	DMA_BASE = 0x80000000 // AXI DMA registers
	DMA_SPAN = 0x10000

	OCM_MM2S_BASE = 0xffff0000 // scatter-gather descriptors (DAC)
	OCM_MM2S_SPAN = 0x8000
	OCM_S2MM_BASE = 0xffff8000 // scatter-gather descriptors (ADC)
	OCM_S2MM_SPAN = 0x8000

	RAM_S2MM_BASE = 0x18000000 // ADC samples
	RAM_S2MM_SPAN = 0x4000000
	RAM_MM2S_BASE = 0x1c000000 // DAC samples
	RAM_MM2S_SPAN = 0x4000000
)

// Control and status registers.
const (
	CTL_ADC_SELECT = 0x00 // ADC channel routed to the S2MM stream

	STS_DNA_LO = 0x00 // FPGA device identifier
	STS_DNA_HI = 0x04
)

// AXI DMA registers.
const (
	MM2S_DMACR    = 0x00
	MM2S_DMASR    = 0x04
	MM2S_CURDESC  = 0x08
	MM2S_TAILDESC = 0x10

	S2MM_DMACR    = 0x30
	S2MM_DMASR    = 0x34
	S2MM_CURDESC  = 0x38
	S2MM_TAILDESC = 0x40
)

// DMA control register bits.
const (
	DMACR_RS    = 1 << 0 // run/stop
	DMACR_RESET = 1 << 2
)

// DMA status register bits.
const (
	DMASR_HALTED = 1 << 0
	DMASR_IDLE   = 1 << 1

	DMASR_INT_ERR = 1 << 4
	DMASR_SLV_ERR = 1 << 5
	DMASR_DEC_ERR = 1 << 6

	DMASR_ERR_MASK = DMASR_INT_ERR | DMASR_SLV_ERR | DMASR_DEC_ERR
)

// Scatter-gather descriptor layout.
const (
	SG_DESC_SIZE = 0x40

	SG_NXTDESC        = 0x00
	SG_BUFFER_ADDRESS = 0x08
	SG_CONTROL        = 0x18
	SG_STATUS         = 0x1c

	SG_CONTROL_SOF = 1 << 27
	SG_CONTROL_EOF = 1 << 26
)
