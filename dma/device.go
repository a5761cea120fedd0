// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dma drives an ADC/DAC board streaming samples through
// an AXI DMA engine in scatter-gather mode.
//
// The DAC reads its waveform from the MM2S memory window while the
// ADC writes its samples to the S2MM memory window. Both windows are
// split into descriptors of NumPoints packed words.
package dma // import "github.com/go-lpc/fra/dma"

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-lpc/fra/adc"
	"github.com/go-lpc/fra/bode"
	"github.com/go-lpc/fra/dma/internal/regs"
	"github.com/go-lpc/fra/internal/mmap"
)

const (
	// NumPoints is the number of packed words (two samples each)
	// transferred by one descriptor.
	NumPoints = 64 * 1024

	// MaxDesc is the maximum number of descriptors per channel.
	MaxDesc = 256

	descSize = regs.SG_DESC_SIZE
	descLen  = 4 * NumPoints // descriptor buffer length, in bytes
)

var _ bode.BlockSource = (*Device)(nil)

// Device is an ADC/DAC DMA board.
type Device struct {
	msg *log.Logger
	cfg config

	mem struct {
		fd *os.File

		ctl  *mmap.Handle
		sts  *mmap.Handle
		dma  *mmap.Handle
		sg   [2]*mmap.Handle // mm2s, s2mm
		ram  [2]*mmap.Handle // mm2s, s2mm
		maps []*mmap.Handle
	}

	err  error
	xbuf [4]byte

	ctl struct {
		adc reg32
	}
	sts struct {
		dnaLo reg32
		dnaHi reg32
	}
	mm2s channel
	s2mm channel
}

func newDevice(opts ...Option) *Device {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Device{
		msg: cfg.msg,
		cfg: cfg,
	}
}

// NewDevice opens the memory device devmem, maps the board registers
// and memory windows and programs the scatter-gather descriptors.
func NewDevice(devmem string, opts ...Option) (*Device, error) {
	f, err := os.OpenFile(devmem, os.O_RDWR|os.O_SYNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("dma: could not open %q: %w", devmem, err)
	}

	dev := newDevice(opts...)
	dev.mem.fd = f

	err = dev.mmap()
	if err != nil {
		_ = dev.Close()
		return nil, err
	}

	dev.bind()

	err = dev.init()
	if err != nil {
		_ = dev.Close()
		return nil, err
	}

	return dev, nil
}

func (dev *Device) mmap() error {
	for _, m := range []struct {
		name string
		h    **mmap.Handle
		base int64
		span int64
	}{
		{"ctl", &dev.mem.ctl, regs.CTL_BASE, regs.CTL_SPAN},
		{"sts", &dev.mem.sts, regs.STS_BASE, regs.STS_SPAN},
		{"dma", &dev.mem.dma, regs.DMA_BASE, regs.DMA_SPAN},
		{"ocm-mm2s", &dev.mem.sg[0], regs.OCM_MM2S_BASE, regs.OCM_MM2S_SPAN},
		{"ocm-s2mm", &dev.mem.sg[1], regs.OCM_S2MM_BASE, regs.OCM_S2MM_SPAN},
		{"ram-mm2s", &dev.mem.ram[0], regs.RAM_MM2S_BASE, regs.RAM_MM2S_SPAN},
		{"ram-s2mm", &dev.mem.ram[1], regs.RAM_S2MM_BASE, regs.RAM_S2MM_SPAN},
	} {
		h, err := mmap.Map(dev.mem.fd, m.base, m.span)
		if err != nil {
			return fmt.Errorf("dma: could not mmap %s: %w", m.name, err)
		}
		*m.h = h
		dev.mem.maps = append(dev.mem.maps, h)
	}
	return nil
}

func (dev *Device) bind() {
	dev.ctl.adc = newReg32(dev, dev.mem.ctl, regs.CTL_ADC_SELECT)
	dev.sts.dnaLo = newReg32(dev, dev.mem.sts, regs.STS_DNA_LO)
	dev.sts.dnaHi = newReg32(dev, dev.mem.sts, regs.STS_DNA_HI)

	dev.mm2s = channel{
		name:   "mm2s",
		cr:     newReg32(dev, dev.mem.dma, regs.MM2S_DMACR),
		sr:     newReg32(dev, dev.mem.dma, regs.MM2S_DMASR),
		cur:    newReg32(dev, dev.mem.dma, regs.MM2S_CURDESC),
		tail:   newReg32(dev, dev.mem.dma, regs.MM2S_TAILDESC),
		sg:     dev.mem.sg[0],
		sgAddr: regs.OCM_MM2S_BASE,
		ram:    dev.mem.ram[0],
		ramAdr: regs.RAM_MM2S_BASE,
	}

	dev.s2mm = channel{
		name:   "s2mm",
		cr:     newReg32(dev, dev.mem.dma, regs.S2MM_DMACR),
		sr:     newReg32(dev, dev.mem.dma, regs.S2MM_DMASR),
		cur:    newReg32(dev, dev.mem.dma, regs.S2MM_CURDESC),
		tail:   newReg32(dev, dev.mem.dma, regs.S2MM_TAILDESC),
		sg:     dev.mem.sg[1],
		sgAddr: regs.OCM_S2MM_BASE,
		ram:    dev.mem.ram[1],
		ramAdr: regs.RAM_S2MM_BASE,
	}
}

func (dev *Device) init() error {
	dev.mm2s.cr.w(regs.DMACR_RESET)
	dev.s2mm.cr.w(regs.DMACR_RESET)

	for i := 0; i < dev.cfg.ndesc; i++ {
		dev.setDescriptor(&dev.mm2s, i, regs.SG_CONTROL_SOF|regs.SG_CONTROL_EOF)
		dev.setDescriptor(&dev.s2mm, i, 0)
	}

	if dev.err != nil {
		return fmt.Errorf("dma: could not initialize descriptors: %w", dev.err)
	}

	dna, err := dev.DNA()
	if err != nil {
		return err
	}
	dev.msg.Printf("board DNA: 0x%016x", dna)
	return nil
}

func (dev *Device) setDescriptor(ch *channel, i int, flags uint32) {
	var (
		off  = int64(i) * descSize
		next = ch.descAddr((i + 1) % dev.cfg.ndesc)
		addr = ch.ramAdr + uint32(i)*descLen
	)
	dev.writeU32(ch.sg, off+regs.SG_NXTDESC, next)
	dev.writeU32(ch.sg, off+regs.SG_BUFFER_ADDRESS, addr)
	dev.writeU32(ch.sg, off+regs.SG_CONTROL, descLen|flags)
	dev.writeU32(ch.sg, off+regs.SG_STATUS, 0)
}

// Close unmaps the device memory and closes the memory device.
func (dev *Device) Close() error {
	var err error
	for i := len(dev.mem.maps) - 1; i >= 0; i-- {
		e := dev.mem.maps[i].Close()
		if e != nil && err == nil {
			err = fmt.Errorf("dma: could not unmap memory: %w", e)
		}
	}
	dev.mem.maps = nil

	if dev.mem.fd != nil {
		e := dev.mem.fd.Close()
		if e != nil && err == nil {
			err = fmt.Errorf("dma: could not close memory device: %w", e)
		}
		dev.mem.fd = nil
	}
	return err
}

// NumDesc returns the number of descriptors programmed per channel.
func (dev *Device) NumDesc() int { return dev.cfg.ndesc }

// DNA returns the unique device identifier of the FPGA.
func (dev *Device) DNA() (uint64, error) {
	var (
		lo = dev.sts.dnaLo.r()
		hi = dev.sts.dnaHi.r()
	)
	if dev.err != nil {
		return 0, fmt.Errorf("dma: could not read board DNA: %w", dev.err)
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// SelectADCChannel routes the ADC channel ch (0 or 1) to the DMA stream.
func (dev *Device) SelectADCChannel(ch uint32) error {
	if ch > 1 {
		return fmt.Errorf("dma: invalid ADC channel %d", ch)
	}
	dev.ctl.adc.w(ch)
	if dev.err != nil {
		return fmt.Errorf("dma: could not select ADC channel %d: %w", ch, dev.err)
	}
	return nil
}

// SetDACData loads packed DAC words into the MM2S memory window.
func (dev *Device) SetDACData(words []uint32) error {
	if max := dev.cfg.ndesc * NumPoints; len(words) > max {
		return fmt.Errorf("dma: too many DAC words (got=%d, max=%d)", len(words), max)
	}
	buf := make([]byte, 4*len(words))
	for i, v := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	_, err := dev.mm2s.ram.WriteAt(buf, 0)
	if err != nil {
		return fmt.Errorf("dma: could not write DAC data: %w", err)
	}
	return nil
}

// StartDMA starts a transfer of n descriptors on both channels.
func (dev *Device) StartDMA(n int) error {
	if n < 1 || n > dev.cfg.ndesc {
		return fmt.Errorf("dma: invalid number of descriptors %d (max=%d)", n, dev.cfg.ndesc)
	}

	for _, ch := range []*channel{&dev.mm2s, &dev.s2mm} {
		for i := 0; i < n; i++ {
			dev.writeU32(ch.sg, int64(i)*descSize+regs.SG_STATUS, 0)
		}
		ch.cur.w(ch.descAddr(0))
		ch.cr.set(regs.DMACR_RS)
	}
	dev.mm2s.tail.w(dev.mm2s.descAddr(n - 1))
	dev.s2mm.tail.w(dev.s2mm.descAddr(n - 1))

	if dev.err != nil {
		return fmt.Errorf("dma: could not start DMA: %w", dev.err)
	}
	return nil
}

// StopDMA stops both DMA channels.
func (dev *Device) StopDMA() error {
	n := dev.cfg.ndesc
	for _, ch := range []*channel{&dev.mm2s, &dev.s2mm} {
		ch.cr.clear(regs.DMACR_RS)
		ch.tail.w(ch.descAddr(n - 1))
	}

	if dev.err != nil {
		return fmt.Errorf("dma: could not stop DMA: %w", dev.err)
	}
	return nil
}

// wait waits for the S2MM channel to become idle.
func (dev *Device) wait() error {
	deadline := time.Now().Add(dev.cfg.timeout)
	for {
		sr := dev.s2mm.sr.r()
		if dev.err != nil {
			return fmt.Errorf("dma: could not read s2mm status: %w", dev.err)
		}
		if sr&regs.DMASR_ERR_MASK != 0 {
			return fmt.Errorf("dma: s2mm transfer error (status=0x%08x)", sr)
		}
		if sr&regs.DMASR_IDLE != 0 {
			return nil
		}
		if sr&regs.DMASR_HALTED != 0 {
			return fmt.Errorf("dma: s2mm channel halted (status=0x%08x)", sr)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf(
				"dma: timeout waiting for s2mm transfer (status=0x%08x, timeout=%v)",
				sr, dev.cfg.timeout,
			)
		}
		time.Sleep(dev.cfg.poll)
	}
}

// ReadRaw returns the first n packed words of the DAC and ADC memory
// windows.
func (dev *Device) ReadRaw(n int) (dac, adc []uint32, err error) {
	if max := dev.cfg.ndesc * NumPoints; n < 0 || n > max {
		return nil, nil, fmt.Errorf("dma: invalid number of words %d (max=%d)", n, max)
	}

	dac, err = readWords(dev.mm2s.ram, n)
	if err != nil {
		return nil, nil, fmt.Errorf("dma: could not read DAC data: %w", err)
	}

	adc, err = readWords(dev.s2mm.ram, n)
	if err != nil {
		return nil, nil, fmt.Errorf("dma: could not read ADC data: %w", err)
	}

	return dac, adc, nil
}

func readWords(r rwer, n int) ([]uint32, error) {
	buf := make([]byte, 4*n)
	_, err := r.ReadAt(buf, 0)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, n)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return words, nil
}

// Fetch runs a DMA transfer of the requested number of descriptors and
// returns the first n DAC (excitation) and ADC (response) samples.
func (dev *Device) Fetch(blocks, n int) (exc, resp []float64, err error) {
	err = dev.StartDMA(blocks)
	if err != nil {
		return nil, nil, err
	}

	err = dev.wait()
	if err != nil {
		_ = dev.StopDMA()
		return nil, nil, err
	}

	nw := (n + 1) / 2
	if max := blocks * NumPoints; nw > max {
		nw = max
	}
	dac, raw, err := dev.ReadRaw(nw)
	if err != nil {
		_ = dev.StopDMA()
		return nil, nil, err
	}

	err = dev.StopDMA()
	if err != nil {
		return nil, nil, err
	}

	return adc.Unpack(dac, n), adc.Unpack(raw, n), nil
}

func (dev *Device) readU32(r rwer, off int64) uint32 {
	if dev.err != nil {
		return 0
	}
	_, dev.err = r.ReadAt(dev.xbuf[:4], off)
	if dev.err != nil {
		dev.err = fmt.Errorf("dma: could not read register 0x%x: %w", off, dev.err)
		return 0
	}
	return binary.LittleEndian.Uint32(dev.xbuf[:4])
}

func (dev *Device) writeU32(w rwer, off int64, v uint32) {
	if dev.err != nil {
		return
	}
	binary.LittleEndian.PutUint32(dev.xbuf[:4], v)
	_, dev.err = w.WriteAt(dev.xbuf[:4], off)
	if dev.err != nil {
		dev.err = fmt.Errorf("dma: could not write register 0x%x: %w", off, dev.err)
		return
	}
}
