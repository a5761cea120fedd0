// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package daq

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/go-lpc/fra/adc"
	"github.com/go-lpc/fra/bode"
	"github.com/go-lpc/fra/config"
	"github.com/go-lpc/fra/dma"
	"github.com/go-lpc/fra/sim"
)

// SimDevice is the device name selecting the simulated board.
const SimDevice = "sim"

// Exciter loads an excitation waveform into the DAC of a board.
type Exciter interface {
	SetDACData(words []uint32) error
}

// OpenSource opens the block source named dev.
// The special name SimDevice selects a simulated board seeded from cfg.
func OpenSource(dev string, cfg config.Run) (bode.BlockSource, error) {
	if dev == SimDevice {
		return sim.New(sim.WithSeed(cfg.Seed), sim.WithNoise(1e-3)), nil
	}

	board, err := dma.NewDevice(dev)
	if err != nil {
		return nil, fmt.Errorf("daq: could not open board %q: %w", dev, err)
	}

	err = board.SelectADCChannel(cfg.Channel)
	if err != nil {
		_ = board.Close()
		return nil, fmt.Errorf("daq: could not configure board %q: %w", dev, err)
	}

	return board, nil
}

// CloseSource releases the resources held by src, if any.
func CloseSource(src bode.BlockSource) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Excite loads a new white noise excitation, covering blocks DMA
// descriptors, into the DAC of src.
// Excite reports whether src was able to take an excitation.
func Excite(src bode.BlockSource, rnd *rand.Rand, blocks int, peak float64) (bool, error) {
	dac, ok := src.(Exciter)
	if !ok {
		return false, nil
	}

	words := adc.Pack(adc.WhiteNoise(rnd, 2*blocks*dma.NumPoints, peak))
	err := dac.SetDACData(words)
	if err != nil {
		return true, fmt.Errorf("daq: could not load excitation: %w", err)
	}
	return true, nil
}
