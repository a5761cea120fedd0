// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim provides a simulated acquisition board: a white noise
// excitation played through a pure delay and gain, sampled by 16-bit
// converters.
package sim // import "github.com/go-lpc/fra/sim"

import (
	"fmt"
	"math/rand"

	"github.com/go-lpc/fra/adc"
)

// Source is a simulated block source.
type Source struct {
	seed   int64
	rnd    *rand.Rand
	amp    float64
	gain   float64
	delay  int
	noise  float64
	frozen bool
}

// Option configures a simulated source.
type Option func(*Source)

// WithSeed sets the seed of the pseudo-random generator.
func WithSeed(seed int64) Option {
	return func(src *Source) {
		src.seed = seed
	}
}

// WithAmplitude sets the RMS amplitude of the excitation,
// as a fraction of the DAC full scale.
func WithAmplitude(amp float64) Option {
	return func(src *Source) {
		src.amp = amp
	}
}

// WithGain sets the gain of the simulated system.
func WithGain(g float64) Option {
	return func(src *Source) {
		src.gain = g
	}
}

// WithDelay sets the delay, in samples, of the simulated system.
func WithDelay(n int) Option {
	return func(src *Source) {
		src.delay = n
	}
}

// WithNoise sets the RMS amplitude of the noise added to the response,
// as a fraction of the ADC full scale.
func WithNoise(rms float64) Option {
	return func(src *Source) {
		src.noise = rms
	}
}

// Frozen makes the source return the same blocks at every fetch.
func Frozen() Option {
	return func(src *Source) {
		src.frozen = true
	}
}

// New returns a new simulated source.
func New(opts ...Option) *Source {
	src := &Source{
		seed: 1234,
		amp:  0.2,
		gain: 1,
	}
	for _, opt := range opts {
		opt(src)
	}
	if src.delay < 0 {
		src.delay = 0
	}
	src.rnd = rand.New(rand.NewSource(src.seed))
	return src
}

// Delay returns the delay of the simulated system, in samples.
func (src *Source) Delay() int { return src.delay }

// Gain returns the gain of the simulated system.
func (src *Source) Gain() float64 { return src.gain }

// Fetch returns n excitation and response samples, in ADC counts.
// The number of blocks is only validated: a real board would fill that
// many DMA descriptors.
func (src *Source) Fetch(blocks, n int) ([]float64, []float64, error) {
	if blocks < 1 {
		return nil, nil, fmt.Errorf("sim: invalid number of blocks %d", blocks)
	}
	if n < 0 {
		return nil, nil, fmt.Errorf("sim: invalid number of samples %d", n)
	}
	if src.frozen {
		src.rnd.Seed(src.seed)
	}

	var (
		d    = src.delay
		s    = make([]float64, n+d)
		exc  = make([]float64, n)
		resp = make([]float64, n)
	)
	for i := range s {
		s[i] = src.amp * src.rnd.NormFloat64()
	}
	for i := range exc {
		exc[i] = s[i+d]
		resp[i] = src.gain * s[i]
		if src.noise > 0 {
			resp[i] += src.noise * src.rnd.NormFloat64()
		}
	}

	return adc.Unpack(adc.Pack(exc), n), adc.Unpack(adc.Pack(resp), n), nil
}
