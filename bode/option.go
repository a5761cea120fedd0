// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bode

import (
	"log"
	"os"

	"github.com/go-lpc/fra/dsp"
)

// DefaultMaxBlocks is the default maximum number of blocks a single
// acquisition step may request.
const DefaultMaxBlocks = 256

type config struct {
	msg       *log.Logger
	maxBlocks int
	xform     func(n int, fs float64) Transformer
}

func newConfig() config {
	return config{
		msg:       log.New(os.Stdout, "bode: ", 0),
		maxBlocks: DefaultMaxBlocks,
		xform: func(n int, fs float64) Transformer {
			return dsp.NewRFFT(n, fs)
		},
	}
}

// Option configures an Estimator.
type Option func(*config)

// WithLogger sets the logger used by the Estimator.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithMaxBlocks sets the maximum number of blocks an acquisition step
// may request from the block source.
func WithMaxBlocks(n int) Option {
	return func(cfg *config) {
		if n < 1 {
			n = 1
		}
		cfg.maxBlocks = n
	}
}

// WithTransform sets the factory of the spectral transform used for a
// given FFT size and sample rate.
func WithTransform(f func(n int, fs float64) Transformer) Option {
	return func(cfg *config) {
		cfg.xform = f
	}
}
