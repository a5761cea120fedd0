// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bode implements an online frequency-response (Bode) estimator.
//
// An Estimator accumulates Welch averages of the excitation auto-spectrum
// and of the response/excitation cross-spectrum, one block at a time, and
// republishes the transfer function H(f) = Syx(f)/Sxx(f) after every block.
// The estimate may optionally be corrected for a pure group delay and
// normalized against a previously recorded baseline.
package bode // import "github.com/go-lpc/fra/bode"

import (
	"errors"
)

// ErrNotReady is returned when an Estimator is driven before it has been
// reset with an FFT size and a sample rate.
var ErrNotReady = errors.New("bode: estimator not ready")

// BlockSource provides pairs of excitation and response sample blocks.
type BlockSource interface {
	// Fetch acquires the requested number of blocks and returns
	// the first n excitation and response samples.
	Fetch(blocks, n int) (exc, resp []float64, err error)
}

// Transformer computes the complex spectrum of a real sequence.
type Transformer interface {
	Transform(dst []complex128, seq []float64) []complex128
}

// Step holds the parameters of one acquisition step.
type Step struct {
	Blocks        int     // number of blocks to acquire
	Threshold     float64 // relative excitation power below which a bin is masked out
	RemoveDelay   bool    // whether to estimate and remove the group delay
	BandLo        float64 // lower bound (Hz) of the delay fit band
	BandHi        float64 // upper bound (Hz) of the delay fit band
	ApplyBaseline bool    // whether to normalize H by the baseline
}
