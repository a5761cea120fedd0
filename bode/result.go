// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bode

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Result is a snapshot of a transfer function estimate.
//
// NFFT is the block length requested at Reset. When the transform
// output changes size, Freqs follows the live spectrum and spans
// 2*(len(Freqs)-1) samples while NFFT is left untouched.
type Result struct {
	NFFT       int     // requested block length, in samples
	SampleRate float64 // sampling rate, in Hz
	Count      int     // number of averaged blocks
	Delay      float64 // removed group delay, in seconds
	DelayOK    bool    // whether Delay comes from a successful fit

	Freqs []float64 // bin frequencies, in Hz
	Re    []float64 // real part of H
	Im    []float64 // imaginary part of H
	Mask  []bool    // bins with enough excitation power
}

// Len returns the number of frequency bins.
func (r *Result) Len() int { return len(r.Freqs) }

// H returns the transfer function at bin i.
func (r *Result) H(i int) complex128 { return complex(r.Re[i], r.Im[i]) }

// Defined reports whether bin i holds a computed value.
func (r *Result) Defined(i int) bool {
	return !math.IsNaN(r.Re[i]) && !math.IsNaN(r.Im[i])
}

// Mag returns the magnitude of the transfer function at bin i, in dB.
func (r *Result) Mag(i int) float64 {
	return 20 * math.Log10(cmplx.Abs(r.H(i)))
}

// Phase returns the phase of the transfer function at bin i, in radians.
func (r *Result) Phase(i int) float64 {
	return cmplx.Phase(r.H(i))
}

// Baseline returns the transfer function of the result in a form
// suitable for Estimator.SetBaseline.
// Bins that are masked out or undefined are marked invalid.
func (r *Result) Baseline() (re, im []float64, mask []bool) {
	re = append([]float64(nil), r.Re...)
	im = append([]float64(nil), r.Im...)
	mask = make([]bool, len(re))
	for i := range mask {
		ok := i < len(r.Mask) && r.Mask[i]
		mask[i] = ok && r.Defined(i)
	}
	return re, im, mask
}

func (r *Result) validate() error {
	n := len(r.Freqs)
	if len(r.Re) != n || len(r.Im) != n || len(r.Mask) != n {
		return fmt.Errorf(
			"bode: inconsistent result sizes (freqs=%d, re=%d, im=%d, mask=%d)",
			n, len(r.Re), len(r.Im), len(r.Mask),
		)
	}
	return nil
}
