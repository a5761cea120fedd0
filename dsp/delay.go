// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// MinDelayPoints is the minimum number of in-band, unmasked bins
	// needed to fit a group delay.
	MinDelayPoints = 10

	minDelayDenom = 1e-20
)

// EstimateDelay fits a line to the unwrapped phase of h as a function of
// frequency, over the bins with lo <= f <= hi that are retained by mask,
// and returns the corresponding time delay in seconds:
//
//	tau = -slope / 2π
//
// which matches a H(f) ∝ exp(-j·2π·f·tau) model.
//
// An empty mask retains every bin.
// EstimateDelay reports false (with a zero delay) when fewer than
// MinDelayPoints bins are selected, when the regression is degenerate
// or when the lengths of h, freqs and mask are inconsistent.
func EstimateDelay(h []complex128, freqs []float64, mask []bool, lo, hi float64) (float64, bool) {
	if len(h) != len(freqs) {
		return 0, false
	}
	if len(mask) != 0 && len(mask) != len(h) {
		return 0, false
	}

	var (
		phase = Unwrap(h)
		xs    = make([]float64, 0, len(freqs))
		ys    = make([]float64, 0, len(freqs))
	)
	for i, f := range freqs {
		if f < lo || f > hi {
			continue
		}
		if len(mask) != 0 && !mask[i] {
			continue
		}
		xs = append(xs, f)
		ys = append(ys, phase[i])
	}

	if len(xs) < MinDelayPoints {
		return 0, false
	}

	var (
		n     = float64(len(xs))
		sx    = floats.Sum(xs)
		sxx   = floats.Dot(xs, xs)
		denom = n*sxx - sx*sx
	)
	if math.Abs(denom) < minDelayDenom {
		return 0, false
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return -slope / (2 * math.Pi), true
}
