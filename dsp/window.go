// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsp

import (
	"gonum.org/v1/gonum/dsp/window"
)

// Hann returns the n coefficients of a symmetric Hann taper:
//
//	w[i] = 0.5 - 0.5*cos(2π·i/(n-1))
//
// Hann returns an empty slice for n <= 0 and [1] for n == 1.
func Hann(n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{1}
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return window.Hann(w)
}
