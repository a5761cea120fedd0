// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsp

import (
	"math"
)

// Unwrap returns the continuous phase of h.
//
// The raw phase of each bin is atan2(imag, real). Whenever the forward
// difference between two consecutive raw phases exceeds +π (resp. -π),
// 2π is subtracted from (resp. added to) a running offset, which is then
// applied to all subsequent samples.
func Unwrap(h []complex128) []float64 {
	phase := make([]float64, len(h))
	if len(h) == 0 {
		return phase
	}
	for i, v := range h {
		phase[i] = math.Atan2(imag(v), real(v))
	}

	offset := 0.0
	prev := phase[0]
	for i := 1; i < len(phase); i++ {
		raw := phase[i]
		switch delta := raw - prev; {
		case delta > math.Pi:
			offset -= 2 * math.Pi
		case delta < -math.Pi:
			offset += 2 * math.Pi
		}
		prev = raw
		phase[i] = raw + offset
	}
	return phase
}
