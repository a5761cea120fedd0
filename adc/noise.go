// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adc

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// WhiteNoise returns n samples of gaussian white noise, normalized so
// that the largest sample magnitude equals peak.
func WhiteNoise(rnd *rand.Rand, n int, peak float64) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	max := 0.0
	for i := range out {
		out[i] = rnd.NormFloat64()
		max = math.Max(max, math.Abs(out[i]))
	}
	floats.Scale(peak/(max+1e-12), out)
	return out
}
