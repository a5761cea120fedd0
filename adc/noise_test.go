// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adc

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestWhiteNoise(t *testing.T) {
	rnd := rand.New(rand.NewSource(1234))

	if got := WhiteNoise(rnd, 0, 0.9); len(got) != 0 {
		t.Fatalf("invalid empty noise: %v", got)
	}

	const peak = 0.9
	got := WhiteNoise(rnd, 4096, peak)
	if len(got) != 4096 {
		t.Fatalf("invalid number of samples: %d", len(got))
	}

	max := math.Max(floats.Max(got), -floats.Min(got))
	if !scalar.EqualWithinAbsOrRel(max, peak, 1e-9, 1e-9) {
		t.Fatalf("invalid peak amplitude: got=%v, want=%v", max, peak)
	}

	words := Pack(got)
	if len(words) != 2048 {
		t.Fatalf("invalid number of packed words: %d", len(words))
	}
}
