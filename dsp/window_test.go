// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsp

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestHann(t *testing.T) {
	if got := Hann(0); len(got) != 0 {
		t.Fatalf("invalid n=0 window: got=%v", got)
	}
	if got := Hann(-2); len(got) != 0 {
		t.Fatalf("invalid n<0 window: got=%v", got)
	}
	if got := Hann(1); len(got) != 1 || got[0] != 1 {
		t.Fatalf("invalid n=1 window: got=%v, want=[1]", got)
	}

	for _, n := range []int{2, 3, 8, 255, 1024} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			w := Hann(n)
			if got, want := len(w), n; got != want {
				t.Fatalf("invalid length: got=%d, want=%d", got, want)
			}
			if w[0] != w[n-1] {
				t.Fatalf("window not symmetric: w[0]=%v, w[n-1]=%v", w[0], w[n-1])
			}
			for i := range w {
				want := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
				if !scalar.EqualWithinAbsOrRel(w[i], want, 1e-12, 1e-12) {
					t.Fatalf("invalid w[%d]: got=%v, want=%v", i, w[i], want)
				}
				if !scalar.EqualWithinAbs(w[i], w[n-1-i], 1e-12) {
					t.Fatalf("window not symmetric at %d: %v != %v", i, w[i], w[n-1-i])
				}
			}
		})
	}
}
