// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bode

import (
	"io"
	"log"
	"math/rand"
)

var discard = log.New(io.Discard, "bode: ", 0)

// fixedSource returns the same pair of blocks at every fetch.
type fixedSource struct {
	exc  []float64
	resp []float64
	reqs []int
	err  error
}

func (src *fixedSource) Fetch(blocks, n int) ([]float64, []float64, error) {
	src.reqs = append(src.reqs, blocks)
	if src.err != nil {
		return nil, nil, src.err
	}
	return src.exc, src.resp, nil
}

// noise returns n samples of white noise and their filtered response.
func noise(seed int64, n int) (exc, resp []float64) {
	rnd := rand.New(rand.NewSource(seed))
	exc = make([]float64, n)
	resp = make([]float64, n)
	for i := range exc {
		exc[i] = rnd.NormFloat64()
	}
	for i := range resp {
		resp[i] = 0.5 * exc[i]
		if i > 0 {
			resp[i] += 0.25 * exc[i-1]
		}
	}
	return exc, resp
}

// specXform returns fixed spectra, alternating between
// the excitation and the response ones.
type specXform struct {
	calls int
	x, y  []complex128
}

func (xf *specXform) Transform(dst []complex128, seq []float64) []complex128 {
	xf.calls++
	if xf.calls%2 == 1 {
		return append([]complex128(nil), xf.x...)
	}
	return append([]complex128(nil), xf.y...)
}
