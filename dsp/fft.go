// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsp

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// RFFT computes the spectrum of real sequences of a fixed length,
// sampled at a fixed rate.
type RFFT struct {
	n   int
	fs  float64
	fft *fourier.FFT
}

// NewRFFT returns a real FFT for sequences of length n sampled at fs Hz.
func NewRFFT(n int, fs float64) *RFFT {
	return &RFFT{
		n:   n,
		fs:  fs,
		fft: fourier.NewFFT(n),
	}
}

// Len returns the length of the sequences the RFFT operates on.
func (t *RFFT) Len() int { return t.n }

// Bins returns the number of frequency bins, n/2+1.
func (t *RFFT) Bins() int { return t.n/2 + 1 }

// Transform computes the n/2+1 Fourier coefficients of seq.
// If dst is nil, a new slice is allocated and returned.
// Transform panics if len(seq) != Len().
func (t *RFFT) Transform(dst []complex128, seq []float64) []complex128 {
	return t.fft.Coefficients(dst, seq)
}

// Freqs returns the frequencies, in Hz, of the n/2+1 bins.
func (t *RFFT) Freqs() []float64 {
	freqs := make([]float64, t.Bins())
	for i := range freqs {
		freqs[i] = t.fft.Freq(i) * t.fs
	}
	return freqs
}

// RFFTFreq returns the n/2+1 bin frequencies of a real FFT of length n
// for a sampling rate fs, with the standard fs/n spacing.
func RFFTFreq(n int, fs float64) []float64 {
	if n <= 0 {
		return []float64{}
	}
	freqs := make([]float64, n/2+1)
	for i := range freqs {
		freqs[i] = float64(i) * fs / float64(n)
	}
	return freqs
}
