// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bode

import (
	"fmt"
	"log"
	"math"
	"math/cmplx"

	"github.com/go-lpc/fra/dsp"
	"gonum.org/v1/gonum/floats"
)

const (
	eps       = 1e-30 // regularizes the H = Syx/Sxx division
	minBaseln = 1e-12 // smallest usable baseline magnitude
)

// Estimator is an online transfer function estimator.
//
// Estimator is not safe for concurrent use.
type Estimator struct {
	msg *log.Logger
	src BlockSource
	cfg config

	ready bool
	nfft  int
	fs    float64
	win   []float64
	freqs []float64
	xform Transformer

	sxx     []float64    // running mean of |X|²
	syx     []complex128 // running mean of Y·conj(X)
	h       []complex128
	re      []float64
	im      []float64
	mask    []bool
	defined []bool
	count   int

	delay   float64
	delayOK bool

	base Baseline

	xbuf []float64
	ybuf []float64
}

// New returns a new estimator acquiring blocks from src.
// The estimator must be Reset before it can be used.
func New(src BlockSource, opts ...Option) *Estimator {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Estimator{
		msg: cfg.msg,
		src: src,
		cfg: cfg,
	}
}

// Reset re-creates the estimator state for blocks of nfft samples taken
// at fs Hz. A non-positive nfft is coerced to 1.
// The baseline is left untouched.
func (est *Estimator) Reset(nfft int, fs float64) {
	if nfft < 1 {
		nfft = 1
	}
	est.nfft = nfft
	est.fs = fs
	est.win = dsp.Hann(nfft)
	est.freqs = dsp.RFFTFreq(nfft, fs)
	est.xform = est.cfg.xform(nfft, fs)
	est.xbuf = make([]float64, nfft)
	est.ybuf = make([]float64, nfft)
	est.alloc(len(est.freqs))
	est.delay = 0
	est.delayOK = false
	est.ready = true
}

func (est *Estimator) alloc(n int) {
	est.sxx = make([]float64, n)
	est.syx = make([]complex128, n)
	est.h = make([]complex128, n)
	est.re = make([]float64, n)
	est.im = make([]float64, n)
	est.mask = make([]bool, n)
	est.defined = make([]bool, n)
	est.count = 0
}

// resize reallocates the per-bin state for n bins, discarding the
// running averages.
func (est *Estimator) resize(n int) {
	est.msg.Printf(
		"spectrum size changed (%d -> %d bins): discarding %d averaged blocks",
		len(est.sxx), n, est.count,
	)
	est.alloc(n)
	m := 2 * (n - 1)
	if m < 1 {
		m = 1
	}
	est.freqs = dsp.RFFTFreq(m, est.fs)
}

// SetBaseline loads the reference transfer function used to normalize
// the estimate.
func (est *Estimator) SetBaseline(re, im []float64, mask []bool) {
	est.base.Set(re, im, mask)
}

// ClearBaseline invalidates the reference transfer function.
func (est *Estimator) ClearBaseline() {
	est.base.Clear()
}

// Baseline returns the baseline store of the estimator.
func (est *Estimator) Baseline() *Baseline { return &est.base }

// AcquireStep fetches a block pair from the block source and folds it
// into the running estimate.
// The number of requested blocks is clamped to [1, max-blocks].
// On a fetch failure the estimator state is left unmodified.
func (est *Estimator) AcquireStep(step Step) error {
	if !est.ready {
		return ErrNotReady
	}
	if est.src == nil {
		return fmt.Errorf("bode: no block source")
	}

	blocks := step.Blocks
	switch {
	case blocks < 1:
		blocks = 1
	case blocks > est.cfg.maxBlocks:
		blocks = est.cfg.maxBlocks
	}

	exc, resp, err := est.src.Fetch(blocks, est.nfft)
	if err != nil {
		return fmt.Errorf("bode: could not fetch %d blocks: %w", blocks, err)
	}

	return est.Update(exc, resp, step)
}

// Update folds one pair of excitation and response blocks into the
// running estimate and republishes the transfer function.
// Blocks shorter than the FFT size are zero-padded, longer ones are
// truncated.
func (est *Estimator) Update(exc, resp []float64, step Step) error {
	if !est.ready {
		return ErrNotReady
	}

	est.load(est.xbuf, exc)
	est.load(est.ybuf, resp)

	var (
		xs = est.xform.Transform(nil, est.xbuf)
		ys = est.xform.Transform(nil, est.ybuf)
	)
	if len(xs) != len(ys) {
		return fmt.Errorf(
			"bode: inconsistent spectra sizes (exc=%d, resp=%d)",
			len(xs), len(ys),
		)
	}
	if len(xs) != len(est.sxx) {
		est.resize(len(xs))
	}

	est.average(xs, ys)
	est.updateMask(step.Threshold)
	est.transfer()

	est.delay = 0
	est.delayOK = false
	if step.RemoveDelay {
		est.removeDelay(step.BandLo, step.BandHi)
	}

	if step.ApplyBaseline && est.base.Valid() && est.base.Len() == len(est.h) {
		est.normalize()
	}

	for i, v := range est.h {
		est.re[i] = real(v)
		est.im[i] = imag(v)
	}
	return nil
}

// load copies the windowed samples into dst.
func (est *Estimator) load(dst, src []float64) {
	n := copy(dst, src)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	floats.Mul(dst, est.win)
}

func (est *Estimator) average(xs, ys []complex128) {
	var (
		k   = float64(est.count)
		inv = 1 / (k + 1)
	)
	for i, x := range xs {
		var (
			pxx = real(x)*real(x) + imag(x)*imag(x)
			yx  = ys[i] * cmplx.Conj(x)
			syx = est.syx[i]
		)
		est.sxx[i] = (est.sxx[i]*k + pxx) * inv
		est.syx[i] = complex(
			(real(syx)*k+real(yx))*inv,
			(imag(syx)*k+imag(yx))*inv,
		)
	}
	est.count++
}

func (est *Estimator) updateMask(threshold float64) {
	max := 0.0
	if len(est.sxx) > 0 {
		max = floats.Max(est.sxx)
	}
	lim := threshold * max
	for i, v := range est.sxx {
		est.mask[i] = v > lim
	}
}

func (est *Estimator) transfer() {
	for i, syx := range est.syx {
		d := est.sxx[i] + eps
		est.h[i] = complex(real(syx)/d, imag(syx)/d)
		est.defined[i] = true
	}
}

func (est *Estimator) removeDelay(lo, hi float64) {
	tau, ok := dsp.EstimateDelay(est.h, est.freqs, est.mask, lo, hi)
	est.delay = tau
	est.delayOK = ok
	if !ok || tau == 0 {
		return
	}
	for i, f := range est.freqs {
		est.h[i] *= cmplx.Rect(1, 2*math.Pi*f*tau)
	}
}

func (est *Estimator) normalize() {
	nan := complex(math.NaN(), math.NaN())
	for i := range est.h {
		b, ok := est.base.At(i)
		if !ok || cmplx.Abs(b) <= minBaseln {
			est.h[i] = nan
			est.defined[i] = false
			continue
		}
		est.h[i] /= b
	}
}

// NFFT returns the block length requested at Reset, in samples.
// It is not updated when the transform output changes size.
func (est *Estimator) NFFT() int { return est.nfft }

// SampleRate returns the sampling rate, in Hz.
func (est *Estimator) SampleRate() float64 { return est.fs }

// Count returns the number of blocks averaged so far.
func (est *Estimator) Count() int { return est.count }

// The slices returned by the accessors below are owned by the estimator
// and must not be modified.

func (est *Estimator) Window() []float64 { return est.win }
func (est *Estimator) Freqs() []float64  { return est.freqs }
func (est *Estimator) Sxx() []float64    { return est.sxx }
func (est *Estimator) Syx() []complex128 { return est.syx }
func (est *Estimator) Re() []float64     { return est.re }
func (est *Estimator) Im() []float64     { return est.im }
func (est *Estimator) Mask() []bool      { return est.mask }

// Defined reports whether the transfer function at bin i holds a
// computed value, as opposed to the NaN sentinel of a unusable bin.
func (est *Estimator) Defined(i int) bool {
	if i < 0 || i >= len(est.defined) {
		return false
	}
	return est.defined[i]
}

// LastDelay returns the last group delay, in seconds, removed from the
// estimate. It is zero when delay removal is disabled or when the fit
// failed.
func (est *Estimator) LastDelay() float64 { return est.delay }

// Delay returns the last group delay, in seconds, and whether it
// resulted from a successful fit.
func (est *Estimator) Delay() (float64, bool) { return est.delay, est.delayOK }

// Result returns a snapshot of the current estimate.
func (est *Estimator) Result() Result {
	return Result{
		NFFT:       est.nfft,
		SampleRate: est.fs,
		Count:      est.count,
		Delay:      est.delay,
		DelayOK:    est.delayOK,
		Freqs:      append([]float64(nil), est.freqs...),
		Re:         append([]float64(nil), est.re...),
		Im:         append([]float64(nil), est.im...),
		Mask:       append([]bool(nil), est.mask...),
	}
}
