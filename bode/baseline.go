// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bode

// Baseline holds a reference transfer function and its validity mask.
// The zero value is an empty, invalid baseline.
type Baseline struct {
	h     []complex128
	mask  []bool // empty means all bins are valid.
	valid bool
}

// Set loads a reference transfer function from its real and imaginary
// parts.
// The baseline is valid only if re and im have the same, non-zero, length.
// Otherwise it is cleared.
// A mask whose length does not match is replaced by an all-valid mask.
// An empty mask means all bins are valid.
func (b *Baseline) Set(re, im []float64, mask []bool) {
	if len(re) == 0 || len(re) != len(im) {
		b.Clear()
		return
	}

	b.h = make([]complex128, len(re))
	for i := range re {
		b.h[i] = complex(re[i], im[i])
	}

	switch {
	case len(mask) == 0:
		b.mask = nil
	case len(mask) != len(re):
		b.mask = make([]bool, len(re))
		for i := range b.mask {
			b.mask[i] = true
		}
	default:
		b.mask = append([]bool(nil), mask...)
	}
	b.valid = true
}

// Clear invalidates the baseline.
func (b *Baseline) Clear() {
	b.h = nil
	b.mask = nil
	b.valid = false
}

// Valid reports whether the baseline holds a usable reference.
func (b *Baseline) Valid() bool { return b.valid }

// Len returns the number of bins of the baseline.
func (b *Baseline) Len() int { return len(b.h) }

// At returns the reference value at bin i and whether that bin is
// marked valid.
func (b *Baseline) At(i int) (complex128, bool) {
	if !b.valid || i < 0 || i >= len(b.h) {
		return 0, false
	}
	if len(b.mask) != 0 && !b.mask[i] {
		return b.h[i], false
	}
	return b.h[i], true
}
