// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package adc converts between packed dual-sample DMA words and
// real-valued sample sequences.
//
// Each 32-bit word holds two signed 16-bit samples: the first sample in
// the low half-word, the second one in the high half-word.
package adc // import "github.com/go-lpc/fra/adc"

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	// FullScale is the DAC code of a unit amplitude sample.
	FullScale = 32767

	maxSample = 0.999969482421875 // 32767/32768
	minSample = -1.0
)

// Unpack returns n samples decoded from the packed words.
// Samples are filled two per word (low half-word first) until n samples
// have been produced or words is exhausted. Missing samples are zero.
func Unpack(words []uint32, n int) []float64 {
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	j := 0
	for _, w := range words {
		if j >= n {
			break
		}
		out[j] = float64(int16(w & 0xffff))
		j++
		if j < n {
			out[j] = float64(int16(w >> 16))
			j++
		}
	}
	return out
}

// Pack encodes samples, expressed in units of the DAC full scale, into
// packed words.
// Samples are clipped to [-1, 32767/32768], scaled by FullScale and
// rounded (half to even). An odd trailing sample is packed with a zero
// high half-word.
func Pack(samples []float64) []uint32 {
	words := make([]uint32, (len(samples)+1)/2)
	for i, v := range samples {
		code := uint32(uint16(quantize(v)))
		if i%2 == 0 {
			words[i/2] |= code
		} else {
			words[i/2] |= code << 16
		}
	}
	return words
}

// PackCounts encodes samples, expressed in converter counts, into packed
// words. Samples are rounded and saturated to the int16 range.
// PackCounts is the inverse of Unpack.
func PackCounts(samples []float64) []uint32 {
	words := make([]uint32, (len(samples)+1)/2)
	for i, v := range samples {
		var code int16
		switch {
		case math.IsNaN(v):
		case v >= math.MaxInt16:
			code = math.MaxInt16
		case v <= math.MinInt16:
			code = math.MinInt16
		default:
			code = int16(math.RoundToEven(v))
		}
		if i%2 == 0 {
			words[i/2] |= uint32(uint16(code))
		} else {
			words[i/2] |= uint32(uint16(code)) << 16
		}
	}
	return words
}

func quantize(v float64) int16 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > maxSample:
		v = maxSample
	case v < minSample:
		v = minSample
	}
	return int16(math.RoundToEven(v * FullScale))
}

// ReadWords reads little-endian packed words from r until EOF.
func ReadWords(r io.Reader) ([]uint32, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("adc: could not read words: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("adc: invalid raw data size %d (not a multiple of 4)", len(raw))
	}
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return words, nil
}

// WriteWords writes words to w in little-endian order.
func WriteWords(w io.Writer, words []uint32) error {
	buf := make([]byte, 4*len(words))
	for i, v := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	_, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("adc: could not write words: %w", err)
	}
	return nil
}
