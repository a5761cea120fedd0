// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-lpc/fra/internal/crc16"
)

const (
	magic   = "BODE"
	version = 1

	maxBins = 1 << 24
)

// Encoder writes Bode results to an output stream.
// Encoder computes the CRC-16 checksum on the fly and appends it
// at the end of each result.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
	crc crc16.Hash16
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 8),
		crc: crc16.New(nil),
	}
}

// Encode writes the result to the stream, followed by its CRC-16 checksum.
func (enc *Encoder) Encode(r *Result) error {
	if r == nil {
		return nil
	}
	err := r.validate()
	if err != nil {
		return err
	}

	enc.crc.Reset()

	enc.write([]byte(magic))
	enc.writeU8(version)
	if enc.err != nil {
		return fmt.Errorf("bode: could not write result header: %w", enc.err)
	}

	enc.writeU32(uint32(r.NFFT))
	enc.writeF64(r.SampleRate)
	enc.writeU32(uint32(r.Count))
	enc.writeF64(r.Delay)
	enc.writeBool(r.DelayOK)
	enc.writeU32(uint32(len(r.Freqs)))
	for i := range r.Freqs {
		enc.writeF64(r.Freqs[i])
		enc.writeF64(r.Re[i])
		enc.writeF64(r.Im[i])
		enc.writeBool(r.Mask[i])
	}

	crc := enc.crc.Sum16()
	enc.writeU16(crc)

	if enc.err != nil {
		return fmt.Errorf("bode: could not write result: %w", enc.err)
	}
	return nil
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
	_, _ = enc.crc.Write(p) // can not fail.
}

func (enc *Encoder) writeU8(v uint8) {
	enc.buf[0] = v
	enc.write(enc.buf[:1])
}

func (enc *Encoder) writeBool(v bool) {
	switch v {
	case true:
		enc.writeU8(1)
	default:
		enc.writeU8(0)
	}
}

func (enc *Encoder) writeU16(v uint16) {
	const n = 2
	binary.BigEndian.PutUint16(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeU32(v uint32) {
	const n = 4
	binary.BigEndian.PutUint32(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeF64(v float64) {
	const n = 8
	binary.BigEndian.PutUint64(enc.buf[:n], math.Float64bits(v))
	enc.write(enc.buf[:n])
}

// Decoder reads and validates Bode results from an input stream.
type Decoder struct {
	r   io.Reader
	buf []byte
	err error
	crc crc16.Hash16
}

// NewDecoder returns a new Decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 8),
		crc: crc16.New(nil),
	}
}

// Decode reads the next result from the stream.
// Decode returns io.EOF when the stream holds no more results.
func (dec *Decoder) Decode(r *Result) error {
	dec.crc.Reset()

	hdr := make([]byte, len(magic)+1)
	dec.read(hdr)
	if dec.err != nil {
		if errors.Is(dec.err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("bode: could not read result header: %w", dec.err)
	}
	if got := string(hdr[:len(magic)]); got != magic {
		return fmt.Errorf("bode: invalid result magic (got=%q, want=%q)", got, magic)
	}
	if got := hdr[len(magic)]; got != version {
		return fmt.Errorf("bode: invalid result version (got=%d, want=%d)", got, version)
	}

	r.NFFT = int(dec.readU32())
	r.SampleRate = dec.readF64()
	r.Count = int(dec.readU32())
	r.Delay = dec.readF64()
	r.DelayOK = dec.readBool()
	n := dec.readU32()
	if dec.err != nil {
		return dec.fail("could not read result metadata")
	}
	if n > maxBins {
		return fmt.Errorf("bode: invalid number of bins %d", n)
	}

	r.Freqs = make([]float64, n)
	r.Re = make([]float64, n)
	r.Im = make([]float64, n)
	r.Mask = make([]bool, n)
	for i := range r.Freqs {
		r.Freqs[i] = dec.readF64()
		r.Re[i] = dec.readF64()
		r.Im[i] = dec.readF64()
		r.Mask[i] = dec.readBool()
	}
	if dec.err != nil {
		return dec.fail("could not read result bins")
	}

	comp := dec.crc.Sum16()
	recv := dec.readU16()
	if dec.err != nil {
		return dec.fail("could not read CRC-16")
	}
	if comp != recv {
		return fmt.Errorf("bode: inconsistent CRC: recv=0x%04x comp=0x%04x", recv, comp)
	}
	return nil
}

func (dec *Decoder) fail(msg string) error {
	if errors.Is(dec.err, io.EOF) {
		dec.err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("bode: %s: %w", msg, dec.err)
}

func (dec *Decoder) read(p []byte) {
	if dec.err != nil {
		return
	}
	_, dec.err = io.ReadFull(dec.r, p)
	_, _ = dec.crc.Write(p) // can not fail.
}

func (dec *Decoder) load(n int) {
	dec.read(dec.buf[:n])
}

func (dec *Decoder) readU8() uint8 {
	dec.load(1)
	return dec.buf[0]
}

func (dec *Decoder) readBool() bool {
	return dec.readU8() != 0
}

func (dec *Decoder) readU16() uint16 {
	const n = 2
	dec.load(n)
	return binary.BigEndian.Uint16(dec.buf[:n])
}

func (dec *Decoder) readU32() uint32 {
	const n = 4
	dec.load(n)
	return binary.BigEndian.Uint32(dec.buf[:n])
}

func (dec *Decoder) readF64() float64 {
	const n = 8
	dec.load(n)
	return math.Float64frombits(binary.BigEndian.Uint64(dec.buf[:n]))
}
