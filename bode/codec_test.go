// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bode

import (
	"bytes"
	"errors"
	"io"
	"math"
	"reflect"
	"strings"
	"testing"
)

func sameFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

func sameResult(a, b Result) bool {
	return a.NFFT == b.NFFT &&
		a.SampleRate == b.SampleRate &&
		a.Count == b.Count &&
		a.Delay == b.Delay &&
		a.DelayOK == b.DelayOK &&
		sameFloats(a.Freqs, b.Freqs) &&
		sameFloats(a.Re, b.Re) &&
		sameFloats(a.Im, b.Im) &&
		reflect.DeepEqual(a.Mask, b.Mask)
}

func TestCodec(t *testing.T) {
	for _, tc := range []struct {
		name string
		res  Result
	}{
		{
			name: "normal",
			res: Result{
				NFFT:       4,
				SampleRate: 125e6,
				Count:      42,
				Delay:      -12.5e-9,
				DelayOK:    true,
				Freqs:      []float64{0, 31.25e6, 62.5e6},
				Re:         []float64{1, 0.5, math.NaN()},
				Im:         []float64{0, -0.25, math.NaN()},
				Mask:       []bool{true, true, false},
			},
		},
		{
			name: "empty",
			res: Result{
				NFFT:  1,
				Freqs: []float64{},
				Re:    []float64{},
				Im:    []float64{},
				Mask:  []bool{},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			enc := NewEncoder(buf)
			for i := 0; i < 2; i++ {
				err := enc.Encode(&tc.res)
				if err != nil {
					t.Fatalf("could not encode result: %+v", err)
				}
			}

			dec := NewDecoder(buf)
			for i := 0; i < 2; i++ {
				var got Result
				err := dec.Decode(&got)
				if err != nil {
					t.Fatalf("could not decode result #%d: %+v", i, err)
				}
				if !sameResult(got, tc.res) {
					t.Fatalf("invalid r/w round-trip:\ngot= %+v\nwant=%+v", got, tc.res)
				}
			}

			var res Result
			err := dec.Decode(&res)
			if !errors.Is(err, io.EOF) {
				t.Fatalf("invalid error at end of stream: %+v", err)
			}
		})
	}
}

func TestEncodeInvalid(t *testing.T) {
	enc := NewEncoder(io.Discard)
	err := enc.Encode(&Result{Freqs: []float64{1, 2}, Re: []float64{1}})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := err.Error(), "bode: inconsistent result sizes (freqs=2, re=1, im=0, mask=0)"; got != want {
		t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
	}

	err = enc.Encode(nil)
	if err != nil {
		t.Fatalf("nil result should be a no-op: %+v", err)
	}
}

func TestDecodeInvalid(t *testing.T) {
	res := Result{
		NFFT:       2,
		SampleRate: 1e3,
		Count:      1,
		Freqs:      []float64{0, 500},
		Re:         []float64{1, 2},
		Im:         []float64{3, 4},
		Mask:       []bool{true, false},
	}
	buf := new(bytes.Buffer)
	err := NewEncoder(buf).Encode(&res)
	if err != nil {
		t.Fatalf("could not encode result: %+v", err)
	}
	raw := buf.Bytes()

	for _, tc := range []struct {
		name string
		raw  func() []byte
		err  string
	}{
		{
			name: "magic",
			raw: func() []byte {
				p := append([]byte(nil), raw...)
				copy(p, "EDOB")
				return p
			},
			err: `bode: invalid result magic (got="EDOB", want="BODE")`,
		},
		{
			name: "version",
			raw: func() []byte {
				p := append([]byte(nil), raw...)
				p[4] = 42
				return p
			},
			err: "bode: invalid result version (got=42, want=1)",
		},
		{
			name: "crc",
			raw: func() []byte {
				p := append([]byte(nil), raw...)
				p[len(p)-3] ^= 0xff
				return p
			},
			err: "bode: inconsistent CRC",
		},
		{
			name: "truncated-header",
			raw: func() []byte {
				return raw[:3]
			},
			err: "bode: could not read result header: unexpected EOF",
		},
		{
			name: "truncated-bins",
			raw: func() []byte {
				return raw[:len(raw)-10]
			},
			err: "bode: could not read result bins: unexpected EOF",
		},
		{
			name: "truncated-crc",
			raw: func() []byte {
				return raw[:len(raw)-1]
			},
			err: "bode: could not read CRC-16: unexpected EOF",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var got Result
			err := NewDecoder(bytes.NewReader(tc.raw())).Decode(&got)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !strings.HasPrefix(err.Error(), tc.err) {
				t.Fatalf("invalid error:\ngot= %v\nwant=%v", err, tc.err)
			}
		})
	}
}
