// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/go-lpc/fra/bode"
)

func TestLoad(t *testing.T) {
	got, err := Load("testdata/run.yaml")
	if err != nil {
		t.Fatalf("could not load run configuration: %+v", err)
	}

	want := Default()
	want.NFFT = 1024
	want.SampleRate = 125e6
	want.Blocks = 4
	want.Threshold = 0.01
	want.BandLo = 2e6
	want.BandHi = 40e6
	want.ApplyBaseline = true
	want.Steps = 10
	want.Channel = 1
	want.Amplitude = 0.5
	want.Output = "run-001.dat"
	want.Baseline = "ref.dat"
	want.CondDB = "fra"

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid run configuration:\ngot= %+v\nwant=%+v", got, want)
	}

	step := got.Step()
	if want := (bode.Step{
		Blocks:        4,
		Threshold:     0.01,
		RemoveDelay:   true,
		BandLo:        2e6,
		BandHi:        40e6,
		ApplyBaseline: true,
	}); step != want {
		t.Fatalf("invalid step:\ngot= %+v\nwant=%+v", step, want)
	}

	_, err = Load("testdata/not-there.yaml")
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  string
		err  string
	}{
		{
			name: "empty",
			raw:  "",
		},
		{
			name: "defaults",
			raw:  "steps: 0\n",
		},
		{
			name: "invalid-yaml",
			raw:  "nfft: [1, 2",
			err:  "config: could not decode run configuration",
		},
		{
			name: "nfft",
			raw:  "nfft: 0",
			err:  "config: invalid nfft 0",
		},
		{
			name: "sample-rate",
			raw:  "sample-rate: -1",
			err:  "config: invalid sample rate -1",
		},
		{
			name: "blocks",
			raw:  "blocks: 257",
			err:  "config: invalid number of blocks 257 (must be in [1, 256])",
		},
		{
			name: "threshold",
			raw:  "threshold: 1.5",
			err:  "config: invalid threshold 1.5 (must be in [0, 1])",
		},
		{
			name: "band",
			raw:  "band-lo: 2e6\nband-hi: 1e6",
			err:  "config: invalid delay band [2e+06, 1e+06]",
		},
		{
			name: "steps",
			raw:  "steps: -1",
			err:  "config: invalid number of steps -1",
		},
		{
			name: "channel",
			raw:  "adc-channel: 2",
			err:  "config: invalid ADC channel 2",
		},
		{
			name: "amplitude",
			raw:  "amplitude: 2",
			err:  "config: invalid excitation amplitude 2 (must be in ]0, 1])",
		},
		{
			name: "no-excitation",
			raw:  "excite: false\namplitude: 0",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			switch {
			case tc.err == "" && err != nil:
				t.Fatalf("could not parse configuration: %+v", err)
			case tc.err != "" && err == nil:
				t.Fatalf("expected an error")
			case tc.err != "":
				if !strings.HasPrefix(err.Error(), tc.err) {
					t.Fatalf("invalid error:\ngot= %v\nwant=%v", err, tc.err)
				}
			}
		})
	}
}
