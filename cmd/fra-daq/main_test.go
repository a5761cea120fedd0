// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lpc/fra/config"
	"github.com/go-lpc/fra/daq"
)

func TestRun(t *testing.T) {
	tmp, err := os.MkdirTemp("", "fra-daq-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	cfg := config.Default()
	cfg.NFFT = 512
	cfg.SampleRate = 125e6
	cfg.Steps = 4
	cfg.Threshold = 0.05
	cfg.RemoveDelay = false
	cfg.Device = daq.SimDevice
	cfg.Output = filepath.Join(tmp, "bode.dat")

	err = run(cfg, filepath.Join(tmp, "capture"))
	if err != nil {
		t.Fatalf("could not run: %+v", err)
	}

	res, err := load(cfg.Output)
	if err != nil {
		t.Fatalf("could not load result: %+v", err)
	}
	if got, want := res.Count, 4; got != want {
		t.Fatalf("invalid count: got=%d, want=%d", got, want)
	}
	for i := 0; i < res.Len(); i++ {
		if !res.Mask[i] {
			continue
		}
		if v := res.Mag(i); math.Abs(v) > 0.5 {
			t.Fatalf("bin %d: invalid magnitude %v dB", i, v)
		}
	}

	names, err := daq.Captures(filepath.Join(tmp, "capture"))
	if err != nil {
		t.Fatalf("could not list captures: %+v", err)
	}
	if got, want := len(names), 4; got != want {
		t.Fatalf("invalid number of captures: got=%d, want=%d", got, want)
	}

	// a baseline made of the result itself normalizes the next run.
	cfg.Baseline = cfg.Output
	cfg.ApplyBaseline = true
	cfg.Output = filepath.Join(tmp, "norm.dat")
	err = run(cfg, "")
	if err != nil {
		t.Fatalf("could not run with baseline: %+v", err)
	}
	if _, err := load(cfg.Output); err != nil {
		t.Fatalf("could not load normalized result: %+v", err)
	}
}

func TestRunInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  func() config.Run
		want string
	}{
		{
			name: "nfft",
			cfg: func() config.Run {
				cfg := config.Default()
				cfg.NFFT = 0
				return cfg
			},
			want: "config: invalid nfft 0",
		},
		{
			name: "infinite",
			cfg: func() config.Run {
				cfg := config.Default()
				cfg.Steps = 0
				return cfg
			},
			want: "stand-alone run needs a finite number of steps",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := run(tc.cfg(), "")
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %s\nwant=%s", got, want)
			}
		})
	}
}
