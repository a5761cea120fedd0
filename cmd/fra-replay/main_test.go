// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lpc/fra/bode"
	"github.com/go-lpc/fra/config"
	"github.com/go-lpc/fra/daq"
	"github.com/go-lpc/fra/sim"
)

func TestRun(t *testing.T) {
	tmp, err := os.MkdirTemp("", "fra-replay-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	src := sim.New(sim.WithDelay(5))
	for i := 0; i < 5; i++ {
		exc, resp, err := src.Fetch(1, 4*256)
		if err != nil {
			t.Fatalf("could not fetch samples: %+v", err)
		}
		err = daq.WriteCapture(filepath.Join(tmp, fmt.Sprintf("cap-%d", i)), exc, resp)
		if err != nil {
			t.Fatalf("could not write capture %d: %+v", i, err)
		}
	}

	cfg := config.Default()
	cfg.NFFT = 256
	cfg.SampleRate = 125e6
	cfg.Threshold = 0.01

	err = run(tmp, cfg, 2)
	if err != nil {
		t.Fatalf("could not replay: %+v", err)
	}

	for i := 0; i < 5; i++ {
		fname := filepath.Join(tmp, fmt.Sprintf("cap-%d.bode", i))
		f, err := os.Open(fname)
		if err != nil {
			t.Fatalf("could not open result %d: %+v", i, err)
		}
		defer f.Close()

		var res bode.Result
		err = bode.NewDecoder(f).Decode(&res)
		if err != nil {
			t.Fatalf("could not decode result %d: %+v", i, err)
		}
		if got, want := res.Count, 4; got != want {
			t.Fatalf("result %d: invalid count: got=%d, want=%d", i, got, want)
		}
	}

	err = run(filepath.Join(tmp, "empty"), cfg, 2)
	if err == nil {
		t.Fatalf("expected an error")
	}
}
