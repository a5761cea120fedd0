// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fra holds code for online frequency response analysis on
// FPGA acquisition boards.
//
// A white noise excitation is played by the board DAC while the ADC
// records the response of the system under test. Blocks of both
// sequences are windowed, transformed and folded into running Welch
// averages of the auto- and cross-spectra, from which the transfer
// function, its group delay and a Bode diagram are derived.
//
// The numerical core lives in packages dsp and bode, the board driver
// in package dma, and the tdaq run-control process in package daq.
package fra // import "github.com/go-lpc/fra"

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of fra and its checksum.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/go-lpc/fra"
	if b.Main.Path == root {
		return b.Main.Version, b.Main.Sum
	}
	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if r := m.Replace; r != nil {
			switch {
			case r.Version != "" && r.Path != "":
				return fmt.Sprintf("%s %s", r.Path, r.Version), r.Sum
			case r.Version != "":
				return r.Version, r.Sum
			case r.Path != "":
				return r.Path, r.Sum
			default:
				return m.Version + "*", ""
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}
