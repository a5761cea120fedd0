// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config describes the configuration of a frequency response
// measurement run.
package config // import "github.com/go-lpc/fra/config"

import (
	"fmt"
	"os"

	"github.com/go-lpc/fra/bode"
	"gopkg.in/yaml.v3"
)

// Run is the configuration of a measurement run.
type Run struct {
	NFFT       int     `yaml:"nfft"`        // block length, in samples
	SampleRate float64 `yaml:"sample-rate"` // sampling rate, in Hz

	Blocks        int     `yaml:"blocks"`    // DMA descriptors per step
	Threshold     float64 `yaml:"threshold"` // relative excitation power threshold
	RemoveDelay   bool    `yaml:"remove-delay"`
	BandLo        float64 `yaml:"band-lo"` // delay fit band, in Hz
	BandHi        float64 `yaml:"band-hi"`
	ApplyBaseline bool    `yaml:"apply-baseline"`
	Steps         int     `yaml:"steps"` // number of acquisition steps, 0 means forever

	Device    string  `yaml:"device"`      // memory device of the board
	Channel   uint32  `yaml:"adc-channel"` // ADC channel recording the response
	Excite    bool    `yaml:"excite"`      // load a new white noise excitation before each step
	Amplitude float64 `yaml:"amplitude"`   // peak excitation amplitude, in DAC full scale
	Seed      int64   `yaml:"seed"`

	Output   string `yaml:"output"`   // output file for the results
	Baseline string `yaml:"baseline"` // result file holding the baseline
	CondDB   string `yaml:"conddb"`   // name of the run log database
}

// Default returns the default run configuration.
func Default() Run {
	return Run{
		NFFT:        64 * 1024,
		SampleRate:  250e6,
		Blocks:      1,
		Threshold:   1e-3,
		RemoveDelay: true,
		BandLo:      1e6,
		BandHi:      50e6,
		Steps:       200,
		Device:      "/dev/mem",
		Excite:      true,
		Amplitude:   0.9,
		Seed:        1234,
		Output:      "bode.dat",
	}
}

// Load reads and validates the run configuration from the named file.
func Load(fname string) (Run, error) {
	raw, err := os.ReadFile(fname)
	if err != nil {
		return Run{}, fmt.Errorf("config: could not read run configuration: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML run configuration.
// Fields absent from raw take their default value.
func Parse(raw []byte) (Run, error) {
	cfg := Default()
	err := yaml.Unmarshal(raw, &cfg)
	if err != nil {
		return Run{}, fmt.Errorf("config: could not decode run configuration: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return Run{}, err
	}
	return cfg, nil
}

// Validate checks the consistency of the run configuration.
func (cfg Run) Validate() error {
	switch {
	case cfg.NFFT < 1:
		return fmt.Errorf("config: invalid nfft %d", cfg.NFFT)
	case !(cfg.SampleRate > 0):
		return fmt.Errorf("config: invalid sample rate %v", cfg.SampleRate)
	case cfg.Blocks < 1 || cfg.Blocks > bode.DefaultMaxBlocks:
		return fmt.Errorf(
			"config: invalid number of blocks %d (must be in [1, %d])",
			cfg.Blocks, bode.DefaultMaxBlocks,
		)
	case cfg.Threshold < 0 || cfg.Threshold > 1:
		return fmt.Errorf("config: invalid threshold %v (must be in [0, 1])", cfg.Threshold)
	case cfg.BandLo > cfg.BandHi:
		return fmt.Errorf("config: invalid delay band [%v, %v]", cfg.BandLo, cfg.BandHi)
	case cfg.Steps < 0:
		return fmt.Errorf("config: invalid number of steps %d", cfg.Steps)
	case cfg.Channel > 1:
		return fmt.Errorf("config: invalid ADC channel %d", cfg.Channel)
	case cfg.Excite && !(cfg.Amplitude > 0 && cfg.Amplitude <= 1):
		return fmt.Errorf("config: invalid excitation amplitude %v (must be in ]0, 1])", cfg.Amplitude)
	}
	return nil
}

// Step returns the acquisition step parameters of the run.
func (cfg Run) Step() bode.Step {
	return bode.Step{
		Blocks:        cfg.Blocks,
		Threshold:     cfg.Threshold,
		RemoveDelay:   cfg.RemoveDelay,
		BandLo:        cfg.BandLo,
		BandHi:        cfg.BandHi,
		ApplyBaseline: cfg.ApplyBaseline,
	}
}
