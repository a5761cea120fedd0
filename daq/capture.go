// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package daq

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-lpc/fra/adc"
	"github.com/go-lpc/fra/bode"
	"github.com/go-lpc/fra/config"
)

const (
	extDAC = ".dac"
	extADC = ".adc"
)

// Recorder is a block source that saves every fetched block pair as
// a capture: two files of packed words, <name>.dac and <name>.adc.
type Recorder struct {
	src  bode.BlockSource
	dir  string
	step int
}

// NewRecorder returns a recorder saving the blocks fetched from src
// under dir.
func NewRecorder(src bode.BlockSource, dir string) (*Recorder, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("daq: could not create capture dir: %w", err)
	}
	return &Recorder{src: src, dir: dir}, nil
}

// Fetch fetches blocks from the underlying source and saves them.
func (rec *Recorder) Fetch(blocks, n int) (exc, resp []float64, err error) {
	exc, resp, err = rec.src.Fetch(blocks, n)
	if err != nil {
		return nil, nil, err
	}

	name := filepath.Join(rec.dir, fmt.Sprintf("step-%04d", rec.step))
	err = WriteCapture(name, exc, resp)
	if err != nil {
		return nil, nil, err
	}
	rec.step++
	return exc, resp, nil
}

// Close closes the underlying source.
func (rec *Recorder) Close() error {
	return CloseSource(rec.src)
}

// WriteCapture saves the excitation and response samples, in converter
// counts, under name.
func WriteCapture(name string, exc, resp []float64) error {
	for _, v := range []struct {
		ext string
		xs  []float64
	}{
		{extDAC, exc},
		{extADC, resp},
	} {
		f, err := os.Create(name + v.ext)
		if err != nil {
			return fmt.Errorf("daq: could not create capture file: %w", err)
		}
		defer f.Close()

		err = adc.WriteWords(f, adc.PackCounts(v.xs))
		if err != nil {
			return fmt.Errorf("daq: could not write capture %q: %w", name+v.ext, err)
		}

		err = f.Close()
		if err != nil {
			return fmt.Errorf("daq: could not close capture %q: %w", name+v.ext, err)
		}
	}
	return nil
}

// ReadCapture reads the capture saved under name.
func ReadCapture(name string) (exc, resp []float64, err error) {
	read := func(fname string) ([]float64, error) {
		f, err := os.Open(fname)
		if err != nil {
			return nil, fmt.Errorf("daq: could not open capture: %w", err)
		}
		defer f.Close()

		words, err := adc.ReadWords(f)
		if err != nil {
			return nil, fmt.Errorf("daq: could not read capture %q: %w", fname, err)
		}
		return adc.Unpack(words, 2*len(words)), nil
	}

	exc, err = read(name + extDAC)
	if err != nil {
		return nil, nil, err
	}
	resp, err = read(name + extADC)
	if err != nil {
		return nil, nil, err
	}
	if len(exc) != len(resp) {
		return nil, nil, fmt.Errorf(
			"daq: inconsistent capture %q (dac=%d, adc=%d)",
			name, len(exc), len(resp),
		)
	}
	return exc, resp, nil
}

// Captures returns the sorted names of the captures saved under dir.
func Captures(dir string) ([]string, error) {
	fnames, err := filepath.Glob(filepath.Join(dir, "*"+extDAC))
	if err != nil {
		return nil, fmt.Errorf("daq: could not list captures: %w", err)
	}
	names := make([]string, 0, len(fnames))
	for _, fname := range fnames {
		names = append(names, strings.TrimSuffix(fname, extDAC))
	}
	sort.Strings(names)
	return names, nil
}

// Replay estimates the transfer function of a recorded capture.
// The capture is split into consecutive blocks of cfg.NFFT samples, each
// folded into a fresh estimator. A trailing partial block is dropped.
func Replay(name string, cfg config.Run) (bode.Result, error) {
	exc, resp, err := ReadCapture(name)
	if err != nil {
		return bode.Result{}, err
	}

	n := cfg.NFFT
	if len(exc) < n {
		return bode.Result{}, fmt.Errorf(
			"daq: capture %q too short (samples=%d, nfft=%d)",
			name, len(exc), n,
		)
	}

	est := bode.New(nil)
	est.Reset(n, cfg.SampleRate)
	step := cfg.Step()
	for beg := 0; beg+n <= len(exc); beg += n {
		err = est.Update(exc[beg:beg+n], resp[beg:beg+n], step)
		if err != nil {
			return bode.Result{}, fmt.Errorf("daq: could not process capture %q: %w", name, err)
		}
	}
	return est.Result(), nil
}
