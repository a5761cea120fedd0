// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package plot renders Bode diagrams of transfer function estimates.
package plot // import "github.com/go-lpc/fra/plot"

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/go-lpc/fra/bode"
	"github.com/go-lpc/fra/dsp"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoData is returned when a result has no bin to display.
var ErrNoData = errors.New("plot: no valid bin to display")

type config struct {
	title  string
	width  vg.Length
	height vg.Length
	color  color.Color
}

// Option configures a Bode diagram.
type Option func(*config)

// WithTitle sets the title of the diagram.
func WithTitle(title string) Option {
	return func(cfg *config) {
		cfg.title = title
	}
}

// WithSize sets the size of the output image.
func WithSize(w, h vg.Length) Option {
	return func(cfg *config) {
		cfg.width = w
		cfg.height = h
	}
}

// Points returns the frequency, magnitude (in dB) and unwrapped phase
// (in degrees) of the displayable bins of res.
// DC, masked-out and undefined bins are skipped.
func Points(res *bode.Result) (freq, mag, phase []float64) {
	var h []complex128
	for i := 0; i < res.Len(); i++ {
		if res.Freqs[i] <= 0 || !res.Mask[i] || !res.Defined(i) {
			continue
		}
		freq = append(freq, res.Freqs[i])
		mag = append(mag, res.Mag(i))
		h = append(h, res.H(i))
	}
	phase = dsp.Unwrap(h)
	for i := range phase {
		phase[i] *= 180 / math.Pi
	}
	return freq, mag, phase
}

// Bode renders the magnitude and phase of res against a logarithmic
// frequency axis, and saves the diagram to fname.
// The image format is deduced from the extension of fname.
func Bode(fname string, res *bode.Result, opts ...Option) error {
	cfg := config{
		title:  "Bode diagram",
		width:  20 * vg.Centimeter,
		height: 20 * vg.Centimeter,
		color:  color.RGBA{B: 255, A: 255},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	freq, mag, phase := Points(res)
	if len(freq) == 0 {
		return ErrNoData
	}

	tp := hplot.NewTiledPlot(draw.Tiles{Rows: 2, Cols: 1, PadY: 0.5 * vg.Centimeter})

	top := tp.Plot(0, 0)
	top.Title.Text = cfg.title
	top.Y.Label.Text = "Magnitude [dB]"
	err := addCurve(top, freq, mag, cfg.color)
	if err != nil {
		return fmt.Errorf("plot: could not create magnitude curve: %w", err)
	}

	bot := tp.Plot(1, 0)
	bot.X.Label.Text = "Frequency [Hz]"
	bot.Y.Label.Text = "Phase [deg]"
	err = addCurve(bot, freq, phase, cfg.color)
	if err != nil {
		return fmt.Errorf("plot: could not create phase curve: %w", err)
	}

	err = tp.Save(cfg.width, cfg.height, fname)
	if err != nil {
		return fmt.Errorf("plot: could not save Bode diagram: %w", err)
	}
	return nil
}

func addCurve(p *hplot.Plot, xs, ys []float64, c color.Color) error {
	xys := make(plotter.XYs, len(xs))
	for i := range xys {
		xys[i].X = xs[i]
		xys[i].Y = ys[i]
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Color = c

	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(line, plotter.NewGrid())
	return nil
}
