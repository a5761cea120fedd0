// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fra-shell is an interactive console driving a frequency
// response estimator.
//
// Usage: fra-shell [OPTIONS]
//
// Example:
//
//	$> fra-shell -dev sim
//	fra> reset 4096 125e6
//	fra> step 10
//	fra> show
//	fra> plot bode.png
//	fra> quit
package main // import "github.com/go-lpc/fra/cmd/fra-shell"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-lpc/fra/bode"
	"github.com/go-lpc/fra/config"
	"github.com/go-lpc/fra/daq"
	"github.com/go-lpc/fra/plot"
	"github.com/peterh/liner"
)

func main() {
	var (
		fname = flag.String("cfg", "", "path to YAML run configuration")
		dev   = flag.String("dev", daq.SimDevice, "device to open ('sim' for simulation)")
	)

	log.SetPrefix("fra-shell: ")
	log.SetFlags(0)

	flag.Parse()

	cfg := config.Default()
	if *fname != "" {
		var err error
		cfg, err = config.Load(*fname)
		if err != nil {
			log.Fatalf("could not load run configuration: %+v", err)
		}
	}
	cfg.Device = *dev

	sh, err := newShell(os.Stdout, cfg)
	if err != nil {
		log.Fatalf("could not create shell: %+v", err)
	}
	defer sh.Close()

	err = sh.run()
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

var errQuit = errors.New("quit")

type shell struct {
	w   io.Writer
	cfg config.Run
	src bode.BlockSource
	est *bode.Estimator
	rnd *rand.Rand

	cmds map[string]command
}

type command struct {
	help string
	run  func(args []string) error
}

func newShell(w io.Writer, cfg config.Run) (*shell, error) {
	src, err := daq.OpenSource(cfg.Device, cfg)
	if err != nil {
		return nil, err
	}

	sh := &shell{
		w:   w,
		cfg: cfg,
		src: src,
		est: bode.New(src),
		rnd: rand.New(rand.NewSource(cfg.Seed)),
	}
	sh.est.Reset(cfg.NFFT, cfg.SampleRate)

	sh.cmds = map[string]command{
		"help":     {"help: list commands", sh.cmdHelp},
		"reset":    {"reset [NFFT [FS]]: reset the estimator", sh.cmdReset},
		"step":     {"step [N]: run N acquisition steps", sh.cmdStep},
		"set":      {"set KEY VALUE: set a step parameter (blocks, threshold, remove-delay, band-lo, band-hi, apply-baseline)", sh.cmdSet},
		"show":     {"show: display the current estimate", sh.cmdShow},
		"baseline": {"baseline [FILE]: use the current estimate (or a saved result) as baseline", sh.cmdBaseline},
		"clear":    {"clear: clear the baseline", sh.cmdClear},
		"save":     {"save FILE: save the current estimate", sh.cmdSave},
		"plot":     {"plot FILE: render the Bode diagram of the current estimate", sh.cmdPlot},
		"quit":     {"quit: exit the shell", sh.cmdQuit},
	}
	return sh, nil
}

func (sh *shell) Close() error {
	return daq.CloseSource(sh.src)
}

func (sh *shell) run() error {
	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)
	term.SetCompleter(sh.complete)

	for {
		line, err := term.Prompt("fra> ")
		switch {
		case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("could not read command: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		term.AppendHistory(line)

		err = sh.exec(line)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintf(sh.w, "error: %+v\n", err)
		}
	}
}

func (sh *shell) complete(line string) []string {
	var out []string
	for name := range sh.cmds {
		if strings.HasPrefix(name, line) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (sh *shell) exec(line string) error {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return nil
	}
	cmd, ok := sh.cmds[toks[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", toks[0])
	}
	return cmd.run(toks[1:])
}

func (sh *shell) cmdHelp(args []string) error {
	names := make([]string, 0, len(sh.cmds))
	for name := range sh.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(sh.w, "  %s\n", sh.cmds[name].help)
	}
	return nil
}

func (sh *shell) cmdReset(args []string) error {
	cfg := sh.cfg
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid nfft %q: %w", args[0], err)
		}
		cfg.NFFT = v
	}
	if len(args) > 1 {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid sample rate %q: %w", args[1], err)
		}
		cfg.SampleRate = v
	}
	err := cfg.Validate()
	if err != nil {
		return err
	}
	sh.cfg = cfg
	sh.est.Reset(cfg.NFFT, cfg.SampleRate)
	fmt.Fprintf(sh.w, "nfft=%d fs=%g Hz bins=%d\n", cfg.NFFT, cfg.SampleRate, len(sh.est.Freqs()))
	return nil
}

func (sh *shell) cmdStep(args []string) error {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("invalid number of steps %q", args[0])
		}
		n = v
	}

	step := sh.cfg.Step()
	for i := 0; i < n; i++ {
		if sh.cfg.Excite {
			_, err := daq.Excite(sh.src, sh.rnd, step.Blocks, sh.cfg.Amplitude)
			if err != nil {
				return err
			}
		}
		err := sh.est.AcquireStep(step)
		if err != nil {
			return err
		}
	}
	tau, ok := sh.est.Delay()
	fmt.Fprintf(sh.w, "blocks=%d delay=%g s (ok=%v)\n", sh.est.Count(), tau, ok)
	return nil
}

func (sh *shell) cmdSet(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("set needs a key and a value")
	}
	cfg := sh.cfg
	key, val := args[0], args[1]
	var err error
	switch key {
	case "blocks":
		cfg.Blocks, err = strconv.Atoi(val)
	case "threshold":
		cfg.Threshold, err = strconv.ParseFloat(val, 64)
	case "remove-delay":
		cfg.RemoveDelay, err = strconv.ParseBool(val)
	case "band-lo":
		cfg.BandLo, err = strconv.ParseFloat(val, 64)
	case "band-hi":
		cfg.BandHi, err = strconv.ParseFloat(val, 64)
	case "apply-baseline":
		cfg.ApplyBaseline, err = strconv.ParseBool(val)
	default:
		return fmt.Errorf("unknown parameter %q", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %q: %w", key, err)
	}
	err = cfg.Validate()
	if err != nil {
		return err
	}
	sh.cfg = cfg
	return nil
}

func (sh *shell) cmdShow(args []string) error {
	res := sh.est.Result()
	fmt.Fprintf(sh.w, "nfft=%d fs=%g Hz blocks=%d delay=%g s (ok=%v)\n",
		res.NFFT, res.SampleRate, res.Count, res.Delay, res.DelayOK,
	)
	if res.Count == 0 {
		return nil
	}

	freq, mag, phase := plot.Points(&res)
	stride := len(freq)/16 + 1
	fmt.Fprintf(sh.w, "%14s %10s %10s\n", "freq [Hz]", "mag [dB]", "phase [deg]")
	for i := 0; i < len(freq); i += stride {
		fmt.Fprintf(sh.w, "%14.6g %10.3f %10.2f\n", freq[i], mag[i], phase[i])
	}
	return nil
}

func (sh *shell) cmdBaseline(args []string) error {
	var res bode.Result
	switch len(args) {
	case 0:
		if sh.est.Count() == 0 {
			return fmt.Errorf("no estimate to use as baseline")
		}
		res = sh.est.Result()
	default:
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		err = bode.NewDecoder(f).Decode(&res)
		if err != nil {
			return err
		}
	}
	sh.est.SetBaseline(res.Baseline())
	fmt.Fprintf(sh.w, "baseline: bins=%d valid=%v\n", sh.est.Baseline().Len(), sh.est.Baseline().Valid())
	return nil
}

func (sh *shell) cmdClear(args []string) error {
	sh.est.ClearBaseline()
	return nil
}

func (sh *shell) cmdSave(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("save needs an output file")
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	res := sh.est.Result()
	err = bode.NewEncoder(f).Encode(&res)
	if err != nil {
		return err
	}
	return f.Close()
}

func (sh *shell) cmdPlot(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("plot needs an output file")
	}
	res := sh.est.Result()
	return plot.Bode(args[0], &res, plot.WithTitle(filepath.Base(args[0])))
}

func (sh *shell) cmdQuit(args []string) error {
	return errQuit
}
