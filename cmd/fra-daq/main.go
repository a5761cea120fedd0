// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fra-daq runs a frequency response measurement in stand-alone mode.
//
// Usage: fra-daq [OPTIONS]
//
// Example:
//
//  $> fra-daq -cfg ./run.yaml -o bode.dat
//  fra-daq: step 200/200: blocks=200 delay=6.4e-08 s (ok=true)
//  fra-daq: result saved to "bode.dat"
package main // import "github.com/go-lpc/fra/cmd/fra-daq"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/go-lpc/fra"
	"github.com/go-lpc/fra/bode"
	"github.com/go-lpc/fra/conddb"
	"github.com/go-lpc/fra/config"
	"github.com/go-lpc/fra/daq"
)

func main() {
	var (
		fname  = flag.String("cfg", "", "path to YAML run configuration")
		dev    = flag.String("dev", "", "device to open (overrides configuration, 'sim' for simulation)")
		oname  = flag.String("o", "", "output file (overrides configuration)")
		record = flag.String("record", "", "directory where to save raw captures")
		steps  = flag.Int("n", -1, "number of acquisition steps (overrides configuration)")
	)

	log.SetPrefix("fra-daq: ")
	log.SetFlags(0)

	flag.Parse()

	if v, _ := fra.Version(); v != "" {
		log.Printf("fra %s", v)
	}

	cfg := config.Default()
	if *fname != "" {
		var err error
		cfg, err = config.Load(*fname)
		if err != nil {
			log.Fatalf("could not load run configuration: %+v", err)
		}
	}
	if *dev != "" {
		cfg.Device = *dev
	}
	if *oname != "" {
		cfg.Output = *oname
	}
	if *steps >= 0 {
		cfg.Steps = *steps
	}

	err := run(cfg, *record)
	if err != nil {
		log.Fatalf("could not run fra-daq: %+v", err)
	}
}

func run(cfg config.Run, record string) error {
	err := cfg.Validate()
	if err != nil {
		return err
	}
	if cfg.Steps == 0 {
		return fmt.Errorf("stand-alone run needs a finite number of steps")
	}

	src, err := daq.OpenSource(cfg.Device, cfg)
	if err != nil {
		return fmt.Errorf("could not open device: %w", err)
	}
	defer daq.CloseSource(src)

	var (
		rnd  = rand.New(rand.NewSource(cfg.Seed))
		feed = src
	)
	if record != "" {
		rec, err := daq.NewRecorder(src, record)
		if err != nil {
			return fmt.Errorf("could not create recorder: %w", err)
		}
		feed = rec
	}

	est := bode.New(feed)
	est.Reset(cfg.NFFT, cfg.SampleRate)

	if cfg.Baseline != "" {
		base, err := load(cfg.Baseline)
		if err != nil {
			return fmt.Errorf("could not load baseline: %w", err)
		}
		est.SetBaseline(base.Baseline())
	}

	step := cfg.Step()
	for i := 0; i < cfg.Steps; i++ {
		if cfg.Excite {
			_, err = daq.Excite(src, rnd, step.Blocks, cfg.Amplitude)
			if err != nil {
				return fmt.Errorf("could not excite step %d: %w", i, err)
			}
		}
		err = est.AcquireStep(step)
		if err != nil {
			return fmt.Errorf("could not acquire step %d: %w", i, err)
		}
	}

	tau, ok := est.Delay()
	log.Printf("step %d/%d: blocks=%d delay=%g s (ok=%v)", cfg.Steps, cfg.Steps, est.Count(), tau, ok)

	res := est.Result()
	err = save(cfg.Output, &res)
	if err != nil {
		return err
	}
	log.Printf("result saved to %q", cfg.Output)

	if cfg.CondDB == "" {
		return nil
	}

	db, err := conddb.Open(cfg.CondDB)
	if err != nil {
		return fmt.Errorf("could not open run log: %w", err)
	}
	defer db.Close()

	id, err := db.AddRun(context.Background(), conddb.Run{
		NFFT:       res.NFFT,
		SampleRate: res.SampleRate,
		Count:      res.Count,
		Delay:      res.Delay,
		DelayOK:    res.DelayOK,
		Output:     cfg.Output,
	})
	if err != nil {
		return fmt.Errorf("could not log run: %w", err)
	}
	log.Printf("run %d logged to %q", id, cfg.CondDB)

	return nil
}

func load(fname string) (bode.Result, error) {
	var res bode.Result
	f, err := os.Open(fname)
	if err != nil {
		return res, err
	}
	defer f.Close()

	err = bode.NewDecoder(f).Decode(&res)
	if err != nil {
		return res, fmt.Errorf("could not decode %q: %w", fname, err)
	}
	return res, nil
}

func save(fname string, res *bode.Result) error {
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer f.Close()

	err = bode.NewEncoder(f).Encode(res)
	if err != nil {
		return fmt.Errorf("could not encode result: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close output file: %w", err)
	}
	return nil
}
