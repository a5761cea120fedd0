// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fra-replay estimates the frequency response of recorded
// captures, one estimator per capture.
//
// Usage: fra-replay [OPTIONS] DIR
//
// Each <name>.dac/<name>.adc capture pair found under DIR is processed
// concurrently and its result saved to <name>.bode.
package main // import "github.com/go-lpc/fra/cmd/fra-replay"

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-lpc/fra/bode"
	"github.com/go-lpc/fra/config"
	"github.com/go-lpc/fra/daq"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		fname = flag.String("cfg", "", "path to YAML run configuration")
		nfft  = flag.Int("nfft", 0, "block length (overrides configuration)")
		fs    = flag.Float64("fs", 0, "sample rate in Hz (overrides configuration)")
		njobs = flag.Int("j", 4, "maximum number of concurrent jobs")
	)

	log.SetPrefix("fra-replay: ")
	log.SetFlags(0)

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing path to capture directory")
	}

	cfg := config.Default()
	if *fname != "" {
		var err error
		cfg, err = config.Load(*fname)
		if err != nil {
			log.Fatalf("could not load run configuration: %+v", err)
		}
	}
	if *nfft > 0 {
		cfg.NFFT = *nfft
	}
	if *fs > 0 {
		cfg.SampleRate = *fs
	}

	err := run(flag.Arg(0), cfg, *njobs)
	if err != nil {
		log.Fatalf("could not replay captures: %+v", err)
	}
}

func run(dir string, cfg config.Run, njobs int) error {
	err := cfg.Validate()
	if err != nil {
		return err
	}

	names, err := daq.Captures(dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no capture under %q", dir)
	}

	var grp errgroup.Group
	if njobs > 0 {
		grp.SetLimit(njobs)
	}
	for _, name := range names {
		name := name
		grp.Go(func() error {
			res, err := daq.Replay(name, cfg)
			if err != nil {
				return err
			}
			err = save(name+".bode", &res)
			if err != nil {
				return fmt.Errorf("could not save result of %q: %w", name, err)
			}
			log.Printf("%s: blocks=%d delay=%g s (ok=%v)", name, res.Count, res.Delay, res.DelayOK)
			return nil
		})
	}

	return grp.Wait()
}

func save(fname string, res *bode.Result) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	err = bode.NewEncoder(f).Encode(res)
	if err != nil {
		return err
	}
	return f.Close()
}
