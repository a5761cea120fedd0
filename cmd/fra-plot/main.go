// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// fra-plot renders the Bode diagram of a saved frequency response.
//
// Usage: fra-plot [OPTIONS] FILE
//
// Example:
//
//  $> fra-plot -o bode.png ./bode.dat
//  fra-plot: bins=32769 blocks=200 delay=6.4e-08 s (ok=true)
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/fra/bode"
	"github.com/go-lpc/fra/plot"
)

func main() {
	log.SetPrefix("fra-plot: ")
	log.SetFlags(0)

	var (
		oname = flag.String("o", "bode.png", "output image file")
		title = flag.String("t", "", "title of the diagram")
	)

	flag.Usage = func() {
		fmt.Printf(`fra-plot renders the Bode diagram of a saved frequency response.

Usage: fra-plot [OPTIONS] FILE

Example:

 $> fra-plot -o bode.png ./bode.dat

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing path to input result file")
	}

	err := process(*oname, flag.Arg(0), *title)
	if err != nil {
		log.Fatalf("could not plot %q: %+v", flag.Arg(0), err)
	}
}

// process renders the last result stored in fname.
func process(oname, fname, title string) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open result file: %w", err)
	}
	defer f.Close()

	var (
		res bode.Result
		dec = bode.NewDecoder(f)
		n   = 0
	)
	for {
		var cur bode.Result
		err := dec.Decode(&cur)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("could not decode result #%d: %w", n, err)
		}
		res = cur
		n++
	}
	if n == 0 {
		return fmt.Errorf("no result in file")
	}

	log.Printf("bins=%d blocks=%d delay=%g s (ok=%v)", res.Len(), res.Count, res.Delay, res.DelayOK)

	if title == "" {
		title = fmt.Sprintf("Bode diagram (fs=%g Hz, nfft=%d, blocks=%d)", res.SampleRate, res.NFFT, res.Count)
	}
	return plot.Bode(oname, &res, plot.WithTitle(title))
}
