// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fra-runs displays the last measurement run logged in the run
// database.
package main // import "github.com/go-lpc/fra/cmd/fra-runs"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/fra/conddb"
)

func main() {
	log.SetPrefix("fra-runs: ")
	log.SetFlags(0)

	dbname := flag.String("db", "fra", "name of the run database")

	flag.Parse()

	db, err := conddb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open run db: %+v", err)
	}
	defer db.Close()

	err = doQuery(os.Stdout, db)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(w io.Writer, db *conddb.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run, err := db.LastRun(ctx)
	if err != nil {
		return fmt.Errorf("could not get last run: %w", err)
	}

	fmt.Fprintf(w, "run:         %d\n", run.ID)
	fmt.Fprintf(w, "date:        %s\n", run.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "nfft:        %d\n", run.NFFT)
	fmt.Fprintf(w, "sample rate: %g Hz\n", run.SampleRate)
	fmt.Fprintf(w, "blocks:      %d\n", run.Count)
	fmt.Fprintf(w, "delay:       %g s (ok=%v)\n", run.Delay, run.DelayOK)
	fmt.Fprintf(w, "output:      %q\n", run.Output)
	return nil
}
