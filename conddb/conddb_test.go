// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import (
	"context"
	"database/sql/driver"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-lpc/fra/internal/fakedb"
)

func init() {
	drvName = "fakedb"
}

func TestOpen(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()
}

func TestDSN(t *testing.T) {
	if got, want := dsn("fra"), "username:s3cr3t@tcp(localhost)/fra?parseTime=true"; got != want {
		t.Fatalf("invalid DSN: got=%q, want=%q", got, want)
	}
}

func TestAddRun(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	run := Run{
		Time:       time.Date(2021, 3, 4, 10, 20, 30, 0, time.UTC),
		NFFT:       1024,
		SampleRate: 125e6,
		Count:      20,
		Delay:      64e-9,
		DelayOK:    true,
		Output:     "run-001.dat",
	}

	var id int64
	err = fakedb.Run(context.Background(), fakedb.Rows{}, func(ctx context.Context) error {
		var err error
		id, err = db.AddRun(ctx, run)
		return err
	})
	if err != nil {
		t.Fatalf("could not add run: %+v", err)
	}
	if id <= 0 {
		t.Fatalf("invalid run id: %d", id)
	}

	execs := fakedb.Execs()
	if got, want := len(execs), 1; got != want {
		t.Fatalf("invalid number of statements: got=%d, want=%d", got, want)
	}
	if !strings.HasPrefix(execs[0].Query, "INSERT INTO runs ") {
		t.Fatalf("invalid statement: %q", execs[0].Query)
	}
	want := []driver.Value{
		run.Time, int64(1024), 125e6, int64(20), 64e-9, true, "run-001.dat",
	}
	if got := execs[0].Args; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid statement args:\ngot= %#v\nwant=%#v", got, want)
	}
}

func TestAddRunNow(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	beg := time.Now().UTC()
	_ = fakedb.Run(context.Background(), fakedb.Rows{}, func(ctx context.Context) error {
		_, err := db.AddRun(ctx, Run{NFFT: 1})
		if err != nil {
			t.Fatalf("could not add run: %+v", err)
		}
		return nil
	})

	execs := fakedb.Execs()
	if len(execs) != 1 {
		t.Fatalf("invalid number of statements: %d", len(execs))
	}
	ts, ok := execs[0].Args[0].(time.Time)
	if !ok {
		t.Fatalf("invalid timestamp type %T", execs[0].Args[0])
	}
	if ts.Before(beg) {
		t.Fatalf("invalid default timestamp: %v < %v", ts, beg)
	}
}

func TestLastRun(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	ts := time.Date(2021, 3, 4, 10, 20, 30, 0, time.UTC)
	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"id", "datetime", "nfft", "sample_rate", "blocks", "delay", "delay_ok", "output"},
		Values: [][]driver.Value{
			{int64(42), ts, int64(1024), 125e6, int64(20), 64e-9, true, "run-042.dat"},
		},
	}, func(ctx context.Context) error {
		run, err := db.LastRun(ctx)
		if err != nil {
			t.Fatalf("could not retrieve last run: %+v", err)
		}

		want := Run{
			ID:         42,
			Time:       ts,
			NFFT:       1024,
			SampleRate: 125e6,
			Count:      20,
			Delay:      64e-9,
			DelayOK:    true,
			Output:     "run-042.dat",
		}
		if !reflect.DeepEqual(run, want) {
			t.Fatalf("invalid last run:\ngot= %+v\nwant=%+v", run, want)
		}
		return nil
	})

	_ = fakedb.Run(context.Background(), fakedb.Rows{
		Names: []string{"id", "datetime", "nfft", "sample_rate", "blocks", "delay", "delay_ok", "output"},
	}, func(ctx context.Context) error {
		_, err := db.LastRun(ctx)
		if err == nil {
			t.Fatalf("expected an error")
		}
		if got, want := err.Error(), `conddb: no run in "fakedb" db`; got != want {
			t.Fatalf("invalid error:\ngot= %v\nwant=%v", got, want)
		}
		return nil
	})
}
