// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb logs frequency response measurement runs into
// a database.
package conddb // import "github.com/go-lpc/fra/conddb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to log and retrieve measurement runs.
type DB struct {
	db   *sql.DB
	name string // name of the runs database
}

// Run describes a measurement run.
type Run struct {
	ID         int64
	Time       time.Time
	NFFT       int
	SampleRate float64
	Count      int     // number of averaged blocks
	Delay      float64 // removed group delay, in seconds
	DelayOK    bool
	Output     string // file holding the result of the run
}

// Open opens a connection to the runs database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// AddRun logs a new measurement run and returns its identifier.
func (db *DB) AddRun(ctx context.Context, run Run) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if run.Time.IsZero() {
		run.Time = time.Now().UTC()
	}

	res, err := db.db.ExecContext(
		ctx,
		"INSERT INTO runs (datetime, nfft, sample_rate, blocks, delay, delay_ok, output) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.Time, run.NFFT, run.SampleRate, run.Count, run.Delay, run.DelayOK, run.Output,
	)
	if err != nil {
		return 0, fmt.Errorf("conddb: could not insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("conddb: could not retrieve run id: %w", err)
	}

	return id, nil
}

// LastRun returns the most recent measurement run.
func (db *DB) LastRun(ctx context.Context) (Run, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var run Run
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT id, datetime, nfft, sample_rate, blocks, delay, delay_ok, output FROM runs ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return run, fmt.Errorf("conddb: could not query last run: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		err = rows.Scan(
			&run.ID, &run.Time, &run.NFFT, &run.SampleRate,
			&run.Count, &run.Delay, &run.DelayOK, &run.Output,
		)
		if err != nil {
			return run, fmt.Errorf("conddb: could not get last run values: %w", err)
		}
		n++
	}

	if err := rows.Err(); err != nil {
		return run, fmt.Errorf("conddb: could not scan db for last run: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("conddb: context error while retrieving last run: %w", err)
	}

	if n == 0 {
		return run, fmt.Errorf("conddb: no run in %q db", db.name)
	}

	return run, nil
}
