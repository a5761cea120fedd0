// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package daq runs frequency response measurements under the tdaq
// run-control framework.
package daq // import "github.com/go-lpc/fra/daq"

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-lpc/fra/bode"
	"github.com/go-lpc/fra/conddb"
	"github.com/go-lpc/fra/config"
)

type msgstream interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Server drives a Bode estimator from tdaq commands and publishes
// its estimates on the /bode output.
type Server struct {
	name string

	mu  sync.Mutex
	cfg config.Run
	src bode.BlockSource
	est *bode.Estimator
	db  *conddb.DB
	rnd *rand.Rand

	step    int // number of acquisition steps of the current run
	running bool

	data chan []byte
}

// New returns a new tdaq server named name, with the default run
// configuration.
func New(name string) *Server {
	return &Server{
		name: name,
		cfg:  config.Default(),
		data: make(chan []byte, 16),
	}
}

// Config returns the current run configuration.
func (srv *Server) Config() config.Run {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.cfg
}

// Steps returns the number of acquisition steps of the current run.
func (srv *Server) Steps() int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.step
}

// Result returns a snapshot of the current estimate.
func (srv *Server) Result() (bode.Result, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.est == nil {
		return bode.Result{}, bode.ErrNotReady
	}
	return srv.est.Result(), nil
}

func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	return srv.configure(ctx.Msg, req.Body)
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	var dev string
	if len(req.Body) > 0 {
		dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
		dev = dec.ReadStr()
	}
	return srv.initialize(ctx.Msg, dev)
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return srv.reset(ctx.Msg)
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return srv.start(ctx.Msg)
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command... -> n=%d", srv.Steps())
	return srv.stop(ctx.Ctx, ctx.Msg)
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return srv.quit(ctx.Msg)
}

func (srv *Server) OnBaseline(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /baseline command...")
	return srv.captureBaseline(ctx.Msg)
}

func (srv *Server) OnClearBaseline(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /clear-baseline command...")
	return srv.clearBaseline(ctx.Msg)
}

// Bode publishes the encoded estimates produced by the run loop.
func (srv *Server) Bode(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-srv.data:
		dst.Body = data
	}
	return nil
}

// Loop performs one acquisition step per iteration while a run is
// active, until the configured number of steps is reached.
func (srv *Server) Loop(ctx tdaq.Context) error {
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		default:
			raw, more, err := srv.acquire(ctx.Msg)
			if err != nil {
				ctx.Msg.Errorf("could not acquire step: %+v", err)
				return err
			}
			if raw != nil {
				select {
				case srv.data <- raw:
				default:
					ctx.Msg.Debugf("output queue full: dropping estimate")
				}
			}
			if !more {
				select {
				case <-ctx.Ctx.Done():
					return nil
				case <-time.After(100 * time.Millisecond):
				}
			}
		}
	}
}

func (srv *Server) configure(msg msgstream, raw []byte) error {
	cfg, err := config.Parse(raw)
	if err != nil {
		msg.Errorf("could not parse run configuration: %+v", err)
		return fmt.Errorf("daq: could not configure server %q: %w", srv.name, err)
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.cfg = cfg
	msg.Infof("configured: nfft=%d, fs=%g Hz, blocks=%d, steps=%d",
		cfg.NFFT, cfg.SampleRate, cfg.Blocks, cfg.Steps,
	)
	return nil
}

func (srv *Server) initialize(msg msgstream, dev string) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if dev == "" {
		dev = srv.cfg.Device
	}

	if srv.src != nil {
		_ = CloseSource(srv.src)
		srv.src = nil
	}

	src, err := OpenSource(dev, srv.cfg)
	if err != nil {
		msg.Errorf("could not open device %q: %+v", dev, err)
		return err
	}
	srv.src = src
	srv.est = bode.New(src)
	srv.est.Reset(srv.cfg.NFFT, srv.cfg.SampleRate)
	srv.rnd = rand.New(rand.NewSource(srv.cfg.Seed))
	srv.step = 0

	if srv.cfg.Baseline != "" {
		err = srv.loadBaseline(srv.cfg.Baseline)
		if err != nil {
			msg.Errorf("could not load baseline: %+v", err)
			return err
		}
		msg.Infof("loaded baseline from %q (%d bins)", srv.cfg.Baseline, srv.est.Baseline().Len())
	}

	if srv.db != nil {
		_ = srv.db.Close()
		srv.db = nil
	}
	if srv.cfg.CondDB != "" {
		srv.db, err = conddb.Open(srv.cfg.CondDB)
		if err != nil {
			msg.Errorf("could not open run log: %+v", err)
			return err
		}
	}

	msg.Infof("device %q: OK", dev)
	return nil
}

func (srv *Server) loadBaseline(fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("daq: could not open baseline file: %w", err)
	}
	defer f.Close()

	var res bode.Result
	err = bode.NewDecoder(f).Decode(&res)
	if err != nil {
		return fmt.Errorf("daq: could not decode baseline file %q: %w", fname, err)
	}
	srv.est.SetBaseline(res.Baseline())
	return nil
}

func (srv *Server) reset(msg msgstream) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.est == nil {
		return bode.ErrNotReady
	}
	srv.est.Reset(srv.cfg.NFFT, srv.cfg.SampleRate)
	srv.rnd = rand.New(rand.NewSource(srv.cfg.Seed))
	srv.step = 0
	srv.running = false
	for {
		select {
		case <-srv.data:
		default:
			return nil
		}
	}
}

func (srv *Server) start(msg msgstream) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.est == nil {
		msg.Errorf("start before init")
		return bode.ErrNotReady
	}
	srv.est.Reset(srv.cfg.NFFT, srv.cfg.SampleRate)
	srv.step = 0
	srv.running = true
	return nil
}

func (srv *Server) stop(ctx context.Context, msg msgstream) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if !srv.running {
		return nil
	}
	srv.running = false

	res := srv.est.Result()
	tau, ok := srv.est.Delay()
	msg.Infof("run stopped after %d steps (blocks=%d, delay=%g s, ok=%v)",
		srv.step, res.Count, tau, ok,
	)

	if srv.cfg.Output != "" {
		err := save(srv.cfg.Output, &res)
		if err != nil {
			msg.Errorf("could not save result: %+v", err)
			return err
		}
	}

	if srv.db != nil {
		id, err := srv.db.AddRun(ctx, conddb.Run{
			NFFT:       res.NFFT,
			SampleRate: res.SampleRate,
			Count:      res.Count,
			Delay:      res.Delay,
			DelayOK:    res.DelayOK,
			Output:     srv.cfg.Output,
		})
		if err != nil {
			msg.Errorf("could not log run: %+v", err)
			return err
		}
		msg.Infof("logged run %d", id)
	}

	return nil
}

func (srv *Server) quit(msg msgstream) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	var err error
	if srv.src != nil {
		err = CloseSource(srv.src)
		srv.src = nil
		if err != nil {
			msg.Errorf("could not close device: %+v", err)
		}
	}
	if srv.db != nil {
		e := srv.db.Close()
		srv.db = nil
		if e != nil && err == nil {
			err = e
		}
	}
	srv.est = nil
	srv.running = false
	return err
}

func (srv *Server) captureBaseline(msg msgstream) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.est == nil || srv.est.Count() == 0 {
		msg.Errorf("no estimate to capture as baseline")
		return bode.ErrNotReady
	}
	res := srv.est.Result()
	srv.est.SetBaseline(res.Baseline())
	msg.Infof("baseline captured (%d bins, valid=%v)",
		srv.est.Baseline().Len(), srv.est.Baseline().Valid(),
	)
	return nil
}

func (srv *Server) clearBaseline(msg msgstream) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.est == nil {
		return bode.ErrNotReady
	}
	srv.est.ClearBaseline()
	return nil
}

// acquire performs one acquisition step and returns the encoded estimate.
// acquire reports whether more steps are expected in the current run.
func (srv *Server) acquire(msg msgstream) ([]byte, bool, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if !srv.running || srv.est == nil {
		return nil, false, nil
	}
	if srv.cfg.Steps > 0 && srv.step >= srv.cfg.Steps {
		return nil, false, nil
	}

	step := srv.cfg.Step()
	if srv.cfg.Excite {
		ok, err := Excite(srv.src, srv.rnd, step.Blocks, srv.cfg.Amplitude)
		if err != nil {
			return nil, false, err
		}
		if !ok && srv.step == 0 {
			msg.Debugf("device takes no excitation")
		}
	}

	err := srv.est.AcquireStep(step)
	if err != nil {
		return nil, false, err
	}
	srv.step++

	res := srv.est.Result()
	buf := new(bytes.Buffer)
	err = bode.NewEncoder(buf).Encode(&res)
	if err != nil {
		return nil, false, fmt.Errorf("daq: could not encode estimate: %w", err)
	}

	more := srv.cfg.Steps == 0 || srv.step < srv.cfg.Steps
	if !more {
		msg.Infof("run complete: %d steps", srv.step)
	}
	return buf.Bytes(), more, nil
}

func save(fname string, res *bode.Result) error {
	f, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("daq: could not create output file: %w", err)
	}
	defer f.Close()

	err = bode.NewEncoder(f).Encode(res)
	if err != nil {
		return fmt.Errorf("daq: could not encode result: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("daq: could not close output file: %w", err)
	}
	return nil
}
