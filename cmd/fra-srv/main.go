// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command fra-srv starts a TDAQ server driving a frequency response
// measurement board.
package main // import "github.com/go-lpc/fra/cmd/fra-srv"

import (
	"context"
	"log"
	"os"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/fra"
	"github.com/go-lpc/fra/daq"
)

func main() {
	cmd := flags.New()

	if v, _ := fra.Version(); v != "" {
		log.Printf("fra-srv: fra %s", v)
	}

	dev := daq.New("fra-srv")

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)
	srv.CmdHandle("/baseline", dev.OnBaseline)
	srv.CmdHandle("/clear-baseline", dev.OnClearBaseline)

	srv.OutputHandle("/bode", dev.Bode)

	srv.RunHandle(dev.Loop)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}
