// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dma

import (
	"log"
	"os"
	"time"
)

type config struct {
	msg     *log.Logger
	ndesc   int
	timeout time.Duration
	poll    time.Duration
}

func newConfig() config {
	return config{
		msg:     log.New(os.Stdout, "dma: ", 0),
		ndesc:   MaxDesc,
		timeout: 1 * time.Second,
		poll:    100 * time.Microsecond,
	}
}

// Option configures a DMA device.
type Option func(*config)

// WithLogger sets the logger of the device.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithNumDesc sets the number of scatter-gather descriptors
// programmed on each DMA channel.
// Values are clamped to [1, MaxDesc].
func WithNumDesc(n int) Option {
	return func(cfg *config) {
		switch {
		case n < 1:
			n = 1
		case n > MaxDesc:
			n = MaxDesc
		}
		cfg.ndesc = n
	}
}

// WithTimeout sets the maximum duration to wait for the completion
// of a DMA transfer.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = d
	}
}
