// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dsp holds the signal processing helpers used by the
// frequency-response estimator: tapering windows, real FFTs,
// phase unwrapping and group-delay estimation.
package dsp // import "github.com/go-lpc/fra/dsp"
