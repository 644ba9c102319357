/*
NAME
  gocvfile_circleci.go

DESCRIPTION
  gocvfile_circleci.go replaces the gocv-backed decoder when built
  without OpenCV installed, matching cmd/rv/probe_circleci.go's reason
  for existing: CI does not have a copy of OpenCV installed.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

//go:build !withcv
// +build !withcv

package gocvfile

import (
	"errors"

	"github.com/ausocean/hardsub/decoder"
	"github.com/ausocean/hardsub/internal/logging"
)

// ErrUnavailable is returned by Open when built without OpenCV.
var ErrUnavailable = errors.New("gocvfile: built without withcv, no decoder available")

// Decoder is the stub compiled without withcv.
type Decoder struct{}

// Open always fails in this build.
func Open(path string, outCap int, log logging.Logger) (*Decoder, error) {
	return nil, ErrUnavailable
}

func (d *Decoder) Frames() <-chan decoder.Result { return nil }
func (d *Decoder) Close() error                  { return nil }
