/*
NAME
  decoder.go

DESCRIPTION
  decoder.go defines the decoder capability contract (consumed, spec.md
  §6): opening an input yields a stream of luma planes in presentation
  order, terminated by either end-of-stream or a terminal error.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package decoder defines the Decoder contract the sampler consumes. The
// H.264 decode itself is out of scope (spec.md §1): concrete
// implementations live in sub-packages such as decoder/gocvfile, selected
// by build tag the same way the teacher gates gocv-dependent code.
package decoder

import "github.com/ausocean/hardsub/luma"

// Result carries either a decoded plane or a terminal error, never both.
// A non-nil Err always means the stream has ended; no further values
// follow it on the channel.
type Result struct {
	Plane luma.Plane
	Err   error
}

// Decoder opens an input and yields decoded luma planes in presentation
// order. Frames returns a channel the caller must drain to completion
// (or until Close is called); it is closed after the terminal Result.
type Decoder interface {
	Frames() <-chan Result
	Close() error
}
