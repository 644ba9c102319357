/*
NAME
  ocr.go

DESCRIPTION
  ocr.go defines the Engine capability contract consumed by the
  dispatcher, and the Fragment result type.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ocr recognises text within closed subtitle segments. Engine is a
// small capability interface with three compiled-in variants selected by
// config.Settings.OcrEngine (noop, platform, onnx); Dispatcher runs
// recognition with bounded concurrency and reorders results back into
// start_pts order for the writer.
package ocr

import (
	"errors"

	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/luma"
)

// ErrUnavailable is returned by WarmUp for a backend compiled without its
// native dependency (platform recogniser, ONNX runtime), matching the
// teacher's pattern of a functional stub behind a build tag.
var ErrUnavailable = errors.New("ocr: backend unavailable in this build")

// Fragment is one recognised text run within a rectangle, with an
// optional confidence in [0,1] (zero value means "not reported").
type Fragment struct {
	Text       string
	Confidence float64
}

// Engine is the OCR backend contract (spec.md §6). WarmUp is called once
// before the first Recognize call; a WarmUp failure is fatal (OcrFatal).
// Recognize returns, for each input rectangle, zero or more fragments, in
// the same order as the rectangles.
type Engine interface {
	Name() string
	WarmUp() error
	Recognize(p luma.Plane, rects []detector.Rect) ([][]Fragment, error)
}
