/*
NAME
  noop.go

DESCRIPTION
  noop.go implements the no-op OCR engine: always succeeds, never
  recognises any text. Useful for pipeline testing without a real
  recogniser installed.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ocr

import (
	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/luma"
)

// Noop is an Engine that returns zero fragments for every rectangle. It
// never fails WarmUp or Recognize.
type Noop struct{}

// NewNoop returns a Noop engine.
func NewNoop() *Noop { return &Noop{} }

func (n *Noop) Name() string   { return "noop" }
func (n *Noop) WarmUp() error  { return nil }

func (n *Noop) Recognize(p luma.Plane, rects []detector.Rect) ([][]Fragment, error) {
	out := make([][]Fragment, len(rects))
	return out, nil
}
