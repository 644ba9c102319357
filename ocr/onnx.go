/*
NAME
  onnx.go

DESCRIPTION
  onnx.go is the CI-safe stub for the ONNX Runtime OCR backend, compiled
  when the withonnx build tag is absent (no native onnxruntime shared
  library available).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

//go:build !withonnx
// +build !withonnx

package ocr

import (
	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/luma"
)

// Onnx is the stub compiled without withonnx.
type Onnx struct {
	ModelPath string
}

// NewOnnx returns a stub Onnx engine bound to modelPath (unused in this
// build).
func NewOnnx(modelPath string) *Onnx { return &Onnx{ModelPath: modelPath} }

func (o *Onnx) Name() string { return "onnx" }

func (o *Onnx) WarmUp() error { return ErrUnavailable }

func (o *Onnx) Recognize(p luma.Plane, rects []detector.Rect) ([][]Fragment, error) {
	return nil, ErrUnavailable
}
