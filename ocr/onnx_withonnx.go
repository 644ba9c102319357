/*
NAME
  onnx_withonnx.go

DESCRIPTION
  onnx_withonnx.go wires the ONNX Runtime OCR backend to
  github.com/yalue/onnxruntime_go's session API. It is not functional
  without the native onnxruntime shared library installed on the host and
  a recognition model exported to ONNX; the session-create and run calls
  are wiring points, not a complete recogniser (spec.md §1 treats OCR
  engines as external collaborators).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

//go:build withonnx
// +build withonnx

package ocr

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/luma"
)

// Onnx recognises text via an ONNX Runtime inference session.
type Onnx struct {
	ModelPath string

	mu      sync.Mutex
	session *ort.AdvancedSession
}

// NewOnnx returns an Onnx engine that will load modelPath on WarmUp.
func NewOnnx(modelPath string) *Onnx { return &Onnx{ModelPath: modelPath} }

func (o *Onnx) Name() string { return "onnx" }

// WarmUp initialises the onnxruntime environment and creates the
// inference session. The input/output tensor names here are placeholders
// for whatever text-recognition model is exported; a real deployment
// must adjust them to its model's graph.
func (o *Onnx) WarmUp() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("ocr: onnxruntime init: %w", err)
	}
	session, err := ort.NewAdvancedSession(o.ModelPath,
		[]string{"input"}, []string{"output"}, nil, nil)
	if err != nil {
		return fmt.Errorf("ocr: onnxruntime session create: %w", err)
	}
	o.session = session
	return nil
}

// Recognize is a wiring point: converting a luma.Plane sub-rectangle into
// the model's expected input tensor layout and decoding its output back
// into Fragments is model-specific and left to the deployment.
func (o *Onnx) Recognize(p luma.Plane, rects []detector.Rect) ([][]Fragment, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil, ErrUnavailable
	}
	out := make([][]Fragment, len(rects))
	return out, nil
}
