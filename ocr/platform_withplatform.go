/*
NAME
  platform_withplatform.go

DESCRIPTION
  platform_withplatform.go is the wiring point for a real platform-native
  text recogniser. It is not functional as shipped: no native recognition
  call is linked in, since the recogniser itself is out of scope (spec.md
  §1 treats OCR engines as external collaborators). Building with the
  withplatform tag swaps this in for ocr/platform.go's CI-safe stub.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

//go:build withplatform
// +build withplatform

package ocr

import (
	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/luma"
)

// Platform is the binding point for the host's native text-recognition
// API. No native call is linked in: WarmUp and Recognize both return
// ErrUnavailable.
type Platform struct {
	warmed bool
}

// NewPlatform returns a Platform engine. No native recogniser is bound.
func NewPlatform() *Platform { return &Platform{} }

func (p *Platform) Name() string { return "platform" }

// WarmUp loads the native model. The real load call is a host-specific
// binding point; until wired, warm-up always fails fatally so a
// withplatform build never silently produces no text.
func (p *Platform) WarmUp() error { return ErrUnavailable }

func (p *Platform) Recognize(plane luma.Plane, rects []detector.Rect) ([][]Fragment, error) {
	return nil, ErrUnavailable
}
