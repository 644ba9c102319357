/*
NAME
  platform.go

DESCRIPTION
  platform.go is a placeholder for a platform-native text recogniser.
  Building without the withplatform tag yields a stub whose WarmUp
  always fails with ErrUnavailable, matching the teacher's build-tag
  boundary for native dependencies.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

//go:build !withplatform
// +build !withplatform

package ocr

import (
	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/luma"
)

// Platform is the stub compiled when the withplatform build tag is
// absent. A real build wires this to the host OS's native text
// recognition API (out of scope per spec.md §1); here it only reports
// unavailability so the pipeline fails fast and cleanly at warm-up.
type Platform struct{}

// NewPlatform returns the stub Platform engine.
func NewPlatform() *Platform { return &Platform{} }

func (p *Platform) Name() string { return "platform" }

func (p *Platform) WarmUp() error { return ErrUnavailable }

func (p *Platform) Recognize(plane luma.Plane, rects []detector.Rect) ([][]Fragment, error) {
	return nil, ErrUnavailable
}
