/*
NAME
  luma.go

DESCRIPTION
  luma.go provides Plane, a zero-copy descriptor of a decoded frame's Y
  channel.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package luma provides the Plane type: a width/height/stride view onto a
// frame's brightness channel, shared read-only across pipeline stages.
package luma

import "fmt"

// Plane is a zero-copy descriptor of a single decoded frame's Y channel.
// Pix is owned by whichever decoder produced the frame; Plane never mutates
// it and any stage that needs to retain pixels past the plane's lifetime
// must copy them out (see the Feature copy-on-extract rule in package
// comparator).
type Plane struct {
	Width, Height int
	Stride        int       // bytes per row; Stride >= Width.
	Pix           []byte    // len(Pix) >= Stride*Height.
	Pts           float64   // presentation timestamp, seconds.
	Index         int       // frame index set by the producing decoder; New sets -1.
}

// New validates and returns a Plane. It returns an error rather than
// panicking because malformed planes are expected to arrive from an
// external decoder and must be handled as DetectorAnomaly, not a crash.
func New(width, height, stride int, pix []byte, pts float64) (Plane, error) {
	if stride < width {
		return Plane{}, fmt.Errorf("luma: stride %d less than width %d", stride, width)
	}
	if len(pix) < stride*height {
		return Plane{}, fmt.Errorf("luma: buffer length %d less than stride*height %d", len(pix), stride*height)
	}
	return Plane{Width: width, Height: height, Stride: stride, Pix: pix, Pts: pts, Index: -1}, nil
}

// At returns the luma value at (x, y). Callers must ensure 0<=x<Width and
// 0<=y<Height; At does not bounds-check so that detector inner loops stay
// branch-free.
func (p Plane) At(x, y int) byte {
	return p.Pix[y*p.Stride+x]
}

// Valid reports whether the plane has legal dimensions for processing; it
// is the condition the detector checks before running its algorithm (spec:
// "degenerate frame... returns an empty region list").
func (p Plane) Valid() bool {
	return p.Width > 0 && p.Height > 0 && p.Stride >= p.Width && len(p.Pix) >= p.Stride*p.Height
}

// Copy returns a Plane with its own backing array, independent of p's. Any
// stage that retains a Plane past the lifetime of the batch it arrived in
// (the segmenter's anchor, for instance) must Copy it first.
func (p Plane) Copy() Plane {
	cp := make([]byte, len(p.Pix))
	copy(cp, p.Pix)
	p.Pix = cp
	return p
}

// Sub returns a new Plane that is a read-only view of the pixel rectangle
// (x0,y0)-(x1,y1) within p. The returned Plane shares p's backing array.
func (p Plane) Sub(x0, y0, x1, y1 int) Plane {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > p.Width {
		x1 = p.Width
	}
	if y1 > p.Height {
		y1 = p.Height
	}
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	w, h := x1-x0, y1-y0
	start := y0*p.Stride + x0
	end := start + 0
	if h > 0 {
		end = (y0+h-1)*p.Stride + x1
	}
	if end > len(p.Pix) {
		end = len(p.Pix)
	}
	return Plane{
		Width:  w,
		Height: h,
		Stride: p.Stride,
		Pix:    p.Pix[start:end],
		Pts:    p.Pts,
		Index:  p.Index,
	}
}
