/*
NAME
  roi.go

DESCRIPTION
  roi.go provides Roi, a normalised region-of-interest rectangle, and its
  resolution to pixel coordinates for a given frame size.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package roi provides the normalised region-of-interest model shared by
// the detector and the pipeline's configuration surface.
package roi

import "fmt"

// Roi is a rectangle in normalised [0,1] frame coordinates. A zero-value
// Roi (all fields zero) resolves to the full frame, per spec.
type Roi struct {
	X, Y, W, H float64
}

// Default is the detector's default region of interest: the bottom 25% of
// the frame, full width.
var Default = Roi{X: 0, Y: 0.75, W: 1, H: 0.25}

// Validate checks that the Roi describes a rectangle inside [0,1]x[0,1].
// The all-zero Roi is always valid. Any other zero-sized Roi (W==0 && H==0)
// is valid when X and Y lie in [0,1]; Resolve treats every zero-sized Roi
// as "full frame".
func (r Roi) Validate() error {
	if r.W == 0 && r.H == 0 && r.X == 0 && r.Y == 0 {
		return nil
	}
	if r.X < 0 || r.X+r.W > 1 {
		return fmt.Errorf("roi: x span [%v,%v] outside [0,1]", r.X, r.X+r.W)
	}
	if r.Y < 0 || r.Y+r.H > 1 {
		return fmt.Errorf("roi: y span [%v,%v] outside [0,1]", r.Y, r.Y+r.H)
	}
	if r.W < 0 || r.H < 0 {
		return fmt.Errorf("roi: negative extent w=%v h=%v", r.W, r.H)
	}
	return nil
}

// Pixel is the resolution of a Roi against a concrete frame size, in
// integer pixel coordinates, half-open [X0,X1) x [Y0,Y1).
type Pixel struct {
	X0, Y0, X1, Y1 int
}

// Width and Height of the resolved pixel rectangle.
func (p Pixel) Width() int  { return p.X1 - p.X0 }
func (p Pixel) Height() int { return p.Y1 - p.Y0 }

// Resolve converts r to pixel coordinates for a frame of the given
// dimensions. A zero-sized Roi resolves to the full frame.
func (r Roi) Resolve(frameW, frameH int) Pixel {
	if r.W == 0 && r.H == 0 {
		return Pixel{X0: 0, Y0: 0, X1: frameW, Y1: frameH}
	}
	p := Pixel{
		X0: int(r.X * float64(frameW)),
		Y0: int(r.Y * float64(frameH)),
		X1: int((r.X + r.W) * float64(frameW)),
		Y1: int((r.Y + r.H) * float64(frameH)),
	}
	if p.X1 > frameW {
		p.X1 = frameW
	}
	if p.Y1 > frameH {
		p.Y1 = frameH
	}
	if p.X0 > p.X1 {
		p.X0 = p.X1
	}
	if p.Y0 > p.Y1 {
		p.Y0 = p.Y1
	}
	return p
}
