/*
NAME
  detector.go

DESCRIPTION
  detector.go provides the Detector interface and the Region type it
  produces: per-frame region-of-interest analysis that proposes candidate
  subtitle bands with a confidence score.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package detector proposes candidate subtitle regions within a sampled
// frame's region of interest. The default luma-band algorithm thresholds
// bright-on-dark pixels and merges them into blobs; the integral-band
// algorithm is a fallback used when luma-band finds nothing on consecutive
// frames.
package detector

import "github.com/ausocean/hardsub/luma"

// MaxRegions is the hard cap on candidate regions returned for one frame
// (spec.md §4.2 step 5: "cap at 4 survivors").
const MaxRegions = 4

// MinConfidence is the floor below which a candidate is rejected outright
// (spec.md §4.2 step 6).
const MinConfidence = 0.2

// Rect is an integer pixel rectangle, half-open [X0,X1) x [Y0,Y1), within
// the frame the Region was detected in.
type Rect struct {
	X0, Y0, X1, Y1 int
}

func (r Rect) Width() int  { return r.X1 - r.X0 }
func (r Rect) Height() int { return r.Y1 - r.Y0 }
func (r Rect) Area() int   { return r.Width() * r.Height() }
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// CenterY returns the vertical centre of r, used by the segmenter's
// slot-assignment distance metric.
func (r Rect) CenterY() float64 { return float64(r.Y0+r.Y1) / 2 }

// IntersectArea returns the area of the intersection of r and o.
func (r Rect) IntersectArea(o Rect) int {
	x0, y0 := max(r.X0, o.X0), max(r.Y0, o.Y0)
	x1, y1 := min(r.X1, o.X1), min(r.Y1, o.Y1)
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	return (x1 - x0) * (y1 - y0)
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: min(r.X0, o.X0),
		Y0: min(r.Y0, o.Y0),
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Region is one candidate subtitle band found within a sample's ROI.
type Region struct {
	Rect       Rect
	Confidence float64 // in [0,1].
	Index      int     // position within the frame's batch, 0..N-1, ordered by vertical position.
}

// Detector proposes 0..MaxRegions candidate Regions inside the resolved
// ROI of a luma plane. Detect never returns a fatal error for a malformed
// frame: it returns an empty Region slice (spec.md §4.2 Failure).
type Detector interface {
	Detect(p luma.Plane, roiPixel Rect) []Region
}
