/*
NAME
  sparsechamfer.go

DESCRIPTION
  sparsechamfer.go implements the sparse-chamfer comparator backend:
  Sobel edge point extraction and a nearest-point coverage fraction.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package comparator

import (
	"math"

	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/luma"
)

// Spec.md §4.3 constants.
const (
	MaxEdgePoints             = 512
	SparseChamferPixelRadius  = 2.0
	SparseChamferFracThreshold = 0.70
	sobelMagnitudeThreshold   = 64
)

// SparseChamfer extracts Sobel edge points from a region and compares two
// features by the fraction of one's points that fall within a fixed pixel
// radius of the other's nearest edge point.
type SparseChamfer struct{}

// NewSparseChamfer returns a SparseChamfer comparator. It has no tunable
// preprocessing settings beyond the fixed Sobel threshold, so its
// Fingerprint is constant.
func NewSparseChamfer() *SparseChamfer { return &SparseChamfer{} }

func (c *SparseChamfer) Name() string        { return "sparse-chamfer" }
func (c *SparseChamfer) fingerprint() string { return "sobel" }

// Extract computes Sobel gradient magnitude over rect, keeps points above
// threshold, and subsamples evenly down to MaxEdgePoints if necessary.
func (c *SparseChamfer) Extract(p luma.Plane, rect detector.Rect) Feature {
	w, h := rect.Width(), rect.Height()
	var pts []Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mag := sobelMagnitude(p, rect.X0+x, rect.Y0+y, rect)
			if mag > sobelMagnitudeThreshold {
				pts = append(pts, Point{X: x, Y: y})
			}
		}
	}
	if len(pts) > MaxEdgePoints {
		pts = subsample(pts, MaxEdgePoints)
	}
	return Feature{
		Backend:     c.Name(),
		Fingerprint: c.fingerprint(),
		Width:       w,
		Height:      h,
		Edges:       pts,
	}
}

// sobelMagnitude computes the Sobel gradient magnitude at absolute frame
// coordinates (x,y), clamping reads to rect's bounds at the edges.
func sobelMagnitude(p luma.Plane, x, y int, rect detector.Rect) int {
	get := func(dx, dy int) int {
		xx, yy := x+dx, y+dy
		if xx < rect.X0 {
			xx = rect.X0
		}
		if xx >= rect.X1 {
			xx = rect.X1 - 1
		}
		if yy < rect.Y0 {
			yy = rect.Y0
		}
		if yy >= rect.Y1 {
			yy = rect.Y1 - 1
		}
		return int(p.At(xx, yy))
	}
	gx := -get(-1, -1) - 2*get(-1, 0) - get(-1, 1) + get(1, -1) + 2*get(1, 0) + get(1, 1)
	gy := -get(-1, -1) - 2*get(0, -1) - get(1, -1) + get(-1, 1) + 2*get(0, 1) + get(1, 1)
	return iabs(gx) + iabs(gy)
}

// subsample picks n evenly spaced points out of pts, preserving order.
func subsample(pts []Point, n int) []Point {
	out := make([]Point, 0, n)
	step := float64(len(pts)) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, pts[int(float64(i)*step)])
	}
	return out
}

// Compare implements Comparator.
func (c *SparseChamfer) Compare(a, b Feature) CompareReport {
	checkCompatible(a, b)

	ax, ay := centroidPoints(a.Edges)
	bx, by := centroidPoints(b.Edges)
	dx := int(math.Round(ax - bx))
	dy := int(math.Round(ay - by))

	if len(a.Edges) == 0 || len(b.Edges) == 0 {
		return CompareReport{SameSegment: false, Score: 0, DriftX: dx, DriftY: dy}
	}

	// coverage(from, to) is the fraction of `from`'s (shifted) points that
	// land within the pixel radius of some point in `to`. Taking the
	// symmetric min of both directions (rather than only "b covered by a")
	// keeps the verdict symmetric under argument swap (spec.md §8 property
	// 4), since min(x,y) == min(y,x) regardless of call order.
	coverage := func(from []Point, fdx, fdy int, to []Point) float64 {
		within := 0
		for _, p := range from {
			shifted := Point{X: p.X + fdx, Y: p.Y + fdy}
			if nearestDistance(shifted, to) <= SparseChamferPixelRadius {
				within++
			}
		}
		return float64(within) / float64(len(from))
	}

	fracBInA := coverage(b.Edges, dx, dy, a.Edges)
	fracAInB := coverage(a.Edges, -dx, -dy, b.Edges)
	frac := math.Min(fracBInA, fracAInB)

	return CompareReport{
		SameSegment: frac >= SparseChamferFracThreshold,
		Score:       frac,
		DriftX:      dx,
		DriftY:      dy,
	}
}

func centroidPoints(pts []Point) (float64, float64) {
	if len(pts) == 0 {
		return 0, 0
	}
	var sx, sy float64
	for _, p := range pts {
		sx += float64(p.X)
		sy += float64(p.Y)
	}
	n := float64(len(pts))
	return sx / n, sy / n
}

func nearestDistance(p Point, set []Point) float64 {
	best := math.MaxFloat64
	for _, q := range set {
		dx := float64(p.X - q.X)
		dy := float64(p.Y - q.Y)
		d := math.Sqrt(dx*dx + dy*dy)
		if d < best {
			best = d
		}
	}
	return best
}
