/*
NAME
  bitsetcover.go

DESCRIPTION
  bitsetcover.go implements the bitset-cover comparator backend: binarise,
  dilate, align centroids, and compare by intersection-over-union.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package comparator

import (
	"fmt"
	"math"

	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/luma"
)

// BitsetCoverIoUThreshold is the spec.md §4.3 verdict threshold.
const BitsetCoverIoUThreshold = 0.60

// BitsetCover binarises a region with the same target/delta as the
// detector, dilates by a 3x3 structuring element, and compares two
// features by IoU after centroid alignment.
type BitsetCover struct {
	Target int
	Delta  int
}

// NewBitsetCover returns a BitsetCover comparator using the given
// threshold settings (normally the same Target/Delta the detector uses).
func NewBitsetCover(target, delta int) *BitsetCover {
	return &BitsetCover{Target: target, Delta: delta}
}

func (c *BitsetCover) Name() string { return "bitset-cover" }

func (c *BitsetCover) fingerprint() string {
	return fmt.Sprintf("t%d:d%d", c.Target, c.Delta)
}

// Extract binarises the pixels of p within rect and dilates the result by
// a 3x3 structuring element. The returned Feature copies pixels; it does
// not retain a reference to p.
func (c *BitsetCover) Extract(p luma.Plane, rect detector.Rect) Feature {
	w, h := rect.Width(), rect.Height()
	mask := make([]byte, w*h)
	if w > 0 && h > 0 {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := int(p.At(rect.X0+x, rect.Y0+y))
				if iabs(v-c.Target) <= c.Delta {
					mask[y*w+x] = 1
				}
			}
		}
		mask = dilate3x3(mask, w, h)
	}
	return Feature{
		Backend:     c.Name(),
		Fingerprint: c.fingerprint(),
		Width:       w,
		Height:      h,
		Mask:        mask,
	}
}

// Compare implements Comparator.
func (c *BitsetCover) Compare(a, b Feature) CompareReport {
	checkCompatible(a, b)

	ax, ay := centroid(a.Mask, a.Width, a.Height)
	bx, by := centroid(b.Mask, b.Width, b.Height)
	dx := int(math.Round(ax - bx))
	dy := int(math.Round(ay - by))

	iou := iouWithDrift(a.Mask, a.Width, a.Height, b.Mask, b.Width, b.Height, dx, dy)

	return CompareReport{
		SameSegment: iou >= BitsetCoverIoUThreshold,
		Score:       iou,
		DriftX:      dx,
		DriftY:      dy,
	}
}

// centroid returns the mean (x,y) of set pixels in mask, in mask-local
// coordinates. An empty mask returns the mask's centre (w/2, h/2).
func centroid(mask []byte, w, h int) (float64, float64) {
	var sx, sy, n float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask[y*w+x] != 0 {
				sx += float64(x)
				sy += float64(y)
				n++
			}
		}
	}
	if n == 0 {
		return float64(w) / 2, float64(h) / 2
	}
	return sx / n, sy / n
}

// dilate3x3 performs one pass of binary dilation with a 3x3 structuring
// element (spec.md §4.3: "absorb sub-pixel shifts").
func dilate3x3(mask []byte, w, h int) []byte {
	out := make([]byte, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			set := false
			for dy := -1; dy <= 1 && !set; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w {
						continue
					}
					if mask[ny*w+nx] != 0 {
						set = true
						break
					}
				}
			}
			if set {
				out[y*w+x] = 1
			}
		}
	}
	return out
}

// iouWithDrift computes the intersection-over-union of maskA and maskB
// when maskB is shifted by (dx,dy) in maskA's coordinate space.
func iouWithDrift(maskA []byte, wa, ha int, maskB []byte, wb, hb int, dx, dy int) float64 {
	minX, minY := min2(0, dx), min2(0, dy)
	maxX, maxY := max2(wa, dx+wb), max2(ha, dy+hb)

	var inter, union int
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			var aSet, bSet bool
			if x >= 0 && x < wa && y >= 0 && y < ha {
				aSet = maskA[y*wa+x] != 0
			}
			bxr, byr := x-dx, y-dy
			if bxr >= 0 && bxr < wb && byr >= 0 && byr < hb {
				bSet = maskB[byr*wb+bxr] != 0
			}
			if aSet && bSet {
				inter++
			}
			if aSet || bSet {
				union++
			}
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func min2(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max2(a, b int) int {
	if a > b {
		return a
	}
	return b
}
