/*
NAME
  lumaband.go

DESCRIPTION
  lumaband.go implements the default luma-band detector: threshold,
  row-run connected-component grouping, blob scoring and merging.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package detector

import (
	"math"
	"sort"

	"github.com/ausocean/hardsub/luma"
)

// Scoring constants, spec.md §4.2 step 4-6.
const (
	minAspect          = 3.0
	maxAspect          = 25.0
	minDensity         = 0.05
	densitySaturation  = 0.30
	minAreaPixels      = 50.0
	mergeOverlapFrac   = 0.30
)

// LumaBand is the default detector: bright-on-dark pixel thresholding
// followed by row-run connected-component grouping.
type LumaBand struct {
	Target int // Target luma value, default 230.
	Delta  int // Tolerance band, default 12.
}

// NewLumaBand returns a LumaBand detector configured with the given
// threshold target and tolerance.
func NewLumaBand(target, delta int) *LumaBand {
	return &LumaBand{Target: target, Delta: delta}
}

// run is a single contiguous span of bright pixels on one row, in
// absolute frame-pixel coordinates.
type run struct {
	row, x0, x1 int // half-open [x0,x1) on row `row`.
}

// blob accumulates runs that belong to the same connected region while
// scanning rows top to bottom.
type blob struct {
	rect        Rect
	brightCount int
	lastRow     int
	lastX0      int
	lastX1      int
}

func (b *blob) absorb(r run) {
	if b.brightCount == 0 {
		b.rect = Rect{X0: r.x0, Y0: r.row, X1: r.x1, Y1: r.row + 1}
	} else {
		if r.x0 < b.rect.X0 {
			b.rect.X0 = r.x0
		}
		if r.x1 > b.rect.X1 {
			b.rect.X1 = r.x1
		}
		if r.row+1 > b.rect.Y1 {
			b.rect.Y1 = r.row + 1
		}
	}
	b.brightCount += r.x1 - r.x0
	b.lastRow, b.lastX0, b.lastX1 = r.row, r.x0, r.x1
}

// overlapFrac returns the fraction that run r's horizontal extent overlaps
// b's most recent row, relative to the shorter of the two spans.
func overlapFrac(r run, b *blob) float64 {
	x0, x1 := max(r.x0, b.lastX0), min(r.x1, b.lastX1)
	if x1 <= x0 {
		return 0
	}
	shorter := min(r.x1-r.x0, b.lastX1-b.lastX0)
	if shorter <= 0 {
		return 0
	}
	return float64(x1-x0) / float64(shorter)
}

// Detect implements Detector.
func (d *LumaBand) Detect(p luma.Plane, roiPixel Rect) []Region {
	if !p.Valid() || roiPixel.Empty() {
		return nil
	}
	roiPixel = clampToFrame(roiPixel, p.Width, p.Height)
	if roiPixel.Empty() {
		return nil
	}

	blobs := d.connectedComponents(p, roiPixel)
	if len(blobs) == 0 {
		return nil
	}

	type scored struct {
		rect        Rect
		brightCount int
		confidence  float64
	}
	var candidates []scored
	roiH := roiPixel.Height()
	for _, b := range blobs {
		conf := score(b.rect, b.brightCount, roiPixel.Y0, roiH)
		if conf < MinConfidence {
			continue
		}
		candidates = append(candidates, scored{rect: b.rect, brightCount: b.brightCount, confidence: conf})
	}
	if len(candidates) == 0 {
		return nil
	}

	// Merge overlapping blobs (spec.md §4.2 step 5): bounding boxes that
	// intersect by >=30% of the smaller's area are combined.
	merged := true
	for merged {
		merged = false
		for i := 0; i < len(candidates); i++ {
			for j := i + 1; j < len(candidates); j++ {
				a, b := candidates[i], candidates[j]
				inter := a.rect.IntersectArea(b.rect)
				smaller := a.rect.Area()
				if b.rect.Area() < smaller {
					smaller = b.rect.Area()
				}
				if smaller == 0 || float64(inter)/float64(smaller) < mergeOverlapFrac {
					continue
				}
				union := a.rect.Union(b.rect)
				combined := scored{
					rect:        union,
					brightCount: a.brightCount + b.brightCount,
					confidence:  0,
				}
				combined.confidence = score(union, combined.brightCount, roiPixel.Y0, roiH)
				candidates[i] = combined
				candidates = append(candidates[:j], candidates[j+1:]...)
				merged = true
				break
			}
			if merged {
				break
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].confidence > candidates[j].confidence })
	if len(candidates) > MaxRegions {
		candidates = candidates[:MaxRegions]
	}

	// Final ordering by vertical position, per spec.md §4.4 "slots are
	// indexed 0..3, preserving the detector's ordering by vertical position".
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].rect.CenterY() < candidates[j].rect.CenterY() })

	regions := make([]Region, len(candidates))
	for i, c := range candidates {
		regions[i] = Region{Rect: c.rect, Confidence: c.confidence, Index: i}
	}
	return regions
}

// connectedComponents performs the threshold + row-run + vertical-merge
// pass described in spec.md §4.2 steps 2-3. Coordinates returned are
// absolute frame-pixel coordinates (not ROI-relative).
func (d *LumaBand) connectedComponents(p luma.Plane, roiPixel Rect) []*blob {
	var active []*blob
	var closed []*blob

	for y := roiPixel.Y0; y < roiPixel.Y1; y++ {
		runs := rowRuns(p, y, roiPixel.X0, roiPixel.X1, d.Target, d.Delta)

		matchedActive := make([]bool, len(active))
		for _, r := range runs {
			bestIdx, bestFrac := -1, 0.0
			for i, b := range active {
				if b.lastRow != y-1 {
					continue
				}
				f := overlapFrac(r, b)
				if f >= 0.5 && f > bestFrac {
					bestIdx, bestFrac = i, f
				}
			}
			if bestIdx >= 0 {
				active[bestIdx].absorb(r)
				matchedActive[bestIdx] = true
			} else {
				nb := &blob{}
				nb.absorb(r)
				active = append(active, nb)
				matchedActive = append(matchedActive, true)
			}
		}

		// Any active blob not matched this row and not eligible next row
		// (its last row is now more than 1 behind) is finalised.
		var stillActive []*blob
		for i, b := range active {
			if b.lastRow < y && !matchedActive[i] {
				closed = append(closed, b)
				continue
			}
			stillActive = append(stillActive, b)
		}
		active = stillActive
	}
	closed = append(closed, active...)
	return closed
}

// rowRuns returns the contiguous bright-pixel spans on row y within
// [x0,x1), using the |luma-target|<=delta threshold.
func rowRuns(p luma.Plane, y, x0, x1, target, delta int) []run {
	var runs []run
	inRun := false
	start := x0
	for x := x0; x < x1; x++ {
		v := int(p.At(x, y))
		bright := abs(v-target) <= delta
		switch {
		case bright && !inRun:
			inRun, start = true, x
		case !bright && inRun:
			runs = append(runs, run{row: y, x0: start, x1: x})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, run{row: y, x0: start, x1: x1})
	}
	return runs
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampToFrame(r Rect, w, h int) Rect {
	if r.X0 < 0 {
		r.X0 = 0
	}
	if r.Y0 < 0 {
		r.Y0 = 0
	}
	if r.X1 > w {
		r.X1 = w
	}
	if r.Y1 > h {
		r.Y1 = h
	}
	return r
}

// score computes the spec.md §4.2 step 4 four sub-scores and combines them
// as a geometric mean (a "normalised product") into a single confidence.
func score(rect Rect, brightCount, roiY0, roiHeight int) float64 {
	area := float64(rect.Area())
	if area <= 0 {
		return 0
	}

	areaScore := area / minAreaPixels
	if areaScore > 1 {
		areaScore = 1
	}

	aspect := float64(rect.Width()) / float64(rect.Height())
	aspectScore := aspectBand(aspect, minAspect, maxAspect)

	density := float64(brightCount) / area
	var densityScore float64
	if density < minDensity {
		densityScore = 0
	} else {
		densityScore = density / densitySaturation
		if densityScore > 1 {
			densityScore = 1
		}
	}

	var verticalScore float64
	if roiHeight > 0 {
		frac := (rect.CenterY() - float64(roiY0)) / float64(roiHeight)
		// Prefer candidates away from the very edge of the ROI, where
		// partial/clipped bands are more likely to be false positives.
		edge := math.Min(frac, 1-frac)
		verticalScore = math.Min(1, edge/0.1)
	}

	product := areaScore * aspectScore * densityScore * verticalScore
	if product <= 0 {
		return 0
	}
	return math.Pow(product, 0.25)
}

// aspectBand scores how well v falls within [lo,hi], decaying linearly to
// zero at half of lo and double of hi.
func aspectBand(v, lo, hi float64) float64 {
	switch {
	case v >= lo && v <= hi:
		return 1
	case v < lo:
		floor := lo / 2
		if v <= floor {
			return 0
		}
		return (v - floor) / (lo - floor)
	default: // v > hi
		ceil := hi * 2
		if v >= ceil {
			return 0
		}
		return (ceil - v) / (ceil - hi)
	}
}
