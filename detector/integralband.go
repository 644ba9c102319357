/*
NAME
  integralband.go

DESCRIPTION
  integralband.go implements the integral-band fallback detector: a sliding
  horizontal window of adaptive height over a summed-area table of bright
  pixels, selecting local maxima of brightness density.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package detector

import (
	"sort"

	"github.com/ausocean/hardsub/luma"
)

// windowHeightFracs are the candidate window heights tried, as a fraction
// of the ROI's height, spec.md §4.2's "adaptive height".
var windowHeightFracs = []float64{0.15, 0.25, 0.35}

const integralBandStrideFrac = 0.05 // Vertical slide step, as a fraction of ROI height.

// IntegralBand is the fallback detector used when LumaBand finds nothing
// on consecutive frames (spec.md §4.2). It builds a summed-area table of
// bright pixels over the ROI and evaluates windows in O(1) each.
type IntegralBand struct {
	Target int
	Delta  int
}

// NewIntegralBand returns an IntegralBand detector.
func NewIntegralBand(target, delta int) *IntegralBand {
	return &IntegralBand{Target: target, Delta: delta}
}

// Detect implements Detector.
func (d *IntegralBand) Detect(p luma.Plane, roiPixel Rect) []Region {
	if !p.Valid() || roiPixel.Empty() {
		return nil
	}
	roiPixel = clampToFrame(roiPixel, p.Width, p.Height)
	w, h := roiPixel.Width(), roiPixel.Height()
	if w <= 0 || h <= 0 {
		return nil
	}

	sat := buildSAT(p, roiPixel, d.Target, d.Delta)

	type window struct {
		y0, y1  int
		density float64
	}
	var windows []window
	for _, frac := range windowHeightFracs {
		wh := int(float64(h) * frac)
		if wh < 1 {
			wh = 1
		}
		stride := int(float64(h) * integralBandStrideFrac)
		if stride < 1 {
			stride = 1
		}
		for y0 := 0; y0+wh <= h; y0 += stride {
			y1 := y0 + wh
			bright := sat.sum(0, y0, w, y1)
			density := float64(bright) / float64(w*wh)
			windows = append(windows, window{y0: y0, y1: y1, density: density})
		}
	}
	if len(windows) == 0 {
		return nil
	}

	// Local maxima: a window whose density is >= both neighbours in the
	// sequence of all windows, of every height, sorted by y0, and clears
	// minDensity.
	sort.Slice(windows, func(i, j int) bool { return windows[i].y0 < windows[j].y0 })
	var picked []window
	for i, wdw := range windows {
		if wdw.density < minDensity {
			continue
		}
		isMax := true
		if i > 0 && windows[i-1].density > wdw.density {
			isMax = false
		}
		if i < len(windows)-1 && windows[i+1].density > wdw.density {
			isMax = false
		}
		if isMax {
			picked = append(picked, wdw)
		}
	}

	var regions []Region
	for _, wdw := range picked {
		rect := Rect{X0: roiPixel.X0, Y0: roiPixel.Y0 + wdw.y0, X1: roiPixel.X1, Y1: roiPixel.Y0 + wdw.y1}
		conf := wdw.density
		if conf > 1 {
			conf = 1
		}
		if conf < MinConfidence {
			continue
		}
		regions = append(regions, Region{Rect: rect, Confidence: conf})
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].Confidence > regions[j].Confidence })
	if len(regions) > MaxRegions {
		regions = regions[:MaxRegions]
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Rect.CenterY() < regions[j].Rect.CenterY() })
	for i := range regions {
		regions[i].Index = i
	}
	return regions
}

// summedAreaTable is a prefix-sum grid over a binary bright/dark mask,
// allowing O(1) rectangle-sum queries.
type summedAreaTable struct {
	w, h int
	sum_ []int32 // (w+1)*(h+1), row-major, standard SAT padding.
}

func buildSAT(p luma.Plane, roiPixel Rect, target, delta int) *summedAreaTable {
	w, h := roiPixel.Width(), roiPixel.Height()
	sat := &summedAreaTable{w: w, h: h, sum_: make([]int32, (w+1)*(h+1))}
	stride := w + 1
	for y := 0; y < h; y++ {
		var rowSum int32
		for x := 0; x < w; x++ {
			v := int(p.At(roiPixel.X0+x, roiPixel.Y0+y))
			if abs(v-target) <= delta {
				rowSum++
			}
			sat.sum_[(y+1)*stride+(x+1)] = sat.sum_[y*stride+(x+1)] + rowSum
		}
	}
	return sat
}

// sum returns the bright-pixel count within [x0,x1) x [y0,y1).
func (s *summedAreaTable) sum(x0, y0, x1, y1 int) int32 {
	stride := s.w + 1
	return s.sum_[y1*stride+x1] - s.sum_[y0*stride+x1] - s.sum_[y1*stride+x0] + s.sum_[y0*stride+x0]
}
