/*
NAME
  composite.go

DESCRIPTION
  composite.go implements the automatic luma-band/integral-band fallback
  described in spec.md §4.2: the integral-image path is used when the
  connected-component path yields zero candidates on consecutive frames.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package detector

import "github.com/ausocean/hardsub/luma"

// FallbackStreak is the number of consecutive empty results from the
// primary detector that triggers a switch to the fallback detector
// (spec.md §4.2: "used when the connected-component path yields zero
// candidates on consecutive frames").
const FallbackStreak = 2

// Composite runs a primary detector and switches to a fallback detector
// once the primary has returned zero regions on FallbackStreak
// consecutive frames. It switches back to the primary as soon as the
// primary produces a candidate again, so degraded lighting or
// compression only suppresses the connected-component path for as long
// as it is actually failing.
type Composite struct {
	primary       Detector
	fallback      Detector
	consecutiveMiss int
	usingFallback bool
}

// NewComposite returns a Composite that prefers primary, falling back to
// fallback per FallbackStreak.
func NewComposite(primary, fallback Detector) *Composite {
	return &Composite{primary: primary, fallback: fallback}
}

// Detect implements Detector.
func (c *Composite) Detect(p luma.Plane, roiPixel Rect) []Region {
	regions := c.primary.Detect(p, roiPixel)
	if len(regions) > 0 {
		c.consecutiveMiss = 0
		c.usingFallback = false
		return regions
	}

	c.consecutiveMiss++
	if !c.usingFallback && c.consecutiveMiss < FallbackStreak {
		return regions
	}
	c.usingFallback = true
	return c.fallback.Detect(p, roiPixel)
}
