/*
NAME
  comparator.go

DESCRIPTION
  comparator.go provides Feature, CompareReport and the Comparator
  interface: extracting a compact, comparable feature from a region and
  deciding whether two features describe the same subtitle line.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package comparator extracts compact features from candidate subtitle
// regions and answers whether two features describe the same line. Two
// backends are provided: bitset-cover (mask IoU) and sparse-chamfer (edge
// point distance fraction). Features are copy-on-extract: they never
// retain a reference to the luma.Plane they were built from, so the
// originating plane can be released independently (spec.md §3, §9).
package comparator

import (
	"fmt"

	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/luma"
)

// MisuseError is panicked by Compare when asked to compare features from
// different backends or settings (spec.md §7 ComparatorMisuse: "programming
// error...panics are acceptable because this indicates a bug").
type MisuseError struct {
	A, B string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("comparator: misuse comparing incompatible features %q vs %q", e.A, e.B)
}

// Feature is an opaque, backend-specific bag of bytes extracted from one
// region. It is only comparable to another Feature built by the same
// backend with the same preprocessing settings (Fingerprint).
type Feature struct {
	Backend     string // Which Comparator built this, e.g. "bitset-cover".
	Fingerprint string // Encodes the preprocess settings (target/delta etc.) used.

	Width, Height int    // Dimensions of the source rectangle, pixels.
	Mask          []byte // bitset-cover: one byte per pixel, 0 or 1; nil for sparse-chamfer.
	Edges         []Point // sparse-chamfer: edge points relative to (0,0)=top-left of rect; nil for bitset-cover.
}

// Point is an integer pixel offset relative to a Feature's rectangle.
type Point struct{ X, Y int }

// CompareReport is the result of comparing two Features.
type CompareReport struct {
	SameSegment bool
	Score       float64 // IoU for bitset-cover, coverage fraction for sparse-chamfer.
	DriftX      int     // Alignment offset applied to b to match a, in pixels.
	DriftY      int
}

// Comparator extracts Features and compares them. Implementations must be
// deterministic and pure: same inputs always produce the same Feature and
// the same CompareReport (spec.md §4.3, required for the segmenter's
// idempotence property).
type Comparator interface {
	Name() string
	Extract(p luma.Plane, rect detector.Rect) Feature
	Compare(a, b Feature) CompareReport
}

// checkCompatible panics with a *MisuseError if a and b were not built by
// the same backend and settings — spec.md §7 ComparatorMisuse.
func checkCompatible(a, b Feature) {
	if a.Backend != b.Backend || a.Fingerprint != b.Fingerprint {
		panic(&MisuseError{A: a.Backend + ":" + a.Fingerprint, B: b.Backend + ":" + b.Fingerprint})
	}
}
