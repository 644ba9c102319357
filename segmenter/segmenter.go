/*
NAME
  segmenter.go

DESCRIPTION
  segmenter.go implements the temporal state machine that converts
  per-sample detector region lists into closed subtitle intervals.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package segmenter tracks per-slot Idle/Candidate/Open/Closing state
// across samples (spec.md §4.4), greedily assigning detector regions to
// slots by vertical-centre distance and consulting a comparator.Comparator
// to decide whether a region continues an existing line.
package segmenter

import (
	"sort"

	"github.com/ausocean/hardsub/comparator"
	"github.com/ausocean/hardsub/config"
	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/internal/stats"
	"github.com/ausocean/hardsub/luma"
	"github.com/ausocean/hardsub/sampler"
)

// edgeConfirmLookback is how many of a sample's preceding history entries
// are checked when backdating a newly opened segment's start (spec.md
// §4.1: "so the segmenter can seek one or two samples into the past when
// confirming a line edge").
const edgeConfirmLookback = 2

// State is a slot's position in the Idle/Candidate/Open/Closing machine.
type State int

const (
	Idle State = iota
	Candidate
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Candidate:
		return "candidate"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// mergeOverlapFrac is the spec.md §4.4 edge case threshold for merging two
// Open segments whose bounding boxes overlap heavily.
const mergeOverlapFrac = 0.70

// Sample is one sampler output handed to the segmenter: a decoded plane,
// its presentation timestamp, and the detector's regions for it.
type Sample struct {
	Index   int
	Pts     float64
	Plane   luma.Plane
	Regions []detector.Region

	// History is the sampler's trailing window of previously emitted
	// samples (oldest first, including this sample), snapshotted by the
	// sampling stage right after this sample was emitted. It lets the segmenter look back when confirming a
	// line edge (spec.md §4.1); nil is a valid, if degraded, input.
	History []sampler.Sample
}

// ClosedSegment is a confirmed subtitle interval ready for OCR dispatch.
// AnchorPlane is a private copy (spec.md §9 copy-on-extract) of the frame
// the anchor rectangle was drawn from, independent of the sampler's
// history window.
type ClosedSegment struct {
	SlotIndex   int
	StartPts    float64
	EndPts      float64
	AnchorRect  detector.Rect
	Anchor      comparator.Feature
	AnchorPlane luma.Plane
}

type slot struct {
	state          State
	seen           int
	miss           int
	startPts       float64
	lastSeenPts    float64
	lastRect       detector.Rect
	anchorFeature  comparator.Feature
	anchorRect     detector.Rect
	anchorPlane    luma.Plane
	bestConfidence float64
}

// Segmenter is the stateful temporal matcher. It is not safe for
// concurrent use; the pipeline's Segmenter stage owns it exclusively.
type Segmenter struct {
	cfg          config.Settings
	cmp          comparator.Comparator
	stats        *stats.Summary
	slots        []slot
	samplePeriod float64
	frameHeight  int
	lastPts      float64
	haveLastPts  bool
}

// New returns a Segmenter configured from cfg, using cmp to decide
// whether two regions describe the same line.
func New(cfg config.Settings, cmp comparator.Comparator, stats *stats.Summary) *Segmenter {
	return &Segmenter{
		cfg:          cfg,
		cmp:          cmp,
		stats:        stats,
		slots:        make([]slot, cfg.SlotCount),
		samplePeriod: 1 / cfg.SamplesPerSecond,
	}
}

// Process advances every slot's state machine by one sample and returns
// any segments that closed as a result. Feeding the same pts twice is a
// no-op (spec.md §8 property 5, segmenter idempotence).
func (sg *Segmenter) Process(sample Sample) []ClosedSegment {
	if sg.haveLastPts && sample.Pts == sg.lastPts {
		return nil
	}
	sg.lastPts = sample.Pts
	sg.haveLastPts = true
	if sample.Plane.Height > 0 {
		sg.frameHeight = sample.Plane.Height
	}

	assignedRegion := make([]bool, len(sample.Regions))
	var closed []ClosedSegment

	// Regions are offered to active (Candidate/Open) slots first, in
	// detector-confidence order, respecting the "only one slot assignment
	// per detector candidate" rule.
	order := sortedByConfidence(sample.Regions)
	cutoff := sg.cfg.SlotCutoffFrac * float64(sg.frameHeight)

	for slotIdx := range sg.slots {
		sl := &sg.slots[slotIdx]
		if sl.state != Candidate && sl.state != Open && sl.state != Closing {
			continue
		}
		regionIdx, feat, matched := sg.bestMatch(sl, sample, order, assignedRegion, cutoff)
		if matched {
			assignedRegion[regionIdx] = true
			sg.extend(sl, sample, regionIdx, feat)
			continue
		}
		if c := sg.miss(slotIdx, sl, sample); c != nil {
			closed = append(closed, *c)
		}
	}

	// Unassigned regions seed new Candidates in Idle slots.
	for _, ri := range order {
		if assignedRegion[ri] {
			continue
		}
		idleIdx := sg.findIdleSlot()
		if idleIdx < 0 {
			sg.stats.SegmentDiscarded() // No slot capacity; region dropped.
			continue
		}
		sg.openCandidate(idleIdx, sample, ri)
		assignedRegion[ri] = true
	}

	sg.mergeOverlappingOpens()

	return closed
}

// bestMatch searches order (region indices sorted by confidence) for a
// not-yet-assigned region within the slot cutoff distance of sl's last
// known rect for which the comparator confirms same_segment=true (spec.md
// §4.4: a match is declared "iff the comparator returns same_segment=true
// for at least one detector candidate in that sample"). Candidates within
// the cutoff that the comparator rejects are skipped rather than stopping
// the search, so a later, genuinely-matching candidate in the same sample
// is still found.
func (sg *Segmenter) bestMatch(sl *slot, sample Sample, order []int, assigned []bool, cutoff float64) (regionIdx int, feat comparator.Feature, matched bool) {
	for _, ri := range order {
		if assigned[ri] {
			continue
		}
		r := sample.Regions[ri]
		if dist := absF(r.Rect.CenterY() - sl.lastRect.CenterY()); dist > cutoff {
			continue
		}
		f := sg.cmp.Extract(sample.Plane, r.Rect)
		report := sg.cmp.Compare(sl.anchorFeature, f)
		if report.SameSegment {
			return ri, f, true
		}
	}
	return -1, comparator.Feature{}, false
}

// extend updates sl after a matching region was found in this sample: the
// anchor is swapped only if the new region has higher detector confidence
// (spec.md §4.4: "swap anchor if confidence higher").
func (sg *Segmenter) extend(sl *slot, sample Sample, regionIdx int, feat comparator.Feature) {
	r := sample.Regions[regionIdx]
	sl.lastSeenPts = sample.Pts
	sl.lastRect = r.Rect
	sl.miss = 0

	switch sl.state {
	case Candidate:
		sl.seen++
		if sl.seen >= sg.cfg.ConfirmOpenK {
			sl.state = Open
			sl.bestConfidence = r.Confidence
		}
	case Open, Closing:
		sl.state = Open // A match during Closing reopens the segment.
		if r.Confidence > sl.bestConfidence {
			sl.anchorFeature = feat
			sl.anchorRect = r.Rect
			sl.anchorPlane = sample.Plane.Copy()
			sl.bestConfidence = r.Confidence
			sg.stats.AnchorConfidence(r.Confidence)
		}
	}
}

// miss records a missed/non-matching sample for an active slot, returning
// a *ClosedSegment if the slot just closed.
func (sg *Segmenter) miss(slotIdx int, sl *slot, sample Sample) *ClosedSegment {
	switch sl.state {
	case Candidate:
		*sl = slot{} // Drop: spec.md §4.4 "miss or non-match -> Idle (drop)".
		return nil
	case Open, Closing:
		sl.state = Closing
		sl.miss++
		if sl.miss < sg.cfg.ConfirmCloseM {
			return nil
		}
		return sg.closeSegment(slotIdx, sl)
	}
	return nil
}

// closeSegment finalises sl into a ClosedSegment (or discards it as
// flicker) and resets the slot to Idle.
func (sg *Segmenter) closeSegment(slotIdx int, sl *slot) *ClosedSegment {
	endPts := sl.lastSeenPts + sg.samplePeriod/2
	startPts := sl.startPts
	span := endPts - startPts
	minSpan := 0.5 * sg.samplePeriod * float64(sg.cfg.ConfirmOpenK)

	result := &ClosedSegment{
		SlotIndex:   slotIdx,
		StartPts:    startPts,
		EndPts:      endPts,
		AnchorRect:  sl.anchorRect,
		Anchor:      sl.anchorFeature,
		AnchorPlane: sl.anchorPlane,
	}
	*sl = slot{}

	if span <= minSpan {
		sg.stats.SegmentDiscarded() // spec.md §4.4 flicker suppression.
		return nil
	}
	return result
}

// openCandidate starts a new Candidate at slotIdx anchored to region ri.
// Its start is backdated as far as confirmEdge can verify the same line
// was already present in the sampler's trailing history.
func (sg *Segmenter) openCandidate(slotIdx int, sample Sample, ri int) {
	r := sample.Regions[ri]
	feat := sg.cmp.Extract(sample.Plane, r.Rect)
	startPts := sg.confirmEdge(sample, r.Rect, feat)
	sg.slots[slotIdx] = slot{
		state:          Candidate,
		seen:           1,
		startPts:       startPts,
		lastSeenPts:    sample.Pts,
		lastRect:       r.Rect,
		anchorFeature:  feat,
		anchorRect:     r.Rect,
		anchorPlane:    sample.Plane.Copy(),
		bestConfidence: r.Confidence,
	}
	if sg.cfg.ConfirmOpenK <= 1 {
		sg.slots[slotIdx].state = Open
	}
	sg.stats.AnchorConfidence(r.Confidence)
}

// confirmEdge walks up to edgeConfirmLookback of sample.History's entries
// immediately preceding sample.Pts, nearest first, extracting a feature
// from the same rect in each historical plane and comparing it against
// feat. It returns the pts of the earliest one the comparator still
// confirms as the same line, stopping at the first miss; with no usable
// history it returns sample.Pts unchanged.
func (sg *Segmenter) confirmEdge(sample Sample, rect detector.Rect, feat comparator.Feature) float64 {
	startPts := sample.Pts
	checked := 0
	for i := len(sample.History) - 1; i >= 0 && checked < edgeConfirmLookback; i-- {
		h := sample.History[i]
		if h.Plane.Pts >= sample.Pts {
			continue
		}
		checked++
		if !h.Plane.Valid() || rect.Empty() {
			break
		}
		hf := sg.cmp.Extract(h.Plane, rect)
		if !sg.cmp.Compare(feat, hf).SameSegment {
			break
		}
		startPts = h.Plane.Pts
	}
	return startPts
}

func (sg *Segmenter) findIdleSlot() int {
	for i := range sg.slots {
		if sg.slots[i].state == Idle {
			return i
		}
	}
	return -1
}

// mergeOverlappingOpens implements spec.md §4.4's "two Open segments
// overlap >=70%" rule: the lower-confidence one is absorbed into the
// other, freeing its slot.
func (sg *Segmenter) mergeOverlappingOpens() {
	for i := range sg.slots {
		if sg.slots[i].state != Open {
			continue
		}
		for j := i + 1; j < len(sg.slots); j++ {
			if sg.slots[j].state != Open {
				continue
			}
			a, b := &sg.slots[i], &sg.slots[j]
			inter := a.anchorRect.IntersectArea(b.anchorRect)
			smaller := a.anchorRect.Area()
			if b.anchorRect.Area() < smaller {
				smaller = b.anchorRect.Area()
			}
			if smaller == 0 || float64(inter)/float64(smaller) < mergeOverlapFrac {
				continue
			}
			keep, drop := a, b
			if b.bestConfidence > a.bestConfidence {
				keep, drop = b, a
			}
			if drop.startPts < keep.startPts {
				keep.startPts = drop.startPts
			}
			if drop.lastSeenPts > keep.lastSeenPts {
				keep.lastSeenPts = drop.lastSeenPts
			}
			*drop = slot{}
		}
	}
}

// CloseAll force-closes every Open (or Closing) slot at end-of-stream (or
// cancellation), ending each at its own last-seen pts plus half a sample
// period (spec.md §4.4, §5). Candidate slots are dropped without a segment.
func (sg *Segmenter) CloseAll() []ClosedSegment {
	var closed []ClosedSegment
	for i := range sg.slots {
		sl := &sg.slots[i]
		switch sl.state {
		case Open, Closing:
			if c := sg.closeSegment(i, sl); c != nil {
				closed = append(closed, *c)
			}
		case Candidate:
			*sl = slot{}
		}
	}
	return closed
}

func sortedByConfidence(regions []detector.Region) []int {
	idx := make([]int, len(regions))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return regions[idx[i]].Confidence > regions[idx[j]].Confidence })
	return idx
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
