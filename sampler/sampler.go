/*
NAME
  sampler.go

DESCRIPTION
  sampler.go reduces a dense presentation-ordered frame stream to a fixed
  sampling cadence, retaining a short trailing history window.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sampler converts a dense frame stream into a sparse sample
// stream at a configured cadence (spec.md §4.1), dropping frames that
// arrive with a pts regression and keeping a short trailing history that
// the pipeline hands to the segmenter with each sample for line-edge
// confirmation. Nothing is re-sent from the history at end-of-stream.
package sampler

import (
	"github.com/ausocean/hardsub/config"
	"github.com/ausocean/hardsub/internal/logging"
	"github.com/ausocean/hardsub/internal/stats"
	"github.com/ausocean/hardsub/luma"
)

// Sample is one emitted, cadence-selected frame.
type Sample struct {
	Plane luma.Plane
	Index int
}

// Sampler emits the first frame whose pts >= nextTarget, then advances
// nextTarget by 1/rate, never emitting the same pts twice. It is not safe
// for concurrent use.
type Sampler struct {
	rate       float64
	history    []Sample
	historyCap int
	nextTarget float64
	started    bool
	lastPts    float64
	index      int
	log        logging.Logger
	stats      *stats.Summary
}

// New returns a Sampler configured from cfg.
func New(cfg config.Settings, st *stats.Summary) *Sampler {
	return &Sampler{
		rate:       cfg.SamplesPerSecond,
		historyCap: cfg.HistoryDepth,
		log:        cfg.Logger,
		stats:      st,
	}
}

// Offer presents the next decoded plane, in presentation order. It
// returns a Sample and true if this plane was selected for emission, or
// the zero Sample and false if the plane was skipped (too early for the
// next cadence tick) or dropped (pts regression).
func (s *Sampler) Offer(p luma.Plane) (Sample, bool) {
	if s.started && p.Pts < s.lastPts {
		s.log.Warning("sampler: pts regression, dropping frame", "pts", p.Pts, "last_pts", s.lastPts)
		s.stats.SamplerAnomaly()
		return Sample{}, false
	}
	s.lastPts = p.Pts

	if !s.started {
		s.started = true
		s.nextTarget = p.Pts
	}
	if p.Pts < s.nextTarget {
		return Sample{}, false
	}

	sample := Sample{Plane: p, Index: s.index}
	s.index++
	s.nextTarget += 1 / s.rate
	s.pushHistory(sample)
	s.stats.SampleEmitted()
	return sample, true
}

func (s *Sampler) pushHistory(sample Sample) {
	s.history = append(s.history, sample)
	if len(s.history) > s.historyCap {
		s.history = s.history[len(s.history)-s.historyCap:]
	}
}

// History returns the last (up to HistoryDepth) emitted samples, oldest
// first. The returned slice must not be retained past the next Offer
// call — it aliases the Sampler's internal buffer.
func (s *Sampler) History() []Sample { return s.history }

// At returns the emitted sample with the given index, if still present in
// the history window.
func (s *Sampler) At(index int) (Sample, bool) {
	for _, h := range s.history {
		if h.Index == index {
			return h, true
		}
	}
	return Sample{}, false
}
