/*
NAME
  stats.go

DESCRIPTION
  stats.go provides Summary, an aggregator for the non-fatal counters the
  pipeline accumulates over a run.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package stats aggregates the run counters the pipeline supervisor reports
// at shutdown: detector anomalies, recoverable OCR failures, samples seen
// and cues emitted.
package stats

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/stat"
)

// Summary is safe for concurrent use; every pipeline stage holds a pointer
// to the same Summary and increments its own counters independently.
type Summary struct {
	samplesEmitted    int64
	samplerAnomaly    int64
	detectorAnomaly   int64
	ocrRecoverable    int64
	ocrConsecFail     int64
	cuesEmitted       int64
	segmentsDiscarded int64

	confMu      sync.Mutex
	anchorConfs []float64 // Detector confidence of every segment anchor accepted by the segmenter.
}

func (s *Summary) SampleEmitted()    { atomic.AddInt64(&s.samplesEmitted, 1) }
func (s *Summary) SamplerAnomaly()   { atomic.AddInt64(&s.samplerAnomaly, 1) }
func (s *Summary) DetectorAnomaly()  { atomic.AddInt64(&s.detectorAnomaly, 1) }
func (s *Summary) CueEmitted()       { atomic.AddInt64(&s.cuesEmitted, 1) }
func (s *Summary) SegmentDiscarded() { atomic.AddInt64(&s.segmentsDiscarded, 1) }

// OcrRecoverable records a single recognition failure and returns the
// current consecutive-failure streak, so the dispatcher can decide whether
// the OcrFatal threshold (spec: >=16) has been crossed.
func (s *Summary) OcrRecoverable() int64 {
	atomic.AddInt64(&s.ocrRecoverable, 1)
	return atomic.AddInt64(&s.ocrConsecFail, 1)
}

// OcrSucceeded resets the consecutive-failure streak.
func (s *Summary) OcrSucceeded() { atomic.StoreInt64(&s.ocrConsecFail, 0) }

// AnchorConfidence records the detector confidence of an anchor region the
// segmenter just accepted (opened or re-anchored), for the run summary's
// mean-confidence diagnostic.
func (s *Summary) AnchorConfidence(c float64) {
	s.confMu.Lock()
	s.anchorConfs = append(s.anchorConfs, c)
	s.confMu.Unlock()
}

// Snapshot is a point-in-time copy of the counters, suitable for logging.
type Snapshot struct {
	SamplesEmitted      int64
	SamplerAnomaly      int64
	DetectorAnomaly     int64
	OcrRecoverable      int64
	CuesEmitted         int64
	SegmentsDiscarded   int64
	MeanAnchorConfidence float64
}

func (s *Summary) Snapshot() Snapshot {
	s.confMu.Lock()
	// stat.Mean (gonum.org/v1/gonum/stat), same averaging call as
	// cmd/rv/probe.go's stat.Mean(res.Contrast, nil) over its recorded
	// per-frame metrics.
	mean := 0.0
	if len(s.anchorConfs) > 0 {
		mean = stat.Mean(s.anchorConfs, nil)
	}
	s.confMu.Unlock()

	return Snapshot{
		SamplesEmitted:       atomic.LoadInt64(&s.samplesEmitted),
		SamplerAnomaly:       atomic.LoadInt64(&s.samplerAnomaly),
		DetectorAnomaly:      atomic.LoadInt64(&s.detectorAnomaly),
		OcrRecoverable:       atomic.LoadInt64(&s.ocrRecoverable),
		CuesEmitted:          atomic.LoadInt64(&s.cuesEmitted),
		SegmentsDiscarded:    atomic.LoadInt64(&s.segmentsDiscarded),
		MeanAnchorConfidence: mean,
	}
}
