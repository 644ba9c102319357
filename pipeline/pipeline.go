/*
NAME
  pipeline.go

DESCRIPTION
  pipeline.go wires the Sampler, Detector, Segmenter, OCR Dispatcher, and
  SRT Writer stages into the staged asynchronous pipeline described in
  spec.md §5, shaped like revid.Revid: a WaitGroup, an error channel
  that Run checks once every stage has finished, and a stop channel for
  cancellation.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipeline is the run supervisor: it owns every stage's
// goroutine and the bounded channels between them, and reports the
// propagating error kinds (DecoderFailed, OcrFatal, ConfigurationInvalid,
// WriterIo) to its caller.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/ausocean/hardsub/comparator"
	"github.com/ausocean/hardsub/config"
	"github.com/ausocean/hardsub/decoder"
	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/internal/stats"
	"github.com/ausocean/hardsub/ocr"
	"github.com/ausocean/hardsub/sampler"
	"github.com/ausocean/hardsub/segmenter"
	"github.com/ausocean/hardsub/srt"
)

// WarmUpError reports that the OCR engine failed its one-time warm-up
// (spec.md §7 OcrFatal, §6 exit code 4 "OCR warm-up error"). It is
// distinct from the dispatcher's *ocr.FatalError, which reports the
// consecutive-recognition-failure streak case of OcrFatal and is not a
// warm-up failure.
type WarmUpError struct {
	Err error
}

func (e *WarmUpError) Error() string { return fmt.Sprintf("pipeline: ocr warm-up: %v", e.Err) }
func (e *WarmUpError) Unwrap() error { return e.Err }

// DecoderStreamError reports a decoder failure observed mid-stream
// (spec.md §8 scenario 5), as opposed to a decoder initialisation
// failure, which callers catch before Run is ever invoked. Both are
// exit code 3 at the CLI (spec.md §6).
type DecoderStreamError struct {
	Err error
}

func (e *DecoderStreamError) Error() string { return fmt.Sprintf("pipeline: decoder: %v", e.Err) }
func (e *DecoderStreamError) Unwrap() error  { return e.Err }

// Pipeline is the run supervisor. One Pipeline drives exactly one input
// to exactly one output file; it is not reusable across runs.
type Pipeline struct {
	cfg   config.Settings
	dec   decoder.Decoder
	ocr   ocr.Engine
	stats *stats.Summary

	wg   sync.WaitGroup
	err  chan error
	stop chan struct{}
}

// New returns a Pipeline reading from dec and recognising with engine.
// Both are concrete implementations of the external collaborator
// interfaces (spec.md §1); New does not construct them, matching the
// teacher's separation of device selection (device.AVDevice) from
// Revid's pipeline wiring.
func New(cfg config.Settings, dec decoder.Decoder, engine ocr.Engine) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &Pipeline{
		cfg:   cfg,
		dec:   dec,
		ocr:   engine,
		stats: &stats.Summary{},
		err:   make(chan error, 1),
		stop:  make(chan struct{}),
	}, nil
}

// Stats returns the run's counters. Safe to call after Run returns.
func (p *Pipeline) Stats() stats.Snapshot { return p.stats.Snapshot() }

// newDetector builds the configured detector. DetectorLumaBand is wrapped
// in a detector.Composite that automatically falls back to integral-band
// once luma-band yields zero candidates on consecutive frames (spec.md
// §4.2); DetectorIntegralBand selected directly is already the fallback
// path, so it runs unwrapped.
func newDetector(cfg config.Settings) (detector.Detector, error) {
	switch cfg.Detector {
	case config.DetectorLumaBand:
		primary := detector.NewLumaBand(cfg.Target, cfg.Delta)
		fallback := detector.NewIntegralBand(cfg.Target, cfg.Delta)
		return detector.NewComposite(primary, fallback), nil
	case config.DetectorIntegralBand:
		return detector.NewIntegralBand(cfg.Target, cfg.Delta), nil
	default:
		return nil, fmt.Errorf("pipeline: unknown detector %q", cfg.Detector)
	}
}

func newComparator(cfg config.Settings) (comparator.Comparator, error) {
	switch cfg.Comparator {
	case config.ComparatorBitsetCover:
		return comparator.NewBitsetCover(cfg.Target, cfg.Delta), nil
	case config.ComparatorSparseChamfer:
		return comparator.NewSparseChamfer(), nil
	default:
		return nil, fmt.Errorf("pipeline: unknown comparator %q", cfg.Comparator)
	}
}

// Run drives the pipeline to completion: it reads decoded planes until
// end-of-stream or a decoder error, samples at cadence, detects
// candidate regions, segments them into closed intervals, dispatches OCR,
// and writes the resulting cues to cfg.OutputPath. Run blocks until the
// whole pipeline has drained or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	det, err := newDetector(p.cfg)
	if err != nil {
		return err
	}
	cmp, err := newComparator(p.cfg)
	if err != nil {
		return err
	}

	if err := p.ocr.WarmUp(); err != nil {
		return &WarmUpError{Err: err}
	}

	// Cancelling ctx stops every stage, not only the dispatcher.
	runDone := make(chan struct{})
	defer close(runDone)
	go func() {
		select {
		case <-ctx.Done():
			p.Stop()
		case <-runDone:
		}
	}()

	sam := sampler.New(p.cfg, p.stats)
	seg := segmenter.New(p.cfg, cmp, p.stats)
	dispatcher := ocr.New(p.cfg, p.ocr, p.stats)
	writer := srt.NewWriter(p.cfg.OutputPath)

	sampleCh := make(chan segmenter.Sample, config.SamplerToDetectorCap)
	segInCh := make(chan segmenter.Sample, config.DetectorToSegmentCap)
	jobCh := make(chan ocr.Job, p.cfg.ConcurrencyP+2)
	cueCh := make(chan ocr.Cue, p.cfg.ConcurrencyP+2)

	var decoderErr error
	var decoderErrMu sync.Mutex

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(sampleCh)
		for {
			select {
			case res, ok := <-p.dec.Frames():
				if !ok {
					return
				}
				if res.Err != nil {
					decoderErrMu.Lock()
					decoderErr = &DecoderStreamError{Err: res.Err}
					decoderErrMu.Unlock()
					return
				}
				if sample, emitted := sam.Offer(res.Plane); emitted {
					hist := sam.History()
					histCopy := make([]sampler.Sample, len(hist))
					copy(histCopy, hist)
					select {
					case sampleCh <- segmenter.Sample{Index: sample.Index, Pts: sample.Plane.Pts, Plane: sample.Plane, History: histCopy}:
					case <-p.stop:
						return
					}
				}
			case <-p.stop:
				return
			}
		}
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(segInCh)
		for {
			select {
			case sample, ok := <-sampleCh:
				if !ok {
					return
				}
				roiPixel := p.cfg.Roi.Resolve(sample.Plane.Width, sample.Plane.Height)
				rect := detector.Rect{X0: roiPixel.X0, Y0: roiPixel.Y0, X1: roiPixel.X1, Y1: roiPixel.Y1}
				sample.Regions = det.Detect(sample.Plane, rect)
				select {
				case segInCh <- sample:
				case <-p.stop:
					return
				}
			case <-p.stop:
				return
			}
		}
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(jobCh)
		emit := func(cs segmenter.ClosedSegment) bool {
			select {
			case jobCh <- ocr.Job{Segment: cs, Plane: cs.AnchorPlane}:
				return true
			case <-p.stop:
				return false
			}
		}
		for {
			select {
			case sample, ok := <-segInCh:
				if !ok {
					for _, cs := range seg.CloseAll() {
						if !emit(cs) {
							return
						}
					}
					return
				}
				for _, cs := range seg.Process(sample) {
					if !emit(cs) {
						return
					}
				}
			case <-p.stop:
				return
			}
		}
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(cueCh)
		if runErr := dispatcher.Run(ctx, jobCh, cueCh); runErr != nil {
			if _, ok := runErr.(*ocr.FatalError); ok {
				select {
				case p.err <- runErr:
				default:
				}
			}
		}
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for cue := range cueCh {
			writer.Write(srt.Cue{
				StartMs: int64(cue.StartPts * 1000),
				EndMs:   int64(cue.EndPts * 1000),
				Lines:   splitLines(cue.Text),
			})
			p.stats.CueEmitted()
		}
	}()

	p.wg.Wait()

	decoderErrMu.Lock()
	de := decoderErr
	decoderErrMu.Unlock()

	select {
	case fatalOcr := <-p.err:
		if closeErr := writer.Close(); closeErr != nil {
			return fmt.Errorf("pipeline: %w (also: %v)", fatalOcr, closeErr)
		}
		return fatalOcr
	default:
	}

	if closeErr := writer.Close(); closeErr != nil {
		return fmt.Errorf("pipeline: writer: %w", closeErr)
	}
	return de
}

// Stop signals every stage to drain and stop accepting new work (spec.md
// §5 cancellation semantics).
func (p *Pipeline) Stop() {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return []string{text}
}
