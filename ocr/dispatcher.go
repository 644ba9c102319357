/*
NAME
  dispatcher.go

DESCRIPTION
  dispatcher.go runs OCR recognition on closed segments with bounded
  concurrency and reorders results into strict start_pts order before
  handing them to the writer.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ocr

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ausocean/hardsub/config"
	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/internal/logging"
	"github.com/ausocean/hardsub/internal/stats"
	"github.com/ausocean/hardsub/luma"
	"github.com/ausocean/hardsub/segmenter"
)

// Cue is a recognised segment ready for the SRT writer.
type Cue struct {
	StartPts float64
	EndPts   float64
	Text     string
}

// Job is one unit of dispatch work: a closed segment plus the plane its
// anchor rectangle should be read from.
type Job struct {
	Segment segmenter.ClosedSegment
	Plane   luma.Plane
}

// FatalError reports that the dispatcher has seen OcrFatalStreak
// consecutive recognition failures (spec.md §7 OcrFatal) and the
// pipeline must shut down.
type FatalError struct {
	Streak int64
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("ocr: %d consecutive recognition failures, shutting down", e.Streak)
}

// pendingKey identifies one in-flight segment in the reorder buffer.
// StartPts alone is not unique: spec.md §4.4's multi-slot case lets two
// concurrently active slots close segments sharing a StartPts, so seq (a
// counter assigned at arrival time) breaks the tie and keeps every
// segment addressable even when two share a start_pts.
type pendingKey struct {
	pts float64
	seq uint64
}

// Dispatcher runs up to cfg.ConcurrencyP recognitions concurrently,
// reordering completions to start_pts ascending order, matching
// revid/pipeline.go's worker-pool-plus-reorder shape (grounded on
// pool.NewBuffer's bounded fan-out).
type Dispatcher struct {
	engine Engine
	cfg    config.Settings
	stats  *stats.Summary
	log    logging.Logger

	sem chan struct{}

	mu       sync.Mutex
	pending  map[pendingKey]Cue
	nextKeys []pendingKey // Ascending (start_pts, seq) of segments not yet emitted.
	seq      uint64
}

// New returns a Dispatcher bound to engine.
func New(cfg config.Settings, engine Engine, st *stats.Summary) *Dispatcher {
	return &Dispatcher{
		engine:  engine,
		cfg:     cfg,
		stats:   st,
		log:     cfg.Logger,
		sem:     make(chan struct{}, cfg.ConcurrencyP),
		pending: make(map[pendingKey]Cue),
	}
}

// WarmUp calls the engine's warm-up once; a failure is OcrFatal.
func (d *Dispatcher) WarmUp() error { return d.engine.WarmUp() }

// Run consumes segments from in, recognising each with bounded
// concurrency, and sends Cues to out in strict start_pts order. It
// returns nil when in is closed and every in-flight recognition has
// drained, a *FatalError if the consecutive-failure streak reaches
// cfg.OcrFatalStreak, or ctx.Err() if ctx is cancelled first.
func (d *Dispatcher) Run(ctx context.Context, in <-chan Job, out chan<- Cue) error {
	var wg sync.WaitGroup
	fatal := make(chan error, 1)

	for {
		select {
		case job, ok := <-in:
			if !ok {
				wg.Wait()
				d.drain(ctx, out)
				select {
				case err := <-fatal:
					return err
				default:
				}
				return nil
			}
			key := d.expect(job.Segment.StartPts)
			wg.Add(1)
			select {
			case d.sem <- struct{}{}:
			case <-ctx.Done():
				wg.Done()
				wg.Wait()
				return ctx.Err()
			}
			go func(job Job, key pendingKey) {
				defer wg.Done()
				defer func() { <-d.sem }()
				cue, streak := d.recognizeWithTimeout(ctx, job)
				d.mu.Lock()
				d.pending[key] = cue
				d.mu.Unlock()
				d.drain(ctx, out)
				if streak >= int64(d.cfg.OcrFatalStreak) {
					select {
					case fatal <- &FatalError{Streak: streak}:
					default:
					}
				}
			}(job, key)
		case err := <-fatal:
			wg.Wait()
			d.drain(ctx, out)
			return err
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		}
	}
}

// drain emits every contiguous prefix of nextKeys whose result has
// arrived, preserving strict start_pts ascending order (ties broken by
// arrival sequence) to out.
func (d *Dispatcher) drain(ctx context.Context, out chan<- Cue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.nextKeys) > 0 {
		head := d.nextKeys[0]
		cue, ok := d.pending[head]
		if !ok {
			return
		}
		delete(d.pending, head)
		d.nextKeys = d.nextKeys[1:]
		select {
		case out <- cue:
		case <-ctx.Done():
			return
		}
	}
}

// expect registers a segment with start_pts pts as in-flight, returning
// the pendingKey the caller must use to later store its Cue.
func (d *Dispatcher) expect(pts float64) pendingKey {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	key := pendingKey{pts: pts, seq: d.seq}
	d.nextKeys = append(d.nextKeys, key)
	sort.Slice(d.nextKeys, func(i, j int) bool {
		if d.nextKeys[i].pts != d.nextKeys[j].pts {
			return d.nextKeys[i].pts < d.nextKeys[j].pts
		}
		return d.nextKeys[i].seq < d.nextKeys[j].seq
	})
	return key
}

// recognizeWithTimeout runs one recognition, applying the soft
// per-segment timeout (spec.md §5): past the deadline the result is
// treated as empty-text, same as a recoverable failure. It returns the
// produced Cue and the consecutive-failure streak after this call (0 on
// success).
func (d *Dispatcher) recognizeWithTimeout(ctx context.Context, job Job) (Cue, int64) {
	type result struct {
		frags [][]Fragment
		err   error
	}
	resCh := make(chan result, 1)
	go func() {
		frags, err := d.engine.Recognize(job.Plane, []detector.Rect{job.Segment.AnchorRect})
		resCh <- result{frags: frags, err: err}
	}()

	select {
	case r := <-resCh:
		return d.finish(job, r.frags, r.err)
	case <-time.After(d.cfg.SegmentTimeout):
		d.log.Warning("ocr: segment recognition timed out, emitting empty text", "start_pts", job.Segment.StartPts)
		streak := d.stats.OcrRecoverable()
		return Cue{StartPts: job.Segment.StartPts, EndPts: job.Segment.EndPts}, streak
	case <-ctx.Done():
		return Cue{StartPts: job.Segment.StartPts, EndPts: job.Segment.EndPts}, 0
	}
}

func (d *Dispatcher) finish(job Job, frags [][]Fragment, err error) (Cue, int64) {
	if err != nil {
		d.log.Error("ocr: recognition failed, emitting empty text", "start_pts", job.Segment.StartPts, "error", err)
		streak := d.stats.OcrRecoverable()
		return Cue{StartPts: job.Segment.StartPts, EndPts: job.Segment.EndPts}, streak
	}
	d.stats.OcrSucceeded()
	return Cue{StartPts: job.Segment.StartPts, EndPts: job.Segment.EndPts, Text: joinFragments(frags)}, 0
}

func joinFragments(frags [][]Fragment) string {
	var out string
	for _, rect := range frags {
		for _, f := range rect {
			if out != "" {
				out += " "
			}
			out += f.Text
		}
	}
	return out
}
