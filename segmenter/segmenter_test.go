package segmenter

import (
	"testing"

	"github.com/ausocean/hardsub/comparator"
	"github.com/ausocean/hardsub/config"
	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/internal/stats"
	"github.com/ausocean/hardsub/luma"
)

func testPlane(t *testing.T, w, h int) luma.Plane {
	t.Helper()
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = 20
	}
	for y := h - 20; y < h-5; y++ {
		for x := 20; x < w-20; x++ {
			pix[y*w+x] = 230
		}
	}
	p, err := luma.New(w, h, w, pix, 0)
	if err != nil {
		t.Fatalf("luma.New: %v", err)
	}
	return p
}

func sample(index int, pts float64, p luma.Plane, regions ...detector.Region) Sample {
	return Sample{Index: index, Pts: pts, Plane: p, Regions: regions}
}

func newTestSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	cfg := config.Default()
	cmp := comparator.NewBitsetCover(cfg.Target, cfg.Delta)
	return New(cfg, cmp, &stats.Summary{})
}

func TestOpenRequiresConfirmOpenKConsecutiveMatches(t *testing.T) {
	sg := newTestSegmenter(t)
	p := testPlane(t, 320, 180)
	r := detector.Region{Rect: detector.Rect{X0: 20, Y0: 160, X1: 300, Y1: 175}, Confidence: 0.9}

	for i := 0; i < sg.cfg.ConfirmOpenK-1; i++ {
		closed := sg.Process(sample(i, float64(i)/sg.cfg.SamplesPerSecond, p, r))
		if len(closed) != 0 {
			t.Fatalf("sample %d: unexpected close before confirm threshold", i)
		}
	}
	if sg.slots[findOpenOrCandidate(sg)].state == Open {
		t.Fatal("slot opened before ConfirmOpenK matches were seen")
	}
}

func TestCloseAfterConfirmCloseMMisses(t *testing.T) {
	sg := newTestSegmenter(t)
	p := testPlane(t, 320, 180)
	r := detector.Region{Rect: detector.Rect{X0: 20, Y0: 160, X1: 300, Y1: 175}, Confidence: 0.9}

	pts := 0.0
	step := 1 / sg.cfg.SamplesPerSecond
	for i := 0; i < sg.cfg.ConfirmOpenK+3; i++ {
		sg.Process(sample(i, pts, p, r))
		pts += step
	}
	if !anySlotOpen(sg) {
		t.Fatal("expected an Open slot after repeated matches")
	}

	var closed []ClosedSegment
	for i := 0; i < sg.cfg.ConfirmCloseM; i++ {
		closed = sg.Process(sample(100+i, pts, p))
		pts += step
	}
	if len(closed) != 1 {
		t.Fatalf("got %d closed segments, want 1", len(closed))
	}
	if anySlotOpen(sg) {
		t.Fatal("slot should be Idle after close")
	}
}

func TestIdempotentOnRepeatedPts(t *testing.T) {
	sg := newTestSegmenter(t)
	p := testPlane(t, 320, 180)
	r := detector.Region{Rect: detector.Rect{X0: 20, Y0: 160, X1: 300, Y1: 175}, Confidence: 0.9}

	sg.Process(sample(0, 1.0, p, r))
	before := snapshotSlots(sg)
	sg.Process(sample(0, 1.0, p, r)) // Same pts again.
	after := snapshotSlots(sg)

	if before != after {
		t.Fatalf("re-processing identical pts mutated state: before=%v after=%v", before, after)
	}
}

func TestFlickerSpanDiscarded(t *testing.T) {
	sg := newTestSegmenter(t)
	sg.cfg.ConfirmOpenK = 1
	sg.cfg.ConfirmCloseM = 1
	p := testPlane(t, 320, 180)
	r := detector.Region{Rect: detector.Rect{X0: 20, Y0: 160, X1: 300, Y1: 175}, Confidence: 0.9}

	step := 1 / sg.cfg.SamplesPerSecond
	sg.Process(sample(0, 0, p, r))
	closed := sg.Process(sample(1, step, p)) // Immediate miss: single-sample span.
	for _, c := range closed {
		if c.EndPts-c.StartPts > 0 {
			t.Errorf("flicker segment should have been discarded, got %+v", c)
		}
	}
}

func TestCloseAllForcesOpenSlotsClosedAtEndOfStream(t *testing.T) {
	sg := newTestSegmenter(t)
	p := testPlane(t, 320, 180)
	r := detector.Region{Rect: detector.Rect{X0: 20, Y0: 160, X1: 300, Y1: 175}, Confidence: 0.9}

	pts := 0.0
	step := 1 / sg.cfg.SamplesPerSecond
	for i := 0; i < sg.cfg.ConfirmOpenK+2; i++ {
		sg.Process(sample(i, pts, p, r))
		pts += step
	}
	if !anySlotOpen(sg) {
		t.Fatal("expected Open slot before end-of-stream")
	}
	closed := sg.CloseAll()
	if len(closed) != 1 {
		t.Fatalf("got %d segments from CloseAll, want 1", len(closed))
	}
	if anySlotOpen(sg) {
		t.Fatal("CloseAll left a slot Open")
	}
}

func anySlotOpen(sg *Segmenter) bool {
	for _, s := range sg.slots {
		if s.state == Open {
			return true
		}
	}
	return false
}

func findOpenOrCandidate(sg *Segmenter) int {
	for i, s := range sg.slots {
		if s.state == Candidate || s.state == Open {
			return i
		}
	}
	return 0
}

func snapshotSlots(sg *Segmenter) [4]State {
	var out [4]State
	for i := range sg.slots {
		if i >= len(out) {
			break
		}
		out[i] = sg.slots[i].state
	}
	return out
}
