package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ausocean/hardsub/config"
	"github.com/ausocean/hardsub/decoder"
	"github.com/ausocean/hardsub/luma"
	"github.com/ausocean/hardsub/ocr"
	"github.com/ausocean/hardsub/roi"
)

// fakeDecoder replays a fixed sequence of synthetic planes, then closes.
type fakeDecoder struct {
	frames chan decoder.Result
}

func newFakeDecoder(w, h int, brightFrames map[int]bool, fps float64, n int) *fakeDecoder {
	d := &fakeDecoder{frames: make(chan decoder.Result, n+1)}
	for i := 0; i < n; i++ {
		pix := make([]byte, w*h)
		for j := range pix {
			pix[j] = 20
		}
		if brightFrames[i] {
			for y := h - 20; y < h-5; y++ {
				for x := 20; x < w-20; x++ {
					pix[y*w+x] = 230
				}
			}
		}
		p, _ := luma.New(w, h, w, pix, float64(i)/fps)
		p.Index = i
		d.frames <- decoder.Result{Plane: p}
	}
	close(d.frames)
	return d
}

func (d *fakeDecoder) Frames() <-chan decoder.Result { return d.frames }
func (d *fakeDecoder) Close() error                  { return nil }

// newFakeDecoderTwoRegions replays frames with two independently timed
// bright bands: one near the bottom of the frame, one near the top, so a
// two-slot scenario can be exercised without a real second video.
func newFakeDecoderTwoRegions(w, h int, lowerFrames, upperFrames map[int]bool, fps float64, n int) *fakeDecoder {
	d := &fakeDecoder{frames: make(chan decoder.Result, n+1)}
	for i := 0; i < n; i++ {
		pix := make([]byte, w*h)
		for j := range pix {
			pix[j] = 20
		}
		if lowerFrames[i] {
			for y := h - 20; y < h-5; y++ {
				for x := 20; x < w-20; x++ {
					pix[y*w+x] = 230
				}
			}
		}
		if upperFrames[i] {
			for y := 20; y < 35; y++ {
				for x := 20; x < w-20; x++ {
					pix[y*w+x] = 230
				}
			}
		}
		p, _ := luma.New(w, h, w, pix, float64(i)/fps)
		p.Index = i
		d.frames <- decoder.Result{Plane: p}
	}
	close(d.frames)
	return d
}

// newFakeDecoderWithError replays n frames like newFakeDecoder, but
// substitutes a terminal decoder error at index errAfter instead of
// continuing to the end.
func newFakeDecoderWithError(w, h int, brightFrames map[int]bool, fps float64, n, errAfter int) *fakeDecoder {
	d := &fakeDecoder{frames: make(chan decoder.Result, n+1)}
	for i := 0; i < n; i++ {
		if i == errAfter {
			d.frames <- decoder.Result{Err: errors.New("synthetic decoder failure")}
			break
		}
		pix := make([]byte, w*h)
		for j := range pix {
			pix[j] = 20
		}
		if brightFrames[i] {
			for y := h - 20; y < h-5; y++ {
				for x := 20; x < w-20; x++ {
					pix[y*w+x] = 230
				}
			}
		}
		p, _ := luma.New(w, h, w, pix, float64(i)/fps)
		p.Index = i
		d.frames <- decoder.Result{Plane: p}
	}
	close(d.frames)
	return d
}

func TestPipelineEndToEndSingleCue(t *testing.T) {
	w, h, fps := 320, 180, 30.0
	bright := make(map[int]bool)
	for i := 60; i <= 180; i++ {
		bright[i] = true
	}
	dec := newFakeDecoder(w, h, bright, fps, 240)

	cfg := config.Default()
	cfg.InputPath = "synthetic"
	cfg.SamplesPerSecond = 7
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.srt")

	pl, err := New(cfg, dec, ocr.NewNoop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := pl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "1\n") {
		t.Fatalf("expected at least one cue, got: %q", content)
	}
	if strings.Count(content, "-->") != 1 {
		t.Errorf("expected exactly 1 cue, got content: %q", content)
	}

	snap := pl.Stats()
	if snap.CuesEmitted != 1 {
		t.Errorf("CuesEmitted = %d, want 1", snap.CuesEmitted)
	}
}

func TestPipelineFlickerYieldsZeroCues(t *testing.T) {
	w, h, fps := 320, 180, 30.0
	bright := map[int]bool{60: true, 61: true}
	dec := newFakeDecoder(w, h, bright, fps, 240)

	cfg := config.Default()
	cfg.InputPath = "synthetic"
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.srt")

	pl, err := New(cfg, dec, ocr.NewNoop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := pl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Count(string(data), "-->") != 0 {
		t.Errorf("expected zero cues for a single-sample flicker, got: %q", string(data))
	}
}

// TestPipelineEndToEndTwoSimultaneousSlots covers spec.md §8 scenario 3: a
// second, non-overlapping region active concurrently with the first must
// be assigned its own slot and close as a distinct cue, not steal or
// block the other region's slot assignment.
func TestPipelineEndToEndTwoSimultaneousSlots(t *testing.T) {
	w, h, fps := 320, 180, 30.0
	lower := make(map[int]bool)
	for i := 60; i <= 120; i++ {
		lower[i] = true
	}
	upper := make(map[int]bool)
	for i := 90; i <= 150; i++ {
		upper[i] = true
	}
	dec := newFakeDecoderTwoRegions(w, h, lower, upper, fps, 240)

	cfg := config.Default()
	cfg.InputPath = "synthetic"
	cfg.SamplesPerSecond = 7
	cfg.Roi = roi.Roi{} // Full frame: the upper band sits outside the default bottom-25% ROI.
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.srt")

	pl, err := New(cfg, dec, ocr.NewNoop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := pl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := strings.Count(string(data), "-->"); got != 2 {
		t.Fatalf("expected 2 cues for two non-overlapping simultaneous slots, got %d: %q", got, string(data))
	}
	if snap := pl.Stats(); snap.CuesEmitted != 2 {
		t.Errorf("CuesEmitted = %d, want 2", snap.CuesEmitted)
	}
}

// TestPipelineEndToEndBlinkUnderMissThreshold covers spec.md §8 scenario
// 4: a single missed sample inside an Open segment's lifetime must not
// reach ConfirmCloseM and must not split the segment into two cues.
func TestPipelineEndToEndBlinkUnderMissThreshold(t *testing.T) {
	w, h, fps := 320, 180, 30.0
	bright := make(map[int]bool)
	for i := 60; i <= 120; i++ {
		bright[i] = true
	}
	delete(bright, 90) // Single-frame blink: a miss streak of 1 < ConfirmCloseM (2).
	dec := newFakeDecoder(w, h, bright, fps, 240)

	cfg := config.Default()
	cfg.InputPath = "synthetic"
	cfg.SamplesPerSecond = 7
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.srt")

	pl, err := New(cfg, dec, ocr.NewNoop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := pl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := strings.Count(string(data), "-->"); got != 1 {
		t.Fatalf("expected exactly 1 cue spanning the blink, got %d: %q", got, string(data))
	}
}

// TestPipelineDecoderErrorMidStreamClosesOrderly covers spec.md §8
// scenario 5: a decoder error mid-stream must classify as
// *DecoderStreamError (exit code 3 at the CLI) and still finalise the
// output file with any segment that was Open closed at the last pts seen.
func TestPipelineDecoderErrorMidStreamClosesOrderly(t *testing.T) {
	w, h, fps := 320, 180, 30.0
	bright := make(map[int]bool)
	for i := 60; i <= 180; i++ {
		bright[i] = true
	}
	dec := newFakeDecoderWithError(w, h, bright, fps, 240, 100)

	cfg := config.Default()
	cfg.InputPath = "synthetic"
	cfg.SamplesPerSecond = 7
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.srt")

	pl, err := New(cfg, dec, ocr.NewNoop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	runErr := pl.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected an error when the decoder fails mid-stream")
	}
	var decErr *DecoderStreamError
	if !errors.As(runErr, &decErr) {
		t.Fatalf("expected *DecoderStreamError, got %T: %v", runErr, runErr)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Count(string(data), "-->") != 1 {
		t.Fatalf("expected the in-flight Open segment to be closed and written, got: %q", string(data))
	}
}
