package detector

import (
	"testing"

	"github.com/ausocean/hardsub/luma"
)

// makePlane builds a W x H grayscale plane filled with bg, with a bright
// rectangle of value bright drawn at [x0,x1)x[y0,y1).
func makePlane(t *testing.T, w, h, bg, bright, x0, y0, x1, y1 int) luma.Plane {
	t.Helper()
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = byte(bg)
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			pix[y*w+x] = byte(bright)
		}
	}
	p, err := luma.New(w, h, w, pix, 0)
	if err != nil {
		t.Fatalf("luma.New: %v", err)
	}
	return p
}

func TestLumaBandFindsBrightRectangle(t *testing.T) {
	p := makePlane(t, 200, 100, 20, 230, 20, 70, 180, 95)
	d := NewLumaBand(230, 12)
	regions := d.Detect(p, Rect{X0: 0, Y0: 50, X1: 200, Y1: 100})
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1: %+v", len(regions), regions)
	}
	r := regions[0]
	if r.Rect.X0 > 25 || r.Rect.X1 < 175 {
		t.Errorf("region rect %+v does not cover expected bright band", r.Rect)
	}
	if r.Confidence < MinConfidence {
		t.Errorf("confidence %v below threshold", r.Confidence)
	}
}

func TestLumaBandEmptyFrameIsSkippedNotFatal(t *testing.T) {
	var zero luma.Plane
	d := NewLumaBand(230, 12)
	if got := d.Detect(zero, Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}); got != nil {
		t.Errorf("expected nil regions for degenerate frame, got %+v", got)
	}
}

func TestLumaBandFrameSmallerThanRoiReturnsEmpty(t *testing.T) {
	p := makePlane(t, 10, 10, 20, 230, 0, 0, 10, 10)
	d := NewLumaBand(230, 12)
	got := d.Detect(p, Rect{X0: 0, Y0: 0, X1: 1000, Y1: 1000})
	// Roi is clamped to frame bounds; the whole-frame 10x10 blob has
	// aspect 1, which scores zero, so no region survives.
	if len(got) != 0 {
		t.Errorf("expected no regions when the frame is smaller than the roi, got %+v", got)
	}
}

func TestLumaBandTwoDistinctBlobsYieldTwoRegions(t *testing.T) {
	w, h := 300, 200
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = 20
	}
	fill := func(x0, y0, x1, y1 int) {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				pix[y*w+x] = 230
			}
		}
	}
	fill(10, 10, 290, 30)   // upper band
	fill(10, 150, 290, 180) // lower band
	p, err := luma.New(w, h, w, pix, 0)
	if err != nil {
		t.Fatal(err)
	}
	d := NewLumaBand(230, 12)
	regions := d.Detect(p, Rect{X0: 0, Y0: 0, X1: w, Y1: h})
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2: %+v", len(regions), regions)
	}
	if regions[0].Rect.CenterY() >= regions[1].Rect.CenterY() {
		t.Errorf("regions not ordered by vertical position: %+v", regions)
	}
}

func TestIntegralBandFindsBand(t *testing.T) {
	p := makePlane(t, 200, 100, 20, 230, 0, 40, 200, 60)
	d := NewIntegralBand(230, 12)
	regions := d.Detect(p, Rect{X0: 0, Y0: 0, X1: 200, Y1: 100})
	if len(regions) == 0 {
		t.Fatal("expected at least one region")
	}
}

func TestMaxRegionsCap(t *testing.T) {
	w, h := 400, 400
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = 20
	}
	// Six distinct narrow bright bands stacked vertically with big gaps,
	// wide enough in aspect to score above threshold.
	for i := 0; i < 6; i++ {
		y0 := 10 + i*60
		for y := y0; y < y0+10; y++ {
			for x := 20; x < 380; x++ {
				pix[y*w+x] = 230
			}
		}
	}
	p, err := luma.New(w, h, w, pix, 0)
	if err != nil {
		t.Fatal(err)
	}
	d := NewLumaBand(230, 12)
	regions := d.Detect(p, Rect{X0: 0, Y0: 0, X1: w, Y1: h})
	if len(regions) > MaxRegions {
		t.Fatalf("got %d regions, want <= %d", len(regions), MaxRegions)
	}
}
