package comparator

import (
	"testing"

	"github.com/ausocean/hardsub/detector"
	"github.com/ausocean/hardsub/luma"
)

func bandPlane(t *testing.T, w, h, bg, bright, x0, y0, x1, y1 int) luma.Plane {
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

func TestBitsetCoverReflexive(t *testing.T) {
	p := bandPlane(t, 100, 60, 20, 230, 10, 10, 90, 50)
	c := NewBitsetCover(230, 12)
	rect := detector.Rect{X0: 10, Y0: 10, X1: 90, Y1: 50}
	f := c.Extract(p, rect)
	report := c.Compare(f, f)
	if !report.SameSegment {
		t.Fatalf("reflexivity violated: Compare(f,f) = %+v", report)
	}
	if report.Score < BitsetCoverIoUThreshold {
		t.Errorf("self-IoU %v below threshold", report.Score)
	}
}

func TestBitsetCoverSymmetric(t *testing.T) {
	p1 := bandPlane(t, 100, 60, 20, 230, 10, 10, 90, 50)
	p2 := bandPlane(t, 100, 60, 20, 230, 15, 12, 85, 48)
	c := NewBitsetCover(230, 12)
	rect := detector.Rect{X0: 0, Y0: 0, X1: 100, Y1: 60}
	a := c.Extract(p1, rect)
	b := c.Extract(p2, rect)

	ab := c.Compare(a, b)
	ba := c.Compare(b, a)
	if ab.SameSegment != ba.SameSegment {
		t.Fatalf("symmetry violated: Compare(a,b).SameSegment=%v Compare(b,a).SameSegment=%v", ab.SameSegment, ba.SameSegment)
	}
}

func TestBitsetCoverMisusePanics(t *testing.T) {
	p := bandPlane(t, 40, 40, 20, 230, 5, 5, 35, 35)
	c1 := NewBitsetCover(230, 12)
	c2 := NewBitsetCover(200, 8)
	rect := detector.Rect{X0: 0, Y0: 0, X1: 40, Y1: 40}
	a := c1.Extract(p, rect)
	b := c2.Extract(p, rect)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic comparing incompatible features")
		} else if _, ok := r.(*MisuseError); !ok {
			t.Fatalf("expected *MisuseError panic, got %T: %v", r, r)
		}
	}()
	c1.Compare(a, b)
}

func TestSparseChamferReflexive(t *testing.T) {
	p := bandPlane(t, 100, 60, 20, 230, 10, 10, 90, 50)
	c := NewSparseChamfer()
	rect := detector.Rect{X0: 0, Y0: 0, X1: 100, Y1: 60}
	f := c.Extract(p, rect)
	if len(f.Edges) == 0 {
		t.Skip("no edges extracted from synthetic band; nothing to assert")
	}
	report := c.Compare(f, f)
	if !report.SameSegment {
		t.Fatalf("reflexivity violated: Compare(f,f) = %+v", report)
	}
}

func TestSparseChamferSymmetric(t *testing.T) {
	p1 := bandPlane(t, 100, 60, 20, 230, 10, 10, 90, 50)
	p2 := bandPlane(t, 100, 60, 20, 230, 13, 11, 93, 51)
	c := NewSparseChamfer()
	rect := detector.Rect{X0: 0, Y0: 0, X1: 100, Y1: 60}
	a := c.Extract(p1, rect)
	b := c.Extract(p2, rect)

	ab := c.Compare(a, b)
	ba := c.Compare(b, a)
	if ab.SameSegment != ba.SameSegment {
		t.Fatalf("symmetry violated: Compare(a,b).SameSegment=%v Compare(b,a).SameSegment=%v", ab.SameSegment, ba.SameSegment)
	}
	if ab.Score != ba.Score {
		t.Errorf("coverage score not symmetric: %v vs %v", ab.Score, ba.Score)
	}
}

func TestSparseChamferMisusePanics(t *testing.T) {
	p := bandPlane(t, 40, 40, 20, 230, 5, 5, 35, 35)
	c := NewSparseChamfer()
	rect := detector.Rect{X0: 0, Y0: 0, X1: 40, Y1: 40}
	a := c.Extract(p, rect)
	b := Feature{Backend: "bitset-cover", Fingerprint: "t230:d12"}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic comparing features from different backends")
		}
	}()
	c.Compare(a, b)
}
