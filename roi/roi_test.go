package roi

import "testing"

func TestZeroRoiResolvesToFullFrame(t *testing.T) {
	var r Roi
	p := r.Resolve(640, 480)
	if p.X0 != 0 || p.Y0 != 0 || p.X1 != 640 || p.Y1 != 480 {
		t.Errorf("zero roi resolved to %+v, want full frame", p)
	}
}

func TestDefaultRoiBottomQuarter(t *testing.T) {
	p := Default.Resolve(1000, 1000)
	if p.Y0 != 750 || p.Y1 != 1000 {
		t.Errorf("default roi resolved to %+v, want y in [750,1000]", p)
	}
	if p.Width() != 1000 {
		t.Errorf("default roi width = %d, want 1000 (full width)", p.Width())
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	r := Roi{X: 0.9, Y: 0, W: 0.5, H: 0.5}
	if err := r.Validate(); err == nil {
		t.Error("expected error for x+w > 1")
	}
}

func TestValidateAcceptsFullSpan(t *testing.T) {
	r := Roi{X: 0, Y: 0, W: 1, H: 1}
	if err := r.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResolveClampsToFrame(t *testing.T) {
	r := Roi{X: 0.5, Y: 0.5, W: 0.6, H: 0.6}
	p := r.Resolve(100, 100)
	if p.X1 > 100 || p.Y1 > 100 {
		t.Errorf("resolve did not clamp: %+v", p)
	}
}
