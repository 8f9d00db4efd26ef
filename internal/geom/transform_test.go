package geom

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPolarToCartesian(t *testing.T) {
	x, y := PolarToCartesian(0, 1000)
	if !almostEqual(x, 1.0) || !almostEqual(y, 0.0) {
		t.Errorf("got (%v,%v), want (1,0)", x, y)
	}

	x, y = PolarToCartesian(90, 2000)
	if !almostEqual(x, 0.0) || !almostEqual(y, 2.0) {
		t.Errorf("got (%v,%v), want (0,2)", x, y)
	}
}

func TestApplyPoseIdentity(t *testing.T) {
	p := Pose{}
	x, y := p.ApplyPose(3, 4)
	if !almostEqual(x, 3) || !almostEqual(y, 4) {
		t.Errorf("identity pose should not move the point, got (%v,%v)", x, y)
	}
}

func TestApplyPoseRotateThenTranslate(t *testing.T) {
	p := Pose{TX: 10, TY: 0, ThetaDeg: 90}
	x, y := p.ApplyPose(1, 0)
	if !almostEqual(x, 10) || !almostEqual(y, 1) {
		t.Errorf("got (%v,%v), want (10,1)", x, y)
	}
}
