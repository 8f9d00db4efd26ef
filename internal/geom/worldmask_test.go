package geom

import "testing"

func TestWorldMaskExclusionScenario(t *testing.T) {
	// Spec §8 scenario 4: points (0.5,0.5) and (2.5,2.5); include a unit
	// square [0,0]-[1,1]. Only the first point should survive.
	square := Polygon{Vertices: [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}
	mask := WorldMask{Include: []Polygon{square}}

	if !mask.Admit(0.5, 0.5) {
		t.Errorf("expected (0.5,0.5) admitted")
	}
	if mask.Admit(2.5, 2.5) {
		t.Errorf("expected (2.5,2.5) rejected")
	}
}

func TestWorldMaskNoIncludeAdmitsAll(t *testing.T) {
	mask := WorldMask{}
	if !mask.Admit(123, -456) {
		t.Errorf("empty include list should admit everything")
	}
}

func TestWorldMaskExcludeOverridesInclude(t *testing.T) {
	big := Polygon{Vertices: [][2]float64{{-10, -10}, {10, -10}, {10, 10}, {-10, 10}}}
	hole := Polygon{Vertices: [][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}}
	mask := WorldMask{Include: []Polygon{big}, Exclude: []Polygon{hole}}

	if mask.Admit(0, 0) {
		t.Errorf("point inside exclude hole must be rejected")
	}
	if !mask.Admit(5, 5) {
		t.Errorf("point outside the hole but inside include must be admitted")
	}
}

func TestMaskMonotonicity(t *testing.T) {
	// Removing a vertex that shrinks the include polygon should never
	// increase the admitted count; we approximate by shrinking a square.
	wide := Polygon{Vertices: [][2]float64{{0, 0}, {2, 0}, {2, 2}, {0, 2}}}
	narrow := Polygon{Vertices: [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}

	pts := [][2]float64{{0.5, 0.5}, {1.5, 1.5}, {0.2, 0.2}}
	countWide, countNarrow := 0, 0
	for _, p := range pts {
		if (WorldMask{Include: []Polygon{wide}}).Admit(p[0], p[1]) {
			countWide++
		}
		if (WorldMask{Include: []Polygon{narrow}}).Admit(p[0], p[1]) {
			countNarrow++
		}
	}
	if countNarrow > countWide {
		t.Errorf("narrowing the include polygon increased admitted count: %d > %d", countNarrow, countWide)
	}
}
