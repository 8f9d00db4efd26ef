package prefilter

import (
	"testing"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/pipeline"
)

func frameOf(xy []float32, sid []uint8) pipeline.Frame {
	return pipeline.Frame{XY: xy, SID: sid}
}

func TestChainDisabledReturnsInputUnchanged(t *testing.T) {
	c := New(hubconfig.PrefilterConfig{Enabled: false})
	f := frameOf([]float32{1, 2, 3, 4}, []uint8{0, 0})
	out, stats := c.Apply(f, nil)
	if len(out.XY) != 4 || stats.OutputPoints != 2 {
		t.Fatalf("expected pass-through, got %+v / %+v", out, stats)
	}
}

func TestNeighborhoodFilterDropsSparsePoints(t *testing.T) {
	cfg := hubconfig.PrefilterConfig{
		Enabled:      true,
		Neighborhood: hubconfig.NeighborhoodConfig{Enabled: true, K: 2, RBase: 0.1, RScale: 0},
	}
	c := New(cfg)
	// Two close points (mutual neighbors) and one far isolated point.
	f := frameOf([]float32{0, 0, 0.05, 0, 10, 10}, []uint8{0, 0, 0})
	out, stats := c.Apply(f, nil)
	if out.NumPoints() != 2 {
		t.Fatalf("expected 2 survivors, got %d (%+v)", out.NumPoints(), stats)
	}
	if stats.RemovedByNeighborhood != 1 {
		t.Errorf("expected 1 removal, got %d", stats.RemovedByNeighborhood)
	}
}

func TestIntensityFilterIdempotent(t *testing.T) {
	cfg := hubconfig.PrefilterConfig{
		Enabled:         true,
		IntensityFilter: hubconfig.IntensityFilterConfig{Enabled: true, MinIntensity: 50},
	}
	c := New(cfg)
	f := frameOf([]float32{0, 0, 1, 1, 2, 2}, []uint8{0, 0, 0})
	intens := []float32{10, 60, 40}

	once, _ := c.Apply(f, intens)
	// The lone survivor of the first pass is point 1, so the second pass
	// gets point 1's intensity.
	twice, _ := c.Apply(once, []float32{intens[1]})

	if once.NumPoints() != twice.NumPoints() {
		t.Errorf("expected idempotence: once=%d twice=%d", once.NumPoints(), twice.NumPoints())
	}
	if once.NumPoints() != 1 {
		t.Errorf("expected exactly 1 survivor (intensity 60), got %d", once.NumPoints())
	}
}

func TestIsolationRemovalDropsLonelyPoint(t *testing.T) {
	cfg := hubconfig.PrefilterConfig{
		Enabled:          true,
		IsolationRemoval: hubconfig.IsolationRemovalConfig{Enabled: true, MinClusterSize: 2, IsolationRadius: 0.1},
	}
	c := New(cfg)
	f := frameOf([]float32{0, 0, 0.05, 0, 5, 5}, []uint8{0, 0, 0})
	out, stats := c.Apply(f, nil)
	if out.NumPoints() != 2 || stats.RemovedByIsolation != 1 {
		t.Fatalf("got points=%d removed=%d", out.NumPoints(), stats.RemovedByIsolation)
	}
}
