package postfilter

import (
	"testing"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/pipeline"
)

func TestDisabledReturnsInputUnchanged(t *testing.T) {
	f := New(hubconfig.PostfilterConfig{Enabled: false})
	clusters := []pipeline.Cluster{{ID: 0, Count: 3}}
	out, stats := f.Apply(clusters, nil, nil)
	if len(out) != 1 || stats.OutputClusters != 1 {
		t.Fatalf("expected pass-through, got %+v / %+v", out, stats)
	}
}

func TestIsolationRemovalDropsLonelyPointButKeepsCluster(t *testing.T) {
	cfg := hubconfig.PostfilterConfig{Enabled: true, IsolationRadius: 0.1, RequiredNeighbors: 1, MinPointsSize: 2}
	f := New(cfg)
	xy := []float32{0, 0, 0.05, 0, 5, 5}
	sid := []uint8{0, 0, 0}
	clusters := []pipeline.Cluster{{ID: 0, PointIndices: []int{0, 1, 2}, Count: 3}}

	out, stats := f.Apply(clusters, xy, sid)
	if len(out) != 1 {
		t.Fatalf("expected 1 cluster to survive, got %d", len(out))
	}
	if out[0].Count != 2 {
		t.Fatalf("expected 2 survivors, got %d", out[0].Count)
	}
	if stats.PointsRemovedTotal != 1 {
		t.Errorf("expected 1 point removed, got %d", stats.PointsRemovedTotal)
	}
	if out[0].CX != 0.025 || out[0].CY != 0 {
		t.Errorf("expected rebuilt centroid (0.025,0), got (%v,%v)", out[0].CX, out[0].CY)
	}
}

func TestClusterDroppedWhenSurvivorsBelowMinSize(t *testing.T) {
	cfg := hubconfig.PostfilterConfig{Enabled: true, IsolationRadius: 0.1, RequiredNeighbors: 1, MinPointsSize: 3}
	f := New(cfg)
	xy := []float32{0, 0, 0.05, 0, 5, 5}
	sid := []uint8{0, 0, 0}
	clusters := []pipeline.Cluster{{ID: 0, PointIndices: []int{0, 1, 2}, Count: 3}}

	out, stats := f.Apply(clusters, xy, sid)
	if len(out) != 0 {
		t.Fatalf("expected cluster to be dropped, got %d", len(out))
	}
	if stats.RemovedByIsolation != 1 {
		t.Errorf("expected removed_by_isolation=1, got %d", stats.RemovedByIsolation)
	}
}

func TestNoIsolatedPointsLeavesClusterUntouched(t *testing.T) {
	cfg := hubconfig.PostfilterConfig{Enabled: true, IsolationRadius: 1.0, RequiredNeighbors: 1, MinPointsSize: 1}
	f := New(cfg)
	xy := []float32{0, 0, 0.05, 0}
	sid := []uint8{0, 0}
	clusters := []pipeline.Cluster{{ID: 0, PointIndices: []int{0, 1}, Count: 2, CX: 0.025, CY: 0}}

	out, _ := f.Apply(clusters, xy, sid)
	if len(out) != 1 || out[0].Count != 2 {
		t.Fatalf("expected cluster unchanged, got %+v", out)
	}
}
