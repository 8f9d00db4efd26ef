package prefilter

import "github.com/anno-git/hokuyohub/internal/hubconfig"

// applyIsolationRemoval drops points whose Euclidean neighborhood of
// radius isolation_radius (inclusive of self) has fewer than
// min_cluster_size members, per spec §4.4 strategy 5.
func applyIsolationRemoval(pts []point, cfg hubconfig.IsolationRemovalConfig) int {
	removed := 0
	radius := float32(cfg.IsolationRadius)
	for i := range pts {
		if !pts[i].valid {
			continue
		}
		if len(findNeighbors(pts, i, radius)) < cfg.MinClusterSize {
			pts[i].valid = false
			removed++
		}
	}
	return removed
}
