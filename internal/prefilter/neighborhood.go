package prefilter

import "github.com/anno-git/hokuyohub/internal/hubconfig"

// applyNeighborhood drops points whose adaptive-radius neighborhood
// (inclusive of self) has fewer than k members, per spec §4.4 strategy 1.
func applyNeighborhood(pts []point, cfg hubconfig.NeighborhoodConfig) int {
	removed := 0
	for i := range pts {
		if !pts[i].valid {
			continue
		}
		radius := float32(cfg.RBase) + float32(cfg.RScale)*pts[i].rng
		if len(findNeighbors(pts, i, radius)) < cfg.K {
			pts[i].valid = false
			removed++
		}
	}
	return removed
}
