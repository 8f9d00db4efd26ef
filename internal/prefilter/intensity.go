package prefilter

import "github.com/anno-git/hokuyohub/internal/hubconfig"

// applyIntensityFilter drops points whose intensity is below
// min_intensity, per spec §4.4 strategy 4. min_reliability is accepted
// but unenforced, carried through for parity with the source.
func applyIntensityFilter(pts []point, cfg hubconfig.IntensityFilterConfig) int {
	removed := 0
	for i := range pts {
		if !pts[i].valid {
			continue
		}
		if pts[i].intensity < float32(cfg.MinIntensity) {
			pts[i].valid = false
			removed++
		}
	}
	return removed
}
