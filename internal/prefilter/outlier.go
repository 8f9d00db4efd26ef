package prefilter

import (
	"math"
	"sort"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

// applyOutlierRemoval drops points whose range deviates from their
// angular-window moving median by more than outlier_threshold local
// standard deviations, per spec §4.4 strategy 3.
//
// Open Question (spec §9): use_robust_regression has no effective branch
// in the source — this implementation treats it as an accepted no-op
// and always uses the median/stddev test.
func applyOutlierRemoval(pts []point, cfg hubconfig.OutlierRemovalConfig) int {
	removed := 0
	groups := groupBySID(pts)
	halfWindow := cfg.MedianWindow / 2

	for _, indices := range groups {
		for j, idx := range indices {
			if !pts[idx].valid {
				continue
			}
			median := movingMedian(pts, indices, j, cfg.MedianWindow)
			deviation := abs32(pts[idx].rng - median)

			lo := max(0, j-halfWindow)
			hi := min(len(indices)-1, j+halfWindow)
			var sumSq float32
			count := 0
			for k := lo; k <= hi; k++ {
				if pts[indices[k]].valid {
					d := pts[indices[k]].rng - median
					sumSq += d * d
					count++
				}
			}
			if count <= 1 {
				continue
			}
			localStd := float32(math.Sqrt(float64(sumSq) / float64(count-1)))
			if deviation > float32(cfg.OutlierThreshold)*localStd {
				pts[idx].valid = false
				removed++
			}
		}
	}
	return removed
}

// movingMedian collects ranges of same-sensor points within window_size
// degrees of the center point's angle and returns their median,
// mirroring Prefilter::calculateMovingMedian.
func movingMedian(pts []point, indices []int, centerPos, windowSize int) float32 {
	center := pts[indices[centerPos]]
	windowRad := float32(windowSize) * float32(math.Pi) / 180.0

	var ranges []float32
	for _, idx := range indices {
		p := pts[idx]
		if !p.valid {
			continue
		}
		if abs32(p.angle-center.angle) <= windowRad {
			ranges = append(ranges, p.rng)
		}
	}
	if len(ranges) == 0 {
		return center.rng
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i] < ranges[j] })
	mid := len(ranges) / 2
	if len(ranges)%2 == 0 {
		return (ranges[mid-1] + ranges[mid]) / 2
	}
	return ranges[mid]
}
