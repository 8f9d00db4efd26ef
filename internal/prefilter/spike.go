package prefilter

import (
	"math"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

// applySpikeRemoval drops points whose central-difference range
// derivative with respect to angle exceeds dr_threshold, per spec §4.4
// strategy 2.
//
// Open Question (spec §9): the source's windowing only ever looks at the
// nearest prior/next sample by angle, regardless of window_size. This
// implementation keeps that behavior and treats window_size as advisory
// (accepted, unused) rather than inventing a wider-window derivative the
// source never computed.
func applySpikeRemoval(pts []point, cfg hubconfig.SpikeRemovalConfig) int {
	removed := 0
	groups := groupBySID(pts)
	for _, indices := range groups {
		for _, idx := range indices {
			if !pts[idx].valid {
				continue
			}
			dr := angularDerivative(pts, idx)
			if abs32(dr) > float32(cfg.DrThreshold) {
				pts[idx].valid = false
				removed++
			}
		}
	}
	return removed
}

// angularDerivative finds the nearest valid same-sensor point before and
// after idx by angle and estimates dr/dtheta via central (or one-sided)
// difference, mirroring Prefilter::calculateAngularDerivative.
func angularDerivative(pts []point, idx int) float32 {
	center := pts[idx]

	var prevRange, nextRange = center.rng, center.rng
	var prevAngle, nextAngle = center.angle, center.angle
	foundPrev, foundNext := false, false
	minPrevDiff := float32(math.MaxFloat32)
	minNextDiff := float32(math.MaxFloat32)

	for i, p := range pts {
		if i == idx || !p.valid || p.sid != center.sid {
			continue
		}
		diff := p.angle - center.angle
		if diff < 0 && abs32(diff) < minPrevDiff {
			prevRange, prevAngle, minPrevDiff, foundPrev = p.rng, p.angle, abs32(diff), true
		} else if diff > 0 && diff < minNextDiff {
			nextRange, nextAngle, minNextDiff, foundNext = p.rng, p.angle, diff, true
		}
	}

	switch {
	case foundPrev && foundNext:
		dtheta := nextAngle - prevAngle
		if dtheta == 0 {
			return 0
		}
		return (nextRange - prevRange) / dtheta
	case foundPrev:
		dtheta := center.angle - prevAngle
		if dtheta == 0 {
			return 0
		}
		return (center.rng - prevRange) / dtheta
	case foundNext:
		dtheta := nextAngle - center.angle
		if dtheta == 0 {
			return 0
		}
		return (nextRange - center.rng) / dtheta
	default:
		return 0
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
