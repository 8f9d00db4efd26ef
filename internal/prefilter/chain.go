// Package prefilter implements the five-strategy prefilter chain of
// spec §4.4, grounded on original_source's Prefilter::apply
// (src/detect/prefilter.cpp): convert xy+sid(+intensity) into an
// internal point slice carrying polar coordinates, run each enabled
// strategy in fixed order marking rejected points invalid in place, then
// compact survivors into the output frame.
package prefilter

import (
	"math"
	"time"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/pipeline"
)

// point is the internal per-sample record each strategy operates on.
// Mirrors original_source's FilterPoint.
type point struct {
	x, y      float32
	sid       uint8
	rng       float32
	angle     float32
	intensity float32
	valid     bool
}

// Stats reports per-call input/output counts and per-strategy removal
// counts (spec §4.4 "Statistics... are reported per call").
type Stats struct {
	InputPoints          int
	OutputPoints         int
	RemovedByNeighborhood int
	RemovedBySpike        int
	RemovedByOutlier      int
	RemovedByIntensity    int
	RemovedByIsolation    int
	ElapsedMicros         float64
}

// Chain runs the spec §4.4 prefilter strategies over one frame.
type Chain struct {
	Config hubconfig.PrefilterConfig
}

// New creates a Chain with the given config.
func New(cfg hubconfig.PrefilterConfig) *Chain {
	return &Chain{Config: cfg}
}

// Apply filters frame f in place conceptually: it returns a new frame
// containing only surviving points, in their original relative order
// (never reorders survivors, per spec §4.4), plus the call's Stats. If
// the chain is globally disabled the input is returned unchanged.
func (c *Chain) Apply(f pipeline.Frame, intensities []float32) (pipeline.Frame, Stats) {
	start := time.Now()
	stats := Stats{InputPoints: f.NumPoints()}

	if !c.Config.Enabled || f.NumPoints() == 0 {
		stats.OutputPoints = f.NumPoints()
		return f, stats
	}

	pts := toPoints(f, intensities)

	if c.Config.Neighborhood.Enabled {
		stats.RemovedByNeighborhood = applyNeighborhood(pts, c.Config.Neighborhood)
	}
	if c.Config.SpikeRemoval.Enabled {
		stats.RemovedBySpike = applySpikeRemoval(pts, c.Config.SpikeRemoval)
	}
	if c.Config.OutlierRemoval.Enabled {
		stats.RemovedByOutlier = applyOutlierRemoval(pts, c.Config.OutlierRemoval)
	}
	if c.Config.IntensityFilter.Enabled {
		stats.RemovedByIntensity = applyIntensityFilter(pts, c.Config.IntensityFilter)
	}
	if c.Config.IsolationRemoval.Enabled {
		stats.RemovedByIsolation = applyIsolationRemoval(pts, c.Config.IsolationRemoval)
	}

	out := fromPoints(pts, f.Seq, f.TimestampNanos)
	stats.OutputPoints = out.NumPoints()
	stats.ElapsedMicros = float64(time.Since(start).Microseconds())
	return out, stats
}

func toPoints(f pipeline.Frame, intensities []float32) []point {
	n := f.NumPoints()
	pts := make([]point, n)
	for i := 0; i < n; i++ {
		x, y := f.Point(i)
		var inten float32
		if i < len(intensities) {
			inten = intensities[i]
		}
		pts[i] = point{
			x: x, y: y, sid: f.SID[i],
			rng:   float32(math.Hypot(float64(x), float64(y))),
			angle: float32(math.Atan2(float64(y), float64(x))),
			intensity: inten,
			valid:     true,
		}
	}
	return pts
}

func fromPoints(pts []point, seq uint32, tsNanos int64) pipeline.Frame {
	xy := make([]float32, 0, len(pts)*2)
	sid := make([]uint8, 0, len(pts))
	for _, p := range pts {
		if !p.valid {
			continue
		}
		xy = append(xy, p.x, p.y)
		sid = append(sid, p.sid)
	}
	return pipeline.Frame{Seq: seq, TimestampNanos: tsNanos, XY: xy, SID: sid}
}

// findNeighbors returns indices of valid points within radius of
// pts[idx] (inclusive of idx itself), mirroring
// Prefilter::findNeighbors.
func findNeighbors(pts []point, idx int, radius float32) []int {
	q := pts[idx]
	radiusSq := radius * radius
	var neighbors []int
	for i, p := range pts {
		if !p.valid {
			continue
		}
		dx := p.x - q.x
		dy := p.y - q.y
		if dx*dx+dy*dy <= radiusSq {
			neighbors = append(neighbors, i)
		}
	}
	return neighbors
}

// groupBySID partitions the valid-point indices of pts by sensor id,
// each group sorted by angle ascending, mirroring the
// sensor_groups pattern shared by spike- and outlier-removal.
func groupBySID(pts []point) map[uint8][]int {
	groups := make(map[uint8][]int)
	for i, p := range pts {
		if p.valid {
			groups[p.sid] = append(groups[p.sid], i)
		}
	}
	for sid, indices := range groups {
		sortByAngle(pts, indices)
		groups[sid] = indices
	}
	return groups
}

func sortByAngle(pts []point, indices []int) {
	for i := 1; i < len(indices); i++ {
		j := i
		for j > 0 && pts[indices[j-1]].angle > pts[indices[j]].angle {
			indices[j-1], indices[j] = indices[j], indices[j-1]
			j--
		}
	}
}
