// Package postfilter implements the per-cluster refinement stage (spec
// §4.7), grounded on original_source/src/detect/postfilter.cpp's
// Postfilter::apply: intra-cluster isolation removal, a minimum-size
// drop, and centroid/bbox/sensor_mask rebuild from survivors.
package postfilter

import (
	"time"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/pipeline"
)

// Stats mirrors PostfilterStats.
type Stats struct {
	InputClusters       int
	OutputClusters      int
	RemovedByIsolation  int
	PointsRemovedTotal  int
	ElapsedMicros        int64
}

type Filter struct {
	Config hubconfig.PostfilterConfig
}

func New(cfg hubconfig.PostfilterConfig) *Filter {
	return &Filter{Config: cfg}
}

// Apply filters a DBSCAN cluster batch in place against the frame's
// point coordinates and sensor ids. xy is the same interleaved x,y array
// the clusters' PointIndices index into.
func (filt *Filter) Apply(clusters []pipeline.Cluster, xy []float32, sid []uint8) ([]pipeline.Cluster, Stats) {
	start := time.Now()
	stats := Stats{InputClusters: len(clusters)}

	if !filt.Config.Enabled || len(clusters) == 0 {
		stats.OutputClusters = len(clusters)
		return clusters, stats
	}

	out := make([]pipeline.Cluster, 0, len(clusters))
	for _, cl := range clusters {
		kept, ok := filt.applyIsolationRemoval(cl, xy, sid, &stats)
		if ok {
			out = append(out, kept)
		}
	}

	stats.OutputClusters = len(out)
	stats.ElapsedMicros = time.Since(start).Microseconds()
	return out, stats
}

// applyIsolationRemoval drops points in cl whose same-cluster neighbor
// count within isolation_radius falls short of required_neighbors, then
// either drops the whole cluster (if too few survive) or rebuilds it.
func (filt *Filter) applyIsolationRemoval(cl pipeline.Cluster, xy []float32, sid []uint8, stats *Stats) (pipeline.Cluster, bool) {
	radiusSq := float32(filt.Config.IsolationRadius) * float32(filt.Config.IsolationRadius)

	isolated := make(map[int]bool)
	for i, pi := range cl.PointIndices {
		px, py := xy[2*pi], xy[2*pi+1]
		neighborCount := 0
		for j, pj := range cl.PointIndices {
			if i == j {
				continue
			}
			qx, qy := xy[2*pj], xy[2*pj+1]
			dx, dy := qx-px, qy-py
			if dx*dx+dy*dy < radiusSq {
				neighborCount++
				if neighborCount >= filt.Config.RequiredNeighbors {
					break
				}
			}
		}
		if neighborCount < filt.Config.RequiredNeighbors {
			isolated[pi] = true
		}
	}

	if len(isolated) == 0 {
		return cl, true
	}

	survivorCount := len(cl.PointIndices) - len(isolated)
	if survivorCount < filt.Config.MinPointsSize {
		stats.RemovedByIsolation++
		stats.PointsRemovedTotal += len(cl.PointIndices)
		return pipeline.Cluster{}, false
	}

	stats.PointsRemovedTotal += len(isolated)
	survivors := make([]int, 0, survivorCount)
	for _, pi := range cl.PointIndices {
		if !isolated[pi] {
			survivors = append(survivors, pi)
		}
	}
	return rebuild(cl.ID, xy, sid, survivors), true
}

// rebuild recomputes centroid, bounding box and sensor_mask from a
// survivor point-index list, mirroring rebuildClusterFromPoints.
func rebuild(id int, xy []float32, sid []uint8, indices []int) pipeline.Cluster {
	cl := pipeline.Cluster{
		ID:           id,
		PointIndices: indices,
		MinX:         xy[2*indices[0]], MinY: xy[2*indices[0]+1],
		MaxX: xy[2*indices[0]], MaxY: xy[2*indices[0]+1],
	}
	var sumX, sumY float32
	for _, pi := range indices {
		x, y := xy[2*pi], xy[2*pi+1]
		sumX += x
		sumY += y
		if x < cl.MinX {
			cl.MinX = x
		}
		if y < cl.MinY {
			cl.MinY = y
		}
		if x > cl.MaxX {
			cl.MaxX = x
		}
		if y > cl.MaxY {
			cl.MaxY = y
		}
		if s := sid[pi]; s < 8 {
			cl.SensorMask |= 1 << s
		}
	}
	cl.Count = len(indices)
	cl.CX = sumX / float32(cl.Count)
	cl.CY = sumY / float32(cl.Count)
	return cl
}
