// Package dbscan implements the adaptive, normalized-distance DBSCAN
// clustering stage (spec §4.6), grounded on
// original_source/src/detect/dbscan.cpp's DBSCAN2D::run: per-point scale
// from a sensor noise model, a hash grid for bounded-radius neighbor
// search, and inclusive-minPts core/expansion semantics.
package dbscan

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/pipeline"
)

// Clusterer holds the tunable parameters of spec §6.3's DBSCAN config
// plus the per-sensor noise models used to compute point scales.
type Clusterer struct {
	Config hubconfig.DBSCANConfig
	Models Models
}

func New(cfg hubconfig.DBSCANConfig, models Models) *Clusterer {
	return &Clusterer{Config: cfg, Models: models}
}

const smallNGridH = 0.03

// Run clusters a frame's surviving points and returns one Cluster per
// non-empty partition, in cluster-open order. Noise points are dropped.
func (c *Clusterer) Run(f pipeline.Frame) []pipeline.Cluster {
	n := f.NumPoints()
	if n == 0 {
		return nil
	}

	epsNorm := float32(c.Config.EpsNorm)
	epsNormSq := epsNorm * epsNorm
	kScale := float32(c.Config.KScale)

	mDyn := c.Config.MMax
	if dyn := int(math.Floor(0.1 * float64(n))); dyn > mDyn {
		mDyn = dyn
	}

	scales := make([]float32, n)
	searchRadii := make([]float32, n)
	for i := 0; i < n; i++ {
		x, y := f.Point(i)
		r := float32(math.Hypot(float64(x), float64(y)))
		model := c.Models.lookup(f.SID[i])

		sigmaR := float32(model.Sigma0) + float32(model.Alpha)*r
		kEff := (1.0 / epsNorm) * kScale
		angular := kEff * r * float32(model.DeltaThetaRad)
		scales[i] = float32(math.Sqrt(float64(sigmaR*sigmaR + angular*angular)))
		searchRadii[i] = epsNorm * scales[i]
	}

	h := float32(smallNGridH)
	if n >= 2000 {
		h = float32(clamp(0.8*float64(medianOf(scales)), c.Config.HMin, c.Config.HMax))
	}

	g := newGrid(h, n)
	for i := 0; i < n; i++ {
		x, y := f.Point(i)
		g.insert(i, x, y)
	}

	const (
		unvisited = -1
		noise     = -2
	)
	clusterID := make([]int, n)
	for i := range clusterID {
		clusterID[i] = unvisited
	}
	visited := make([]bool, n)
	current := 0

	findNeighbors := func(idx int) []int {
		px, py := f.Point(idx)
		epsI := searchRadii[idx]
		scaleISq := scales[idx] * scales[idx]
		rI := c.Config.RMax
		if cells := int(math.Ceil(float64(epsI / h))); cells < rI {
			rI = cells
		}

		neighbors := []int{idx}
		candidates := 0
		g.eachInRadius(px, py, rI, func(j int) bool {
			if j == idx {
				return true
			}
			if candidates >= mDyn {
				return false
			}
			candidates++

			qx, qy := f.Point(j)
			dx := px - qx
			dy := py - qy
			distSq := dx*dx + dy*dy
			combinedScaleSq := scaleISq + scales[j]*scales[j]
			dNormSq := distSq / combinedScaleSq
			if dNormSq <= epsNormSq {
				neighbors = append(neighbors, j)
			}
			return true
		})
		return neighbors
	}

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := findNeighbors(i)
		if len(neighbors) < c.Config.MinPts {
			clusterID[i] = noise
			continue
		}

		clusterID[i] = current
		seeds := make([]int, 0, len(neighbors))
		for _, nb := range neighbors {
			if nb != i {
				seeds = append(seeds, nb)
			}
		}

		for len(seeds) > 0 {
			q := seeds[0]
			seeds = seeds[1:]

			if !visited[q] {
				visited[q] = true
				qNeighbors := findNeighbors(q)
				if len(qNeighbors) >= c.Config.MinPts {
					for _, qn := range qNeighbors {
						if qn != q {
							seeds = append(seeds, qn)
						}
					}
				}
			}
			if clusterID[q] < 0 {
				clusterID[q] = current
			}
		}
		current++
	}

	if current == 0 {
		return nil
	}

	clusters := make([]pipeline.Cluster, current)
	for i := range clusters {
		clusters[i] = pipeline.Cluster{
			ID:   i,
			MinX: math.MaxFloat32, MinY: math.MaxFloat32,
			MaxX: -math.MaxFloat32, MaxY: -math.MaxFloat32,
		}
	}

	for i := 0; i < n; i++ {
		cid := clusterID[i]
		if cid < 0 {
			continue
		}
		cl := &clusters[cid]
		x, y := f.Point(i)
		sid := f.SID[i]

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
		cl.CX += x
		cl.CY += y
		cl.Count++
		cl.PointIndices = append(cl.PointIndices, i)
		if sid < 8 {
			cl.SensorMask |= 1 << sid
		}
	}

	for i := range clusters {
		if clusters[i].Count > 0 {
			clusters[i].CX /= float32(clusters[i].Count)
			clusters[i].CY /= float32(clusters[i].Count)
		}
	}

	return clusters
}

// medianOf returns the median of scales using gonum's empirical
// quantile estimator over a sorted copy (O(N log N)): the element at
// index n/2 for odd n, and the lower middle element (index n/2-1) for
// even n.
func medianOf(scales []float32) float64 {
	xs := make([]float64, len(scales))
	for i, s := range scales {
		xs[i] = float64(s)
	}
	sort.Float64s(xs)
	return stat.Quantile(0.5, stat.Empirical, xs, nil)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
