// Package pipeline implements the fixed-cadence aggregation tick (spec
// §4.3) and the Frame/Cluster data types it produces, grounded on
// original_source's SensorManager::start aggregation thread
// (src/core/sensor_manager.cpp): one goroutine copies each enabled
// slot's latest scan, transforms it to world coordinates, and emits a
// frame with a strictly increasing sequence number.
package pipeline

// Frame is one tick's aggregated set of world-frame points (spec §3).
// XY is an interleaved x0,y0,x1,y1,... array; SID holds one owning slot
// index per point, so len(XY) == 2*len(SID) always holds.
type Frame struct {
	Seq            uint32
	TimestampNanos int64
	XY             []float32
	SID            []uint8
	Intensities    []float32
}

// NumPoints returns the point count implied by SID's length.
func (f *Frame) NumPoints() int { return len(f.SID) }

// Point returns the i-th point's world coordinates.
func (f *Frame) Point(i int) (x, y float32) {
	return f.XY[2*i], f.XY[2*i+1]
}

// Cluster is one DBSCAN output cluster (spec §3).
type Cluster struct {
	ID                     int
	MinX, MinY, MaxX, MaxY float32
	CX, CY                 float32
	PointIndices           []int
	Count                  int
	SensorMask             uint8
}
