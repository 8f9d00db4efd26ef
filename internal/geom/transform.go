// Package geom implements the sensor-frame to world-frame point transform
// (spec §3, §4.3) and the world-mask polygon gate (spec §4.5).
//
// The shape mirrors the teacher's internal/lidar/transform.go and
// internal/lidar/clustering.go TransformToWorld: a small pose value type
// plus free functions operating on plain float64 coordinates, no hidden
// state.
package geom

import "math"

// Pose is a 2D rigid transform: rotate by Theta (degrees) about the origin,
// then translate by (TX, TY). It replaces the teacher's 4x4 homogeneous
// matrix (internal/lidar/pose.go) with the 2D tx/ty/theta form spec.md §3
// calls for — the source system never leaves the ground plane, so a full
//3D pose is unneeded machinery.
type Pose struct {
	TX, TY   float64
	ThetaDeg float64
}

// PolarToCartesian converts a sensor-frame polar sample (angle in degrees,
// range in millimeters) to sensor-frame Cartesian meters.
func PolarToCartesian(angleDeg, rangeMM float64) (x, y float64) {
	rad := angleDeg * math.Pi / 180
	rangeM := rangeMM / 1000.0
	return rangeM * math.Cos(rad), rangeM * math.Sin(rad)
}

// ApplyPose rotates (x,y) by Theta then translates by (TX,TY), producing a
// world-frame point. Rotation happens before translation per spec §4.3 step 3.
func (p Pose) ApplyPose(x, y float64) (wx, wy float64) {
	rad := p.ThetaDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	rx := x*cos - y*sin
	ry := x*sin + y*cos
	return rx + p.TX, ry + p.TY
}

// ToWorld converts a sensor-frame polar sample directly to a world-frame
// point, combining PolarToCartesian and ApplyPose.
func (p Pose) ToWorld(angleDeg, rangeMM float64) (wx, wy float64) {
	x, y := PolarToCartesian(angleDeg, rangeMM)
	return p.ApplyPose(x, y)
}
