// Package slotmgr implements the sensor slot manager of spec §4.2: the
// keyed-by-string-id collection of SensorSlots, diff-based
// configure/reconfigure, fine-grained patch application, and the
// per-slot "latest wins" scan storage the aggregation tick reads from.
//
// Grounded on the original_source SensorManager (src/core/sensor_manager.cpp):
// a vector of slots each owning a device, a per-slot mutex guarding the
// latest RawScan, and a numeric sid assigned in configuration order — the
// structure here generalizes that single-shot, run-once manager into one
// that supports hot reconfiguration and fine patches, per spec §4.2/§6.3.
package slotmgr

import (
	"sync"

	"github.com/anno-git/hokuyohub/internal/device"
	"github.com/anno-git/hokuyohub/internal/geom"
	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

// SensorSlot is one configured, possibly-running sensor (spec §3).
type SensorSlot struct {
	ID                  string
	Type                string
	Host                string
	Port                int
	Mode                device.Mode
	SkipStep            int
	IgnoreChecksumError bool
	Pose                geom.Pose
	AngleMask           geom.AngleMask
	RangeMask           geom.RangeMask

	Index   uint8
	Enabled bool

	mu      sync.Mutex
	latest  device.RawScan
	started bool
	driver  device.Driver
	noise   hubconfig.NoiseModel
}

// Latest returns a copy of the slot's most recently received scan. The
// critical section is bounded to the copy, per spec §4.2's held-over-
// callback rule.
func (s *SensorSlot) Latest() device.RawScan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Started reports whether the slot's driver is currently producing
// scans.
func (s *SensorSlot) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// NoiseModel returns the slot's sensor noise model, used by DBSCAN to
// compute per-point scale (spec §4.6).
func (s *SensorSlot) NoiseModel() hubconfig.NoiseModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noise
}

// Driver returns the slot's underlying device.Driver.
func (s *SensorSlot) Driver() device.Driver {
	return s.driver
}

func (s *SensorSlot) onScan(rs device.RawScan) {
	s.mu.Lock()
	s.latest = rs
	s.mu.Unlock()
}

// driverKeyFields returns the subset of a slot's config that, when
// changed, forces a stop-then-start per spec §4.2's configure rule.
type driverKeyFields struct {
	Host                string
	Port                int
	Type                string
	Mode                device.Mode
	SkipStep            int
	IgnoreChecksumError bool
}

func (s *SensorSlot) driverKey() driverKeyFields {
	return driverKeyFields{s.Host, s.Port, s.Type, s.Mode, s.SkipStep, s.IgnoreChecksumError}
}
