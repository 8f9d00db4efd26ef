// Package device defines the abstract push-source contract for range-finder
// devices (spec §4.1) and a couple of concrete drivers grounded on the
// teacher's own transport choices: internal/device/serialscan wraps
// go.bug.st/serial the way the teacher's radar/serial.go does, and
// internal/device/netscan wraps raw UDP/gopacket capture the way the
// teacher's internal/lidar/network package does.
package device

import "time"

// Mode is the acquisition mode tag from spec §3: MD = range-only,
// ME = range+intensity.
type Mode string

const (
	ModeRangeOnly      Mode = "MD"
	ModeRangeIntensity Mode = "ME"
)

// RawScan is one completed scan pushed by a driver (spec §3).
// Ranges are millimeters, 0 meaning "no return". Intensities, if
// present, is either empty or the same length as Ranges.
type RawScan struct {
	ReceivedAtNanos int64
	Ranges          []uint16
	Intensities     []uint16
	StartAngleDeg   float64
	StepDeg         float64
}

// Params configures a driver's connection and acquisition parameters.
// It is the subset of SensorSlot fields a driver needs to start, mirroring
// the teacher's radar.NewRadarPort(portName) / HokuyoSensorUrg's SensorConfig
// in original_source/src/sensors/ISensor.h (host/port/mode/skip/checksum).
type Params struct {
	Host                string
	Port                int
	Mode                Mode
	SkipStep            int
	IgnoreChecksumError bool
	ConnectTimeout      time.Duration
}

// Callback is invoked once per completed scan. Drivers serialize their own
// callback invocations; the manager never assumes thread-safety of the
// callback itself beyond "called from one driver-owned goroutine at a time"
// (spec §4.1).
type Callback func(RawScan)

// Driver is the abstract device contract of spec §4.1. Implementations own
// their reconnection policy; the manager only observes the boolean Start
// result and the subsequent presence or absence of scans.
type Driver interface {
	// Start begins acquisition with the given parameters. Returns false if
	// the device could not be started; the slot remains usable but idle.
	Start(p Params) bool
	// Stop halts acquisition and releases any owned resources. Must be
	// bounded — the manager imposes no timeout (spec §5).
	Stop()
	// Subscribe registers the callback invoked once per completed scan.
	Subscribe(cb Callback)
	// ApplyMode attempts to change the acquisition mode without a
	// restart. Returns false if a restart is required to realize the
	// change.
	ApplyMode(m Mode) bool
	// ApplySkipStep attempts to change the angular skip factor without a
	// restart. Returns false if a restart is required.
	ApplySkipStep(n int) bool
}
