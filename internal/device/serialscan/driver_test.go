package serialscan

import (
	"testing"

	"github.com/anno-git/hokuyohub/internal/device"
)

func TestDownsampleKeepsEveryNthSample(t *testing.T) {
	scan := device.RawScan{
		StepDeg:     0.5,
		Ranges:      []uint16{10, 20, 30, 40, 50},
		Intensities: []uint16{1, 2, 3, 4, 5},
	}
	out := downsample(scan, 2)
	if got, want := out.Ranges, []uint16{10, 30, 50}; !equalU16(got, want) {
		t.Errorf("got ranges %v, want %v", got, want)
	}
	if got, want := out.Intensities, []uint16{1, 3, 5}; !equalU16(got, want) {
		t.Errorf("got intensities %v, want %v", got, want)
	}
	if out.StepDeg != 1.0 {
		t.Errorf("expected step to double, got %v", out.StepDeg)
	}
}

func equalU16(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
