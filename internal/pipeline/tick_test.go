package pipeline

import (
	"testing"

	"github.com/anno-git/hokuyohub/internal/device"
	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/slotmgr"
)

type captureSink struct {
	frames []Frame
}

func (c *captureSink) Process(f Frame) {
	c.frames = append(c.frames, f)
}

func mockFactory(cfg hubconfig.SensorConfig) (device.Driver, error) {
	return device.NewMockDriver(), nil
}

func TestRunOnceEmitsShapeConsistentFrame(t *testing.T) {
	mgr := slotmgr.New(mockFactory)
	_ = mgr.Configure([]hubconfig.SensorConfig{{ID: "a", Type: "mock", Endpoint: "127.0.0.1:1", Enabled: true, Mode: hubconfig.ModeRangeOnly, SkipStep: 1}})

	sink := &captureSink{}
	tick := NewTick(mgr, 30, sink)

	slot := mgr.Get("a")
	mockDrv := mustMockDriver(t, slot)
	mockDrv.Push(device.RawScan{StartAngleDeg: -10, StepDeg: 10, Ranges: []uint16{1000, 0, 2000}})

	tick.runOnce()

	if len(sink.frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(sink.frames))
	}
	f := sink.frames[0]
	if len(f.XY) != 2*len(f.SID) {
		t.Errorf("shape property violated: len(xy)=%d len(sid)=%d", len(f.XY), len(f.SID))
	}
	if len(f.SID) != 2 {
		t.Errorf("expected 2 surviving points (one dropped for range_mm==0), got %d", len(f.SID))
	}
}

func TestRunOnceSeqIncrementsMonotonically(t *testing.T) {
	mgr := slotmgr.New(mockFactory)
	sink := &captureSink{}
	tick := NewTick(mgr, 30, sink)

	tick.runOnce()
	tick.runOnce()
	tick.runOnce()

	for i := 1; i < len(sink.frames); i++ {
		if sink.frames[i].Seq != sink.frames[i-1].Seq+1 {
			t.Errorf("seq not monotonically increasing by 1: %v", sink.frames)
		}
	}
}

func mustMockDriver(t *testing.T, s *slotmgr.SensorSlot) *device.MockDriver {
	t.Helper()
	v, ok := s.Driver().(*device.MockDriver)
	if !ok {
		t.Fatal("slot driver is not a *device.MockDriver")
	}
	return v
}
