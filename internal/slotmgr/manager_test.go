package slotmgr

import (
	"testing"

	"github.com/anno-git/hokuyohub/internal/device"
	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

func mockFactory(cfg hubconfig.SensorConfig) (device.Driver, error) {
	return device.NewMockDriver(), nil
}

func cfgFor(id string) hubconfig.SensorConfig {
	return hubconfig.SensorConfig{ID: id, Type: "mock", Endpoint: "127.0.0.1:10940", Enabled: true, Mode: hubconfig.ModeRangeOnly, SkipStep: 1}
}

func TestConfigureAssignsIndicesInOrder(t *testing.T) {
	m := New(mockFactory)
	if err := m.Configure([]hubconfig.SensorConfig{cfgFor("a"), cfgFor("b")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Get("a").Index; got != 0 {
		t.Errorf("expected a at index 0, got %d", got)
	}
	if got := m.Get("b").Index; got != 1 {
		t.Errorf("expected b at index 1, got %d", got)
	}
}

// TestHotReconfigureKeepsIndexStable implements spec §8 scenario 6.
func TestHotReconfigureKeepsIndexStable(t *testing.T) {
	m := New(mockFactory)
	if err := m.Configure([]hubconfig.SensorConfig{cfgFor("a"), cfgFor("b")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	aSlot := m.Get("a")
	noiseA := aSlot.NoiseModel()

	if err := m.Configure([]hubconfig.SensorConfig{cfgFor("b"), cfgFor("a")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Get("a").Index; got != 1 {
		t.Errorf("expected a's new index to be 1, got %d", got)
	}
	if got := m.Get("b").Index; got != 0 {
		t.Errorf("expected b's new index to be 0, got %d", got)
	}
	if m.Get("a") != aSlot {
		t.Error("expected slot 'a' to be the same retained slot instance")
	}
	if m.Get("a").NoiseModel() != noiseA {
		t.Error("expected noise model to follow string id across reconfiguration")
	}
}

func TestConfigureStopsRemovedSlots(t *testing.T) {
	m := New(mockFactory)
	_ = m.Configure([]hubconfig.SensorConfig{cfgFor("a"), cfgFor("b")})
	drvA := m.Get("a").driver.(*device.MockDriver)

	_ = m.Configure([]hubconfig.SensorConfig{cfgFor("b")})
	if m.Get("a") != nil {
		t.Error("expected removed slot 'a' to be gone")
	}
	if drvA.StopCalls == 0 {
		t.Error("expected removed slot's driver to be stopped")
	}
}

func TestConfigureRestartsOnDriverKeyChange(t *testing.T) {
	m := New(mockFactory)
	_ = m.Configure([]hubconfig.SensorConfig{cfgFor("a")})
	drvA := m.Get("a").driver.(*device.MockDriver)

	changed := cfgFor("a")
	changed.Endpoint = "127.0.0.1:20000"
	_ = m.Configure([]hubconfig.SensorConfig{changed})

	if drvA.StopCalls == 0 {
		t.Error("expected endpoint change to trigger a restart (stop+start)")
	}
	if !drvA.Started() {
		t.Error("expected the slot to be re-started after the restart")
	}
}

func TestApplyPatchPoseNoRestart(t *testing.T) {
	m := New(mockFactory)
	_ = m.Configure([]hubconfig.SensorConfig{cfgFor("a")})
	drvA := m.Get("a").driver.(*device.MockDriver)
	drvA.StopCalls = 0

	ok, err := m.ApplyPatch("a", map[string]any{"pose": map[string]any{"tx": 1.0, "ty": 2.0, "theta_deg": 90.0}})
	if err != nil || !ok {
		t.Fatalf("unexpected result (%v, %v)", ok, err)
	}
	if drvA.StopCalls != 0 {
		t.Error("pose patch should never trigger a restart")
	}
	pose := m.Get("a").Pose
	if pose.TX != 1 || pose.TY != 2 || pose.ThetaDeg != 90 {
		t.Errorf("pose not applied: %+v", pose)
	}
}

func TestApplyPatchInvalidSkipStepRejected(t *testing.T) {
	m := New(mockFactory)
	_ = m.Configure([]hubconfig.SensorConfig{cfgFor("a")})

	ok, err := m.ApplyPatch("a", map[string]any{"skip_step": float64(0)})
	if err == nil || ok {
		t.Fatal("expected skip_step=0 to be rejected")
	}
	if m.Get("a").SkipStep != 1 {
		t.Error("expected slot to remain unchanged after a rejected patch")
	}
}

func TestApplyPatchEndpointRequiresRestart(t *testing.T) {
	m := New(mockFactory)
	_ = m.Configure([]hubconfig.SensorConfig{cfgFor("a")})
	drvA := m.Get("a").driver.(*device.MockDriver)
	drvA.StopCalls = 0

	ok, err := m.ApplyPatch("a", map[string]any{"endpoint": "10.0.0.5:1234"})
	if err != nil || !ok {
		t.Fatalf("unexpected result (%v, %v)", ok, err)
	}
	if drvA.StopCalls == 0 {
		t.Error("expected endpoint patch to trigger a restart")
	}
}
