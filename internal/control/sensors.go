package control

import (
	"fmt"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/slotmgr"
)

// ListSensors returns every configured slot's view, sorted by numeric
// index (spec §4.2 snapshot_json()).
func (a *Adapter) ListSensors() []slotmgr.SlotView {
	return a.slots.Snapshot()
}

// GetSensor returns one slot's view by string id (spec §4.2 get_json(id)).
func (a *Adapter) GetSensor(id string) (slotmgr.SlotView, bool) {
	return a.slots.View(id)
}

// PatchSensor applies a fine-grained mutation to one slot (spec §4.2
// apply_patch), updates the persistent config snapshot for the fields
// the spec calls out (pose, mask), and broadcasts sensor.updated.
func (a *Adapter) PatchSensor(id string, patch map[string]any) (slotmgr.SlotView, error) {
	applied, err := a.slots.ApplyPatch(id, patch)
	if err != nil || !applied {
		return slotmgr.SlotView{}, err
	}

	view, ok := a.slots.View(id)
	if !ok {
		return slotmgr.SlotView{}, fmt.Errorf("control: sensor %q vanished during patch", id)
	}

	a.mu.Lock()
	for i := range a.cfg.Sensors {
		if a.cfg.Sensors[i].ID != id {
			continue
		}
		a.cfg.Sensors[i].Enabled = view.Enabled
		a.cfg.Sensors[i].Pose = hubconfig.PoseConfig{TX: view.TX, TY: view.TY, ThetaDeg: view.ThetaDeg}
		a.cfg.Sensors[i].Mask = hubconfig.MaskConfig{
			Angle: hubconfig.AngleMaskConfig{MinDeg: view.MaskAngleMinDeg, MaxDeg: view.MaskAngleMaxDeg},
			Range: hubconfig.RangeMaskConfig{NearM: view.MaskRangeNearM, FarM: view.MaskRangeFarM},
		}
		break
	}
	a.mu.Unlock()

	a.broadcastSensorUpdated(view)
	return view, nil
}

// AddSensor appends a new sensor config and re-runs Configure so the new
// slot is created and started per spec §4.2 (spec §6.3 POST /sensors).
func (a *Adapter) AddSensor(c hubconfig.SensorConfig) (slotmgr.SlotView, error) {
	a.mu.Lock()
	for _, existing := range a.cfg.Sensors {
		if existing.ID == c.ID {
			a.mu.Unlock()
			return slotmgr.SlotView{}, fmt.Errorf("control: sensor id %q already exists", c.ID)
		}
	}
	a.cfg.Sensors = append(a.cfg.Sensors, c)
	sensors := append([]hubconfig.SensorConfig(nil), a.cfg.Sensors...)
	a.mu.Unlock()

	if err := a.slots.Configure(sensors); err != nil {
		return slotmgr.SlotView{}, err
	}
	a.rebuildDBSCAN()

	view, ok := a.slots.View(c.ID)
	if !ok {
		return slotmgr.SlotView{}, fmt.Errorf("control: sensor %q failed to configure", c.ID)
	}
	a.broadcastSensorUpdated(view)
	return view, nil
}

// DeleteSensor removes a sensor from the configuration and re-runs
// Configure so its driver is stopped and its slot removed (spec §6.3
// DELETE /sensors/{id}).
func (a *Adapter) DeleteSensor(id string) error {
	a.mu.Lock()
	found := false
	kept := make([]hubconfig.SensorConfig, 0, len(a.cfg.Sensors))
	for _, c := range a.cfg.Sensors {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		a.mu.Unlock()
		return fmt.Errorf("control: unknown sensor id %q", id)
	}
	a.cfg.Sensors = kept
	sensors := append([]hubconfig.SensorConfig(nil), kept...)
	a.mu.Unlock()

	if err := a.slots.Configure(sensors); err != nil {
		return err
	}
	a.rebuildDBSCAN()
	a.broadcastSnapshot()
	return nil
}
