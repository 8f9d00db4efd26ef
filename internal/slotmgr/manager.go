package slotmgr

import (
	"fmt"
	"sort"
	"sync"

	"github.com/anno-git/hokuyohub/internal/device"
	"github.com/anno-git/hokuyohub/internal/geom"
	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/obslog"
)

// DriverFactory constructs the concrete device.Driver for a sensor's
// Type tag (e.g. "urg-serial", "urg-net"), mirroring the original
// source's SensorFactory::create_sensor dispatch on SensorConfig.type.
type DriverFactory func(cfg hubconfig.SensorConfig) (device.Driver, error)

// Manager holds the slot list keyed by string id (spec §4.2). The
// structural lock guards the slot list and id index only; it is never
// held across a driver callback — onScan only ever takes the per-slot
// mutex, satisfying the spec's lock-order rule slot-mutex < structural-
// lock < config-lock.
type Manager struct {
	factory DriverFactory

	mu     sync.RWMutex
	slots  []*SensorSlot
	byID   map[string]*SensorSlot
}

// New creates an empty Manager bound to factory.
func New(factory DriverFactory) *Manager {
	return &Manager{factory: factory, byID: make(map[string]*SensorSlot)}
}

// Slots returns a snapshot of the current slot pointers in index order.
// The tick reads through this slice without holding the structural lock
// beyond the copy.
func (m *Manager) Slots() []*SensorSlot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*SensorSlot, len(m.slots))
	copy(out, m.slots)
	return out
}

// Get returns the slot for id, or nil if absent.
func (m *Manager) Get(id string) *SensorSlot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[id]
}

// Configure diffs cfgs against the current slot set (spec §4.2): starts
// fresh drivers for new ids, restarts retained ids whose driver-key
// fields changed, stops drivers for removed ids, then re-packs indices
// 0..N-1 in the order of cfgs.
func (m *Manager) Configure(cfgs []hubconfig.SensorConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	newByID := make(map[string]*SensorSlot, len(cfgs))
	newSlots := make([]*SensorSlot, 0, len(cfgs))

	for _, c := range cfgs {
		existing := m.byID[c.ID]
		if existing == nil {
			slot, err := m.newSlotFromConfig(c)
			if err != nil {
				obslog.L.Warn("slotmgr: create slot failed", "id", c.ID, "err", err)
				continue
			}
			if c.Enabled {
				m.startSlot(slot)
			}
			newByID[c.ID] = slot
			newSlots = append(newSlots, slot)
			continue
		}

		oldKey := existing.driverKey()
		applyConfigFields(existing, c)
		newKey := existing.driverKey()

		switch {
		case oldKey != newKey:
			m.stopSlot(existing)
			if c.Enabled {
				m.startSlot(existing)
			}
		case c.Enabled && !existing.Started():
			m.startSlot(existing)
		case !c.Enabled && existing.Started():
			m.stopSlot(existing)
		}
		existing.Enabled = c.Enabled
		newByID[c.ID] = existing
		newSlots = append(newSlots, existing)
	}

	for id, old := range m.byID {
		if _, kept := newByID[id]; !kept {
			m.stopSlot(old)
		}
	}

	for i, slot := range newSlots {
		slot.Index = uint8(i)
	}

	m.slots = newSlots
	m.byID = newByID
	return nil
}

func (m *Manager) newSlotFromConfig(c hubconfig.SensorConfig) (*SensorSlot, error) {
	drv, err := m.factory(c)
	if err != nil {
		return nil, fmt.Errorf("slotmgr: no driver for type %q: %w", c.Type, err)
	}
	slot := &SensorSlot{
		ID:      c.ID,
		Enabled: c.Enabled,
		noise:   hubconfig.DefaultNoiseModel(),
		driver:  drv,
	}
	applyConfigFields(slot, c)
	drv.Subscribe(slot.onScan)
	return slot, nil
}

func applyConfigFields(s *SensorSlot, c hubconfig.SensorConfig) {
	host, port, err := hubconfig.ParseEndpoint(c.Endpoint)
	if err != nil {
		host, port = c.Endpoint, 0
	}
	s.Host = host
	s.Port = port
	s.Type = c.Type
	s.Mode = device.Mode(c.Mode)
	s.SkipStep = c.SkipStep
	s.IgnoreChecksumError = c.IgnoreChecksumError
	s.Pose = geom.Pose{TX: c.Pose.TX, TY: c.Pose.TY, ThetaDeg: c.Pose.ThetaDeg}

	angle := geom.AngleMask{MinDeg: c.Mask.Angle.MinDeg, MaxDeg: c.Mask.Angle.MaxDeg}
	if angle == (geom.AngleMask{}) {
		angle = geom.DefaultAngleMask()
	}
	s.AngleMask = angle.Normalize()

	rng := geom.RangeMask{NearM: c.Mask.Range.NearM, FarM: c.Mask.Range.FarM}
	if rng == (geom.RangeMask{}) {
		rng = geom.DefaultRangeMask()
	}
	s.RangeMask = rng.Normalize()
}

func (m *Manager) startSlot(s *SensorSlot) {
	ok := s.driver.Start(device.Params{
		Host: s.Host, Port: s.Port, Mode: s.Mode, SkipStep: s.SkipStep,
		IgnoreChecksumError: s.IgnoreChecksumError,
	})
	s.mu.Lock()
	s.started = ok
	s.mu.Unlock()
	if !ok {
		obslog.L.Warn("slotmgr: driver start failed, slot left idle", "id", s.ID)
	}
}

func (m *Manager) stopSlot(s *SensorSlot) {
	s.driver.Stop()
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
}

// SetEnabled toggles a slot's started state via driver start/stop (spec
// §4.2 apply_patch "enabled|on").
func (m *Manager) SetEnabled(id string, on bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.byID[id]
	if s == nil {
		return false, fmt.Errorf("slotmgr: unknown sensor id %q", id)
	}
	if on && !s.Started() {
		m.startSlot(s)
	} else if !on && s.Started() {
		m.stopSlot(s)
	}
	s.Enabled = on
	return true, nil
}

// SetPose mutates a slot's pose without requiring a restart.
func (m *Manager) SetPose(id string, tx, ty, thetaDeg float64) (bool, error) {
	m.mu.RLock()
	s := m.byID[id]
	m.mu.RUnlock()
	if s == nil {
		return false, fmt.Errorf("slotmgr: unknown sensor id %q", id)
	}
	s.Pose = geom.Pose{TX: tx, TY: ty, ThetaDeg: thetaDeg}
	return true, nil
}

// SetMask mutates a slot's local mask, normalizing per spec §4.2.
func (m *Manager) SetMask(id string, angle geom.AngleMask, rng geom.RangeMask) (bool, error) {
	m.mu.RLock()
	s := m.byID[id]
	m.mu.RUnlock()
	if s == nil {
		return false, fmt.Errorf("slotmgr: unknown sensor id %q", id)
	}
	s.AngleMask = angle.Normalize()
	s.RangeMask = rng.Normalize()
	return true, nil
}

// Restart stops and restarts a slot's driver with its current
// parameters.
func (m *Manager) Restart(id string) (bool, error) {
	m.mu.RLock()
	s := m.byID[id]
	m.mu.RUnlock()
	if s == nil {
		return false, fmt.Errorf("slotmgr: unknown sensor id %q", id)
	}
	m.stopSlot(s)
	if s.Enabled {
		m.startSlot(s)
	}
	return true, nil
}

// SlotView is the JSON-facing projection of a SensorSlot for REST/WS
// responses (spec §6.3/§6.4).
type SlotView struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Index    uint8   `json:"index"`
	Enabled  bool    `json:"enabled"`
	Started  bool    `json:"started"`
	Host     string  `json:"host"`
	Port     int     `json:"port"`
	Mode     string  `json:"mode"`
	SkipStep int     `json:"skip_step"`
	TX       float64 `json:"tx"`
	TY       float64 `json:"ty"`
	ThetaDeg float64 `json:"theta_deg"`
	MaskAngleMinDeg float64 `json:"mask_angle_min_deg"`
	MaskAngleMaxDeg float64 `json:"mask_angle_max_deg"`
	MaskRangeNearM  float64 `json:"mask_range_near_m"`
	MaskRangeFarM   float64 `json:"mask_range_far_m"`
}

func viewOf(s *SensorSlot) SlotView {
	return SlotView{
		ID: s.ID, Type: s.Type, Index: s.Index, Enabled: s.Enabled, Started: s.Started(),
		Host: s.Host, Port: s.Port, Mode: string(s.Mode), SkipStep: s.SkipStep,
		TX: s.Pose.TX, TY: s.Pose.TY, ThetaDeg: s.Pose.ThetaDeg,
		MaskAngleMinDeg: s.AngleMask.MinDeg, MaskAngleMaxDeg: s.AngleMask.MaxDeg,
		MaskRangeNearM: s.RangeMask.NearM, MaskRangeFarM: s.RangeMask.FarM,
	}
}

// Snapshot returns every slot's view sorted by numeric index (spec
// §4.2 snapshot_json()).
func (m *Manager) Snapshot() []SlotView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	views := make([]SlotView, len(m.slots))
	for i, s := range m.slots {
		views[i] = viewOf(s)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Index < views[j].Index })
	return views
}

// View returns the single-slot view for id (spec §4.2 get_json(id)).
func (m *Manager) View(id string) (SlotView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.byID[id]
	if s == nil {
		return SlotView{}, false
	}
	return viewOf(s), true
}
