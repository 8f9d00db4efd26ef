package slotmgr

import (
	"fmt"

	"github.com/anno-git/hokuyohub/internal/device"
	"github.com/anno-git/hokuyohub/internal/geom"
	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

// ApplyPatch performs the fine-grained mutation of one slot described in
// spec §4.2. patch is a decoded JSON object; recognized keys are applied
// in the order listed there. A validation error leaves the slot
// unchanged and returns (false, err); an unrecognized key is ignored
// (forwards-compatible with future patch fields).
func (m *Manager) ApplyPatch(id string, patch map[string]any) (bool, error) {
	m.mu.RLock()
	s := m.byID[id]
	m.mu.RUnlock()
	if s == nil {
		return false, fmt.Errorf("slotmgr: unknown sensor id %q", id)
	}

	needsRestart := false

	if v, ok := firstOf(patch, "enabled", "on"); ok {
		on, ok := v.(bool)
		if !ok {
			return false, fmt.Errorf("enabled/on must be a boolean")
		}
		if _, err := m.SetEnabled(id, on); err != nil {
			return false, err
		}
	}

	if tx, ty, theta, ok := extractPose(patch); ok {
		s.Pose = geom.Pose{TX: tx, TY: ty, ThetaDeg: theta}
	}

	if angle, rng, ok := extractMask(patch); ok {
		s.AngleMask = angle.Normalize()
		s.RangeMask = rng.Normalize()
	}

	if v, ok := patch["endpoint"]; ok {
		host, port, err := decodeEndpoint(v)
		if err != nil {
			return false, err
		}
		s.Host, s.Port = host, port
		needsRestart = true
	}

	if v, ok := patch["mode"]; ok {
		modeStr, ok := v.(string)
		if !ok || (modeStr != hubconfig.ModeRangeOnly && modeStr != hubconfig.ModeRangeIntensity) {
			return false, fmt.Errorf("mode must be one of %q, %q", hubconfig.ModeRangeOnly, hubconfig.ModeRangeIntensity)
		}
		mode := device.Mode(modeStr)
		if s.Started() {
			if !s.driver.ApplyMode(mode) {
				needsRestart = true
			}
		}
		s.Mode = mode
	}

	if v, ok := patch["skip_step"]; ok {
		n, err := asInt(v)
		if err != nil || n < 1 {
			return false, fmt.Errorf("skip_step must be an integer >= 1")
		}
		if s.Started() {
			if !s.driver.ApplySkipStep(n) {
				needsRestart = true
			}
		}
		s.SkipStep = n
	}

	if v, ok := patch["ignore_checksum_error"]; ok {
		b, err := asBool(v)
		if err != nil {
			return false, fmt.Errorf("ignore_checksum_error must be 0/1 or boolean")
		}
		s.IgnoreChecksumError = b
		needsRestart = true
	}

	if needsRestart && s.Started() {
		m.stopSlot(s)
		m.startSlot(s)
	}

	return true, nil
}

func firstOf(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func extractPose(patch map[string]any) (tx, ty, theta float64, ok bool) {
	if nested, has := patch["pose"].(map[string]any); has {
		tx, _ = asFloat(nested["tx"])
		ty, _ = asFloat(nested["ty"])
		theta, _ = asFloat(nested["theta_deg"])
		return tx, ty, theta, true
	}
	_, hasTX := patch["tx"]
	_, hasTY := patch["ty"]
	_, hasTheta := patch["theta_deg"]
	if !hasTX && !hasTY && !hasTheta {
		return 0, 0, 0, false
	}
	tx, _ = asFloat(patch["tx"])
	ty, _ = asFloat(patch["ty"])
	theta, _ = asFloat(patch["theta_deg"])
	return tx, ty, theta, true
}

func extractMask(patch map[string]any) (angle geom.AngleMask, rng geom.RangeMask, ok bool) {
	maskVal, has := patch["mask"].(map[string]any)
	if !has {
		return angle, rng, false
	}
	if a, has := maskVal["angle"].(map[string]any); has {
		angle.MinDeg, _ = asFloat(a["min_deg"])
		angle.MaxDeg, _ = asFloat(a["max_deg"])
	}
	if r, has := maskVal["range"].(map[string]any); has {
		rng.NearM, _ = asFloat(r["near_m"])
		rng.FarM, _ = asFloat(r["far_m"])
	}
	return angle, rng, true
}

func decodeEndpoint(v any) (host string, port int, err error) {
	switch t := v.(type) {
	case string:
		return hubconfig.ParseEndpoint(t)
	case map[string]any:
		h, _ := t["host"].(string)
		p, err := asInt(t["port"])
		if h == "" || err != nil {
			return "", 0, fmt.Errorf("endpoint object requires host (string) and port (number)")
		}
		return h, p, nil
	default:
		return "", 0, fmt.Errorf("endpoint must be a \"host:port\" string or {host,port} object")
	}
}

func asFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func asInt(v any) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	default:
		return 0, fmt.Errorf("expected a number")
	}
}

func asBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	default:
		return false, fmt.Errorf("expected 0/1 or boolean")
	}
}
