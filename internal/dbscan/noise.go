package dbscan

import "github.com/anno-git/hokuyohub/internal/hubconfig"

// Models is a per-slot-index lookup of sensor noise models, keyed by the
// sensor id a point's SID carries. An id with no entry falls back to the
// entry for id 0, mirroring DBSCAN2D's sensor_models_[0] fallback, and to
// the default model when id 0 has no entry either.
type Models map[uint8]hubconfig.NoiseModel

func (m Models) lookup(sid uint8) hubconfig.NoiseModel {
	if model, ok := m[sid]; ok {
		return model
	}
	if model, ok := m[0]; ok {
		return model
	}
	return hubconfig.DefaultNoiseModel()
}
