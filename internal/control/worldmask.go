package control

import "github.com/anno-git/hokuyohub/internal/hubconfig"

// GetWorldMask returns the current world-mask configuration.
func (a *Adapter) GetWorldMask() hubconfig.WorldMaskConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.WorldMask
}

// PutWorldMask replaces the world mask, rebuilds the geometry gate used
// by Process, and broadcasts world.updated (spec §6.4 world.update).
func (a *Adapter) PutWorldMask(cfg hubconfig.WorldMaskConfig) error {
	for i, p := range cfg.Include {
		if len(p) < 3 {
			return &polygonSizeError{kind: "include", index: i}
		}
	}
	for i, p := range cfg.Exclude {
		if len(p) < 3 {
			return &polygonSizeError{kind: "exclude", index: i}
		}
	}

	a.mu.Lock()
	a.cfg.WorldMask = cfg
	a.mu.Unlock()

	a.rebuildWorldMask()
	a.broadcastWorldMask()
	return nil
}

type polygonSizeError struct {
	kind  string
	index int
}

func (e *polygonSizeError) Error() string {
	return "control: world_mask." + e.kind + " polygon needs >= 3 vertices"
}
