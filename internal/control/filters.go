package control

import "github.com/anno-git/hokuyohub/internal/hubconfig"

// GetPrefilter returns the current prefilter configuration (spec §6.3
// GET /filters/prefilter).
func (a *Adapter) GetPrefilter() hubconfig.PrefilterConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Prefilter
}

// PutPrefilter replaces the prefilter configuration wholesale, recreates
// the filter chain, and broadcasts the update (spec §6.3 PUT
// /filters/prefilter, spec §4.9 "recreate filter objects").
func (a *Adapter) PutPrefilter(cfg hubconfig.PrefilterConfig) {
	a.mu.Lock()
	a.cfg.Prefilter = cfg
	a.mu.Unlock()

	a.rebuildPrefilter()
	a.broadcastPrefilter("filter.updated")
	a.broadcastPrefilter("filter.config")
}

// GetPostfilter returns the current postfilter configuration (spec §6.3
// GET /filters/postfilter).
func (a *Adapter) GetPostfilter() hubconfig.PostfilterConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Postfilter
}

// PutPostfilter replaces the postfilter configuration, recreates the
// postfilter, and broadcasts the update (spec §6.3 PUT /filters/postfilter).
func (a *Adapter) PutPostfilter(cfg hubconfig.PostfilterConfig) {
	a.mu.Lock()
	a.cfg.Postfilter = cfg
	a.mu.Unlock()

	a.rebuildPostfilter()
	a.broadcastPostfilter("filter.updated")
}

// FiltersView is the spec §6.3 GET /filters aggregate.
type FiltersView struct {
	Prefilter  hubconfig.PrefilterConfig  `json:"prefilter"`
	Postfilter hubconfig.PostfilterConfig `json:"postfilter"`
}

// GetFilters returns both filter configs together (spec §6.3 GET /filters).
func (a *Adapter) GetFilters() FiltersView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return FiltersView{Prefilter: a.cfg.Prefilter, Postfilter: a.cfg.Postfilter}
}
