package control

import (
	"fmt"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

// SinkView is the index-addressed projection of one configured sink
// (spec §6.3 GET/PATCH/DELETE /sinks/{index}).
type SinkView struct {
	Index int `json:"index"`
	hubconfig.SinkConfig
}

// ListSinks returns every configured sink with its positional index.
func (a *Adapter) ListSinks() []SinkView {
	a.mu.Lock()
	defer a.mu.Unlock()
	views := make([]SinkView, len(a.cfg.Sinks))
	for i, c := range a.cfg.Sinks {
		views[i] = SinkView{Index: i, SinkConfig: c}
	}
	return views
}

// AddSink validates and appends a sink, then atomically rebuilds the
// publisher set (spec §4.8 reconfiguration semantics, §6.3 POST /sinks).
func (a *Adapter) AddSink(c hubconfig.SinkConfig) (SinkView, error) {
	if err := hubconfig.ValidateSink(c); err != nil {
		return SinkView{}, err
	}

	a.mu.Lock()
	a.cfg.Sinks = append(a.cfg.Sinks, c)
	index := len(a.cfg.Sinks) - 1
	sinks := append([]hubconfig.SinkConfig(nil), a.cfg.Sinks...)
	a.mu.Unlock()

	a.publishers.Configure(sinks)
	a.broadcastSnapshot()
	return SinkView{Index: index, SinkConfig: c}, nil
}

// PatchSink merges patch fields onto the sink at index, validates the
// result, and rebuilds the publisher set.
func (a *Adapter) PatchSink(index int, patch map[string]any) (SinkView, error) {
	a.mu.Lock()
	if index < 0 || index >= len(a.cfg.Sinks) {
		a.mu.Unlock()
		return SinkView{}, fmt.Errorf("control: sink index %d out of range", index)
	}
	merged := a.cfg.Sinks[index]
	applySinkPatch(&merged, patch)
	if err := hubconfig.ValidateSink(merged); err != nil {
		a.mu.Unlock()
		return SinkView{}, err
	}
	a.cfg.Sinks[index] = merged
	sinks := append([]hubconfig.SinkConfig(nil), a.cfg.Sinks...)
	a.mu.Unlock()

	a.publishers.Configure(sinks)
	a.broadcastSnapshot()
	return SinkView{Index: index, SinkConfig: merged}, nil
}

// DeleteSink removes the sink at index and rebuilds the publisher set.
func (a *Adapter) DeleteSink(index int) error {
	a.mu.Lock()
	if index < 0 || index >= len(a.cfg.Sinks) {
		a.mu.Unlock()
		return fmt.Errorf("control: sink index %d out of range", index)
	}
	a.cfg.Sinks = append(a.cfg.Sinks[:index], a.cfg.Sinks[index+1:]...)
	sinks := append([]hubconfig.SinkConfig(nil), a.cfg.Sinks...)
	a.mu.Unlock()

	a.publishers.Configure(sinks)
	a.broadcastSnapshot()
	return nil
}

func applySinkPatch(c *hubconfig.SinkConfig, patch map[string]any) {
	if v, ok := patch["url"].(string); ok {
		c.URL = v
	}
	if v, ok := patch["encoding"].(string); ok {
		c.Encoding = v
	}
	if v, ok := patch["topic"].(string); ok {
		c.Topic = v
	}
	if v, ok := patch["rate_limit"].(float64); ok {
		c.RateLimit = v
	}
	if v, ok := patch["in_bundle"].(bool); ok {
		c.InBundle = v
	}
	if v, ok := patch["bundle_fragment_size"].(float64); ok {
		c.BundleFragmentSize = int(v)
	}
}
