package publish

import (
	"sync/atomic"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/obslog"
	"github.com/anno-git/hokuyohub/internal/pipeline"
)

// Set is the live, atomically-swappable vector of sink publishers
// (PublisherManager). Readers call Publish once per frame; writers call
// Configure on a control-adapter patch.
type Set struct {
	factory SinkFactory
	current atomic.Pointer[[]Sink]
}

func New(factory SinkFactory) *Set {
	s := &Set{factory: factory}
	empty := []Sink{}
	s.current.Store(&empty)
	return s
}

// Configure builds and starts a new sink vector from sinkCfgs, stops the
// previously-live sinks, then makes the new vector live. A sink whose
// Start fails is logged and dropped from the set rather than aborting
// the whole reconfiguration.
func (s *Set) Configure(sinkCfgs []hubconfig.SinkConfig) {
	next := make([]Sink, 0, len(sinkCfgs))
	for _, cfg := range sinkCfgs {
		sk, err := s.factory(cfg)
		if err != nil {
			obslog.L.Error("sink construction failed", "type", cfg.Type, "url", cfg.URL, "err", err)
			continue
		}
		if err := sk.Start(cfg); err != nil {
			obslog.L.Error("sink start failed", "type", cfg.Type, "url", cfg.URL, "err", err)
			continue
		}
		next = append(next, sk)
	}

	if old := s.current.Load(); old != nil {
		for _, sk := range *old {
			sk.Stop()
		}
	}
	s.current.Store(&next)
}

// Publish fans a cluster batch out to every currently-live sink,
// recovering from a panicking sink so one bad publisher never blocks
// the rest or the aggregation tick.
func (s *Set) Publish(tNs int64, seq uint32, items []pipeline.Cluster) {
	sinks := s.current.Load()
	if sinks == nil {
		return
	}
	for _, sk := range *sinks {
		publishOne(sk, tNs, seq, items)
	}
}

func publishOne(sk Sink, tNs int64, seq uint32, items []pipeline.Cluster) {
	defer func() {
		if r := recover(); r != nil {
			obslog.L.Error("sink publish panicked", "type", sk.Type(), "url", sk.URL(), "panic", r)
		}
	}()
	sk.Publish(tNs, seq, items)
}

// StopAll stops every live sink and empties the set.
func (s *Set) StopAll() {
	if old := s.current.Load(); old != nil {
		for _, sk := range *old {
			sk.Stop()
		}
	}
	empty := []Sink{}
	s.current.Store(&empty)
}

func (s *Set) Count() int {
	return len(*s.current.Load())
}

func (s *Set) EnabledCount() int {
	n := 0
	for _, sk := range *s.current.Load() {
		if sk.Enabled() {
			n++
		}
	}
	return n
}
