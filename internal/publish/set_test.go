package publish

import (
	"testing"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/pipeline"
)

type fakeSink struct {
	started  bool
	stopped  bool
	url      string
	typ      string
	published int
	panicOnPublish bool
}

func (f *fakeSink) Start(cfg hubconfig.SinkConfig) error {
	f.started = true
	f.url = cfg.URL
	f.typ = cfg.Type
	return nil
}
func (f *fakeSink) Publish(tNs int64, seq uint32, items []pipeline.Cluster) {
	if f.panicOnPublish {
		panic("boom")
	}
	f.published++
}
func (f *fakeSink) Stop()         { f.stopped = true }
func (f *fakeSink) Enabled() bool { return f.started && !f.stopped }
func (f *fakeSink) Type() string  { return f.typ }
func (f *fakeSink) URL() string   { return f.url }

func TestConfigureStopsOldSinksBeforeNewBecomeLive(t *testing.T) {
	var oldSink, newSink *fakeSink
	first := true
	factory := func(cfg hubconfig.SinkConfig) (Sink, error) {
		s := &fakeSink{}
		if first {
			oldSink = s
		} else {
			newSink = s
		}
		return s, nil
	}

	set := New(factory)
	set.Configure([]hubconfig.SinkConfig{{Type: "nng", URL: "tcp://a"}})
	first = false
	set.Configure([]hubconfig.SinkConfig{{Type: "nng", URL: "tcp://b"}})

	if !oldSink.stopped {
		t.Error("expected old sink to be stopped after reconfiguration")
	}
	if newSink == nil || !newSink.started {
		t.Fatal("expected new sink to be started")
	}
	if set.Count() != 1 {
		t.Errorf("expected 1 live sink, got %d", set.Count())
	}
}

func TestPublishRecoversFromPanickingSink(t *testing.T) {
	bad := &fakeSink{panicOnPublish: true}
	good := &fakeSink{}
	set := New(func(cfg hubconfig.SinkConfig) (Sink, error) { return bad, nil })
	set.Configure([]hubconfig.SinkConfig{{Type: "nng", URL: "tcp://x"}})
	// Swap in a second factory result by reconfiguring with two sinks via closures.
	i := 0
	sinks := []Sink{bad, good}
	set.factory = func(cfg hubconfig.SinkConfig) (Sink, error) {
		s := sinks[i]
		i++
		return s, nil
	}
	set.Configure([]hubconfig.SinkConfig{{Type: "nng", URL: "tcp://x"}, {Type: "nng", URL: "tcp://y"}})

	set.Publish(1, 1, nil)
	if good.published != 1 {
		t.Errorf("expected good sink to still be published to despite bad sink panicking, got %d", good.published)
	}
}
