// Package publish implements the fan-out sink publisher set (spec
// §4.8), grounded on original_source/src/io/publisher_manager.h's
// ISinkPublisher/PublisherManager: a small start/publish/stop capability
// set per sink, rebuilt atomically on reconfiguration.
package publish

import (
	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/pipeline"
)

// Sink is one configured publisher, the Go analogue of ISinkPublisher.
type Sink interface {
	Start(cfg hubconfig.SinkConfig) error
	Publish(tNs int64, seq uint32, items []pipeline.Cluster)
	Stop()
	Enabled() bool
	Type() string
	URL() string
}

// SinkFactory builds a concrete Sink for one SinkConfig's type tag.
type SinkFactory func(cfg hubconfig.SinkConfig) (Sink, error)
