package publish

import (
	"fmt"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

// NewSinkFactory returns a SinkFactory dispatching on a SinkConfig's type
// tag, the Go analogue of the source's NngSinkPublisher/OscSinkPublisher
// pair behind ISinkPublisher.
func NewSinkFactory(nng func() Sink, osc func() Sink) SinkFactory {
	return func(cfg hubconfig.SinkConfig) (Sink, error) {
		switch cfg.Type {
		case hubconfig.SinkTypeNNG:
			return nng(), nil
		case hubconfig.SinkTypeOSC:
			return osc(), nil
		default:
			return nil, fmt.Errorf("publish: unknown sink type %q", cfg.Type)
		}
	}
}
