// Package nngsink implements the "nng" sink variant (spec §4.8) over a
// pure-Go nanomsg PUB socket, grounded on
// original_source/src/io/nng_bus.h's NngBus shape (url/encoding/
// rate_limit fields, startPublisher/publishClusters/stop) — the
// original's body is a TODO stub ("MessagePack でシリアライズして
// nng_send"); this fills that stub in with mangos/v3's pub/tcp
// transport and the publish package's batch encoders.
package nngsink

import (
	"fmt"
	"time"

	"github.com/mangos/mangos/v3"
	"github.com/mangos/mangos/v3/protocol/pub"
	"github.com/mangos/mangos/v3/transport/tcp"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/obslog"
	"github.com/anno-git/hokuyohub/internal/pipeline"
	"github.com/anno-git/hokuyohub/internal/publish"
)

// Sink is the nng (nanomsg PUB/SUB) publisher.
type Sink struct {
	url      string
	encoding string
	topic    string
	limiter  *publish.RateLimiter
	sock     mangos.Socket
	enabled  bool
}

func New() *Sink { return &Sink{} }

func (s *Sink) Start(cfg hubconfig.SinkConfig) error {
	if err := hubconfig.ValidateSink(cfg); err != nil {
		return err
	}
	sock, err := pub.NewSocket()
	if err != nil {
		return fmt.Errorf("nngsink: new socket: %w", err)
	}
	sock.AddTransport(tcp.NewTransport())
	if err := sock.Listen(cfg.URL); err != nil {
		sock.Close()
		return fmt.Errorf("nngsink: listen %s: %w", cfg.URL, err)
	}

	s.url = cfg.URL
	s.encoding = cfg.Encoding
	if s.encoding == "" {
		s.encoding = hubconfig.SinkEncodingMsgpack
	}
	s.topic = cfg.Topic
	s.limiter = publish.NewRateLimiter(cfg.RateLimit)
	s.sock = sock
	s.enabled = true
	return nil
}

func (s *Sink) Publish(tNs int64, seq uint32, items []pipeline.Cluster) {
	if !s.enabled || !s.limiter.Allow(time.Now()) {
		return
	}
	var (
		payload []byte
		err     error
	)
	if s.encoding == hubconfig.SinkEncodingJSON {
		payload, err = publish.EncodeJSON(tNs, seq, items)
	} else {
		payload, err = publish.EncodeMsgpack(tNs, seq, items)
	}
	if err != nil {
		obslog.L.Error("nngsink: encode failed", "url", s.url, "err", err)
		return
	}
	if s.topic != "" {
		payload = append([]byte(s.topic+"\x00"), payload...)
	}
	if err := s.sock.Send(payload); err != nil {
		obslog.L.Error("nngsink: send failed", "url", s.url, "err", err)
	}
}

func (s *Sink) Stop() {
	if s.sock != nil {
		s.sock.Close()
	}
	s.enabled = false
}

func (s *Sink) Enabled() bool { return s.enabled }
func (s *Sink) Type() string  { return hubconfig.SinkTypeNNG }
func (s *Sink) URL() string   { return s.url }
