// Package oscsink implements the "osc" sink variant (spec §4.8),
// grounded on original_source/src/io/osc_publisher.cpp: "osc://host:port/path"
// URL parsing, the per-cluster message shape (int32 id, int64 t_ns,
// int32 seq, 6 float32 geometry fields, int32 n), and the
// rate-limit/enabled lifecycle —
// translated from a hand-rolled big-endian binary encoder and a raw UDP
// socket into github.com/hypebeast/go-osc's Message/Bundle/Client types.
package oscsink

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/obslog"
	"github.com/anno-git/hokuyohub/internal/pipeline"
	"github.com/anno-git/hokuyohub/internal/publish"
)

// bundleHeaderBytes is the "#bundle\0" tag plus an 8-byte NTP timetag.
const bundleHeaderBytes = 16

const defaultPath = "/hokuyohub/cluster"
const defaultPort = 7000

type Sink struct {
	host         string
	port         int
	path         string
	url          string
	inBundle     bool
	fragmentSize int
	limiter      *publish.RateLimiter
	client       *osc.Client
	enabled      bool
}

func New() *Sink { return &Sink{} }

func (s *Sink) Start(cfg hubconfig.SinkConfig) error {
	if err := hubconfig.ValidateSink(cfg); err != nil {
		return err
	}

	raw := strings.TrimPrefix(cfg.URL, "osc://")
	hostPort, path := raw, defaultPath
	if slash := strings.IndexByte(raw, '/'); slash >= 0 {
		hostPort, path = raw[:slash], raw[slash:]
	}

	host, port := hostPort, defaultPort
	if h, p, err := net.SplitHostPort(hostPort); err == nil {
		host = h
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}

	s.host, s.port, s.path, s.url = host, port, path, cfg.URL
	s.inBundle = cfg.InBundle
	s.fragmentSize = cfg.BundleFragmentSize
	s.limiter = publish.NewRateLimiter(cfg.RateLimit)
	s.client = osc.NewClient(host, port)
	s.enabled = true
	return nil
}

func (s *Sink) Publish(tNs int64, seq uint32, items []pipeline.Cluster) {
	if !s.enabled || !s.limiter.Allow(time.Now()) || len(items) == 0 {
		return
	}
	msgs := make([]*osc.Message, len(items))
	for i, c := range items {
		msgs[i] = s.encodeMessage(tNs, seq, c)
	}
	if s.inBundle {
		s.sendBundled(tNs, msgs)
		return
	}
	for _, m := range msgs {
		if err := s.client.Send(m); err != nil {
			obslog.L.Error("oscsink: send failed", "url", s.url, "err", err)
		}
	}
}

// encodeMessage builds one OSC message with the type tag string
// ",ihiffffffi": id (int32), t_ns (int64), seq (int32), six float32
// geometry fields, n (int32).
func (s *Sink) encodeMessage(tNs int64, seq uint32, c pipeline.Cluster) *osc.Message {
	msg := osc.NewMessage(s.path)
	msg.Append(int32(c.ID))
	msg.Append(tNs)
	msg.Append(int32(seq))
	msg.Append(c.CX)
	msg.Append(c.CY)
	msg.Append(c.MinX)
	msg.Append(c.MinY)
	msg.Append(c.MaxX)
	msg.Append(c.MaxY)
	msg.Append(int32(c.Count))
	return msg
}

// sendBundled groups messages into bundles carrying an NTP timetag
// derived from the frame timestamp, fragmenting so the accumulated size
// (a 16-byte bundle header plus 4+len(message) per element) stays under
// bundle_fragment_size; a fragment size of 0 means one bundle per frame
// regardless of size.
func (s *Sink) sendBundled(tNs int64, msgs []*osc.Message) {
	frameTime := time.Unix(0, tNs)

	var current *osc.Bundle
	size := 0
	flush := func() {
		if current == nil {
			return
		}
		if err := s.client.Send(current); err != nil {
			obslog.L.Error("oscsink: bundle send failed", "url", s.url, "err", err)
		}
		current, size = nil, 0
	}

	for _, m := range msgs {
		raw, err := m.MarshalBinary()
		if err != nil {
			obslog.L.Error("oscsink: marshal failed", "url", s.url, "err", err)
			continue
		}
		elementSize := 4 + len(raw)

		if current == nil {
			current = osc.NewBundle(frameTime)
			size = bundleHeaderBytes
		} else if s.fragmentSize > 0 && size+elementSize > s.fragmentSize {
			flush()
			current = osc.NewBundle(frameTime)
			size = bundleHeaderBytes
		}
		current.Append(m)
		size += elementSize
	}
	flush()
}

func (s *Sink) Stop()         { s.enabled = false }
func (s *Sink) Enabled() bool { return s.enabled }
func (s *Sink) Type() string  { return hubconfig.SinkTypeOSC }
func (s *Sink) URL() string   { return s.url }
