// messages.go implements the spec §6.4 client command catalog: each
// type maps to the same internal/control.Adapter call REST uses, with
// the ok/error envelope required of §6.4's "each client message is
// answered" rule. Grounded on original_source/src/io/ws_handlers.cpp's
// type-switch dispatch, generalized from its partial sink/sensor-add
// stubs into full implementations per SPEC_FULL.md's open question
// decision.
package wsapi

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/obslog"
)

// inboundMessage covers every field any recognized client message type
// uses; unused fields are simply absent in a given message's JSON.
type inboundMessage struct {
	Type    string          `json:"type"`
	Ref     string          `json:"ref,omitempty"`
	ID      string          `json:"id,omitempty"`
	Enabled *bool           `json:"enabled,omitempty"`
	Patch   json.RawMessage `json:"patch,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
	Sink    json.RawMessage `json:"sink,omitempty"`
	Sensor  json.RawMessage `json:"sensor,omitempty"`
	Index   *int            `json:"index,omitempty"`
}

type okEnvelope struct {
	Type string `json:"type"`
	Ref  string `json:"ref"`
	Data any    `json:"data,omitempty"`
}

type errorEnvelope struct {
	Type    string `json:"type"`
	Ref     string `json:"ref"`
	Message string `json:"message"`
}

// worldMaskPatch mirrors the client-facing {world_mask:{includes,excludes}}
// shape of spec §6.4, distinct from hubconfig.WorldMaskConfig's
// include/exclude YAML naming.
type worldMaskPatch struct {
	WorldMask struct {
		Includes [][][2]float64 `json:"includes"`
		Excludes [][][2]float64 `json:"excludes"`
	} `json:"world_mask"`
}

// dispatch decodes one client message, runs it against the adapter, and
// returns the encoded ok/error reply. Data that is not valid JSON gets an
// error reply with an empty ref; nil is returned only if the reply itself
// cannot be encoded.
func (s *Server) dispatch(data []byte) []byte {
	var in inboundMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return encode(errorEnvelope{Type: "error", Ref: "", Message: "invalid json: " + err.Error()})
	}
	ref := in.Ref
	if ref == "" {
		ref = uuid.NewString()
	}

	result, err := s.handle(in)
	if err != nil {
		return encode(errorEnvelope{Type: "error", Ref: ref, Message: err.Error()})
	}
	return encode(okEnvelope{Type: "ok", Ref: ref, Data: result})
}

func (s *Server) handle(in inboundMessage) (any, error) {
	switch in.Type {
	case "sensor.requestSnapshot":
		return s.adapter.Snapshot(), nil

	case "sensor.enable":
		if in.Enabled == nil {
			return nil, errMissingField("enabled")
		}
		return s.adapter.PatchSensor(in.ID, map[string]any{"enabled": *in.Enabled})

	case "sensor.update":
		var patch map[string]any
		if err := decodeField(in.Patch, &patch); err != nil {
			return nil, err
		}
		return s.adapter.PatchSensor(in.ID, patch)

	case "sensor.add":
		var cfg hubconfig.SensorConfig
		if err := decodeField(in.Sensor, &cfg); err != nil {
			return nil, err
		}
		return s.adapter.AddSensor(cfg)

	case "filter.requestConfig":
		return s.adapter.GetFilters(), nil

	case "filter.update":
		var payload struct {
			Prefilter  *hubconfig.PrefilterConfig  `json:"prefilter"`
			Postfilter *hubconfig.PostfilterConfig `json:"postfilter"`
		}
		if err := decodeField(in.Config, &payload); err != nil {
			return nil, err
		}
		if payload.Prefilter != nil {
			s.adapter.PutPrefilter(*payload.Prefilter)
		}
		if payload.Postfilter != nil {
			s.adapter.PutPostfilter(*payload.Postfilter)
		}
		return s.adapter.GetFilters(), nil

	case "dbscan.requestConfig":
		return s.adapter.GetDBSCAN(), nil

	case "dbscan.update":
		var cfg hubconfig.DBSCANConfig
		if err := decodeField(in.Config, &cfg); err != nil {
			return nil, err
		}
		if err := s.adapter.PutDBSCAN(cfg); err != nil {
			return nil, err
		}
		return cfg, nil

	case "sink.add":
		var cfg hubconfig.SinkConfig
		if err := decodeField(in.Sink, &cfg); err != nil {
			return nil, err
		}
		return s.adapter.AddSink(cfg)

	case "sink.update":
		if in.Index == nil {
			return nil, errMissingField("index")
		}
		var patch map[string]any
		if err := decodeField(in.Patch, &patch); err != nil {
			return nil, err
		}
		return s.adapter.PatchSink(*in.Index, patch)

	case "sink.delete":
		if in.Index == nil {
			return nil, errMissingField("index")
		}
		return nil, s.adapter.DeleteSink(*in.Index)

	case "world.update":
		var p worldMaskPatch
		if err := decodeField(in.Patch, &p); err != nil {
			return nil, err
		}
		cfg := hubconfig.WorldMaskConfig{Include: p.WorldMask.Includes, Exclude: p.WorldMask.Excludes}
		if err := s.adapter.PutWorldMask(cfg); err != nil {
			return nil, err
		}
		return cfg, nil

	default:
		return nil, errUnknownType(in.Type)
	}
}

func decodeField(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func encode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		obslog.L.Error("wsapi: marshal reply", "error", err)
		return nil
	}
	return data
}

type wsError string

func (e wsError) Error() string { return string(e) }

func errMissingField(name string) error { return wsError("wsapi: missing field " + name) }
func errUnknownType(t string) error     { return wsError("wsapi: unrecognized message type " + t) }
