package publish

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/anno-git/hokuyohub/internal/pipeline"
)

// item is one cluster's wire representation, shared by both encodings
// (spec §4.8's carrier-agnostic batch shape).
type item struct {
	ID   int     `json:"id" msgpack:"id"`
	CX   float32 `json:"cx" msgpack:"cx"`
	CY   float32 `json:"cy" msgpack:"cy"`
	MinX float32 `json:"minx" msgpack:"minx"`
	MinY float32 `json:"miny" msgpack:"miny"`
	MaxX float32 `json:"maxx" msgpack:"maxx"`
	MaxY float32 `json:"maxy" msgpack:"maxy"`
	N    int     `json:"n" msgpack:"n"`
}

// batch is the {v,seq,t_ns,raw,items} envelope.
type batch struct {
	V    int    `json:"v" msgpack:"v"`
	Seq  uint32 `json:"seq" msgpack:"seq"`
	TNs  int64  `json:"t_ns" msgpack:"t_ns"`
	Raw  bool   `json:"raw" msgpack:"raw"`
	Items []item `json:"items" msgpack:"items"`
}

func toBatch(tNs int64, seq uint32, clusters []pipeline.Cluster) batch {
	items := make([]item, len(clusters))
	for i, c := range clusters {
		items[i] = item{ID: c.ID, CX: c.CX, CY: c.CY, MinX: c.MinX, MinY: c.MinY, MaxX: c.MaxX, MaxY: c.MaxY, N: c.Count}
	}
	return batch{V: 1, Seq: seq, TNs: tNs, Raw: false, Items: items}
}

// EncodeJSON serializes a cluster batch to JSON.
func EncodeJSON(tNs int64, seq uint32, clusters []pipeline.Cluster) ([]byte, error) {
	return json.Marshal(toBatch(tNs, seq, clusters))
}

// EncodeMsgpack serializes a cluster batch to MessagePack.
func EncodeMsgpack(tNs int64, seq uint32, clusters []pipeline.Cluster) ([]byte, error) {
	return msgpack.Marshal(toBatch(tNs, seq, clusters))
}
