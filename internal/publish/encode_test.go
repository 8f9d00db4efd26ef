package publish

import (
	"encoding/json"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/anno-git/hokuyohub/internal/pipeline"
)

func TestEncodeJSONShape(t *testing.T) {
	clusters := []pipeline.Cluster{{ID: 1, CX: 0.5, CY: 1.5, MinX: 0, MinY: 1, MaxX: 1, MaxY: 2, Count: 4}}
	raw, err := EncodeJSON(1000, 7, clusters)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["v"].(float64) != 1 || decoded["seq"].(float64) != 7 || decoded["raw"].(bool) != false {
		t.Fatalf("unexpected envelope: %+v", decoded)
	}
	items := decoded["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	first := items[0].(map[string]any)
	if first["n"].(float64) != 4 {
		t.Errorf("expected n=4, got %v", first["n"])
	}
}

func TestEncodeMsgpackRoundTrips(t *testing.T) {
	clusters := []pipeline.Cluster{{ID: 2, CX: 1, CY: 2, Count: 9}}
	raw, err := EncodeMsgpack(42, 3, clusters)
	if err != nil {
		t.Fatalf("EncodeMsgpack: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected non-empty payload")
	}
	var decoded batch
	if err := msgpack.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.V != 1 || decoded.Seq != 3 || decoded.TNs != 42 || len(decoded.Items) != 1 {
		t.Fatalf("unexpected envelope: %+v", decoded)
	}
	if got := decoded.Items[0]; got.ID != 2 || got.CX != 1 || got.CY != 2 || got.N != 9 {
		t.Errorf("unexpected item: %+v", got)
	}
}
