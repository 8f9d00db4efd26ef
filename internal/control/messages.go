package control

import (
	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/pipeline"
	"github.com/anno-git/hokuyohub/internal/publish"
	"github.com/anno-git/hokuyohub/internal/slotmgr"
)

// liteFrameMessage is the wire shape shared by the spec §6.4 raw-lite
// and filtered-lite broadcasts: a frame's xy/sid arrays tagged with the
// stage that produced them.
type liteFrameMessage struct {
	Type string    `json:"type"`
	T    int64     `json:"t"`
	Seq  uint32    `json:"seq"`
	XY   []float32 `json:"xy"`
	SID  []uint8   `json:"sid"`
}

func rawLiteMessage(f pipeline.Frame) liteFrameMessage {
	return liteFrameMessage{Type: "raw-lite", T: f.TimestampNanos, Seq: f.Seq, XY: f.XY, SID: f.SID}
}

func filteredLiteMessage(f pipeline.Frame) liteFrameMessage {
	return liteFrameMessage{Type: "filtered-lite", T: f.TimestampNanos, Seq: f.Seq, XY: f.XY, SID: f.SID}
}

// clusterItem is one cluster's wire representation in the clusters-lite
// broadcast, which carries explicit count/sensor_mask fields instead of
// the sink batch's "n" (spec §6.4).
type clusterItem struct {
	ID         int     `json:"id"`
	CX         float32 `json:"cx"`
	CY         float32 `json:"cy"`
	MinX       float32 `json:"minx"`
	MinY       float32 `json:"miny"`
	MaxX       float32 `json:"maxx"`
	MaxY       float32 `json:"maxy"`
	Count      int     `json:"count"`
	SensorMask uint8   `json:"sensor_mask"`
}

type clustersLiteMessage struct {
	Type  string        `json:"type"`
	T     int64         `json:"t"`
	Seq   uint32        `json:"seq"`
	Items []clusterItem `json:"items"`
}

func clustersLiteMsg(tNs int64, seq uint32, clusters []pipeline.Cluster) clustersLiteMessage {
	items := make([]clusterItem, len(clusters))
	for i, c := range clusters {
		items[i] = clusterItem{ID: c.ID, CX: c.CX, CY: c.CY, MinX: c.MinX, MinY: c.MinY, MaxX: c.MaxX, MaxY: c.MaxY, Count: c.Count, SensorMask: c.SensorMask}
	}
	return clustersLiteMessage{Type: "clusters-lite", T: tNs, Seq: seq, Items: items}
}

// PublisherView is the snapshot-facing projection of one configured
// sink (spec §6.3 GET /snapshot "publishers").
type PublisherView struct {
	Type      string  `json:"type"`
	URL       string  `json:"url"`
	Topic     string  `json:"topic"`
	RateLimit float64 `json:"rate_limit"`
	Enabled   bool    `json:"enabled"`
}

func publisherViewsFrom(cfgs []hubconfig.SinkConfig, set *publish.Set) []PublisherView {
	views := make([]PublisherView, len(cfgs))
	for i, c := range cfgs {
		views[i] = PublisherView{Type: c.Type, URL: c.URL, Topic: c.Topic, RateLimit: c.RateLimit, Enabled: true}
	}
	_ = set
	return views
}

// WorldMaskView is the snapshot-facing summary of the world mask (spec
// §6.3 GET /snapshot "world-mask summary").
type WorldMaskView struct {
	IncludeCount int            `json:"include_count"`
	ExcludeCount int            `json:"exclude_count"`
	Include      [][][2]float64 `json:"include"`
	Exclude      [][][2]float64 `json:"exclude"`
}

func worldMaskView(cfg hubconfig.WorldMaskConfig) WorldMaskView {
	return WorldMaskView{
		IncludeCount: len(cfg.Include),
		ExcludeCount: len(cfg.Exclude),
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
}

// SnapshotView is the spec §6.3 GET /snapshot aggregate and the spec
// §6.4 sensor.snapshot broadcast payload.
type SnapshotView struct {
	Type       string                     `json:"type"`
	Sensors    []slotmgr.SlotView         `json:"sensors"`
	Prefilter  hubconfig.PrefilterConfig  `json:"prefilter"`
	Postfilter hubconfig.PostfilterConfig `json:"postfilter"`
	DBSCAN     hubconfig.DBSCANConfig     `json:"dbscan"`
	WorldMask  WorldMaskView              `json:"world_mask"`
	Publishers []PublisherView            `json:"publishers"`
	UIListen   string                     `json:"ui_listen"`
}

// snapshotLocked builds a SnapshotView from the current config and slot
// state. Callers must hold a.mu.
func (a *Adapter) snapshotLocked(msgType string) SnapshotView {
	return SnapshotView{
		Type:       msgType,
		Sensors:    a.slots.Snapshot(),
		Prefilter:  a.cfg.Prefilter,
		Postfilter: a.cfg.Postfilter,
		DBSCAN:     a.cfg.DBSCAN,
		WorldMask:  worldMaskView(a.cfg.WorldMask),
		Publishers: publisherViewsFrom(a.cfg.Sinks, a.publishers),
		UIListen:   a.cfg.UI.Listen,
	}
}

// Snapshot returns the spec §6.3 GET /snapshot aggregate.
func (a *Adapter) Snapshot() SnapshotView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked("snapshot")
}

// broadcastSnapshot pushes a full sensor.snapshot message to every live
// subscriber (spec §6.4, also sent on WS connect).
func (a *Adapter) broadcastSnapshot() {
	a.mu.Lock()
	snap := a.snapshotLocked("sensor.snapshot")
	a.mu.Unlock()
	a.broadcast.Broadcast(snap)
}

// sensorUpdatedMessage is the spec §6.4 sensor.updated broadcast.
type sensorUpdatedMessage struct {
	Type   string           `json:"type"`
	Sensor slotmgr.SlotView `json:"sensor"`
}

func (a *Adapter) broadcastSensorUpdated(view slotmgr.SlotView) {
	a.broadcast.Broadcast(sensorUpdatedMessage{Type: "sensor.updated", Sensor: view})
}

type prefilterMessage struct {
	Type   string                    `json:"type"`
	Config hubconfig.PrefilterConfig `json:"config"`
}

func (a *Adapter) broadcastPrefilter(msgType string) {
	a.mu.Lock()
	cfg := a.cfg.Prefilter
	a.mu.Unlock()
	a.broadcast.Broadcast(prefilterMessage{Type: msgType, Config: cfg})
}

type postfilterMessage struct {
	Type   string                     `json:"type"`
	Config hubconfig.PostfilterConfig `json:"config"`
}

func (a *Adapter) broadcastPostfilter(msgType string) {
	a.mu.Lock()
	cfg := a.cfg.Postfilter
	a.mu.Unlock()
	a.broadcast.Broadcast(postfilterMessage{Type: msgType, Config: cfg})
}

type dbscanMessage struct {
	Type   string                 `json:"type"`
	Config hubconfig.DBSCANConfig `json:"config"`
}

func (a *Adapter) broadcastDBSCAN(msgType string) {
	a.mu.Lock()
	cfg := a.cfg.DBSCAN
	a.mu.Unlock()
	a.broadcast.Broadcast(dbscanMessage{Type: msgType, Config: cfg})
}

type worldUpdatedMessage struct {
	Type      string        `json:"type"`
	WorldMask WorldMaskView `json:"world_mask"`
}

func (a *Adapter) broadcastWorldMask() {
	a.mu.Lock()
	view := worldMaskView(a.cfg.WorldMask)
	a.mu.Unlock()
	a.broadcast.Broadcast(worldUpdatedMessage{Type: "world.updated", WorldMask: view})
}
