// Package control implements the configuration adapter of spec §4.9,
// grounded on original_source/src/core/filter_manager.{h,cpp}
// (FilterManager's serializing-lock JSON<->config conversion and
// recreate-on-update pattern) and src/main.cpp's literal per-frame
// pipeline wiring: prefilter -> world mask -> DBSCAN -> postfilter ->
// publish, with a raw/filtered/clusters broadcast at each hand-off
// point.
package control

import (
	"github.com/anno-git/hokuyohub/internal/dbscan"
	"github.com/anno-git/hokuyohub/internal/geom"
	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/obslog"
	"github.com/anno-git/hokuyohub/internal/pipeline"
	"github.com/anno-git/hokuyohub/internal/postfilter"
	"github.com/anno-git/hokuyohub/internal/prefilter"
	"github.com/anno-git/hokuyohub/internal/publish"
	"github.com/anno-git/hokuyohub/internal/slotmgr"

	"sync"
	"sync/atomic"
)

// Broadcaster fans a message out to every connected live-view
// subscriber (spec §6.4). internal/wsapi's hub implements this; nil is
// a valid, silent Broadcaster for callers that don't need it (tests,
// headless runs).
type Broadcaster interface {
	Broadcast(msg any)
}

type nullBroadcaster struct{}

func (nullBroadcaster) Broadcast(any) {}

// Adapter owns the live configuration and the derived pipeline stages
// it drives (spec §4.9). It implements pipeline.Sink so a Tick can
// publish frames directly into it.
type Adapter struct {
	slots      *slotmgr.Manager
	publishers *publish.Set
	broadcast  Broadcaster
	configDir  string

	// mu serializes every config mutation, matching FilterManager's
	// single mutex guarding get/set across sensors, filters, dbscan and
	// sinks (spec §4.9 "patches are serialized").
	mu  sync.Mutex
	cfg hubconfig.Config

	prefilterChain  atomic.Pointer[prefilter.Chain]
	postfilterChain atomic.Pointer[postfilter.Filter]
	clusterer       atomic.Pointer[dbscan.Clusterer]
	worldMask       atomic.Pointer[geom.WorldMask]
}

// New builds an Adapter from cfg, starting sensor slots and publisher
// sinks. broadcast may be nil. configDir is the base directory for the
// spec §6.3 /configs/* named-config store; it is created on first save.
func New(cfg hubconfig.Config, slots *slotmgr.Manager, publishers *publish.Set, broadcast Broadcaster, configDir string) (*Adapter, error) {
	if broadcast == nil {
		broadcast = nullBroadcaster{}
	}
	a := &Adapter{slots: slots, publishers: publishers, broadcast: broadcast, configDir: configDir, cfg: cfg}

	if err := a.applyConfigLocked(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// applyConfigLocked wires every derived pipeline stage from cfg: the
// slot manager, filter chains, DBSCAN clusterer, world mask and
// publisher set. Callers must not hold a.mu (slots.Configure and
// publishers.Configure take their own locks).
func (a *Adapter) applyConfigLocked(cfg hubconfig.Config) error {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()

	if err := a.slots.Configure(cfg.Sensors); err != nil {
		return err
	}
	a.rebuildPrefilter()
	a.rebuildPostfilter()
	a.rebuildDBSCAN()
	a.rebuildWorldMask()
	a.publishers.Configure(cfg.Sinks)
	return nil
}

// APIToken returns the configured bearer token, or "" if write endpoints
// are unauthenticated (spec §6.3).
func (a *Adapter) APIToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Security.APIToken
}

func (a *Adapter) rebuildPrefilter()  { a.prefilterChain.Store(prefilter.New(a.cfg.Prefilter)) }
func (a *Adapter) rebuildPostfilter() { a.postfilterChain.Store(postfilter.New(a.cfg.Postfilter)) }

func (a *Adapter) rebuildDBSCAN() {
	models := make(dbscan.Models, len(a.slots.Slots()))
	for _, s := range a.slots.Slots() {
		models[s.Index] = s.NoiseModel()
	}
	a.clusterer.Store(dbscan.New(a.cfg.DBSCAN, models))
}

func (a *Adapter) rebuildWorldMask() {
	m := worldMaskFromConfig(a.cfg.WorldMask)
	a.worldMask.Store(&m)
}

func worldMaskFromConfig(cfg hubconfig.WorldMaskConfig) geom.WorldMask {
	return geom.WorldMask{
		Include: polygonsFrom(cfg.Include),
		Exclude: polygonsFrom(cfg.Exclude),
	}
}

func polygonsFrom(rings [][][2]float64) []geom.Polygon {
	polys := make([]geom.Polygon, len(rings))
	for i, ring := range rings {
		polys[i] = geom.Polygon{Vertices: ring}
	}
	return polys
}

// Process runs the full per-frame pipeline of spec §4.9/original
// main.cpp: raw-lite broadcast, prefilter, world mask, filtered-lite
// broadcast, DBSCAN, postfilter, clusters-lite broadcast, publish.
// The prefilter, DBSCAN and postfilter stages are each panic-guarded so
// one bad frame degrades to a bypass or empty result instead of aborting
// the frame (spec §4.3 failure model); publish recovers per sink inside
// the publisher set. The world mask and the broadcasts are not guarded.
func (a *Adapter) Process(f pipeline.Frame) {
	a.broadcast.Broadcast(rawLiteMessage(f))

	filtered := a.safeApplyPrefilter(f)

	filtered = applyWorldMask(filtered, a.worldMask.Load())
	a.broadcast.Broadcast(filteredLiteMessage(filtered))

	clusters := a.safeRunDBSCAN(filtered)
	clusters = a.safeApplyPostfilter(clusters, filtered)

	a.broadcast.Broadcast(clustersLiteMsg(filtered.TimestampNanos, filtered.Seq, clusters))
	a.publishers.Publish(filtered.TimestampNanos, filtered.Seq, clusters)
}

func (a *Adapter) safeApplyPrefilter(f pipeline.Frame) (out pipeline.Frame) {
	out = f
	defer func() {
		if r := recover(); r != nil {
			obslog.L.Error("control: prefilter stage panicked, bypassing to input", "seq", f.Seq, "panic", r)
			out = f
		}
	}()
	chain := a.prefilterChain.Load()
	if chain == nil {
		return f
	}
	res, _ := chain.Apply(f, f.Intensities)
	return res
}

func (a *Adapter) safeRunDBSCAN(f pipeline.Frame) (clusters []pipeline.Cluster) {
	defer func() {
		if r := recover(); r != nil {
			obslog.L.Error("control: dbscan stage panicked, emitting empty clusters", "seq", f.Seq, "panic", r)
			clusters = nil
		}
	}()
	c := a.clusterer.Load()
	if c == nil {
		return nil
	}
	return c.Run(f)
}

func (a *Adapter) safeApplyPostfilter(clusters []pipeline.Cluster, f pipeline.Frame) (out []pipeline.Cluster) {
	out = clusters
	defer func() {
		if r := recover(); r != nil {
			obslog.L.Error("control: postfilter stage panicked, bypassing to raw clusters", "seq", f.Seq, "panic", r)
			out = clusters
		}
	}()
	filt := a.postfilterChain.Load()
	if filt == nil {
		return clusters
	}
	res, _ := filt.Apply(clusters, f.XY, f.SID)
	return res
}

// applyWorldMask keeps only points admitted by m, preserving relative
// order and rebuilding the parallel XY/SID/Intensities arrays, mirroring
// main.cpp's per-point world_mask.allows(point) loop.
func applyWorldMask(f pipeline.Frame, m *geom.WorldMask) pipeline.Frame {
	if m == nil || (len(m.Include) == 0 && len(m.Exclude) == 0) {
		return f
	}
	n := f.NumPoints()
	xy := make([]float32, 0, len(f.XY))
	sid := make([]uint8, 0, n)
	var intensities []float32
	if f.Intensities != nil {
		intensities = make([]float32, 0, n)
	}
	for i := 0; i < n; i++ {
		x, y := f.Point(i)
		if !m.Admit(float64(x), float64(y)) {
			continue
		}
		xy = append(xy, x, y)
		sid = append(sid, f.SID[i])
		if intensities != nil {
			intensities = append(intensities, f.Intensities[i])
		}
	}
	return pipeline.Frame{Seq: f.Seq, TimestampNanos: f.TimestampNanos, XY: xy, SID: sid, Intensities: intensities}
}
