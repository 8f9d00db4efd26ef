package control

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anno-git/hokuyohub/internal/device"
	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/pipeline"
	"github.com/anno-git/hokuyohub/internal/publish"
	"github.com/anno-git/hokuyohub/internal/slotmgr"
)

func mockDriverFactory(hubconfig.SensorConfig) (device.Driver, error) {
	return device.NewMockDriver(), nil
}

type fakeSink struct {
	started bool
	stopped bool
}

func (f *fakeSink) Start(hubconfig.SinkConfig) error          { f.started = true; return nil }
func (f *fakeSink) Publish(int64, uint32, []pipeline.Cluster) {}
func (f *fakeSink) Stop()                                     { f.stopped = true }
func (f *fakeSink) Enabled() bool                             { return f.started && !f.stopped }
func (f *fakeSink) Type() string                              { return "nng" }
func (f *fakeSink) URL() string                               { return "" }

func fakeSinkFactory(hubconfig.SinkConfig) (publish.Sink, error) { return &fakeSink{}, nil }

type captureBroadcaster struct {
	messages []any
}

func (c *captureBroadcaster) Broadcast(msg any) { c.messages = append(c.messages, msg) }

func newTestAdapter(t *testing.T) (*Adapter, *captureBroadcaster) {
	t.Helper()
	slots := slotmgr.New(mockDriverFactory)
	publishers := publish.New(fakeSinkFactory)
	bc := &captureBroadcaster{}
	cfg := hubconfig.Config{
		Sensors: []hubconfig.SensorConfig{
			{ID: "s0", Type: "mock", Endpoint: "127.0.0.1:10940", Enabled: true, Mode: hubconfig.ModeRangeOnly, SkipStep: 1},
		},
		DBSCAN: hubconfig.DefaultDBSCANConfig(),
	}
	a, err := New(cfg, slots, publishers, bc, t.TempDir())
	require.NoError(t, err)
	return a, bc
}

func TestAdapterPutDBSCANValidatesAndBroadcasts(t *testing.T) {
	a, bc := newTestAdapter(t)

	bad := hubconfig.DBSCANConfig{EpsNorm: -1}
	require.Error(t, a.PutDBSCAN(bad))

	good := hubconfig.DefaultDBSCANConfig()
	good.MinPts = 5
	require.NoError(t, a.PutDBSCAN(good))

	assert.Equal(t, good, a.GetDBSCAN())
	assert.GreaterOrEqual(t, len(bc.messages), 2, "expected dbscan.config and dbscan.updated broadcasts")
}

func TestAdapterSensorPatchUpdatesEnabledAndBroadcasts(t *testing.T) {
	a, bc := newTestAdapter(t)

	view, err := a.PatchSensor("s0", map[string]any{"enabled": false})
	require.NoError(t, err)
	assert.False(t, view.Enabled)

	found := false
	for _, m := range bc.messages {
		if su, ok := m.(sensorUpdatedMessage); ok {
			found = true
			assert.Equal(t, "s0", su.Sensor.ID)
		}
	}
	assert.True(t, found, "expected a sensor.updated broadcast")
}

func TestAdapterAddAndDeleteSink(t *testing.T) {
	a, _ := newTestAdapter(t)

	view, err := a.AddSink(hubconfig.SinkConfig{Type: hubconfig.SinkTypeNNG, URL: "tcp://127.0.0.1:9000", Encoding: hubconfig.SinkEncodingJSON})
	require.NoError(t, err)
	assert.Equal(t, 0, view.Index)

	sinks := a.ListSinks()
	require.Len(t, sinks, 1)

	require.NoError(t, a.DeleteSink(0))
	assert.Empty(t, a.ListSinks())
}

func TestAdapterSaveLoadConfigRoundTrips(t *testing.T) {
	a, _ := newTestAdapter(t)

	good := hubconfig.DefaultDBSCANConfig()
	good.MinPts = 7
	require.NoError(t, a.PutDBSCAN(good))
	require.NoError(t, a.SaveConfig("scenario-a"))

	names, err := a.ListConfigs()
	require.NoError(t, err)
	assert.Contains(t, names, "scenario-a")

	// Mutate live state, then reload the saved snapshot and confirm it wins.
	drifted := hubconfig.DefaultDBSCANConfig()
	drifted.MinPts = 1
	require.NoError(t, a.PutDBSCAN(drifted))

	require.NoError(t, a.LoadConfig("scenario-a"))
	if diff := cmp.Diff(good, a.GetDBSCAN()); diff != "" {
		t.Errorf("dbscan config mismatch after reload (-want +got):\n%s", diff)
	}
}

func TestAdapterWorldMaskRejectsShortPolygon(t *testing.T) {
	a, _ := newTestAdapter(t)
	err := a.PutWorldMask(hubconfig.WorldMaskConfig{Include: [][][2]float64{{{0, 0}, {1, 1}}}})
	require.Error(t, err)
}
