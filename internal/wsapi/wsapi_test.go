package wsapi

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anno-git/hokuyohub/internal/control"
	"github.com/anno-git/hokuyohub/internal/device"
	"github.com/anno-git/hokuyohub/internal/hubconfig"
	"github.com/anno-git/hokuyohub/internal/pipeline"
	"github.com/anno-git/hokuyohub/internal/publish"
	"github.com/anno-git/hokuyohub/internal/slotmgr"
)

func mockDriverFactory(hubconfig.SensorConfig) (device.Driver, error) {
	return device.NewMockDriver(), nil
}

type fakeSink struct{}

func (f *fakeSink) Start(hubconfig.SinkConfig) error          { return nil }
func (f *fakeSink) Publish(int64, uint32, []pipeline.Cluster) {}
func (f *fakeSink) Stop()                                     {}
func (f *fakeSink) Enabled() bool                             { return true }
func (f *fakeSink) Type() string                              { return "nng" }
func (f *fakeSink) URL() string                               { return "" }

func fakeSinkFactory(hubconfig.SinkConfig) (publish.Sink, error) { return &fakeSink{}, nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	slots := slotmgr.New(mockDriverFactory)
	publishers := publish.New(fakeSinkFactory)
	cfg := hubconfig.Config{
		Sensors: []hubconfig.SensorConfig{{ID: "s0", Type: "mock", Endpoint: "127.0.0.1:10940", Enabled: true, Mode: hubconfig.ModeRangeOnly, SkipStep: 1}},
		DBSCAN:  hubconfig.DefaultDBSCANConfig(),
	}
	hub := NewHub()
	adapter, err := control.New(cfg, slots, publishers, hub, t.TempDir())
	require.NoError(t, err)
	return New(hub, adapter)
}

func TestDispatchRequestSnapshotEchoesRef(t *testing.T) {
	srv := newTestServer(t)
	reply := srv.dispatch([]byte(`{"type":"sensor.requestSnapshot","ref":"abc123"}`))
	require.NotNil(t, reply)

	var env okEnvelope
	require.NoError(t, json.Unmarshal(reply, &env))
	assert.Equal(t, "ok", env.Type)
	assert.Equal(t, "abc123", env.Ref)
}

func TestDispatchGeneratesRefWhenAbsent(t *testing.T) {
	srv := newTestServer(t)
	reply := srv.dispatch([]byte(`{"type":"dbscan.requestConfig"}`))

	var env okEnvelope
	require.NoError(t, json.Unmarshal(reply, &env))
	assert.NotEmpty(t, env.Ref)
}

func TestDispatchUnknownTypeReturnsError(t *testing.T) {
	srv := newTestServer(t)
	reply := srv.dispatch([]byte(`{"type":"bogus.command","ref":"r1"}`))

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(reply, &env))
	assert.Equal(t, "error", env.Type)
	assert.Equal(t, "r1", env.Ref)
	assert.Contains(t, env.Message, "bogus.command")
}

func TestDispatchSensorEnableDelegatesToAdapter(t *testing.T) {
	srv := newTestServer(t)
	reply := srv.dispatch([]byte(`{"type":"sensor.enable","ref":"r2","id":"s0","enabled":false}`))

	var env okEnvelope
	require.NoError(t, json.Unmarshal(reply, &env))
	assert.Equal(t, "ok", env.Type)

	view, ok := srv.adapter.GetSensor("s0")
	require.True(t, ok)
	assert.False(t, view.Enabled)
}

func TestDispatchSinkAddThenDelete(t *testing.T) {
	srv := newTestServer(t)

	addReply := srv.dispatch([]byte(`{"type":"sink.add","ref":"r3","sink":{"type":"nng","url":"tcp://127.0.0.1:9000","encoding":"json"}}`))
	var addEnv okEnvelope
	require.NoError(t, json.Unmarshal(addReply, &addEnv))
	assert.Equal(t, "ok", addEnv.Type)
	require.Len(t, srv.adapter.ListSinks(), 1)

	delReply := srv.dispatch([]byte(`{"type":"sink.delete","ref":"r4","index":0}`))
	var delEnv okEnvelope
	require.NoError(t, json.Unmarshal(delReply, &delEnv))
	assert.Equal(t, "ok", delEnv.Type)
	assert.Empty(t, srv.adapter.ListSinks())
}

func TestDispatchWorldUpdateTranslatesPluralFieldNames(t *testing.T) {
	srv := newTestServer(t)
	reply := srv.dispatch([]byte(`{"type":"world.update","ref":"r5","patch":{"world_mask":{"includes":[[[0,0],[1,0],[1,1]]],"excludes":[]}}}`))

	var env okEnvelope
	require.NoError(t, json.Unmarshal(reply, &env))
	require.Equal(t, "ok", env.Type)

	cfg := srv.adapter.GetWorldMask()
	assert.Len(t, cfg.Include, 1)
	assert.Empty(t, cfg.Exclude)
}

func TestHubBroadcastsToJoinedClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := &client{send: make(chan []byte, sendBufferSize)}
	hub.join <- c

	hub.Broadcast(map[string]string{"type": "ping"})

	select {
	case data := <-c.send:
		var msg map[string]string
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "ping", msg["type"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}

	hub.leave <- c
}
