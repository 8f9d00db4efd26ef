package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

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

func newTestServer(t *testing.T, token string) *Server {
	t.Helper()
	slots := slotmgr.New(mockDriverFactory)
	publishers := publish.New(fakeSinkFactory)
	cfg := hubconfig.Config{
		Sensors:  []hubconfig.SensorConfig{{ID: "s0", Type: "mock", Endpoint: "127.0.0.1:10940", Enabled: true, Mode: hubconfig.ModeRangeOnly, SkipStep: 1}},
		DBSCAN:   hubconfig.DefaultDBSCANConfig(),
		Security: hubconfig.SecurityConfig{APIToken: token},
	}
	adapter, err := control.New(cfg, slots, publishers, nil, t.TempDir())
	require.NoError(t, err)
	return New(adapter)
}

func TestGetSensorsRequiresNoAuth(t *testing.T) {
	srv := newTestServer(t, "secret")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sensors", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var views []any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &views))
	assert.Len(t, views, 1)
}

func TestPatchSensorRejectsMissingToken(t *testing.T) {
	srv := newTestServer(t, "secret")
	body := bytes.NewBufferString(`{"enabled":false}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/sensors/s0", body)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))
}

func TestPatchSensorAcceptsBearerToken(t *testing.T) {
	srv := newTestServer(t, "secret")
	body := bytes.NewBufferString(`{"enabled":false}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/sensors/s0", body)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var view map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, false, view["enabled"])
}

func TestPutDBSCANInvalidValueReturnsErrorEnvelope(t *testing.T) {
	srv := newTestServer(t, "")
	body := bytes.NewBufferString(`{"eps_norm":-1,"min_pts":2}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/dbscan", body)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "invalid_value", env.Error)
}

func TestGetSnapshotAggregatesState(t *testing.T) {
	srv := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Contains(t, snap, "sensors")
	assert.Contains(t, snap, "dbscan")
}
