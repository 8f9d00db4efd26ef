// Package httpapi implements the spec §6.3 REST surface. It is shape-only
// per spec §1 ("the core consumes JSON bodies and returns JSON") — every
// handler here is a thin translation layer over internal/control's
// Adapter, grounded on the teacher's internal/api.Server: a
// *http.ServeMux built from a small ServeMux-pattern route table, a
// status-capturing logging middleware, and a writeJSONError helper
// (internal/api/server.go).
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/anno-git/hokuyohub/internal/control"
	"github.com/anno-git/hokuyohub/internal/obslog"
)

// Server wires the spec §6.3 /api/v1 routes onto an *control.Adapter.
type Server struct {
	adapter *control.Adapter
}

// New builds a Server bound to adapter.
func New(adapter *control.Adapter) *Server {
	return &Server{adapter: adapter}
}

// Handler returns the complete /api/v1 mux wrapped in request logging,
// matching the teacher's LoggingMiddleware(mux) composition.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/sensors", s.requireRead(s.listSensors))
	mux.HandleFunc("POST /api/v1/sensors", s.requireAuth(s.createSensor))
	mux.HandleFunc("GET /api/v1/sensors/{id}", s.requireRead(s.getSensor))
	mux.HandleFunc("PATCH /api/v1/sensors/{id}", s.requireAuth(s.patchSensor))
	mux.HandleFunc("DELETE /api/v1/sensors/{id}", s.requireAuth(s.deleteSensor))

	mux.HandleFunc("GET /api/v1/filters", s.requireRead(s.getFilters))
	mux.HandleFunc("GET /api/v1/filters/prefilter", s.requireRead(s.getPrefilter))
	mux.HandleFunc("PUT /api/v1/filters/prefilter", s.requireAuth(s.putPrefilter))
	mux.HandleFunc("GET /api/v1/filters/postfilter", s.requireRead(s.getPostfilter))
	mux.HandleFunc("PUT /api/v1/filters/postfilter", s.requireAuth(s.putPostfilter))

	mux.HandleFunc("GET /api/v1/dbscan", s.requireRead(s.getDBSCAN))
	mux.HandleFunc("PUT /api/v1/dbscan", s.requireAuth(s.putDBSCAN))

	mux.HandleFunc("GET /api/v1/sinks", s.requireRead(s.listSinks))
	mux.HandleFunc("POST /api/v1/sinks", s.requireAuth(s.createSink))
	mux.HandleFunc("PATCH /api/v1/sinks/{index}", s.requireAuth(s.patchSink))
	mux.HandleFunc("DELETE /api/v1/sinks/{index}", s.requireAuth(s.deleteSink))

	mux.HandleFunc("GET /api/v1/snapshot", s.requireRead(s.getSnapshot))

	mux.HandleFunc("GET /api/v1/configs/list", s.requireRead(s.listConfigs))
	mux.HandleFunc("POST /api/v1/configs/load", s.requireAuth(s.loadConfig))
	mux.HandleFunc("POST /api/v1/configs/import", s.requireAuth(s.importConfig))
	mux.HandleFunc("POST /api/v1/configs/save", s.requireAuth(s.saveConfig))
	mux.HandleFunc("GET /api/v1/configs/export", s.requireRead(s.exportConfig))

	return loggingMiddleware(mux)
}

// requireRead wraps a GET handler with no auth requirement, per spec
// §6.3 "all write endpoints require Authorization" (read endpoints never do).
func (s *Server) requireRead(h http.HandlerFunc) http.HandlerFunc { return h }

// requireAuth wraps a write handler with the bearer-token check of spec
// §6.3. A configured empty token disables the check entirely.
func (s *Server) requireAuth(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := s.adapter.APIToken()
		if token == "" {
			h(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
		h(w, r)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		obslog.L.Info("httpapi: request", "method", r.Method, "path", r.URL.Path, "status", sw.status, "elapsed_ms", time.Since(start).Milliseconds())
	})
}

// errEnvelope is the spec §6.3 error body shape.
type errEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errEnvelope{Error: kind, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
