package httpapi

import (
	"net/http"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

func (s *Server) listSensors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.adapter.ListSensors())
}

func (s *Server) getSensor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view, ok := s.adapter.GetSensor(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no sensor with id "+id)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) patchSensor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var patch map[string]any
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	view, err := s.adapter.PatchSensor(id, patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) createSensor(w http.ResponseWriter, r *http.Request) {
	var cfg hubconfig.SensorConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if cfg.ID == "" {
		writeError(w, http.StatusBadRequest, "invalid_field", "id is required")
		return
	}
	if cfg.Mode == "" {
		cfg.Mode = hubconfig.ModeRangeOnly
	}
	if cfg.SkipStep == 0 {
		cfg.SkipStep = 1
	}
	view, err := s.adapter.AddSensor(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) deleteSensor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.adapter.DeleteSensor(id); err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
