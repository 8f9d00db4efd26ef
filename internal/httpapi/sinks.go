package httpapi

import (
	"net/http"
	"strconv"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

func (s *Server) listSinks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.adapter.ListSinks())
}

func (s *Server) createSink(w http.ResponseWriter, r *http.Request) {
	var cfg hubconfig.SinkConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	view, err := s.adapter.AddSink(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) patchSink(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_index", err.Error())
		return
	}
	var patch map[string]any
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	view, err := s.adapter.PatchSink(index, patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) deleteSink(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_index", err.Error())
		return
	}
	if err := s.adapter.DeleteSink(index); err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
