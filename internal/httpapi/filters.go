package httpapi

import (
	"net/http"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

func (s *Server) getFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.adapter.GetFilters())
}

func (s *Server) getPrefilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.adapter.GetPrefilter())
}

func (s *Server) putPrefilter(w http.ResponseWriter, r *http.Request) {
	var cfg hubconfig.PrefilterConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	s.adapter.PutPrefilter(cfg)
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) getPostfilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.adapter.GetPostfilter())
}

func (s *Server) putPostfilter(w http.ResponseWriter, r *http.Request) {
	var cfg hubconfig.PostfilterConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	s.adapter.PutPostfilter(cfg)
	writeJSON(w, http.StatusOK, cfg)
}
