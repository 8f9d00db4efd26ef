package httpapi

import (
	"net/http"

	"github.com/anno-git/hokuyohub/internal/hubconfig"
)

func (s *Server) getDBSCAN(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.adapter.GetDBSCAN())
}

func (s *Server) putDBSCAN(w http.ResponseWriter, r *http.Request) {
	var cfg hubconfig.DBSCANConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := s.adapter.PutDBSCAN(cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
