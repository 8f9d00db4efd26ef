package httpapi

import (
	"io"
	"net/http"
)

type configNameRequest struct {
	Name string `json:"name"`
}

func (s *Server) listConfigs(w http.ResponseWriter, r *http.Request) {
	names, err := s.adapter.ListConfigs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) loadConfig(w http.ResponseWriter, r *http.Request) {
	var req configNameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := s.adapter.LoadConfig(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) importConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if err := s.adapter.ImportConfig(body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) saveConfig(w http.ResponseWriter, r *http.Request) {
	var req configNameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := s.adapter.SaveConfig(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_value", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportConfig(w http.ResponseWriter, r *http.Request) {
	data, err := s.adapter.ExportConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
