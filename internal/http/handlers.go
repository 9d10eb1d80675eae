package http

import (
	"encoding/json"
	"net/http"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type technicianResponse struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (s *Server) handleGetTechnician(w http.ResponseWriter, r *http.Request) {
	tech := s.store.Technician()
	writeJSON(w, http.StatusOK, technicianResponse{ID: tech.ID, Name: tech.Name})
}

type technicianRequest struct {
	Name string `json:"name"`
}

func (s *Server) handlePutTechnician(w http.ResponseWriter, r *http.Request) {
	var req technicianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON request body"})
		return
	}

	if err := s.store.SetTechnicianName(r.Context(), req.Name); err != nil {
		writeDomainError(w, err)
		return
	}

	tech := s.store.Technician()
	writeJSON(w, http.StatusOK, technicianResponse{ID: tech.ID, Name: tech.Name})
}
