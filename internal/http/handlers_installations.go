package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"installerpro/internal/core"
	"installerpro/internal/pricing"
)

type installationRequest struct {
	Code       string `json:"code"`
	ClientName string `json:"clientName,omitempty"`
	Date       string `json:"date"`
}

type installationResponse struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	ClientName string `json:"clientName,omitempty"`
	Date       string `json:"date"`
}

func toInstallationResponse(inst core.Installation) installationResponse {
	return installationResponse{
		ID:         inst.ID,
		Code:       inst.Code,
		ClientName: inst.ClientName,
		Date:       inst.Date.ISO(),
	}
}

func (s *Server) handleListInstallations(w http.ResponseWriter, r *http.Request) {
	mode, rng, err := parseFilter(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	matched, err := pricing.FilterByPeriod(s.store.Installations(), mode, rng, core.Today())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]installationResponse, 0, len(matched))
	for _, inst := range matched {
		out = append(out, toInstallationResponse(inst))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateInstallation(w http.ResponseWriter, r *http.Request) {
	var req installationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON request body"})
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.store.AddInstallation(r.Context(), core.Installation{
		Code:       req.Code,
		ClientName: req.ClientName,
		Date:       date,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstallationResponse(created))
}

// handleDeleteInstallation always answers 204: deleting an absent
// record is indistinguishable from deleting it twice.
func (s *Server) handleDeleteInstallation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteInstallation(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
