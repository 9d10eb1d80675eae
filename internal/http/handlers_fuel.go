package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"installerpro/internal/core"
	"installerpro/internal/pricing"
)

type fuelRequest struct {
	Date string `json:"date"`
	// Amount is a decimal string in reais, comma or dot separated.
	Amount string `json:"amount"`
	Note   string `json:"note,omitempty"`
}

type fuelResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	AmountCents int64  `json:"amountCents"`
	Amount      string `json:"amount"`
	Note        string `json:"note,omitempty"`
}

func toFuelResponse(f core.FuelExpense) fuelResponse {
	return fuelResponse{
		ID:          f.ID,
		Date:        f.Date.ISO(),
		AmountCents: f.Amount.Cents,
		Amount:      core.FormatBRL(f.Amount.Cents),
		Note:        f.Note,
	}
}

func (s *Server) handleListFuel(w http.ResponseWriter, r *http.Request) {
	mode, rng, err := parseFilter(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	matched, err := pricing.FilterByPeriod(s.store.FuelExpenses(), mode, rng, core.Today())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]fuelResponse, 0, len(matched))
	for _, f := range matched {
		out = append(out, toFuelResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateFuel(w http.ResponseWriter, r *http.Request) {
	var req fuelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON request body"})
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.store.AddFuelExpense(r.Context(), core.FuelExpense{
		Date:   date,
		Amount: core.Money{Cents: cents},
		Note:   req.Note,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFuelResponse(created))
}

func (s *Server) handleDeleteFuel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteFuelExpense(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
