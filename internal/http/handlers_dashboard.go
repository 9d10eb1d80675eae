package http

import (
	"encoding/json"
	"net/http"
	"regexp"

	"installerpro/internal/core"
	"installerpro/internal/pricing"
)

type dashboardResponse struct {
	Period          string `json:"period"`
	Count           int    `json:"count"`
	InstallTotal    int64  `json:"installTotalCents"`
	FuelTotal       int64  `json:"fuelTotalCents"`
	Balance         int64  `json:"balanceCents"`
	InstallTotalFmt string `json:"installTotal"`
	FuelTotalFmt    string `json:"fuelTotal"`
	BalanceFmt      string `json:"balance"`
}

// handleDashboard summarizes the current month: installation earnings,
// fuel spend and the running balance.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	asOf := core.Today()

	installs, err := pricing.FilterByPeriod(s.store.Installations(), pricing.FilterMonth, pricing.Range{}, asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	fuel, err := pricing.FilterByPeriod(s.store.FuelExpenses(), pricing.FilterMonth, pricing.Range{}, asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	totals := pricing.PeriodTotals(installs, fuel, s.totals)
	writeJSON(w, http.StatusOK, dashboardResponse{
		Period:          asOf.Period(),
		Count:           totals.Count,
		InstallTotal:    totals.InstallTotal.Cents,
		FuelTotal:       totals.FuelTotal.Cents,
		Balance:         totals.Balance.Cents,
		InstallTotalFmt: core.FormatBRL(totals.InstallTotal.Cents),
		FuelTotalFmt:    core.FormatBRL(totals.FuelTotal.Cents),
		BalanceFmt:      core.FormatBRL(totals.Balance.Cents),
	})
}

type dayResponse struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	UnitPrice int64  `json:"unitPriceCents"`
	DayTotal  int64  `json:"dayTotalCents"`
}

// handleDays lists the current month's day groups in chronological
// order, one entry per calendar day with at least one installation.
func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	installs, err := pricing.FilterByPeriod(s.store.Installations(), pricing.FilterMonth, pricing.Range{}, core.Today())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	days := pricing.SortedDays(pricing.AggregateByDay(installs, s.totals))
	out := make([]dayResponse, 0, len(days))
	for _, g := range days {
		out = append(out, dayResponse{
			Date:      g.Date.ISO(),
			Count:     g.Count,
			UnitPrice: g.UnitPrice.Cents,
			DayTotal:  g.DayTotal.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

type rolloverRequest struct {
	Confirm bool   `json:"confirm"`
	Period  string `json:"period,omitempty"`
}

// handleRollover closes out a period. The operation is irreversible in
// destructive mode, so an explicit confirm flag is required.
func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	var req rolloverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON request body"})
		return
	}
	if !req.Confirm {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "rollover requires confirm: true"})
		return
	}

	period := req.Period
	if period == "" {
		period = core.Today().Period()
	}
	if !periodPattern.MatchString(period) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "period must be YYYY-MM"})
		return
	}

	if err := s.store.Rollover(r.Context(), period); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"period": period, "status": "closed"})
}
