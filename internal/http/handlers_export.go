package http

import (
	"fmt"
	"io"
	"net/http"

	"installerpro/internal/core"
	"installerpro/internal/export"
	"installerpro/internal/pricing"
	"installerpro/internal/report"
)

// maxRestoreBytes bounds the restore request body. Backups are small
// JSON documents; anything near this size is not one of ours.
const maxRestoreBytes = 10 << 20

// handleExportCSV streams every installation on record as CSV, scoped
// by the same filter parameters as the listing endpoint.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="installations.csv"`)
	if err := export.WriteCSV(w, matched, s.includeClient); err != nil {
		// Headers are gone; nothing left to do but log via middleware.
		return
	}
}

// handleExportPDF renders the monthly report for the requested period,
// defaulting to the current month.
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = core.Today().Period()
	}
	if !periodPattern.MatchString(period) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "period must be YYYY-MM"})
		return
	}

	installs := filterByPeriodLabel(s.store.Installations(), period)
	fuel := filterByPeriodLabel(s.store.FuelExpenses(), period)

	rep := report.Build(s.store.Technician(), period, installs, fuel, s.totals)
	pdf, err := report.RenderPDF(rep)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to render report"})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report_%s.pdf"`, period))
	w.Write(pdf)
}

func filterByPeriodLabel[T pricing.Dated](records []T, period string) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if rec.Day().Period() == period {
			out = append(out, rec)
		}
	}
	return out
}

// handleBackup dumps the whole dictionary, every key included.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ExportAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to export"})
		return
	}
	data, err := export.MarshalBackup(entries)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to export"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="backup_installerpro.json"`)
	w.Write(data)
}

// handleRestore replaces the whole dictionary with the uploaded backup.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRestoreBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "failed to read request body"})
		return
	}

	entries, err := export.UnmarshalBackup(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "not a valid backup document"})
		return
	}

	if err := s.store.ImportAll(r.Context(), entries); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "failed to restore"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"restoredKeys": len(entries)})
}
