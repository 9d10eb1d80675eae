package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"installerpro/internal/core"
	"installerpro/internal/pricing"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeDomainError maps validation sentinels to 422 and everything
// else to 500. Malformed request bodies are the handlers' own 400s.
func writeDomainError(w http.ResponseWriter, err error) {
	if isValidation(err) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

func isValidation(err error) bool {
	return errors.Is(err, core.ErrInvalidCode) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrMissingClientName) ||
		errors.Is(err, core.ErrInvalidRange)
}

// parseFilter reads the listing scope from query parameters. The mode
// defaults to "all"; custom requires both bounds as ISO dates.
func parseFilter(r *http.Request) (pricing.FilterMode, pricing.Range, error) {
	q := r.URL.Query()

	mode := pricing.FilterMode(q.Get("filter"))
	if mode == "" {
		mode = pricing.FilterAll
	}
	if !mode.IsValid() {
		return "", pricing.Range{}, core.ErrInvalidRange
	}

	var rng pricing.Range
	if mode == pricing.FilterCustom {
		start, err := core.ParseDate(q.Get("start"))
		if err != nil {
			return "", pricing.Range{}, core.ErrInvalidRange
		}
		end, err := core.ParseDate(q.Get("end"))
		if err != nil {
			return "", pricing.Range{}, core.ErrInvalidRange
		}
		rng = pricing.Range{Start: start, End: end}
	}
	return mode, rng, nil
}
