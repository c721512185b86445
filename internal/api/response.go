// Package api implements the HTTP handlers of the exchange rates service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"fxrates/internal/rates"
	"fxrates/internal/service"
)

const (
	msgNoRates  = "No exchange rates available. Please try again later."
	msgInternal = "Internal error"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid parameter: from must be a three-letter currency code"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps an error kind to its HTTP status. Request errors carry
// their message to the caller; backend failures get a generic one.
func writeError(w http.ResponseWriter, err error) {
	var notFound *rates.CurrencyNotFoundError
	switch {
	case errors.Is(err, rates.ErrValidation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: notFound.Error()})
	case errors.Is(err, rates.ErrNoRatesAvailable):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: msgNoRates})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Unknown update run"})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
	}
}

// number renders a decimal as a JSON number with its exact digits.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
