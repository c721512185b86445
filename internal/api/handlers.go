package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fxrates/internal/service"
)

// ServiceName is reported by the root banner.
const ServiceName = "Currency Converter API"

// RootResponse represents the service banner
type RootResponse struct {
	Status    string            `json:"status" example:"success"`
	Service   string            `json:"service" example:"Currency Converter API"`
	Version   string            `json:"version" example:"1.0.0"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse represents the service health
type HealthResponse struct {
	Status     string  `json:"status" example:"ok"`
	Redis      string  `json:"redis" example:"healthy"`
	LastUpdate *string `json:"last_update,omitempty" example:"2024-12-04"`
}

// RatesResponse represents the latest rates snapshot
type RatesResponse struct {
	Date  string                 `json:"date" example:"2024-12-04"`
	Base  string                 `json:"base" example:"EUR"`
	Rates map[string]json.Number `json:"rates" swaggertype:"object,number"`
}

// ConversionResponse represents a conversion result
type ConversionResponse struct {
	From   string      `json:"from" example:"USD"`
	To     string      `json:"to" example:"JPY"`
	Amount json.Number `json:"amount" swaggertype:"number" example:"100"`
	Result json.Number `json:"result" swaggertype:"number" example:"15066.67"`
	Rate   json.Number `json:"rate" swaggertype:"number" example:"150.6667"`
	Date   string      `json:"date" example:"2024-12-04"`
}

// UpdateRunResponse represents one rate update run
type UpdateRunResponse struct {
	ID         string  `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Trigger    string  `json:"trigger" example:"schedule"`
	Status     string  `json:"status" example:"STORED"`
	RatesDate  *string `json:"rates_date,omitempty" example:"2024-12-04"`
	Currencies *int    `json:"currencies,omitempty" example:"30"`
	Error      *string `json:"error,omitempty" example:"failed to fetch rates feed: unexpected status 503"`
	StartedAt  string  `json:"started_at" example:"2024-12-04T15:00:00Z"`
	FinishedAt *string `json:"finished_at,omitempty" example:"2024-12-04T15:00:01Z"`
}

// HandleRoot godoc
// @Summary Service banner
// @Description Returns the service name, version and the public endpoints.
// @Tags service
// @Produce json
// @Success 200 {object} RootResponse
// @Router / [get]
func HandleRoot(version string) http.HandlerFunc {
	resp := RootResponse{
		Status:  "success",
		Service: ServiceName,
		Version: version,
		Endpoints: map[string]string{
			"health":       "GET /health",
			"latest_rates": "GET /api/latest?base=<CURRENCY>",
			"convert":      "GET /api/convert?from=<FROM>&to=<TO>&amount=<AMOUNT>",
			"update_runs":  "GET /api/updates/{id}",
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleHealth godoc
// @Summary Service health
// @Description Reports rate store reachability and the date of the last stored snapshot. Always returns 200; an unreachable store is reported inline.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func HandleHealth(svc service.RatesServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := svc.Health(r.Context())
		writeJSON(w, http.StatusOK, HealthResponse{
			Status:     "ok",
			Redis:      h.Redis,
			LastUpdate: h.LastUpdate,
		})
	}
}

// HandleLatestRates godoc
// @Summary Latest exchange rates
// @Description Returns the latest daily rates snapshot, optionally rebased to another currency.
// @Tags rates
// @Produce json
// @Param base query string false "Base currency code" minlength(3) maxlength(3)
// @Success 200 {object} RatesResponse
// @Failure 400 {object} ErrorResponse "Invalid base currency"
// @Failure 404 {object} ErrorResponse "Unknown base currency"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Failure 503 {object} ErrorResponse "No rates available yet"
// @Router /api/latest [get]
func HandleLatestRates(svc service.RatesServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := svc.GetLatestRates(r.Context(), r.URL.Query().Get("base"))
		if err != nil {
			writeError(w, err)
			return
		}

		resp := RatesResponse{
			Date:  rs.Date,
			Base:  rs.Base,
			Rates: make(map[string]json.Number, len(rs.Rates)),
		}
		for code, rate := range rs.Rates {
			resp.Rates[code] = number(rate)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleConvert godoc
// @Summary Convert an amount
// @Description Converts an amount between two currencies using the latest snapshot.
// @Tags rates
// @Produce json
// @Param from query string true "Source currency code" minlength(3) maxlength(3)
// @Param to query string true "Target currency code" minlength(3) maxlength(3)
// @Param amount query string true "Non-negative decimal amount"
// @Success 200 {object} ConversionResponse
// @Failure 400 {object} ErrorResponse "Invalid parameter"
// @Failure 404 {object} ErrorResponse "Currency not found"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Failure 503 {object} ErrorResponse "No rates available yet"
// @Router /api/convert [get]
func HandleConvert(svc service.RatesServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		res, err := svc.Convert(r.Context(), q.Get("from"), q.Get("to"), q.Get("amount"))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ConversionResponse{
			From:   res.From,
			To:     res.To,
			Amount: number(res.Amount),
			Result: number(res.Result),
			Rate:   number(res.Rate),
			Date:   res.Date,
		})
	}
}

// HandleGetUpdateRun godoc
// @Summary Get a rate update run
// @Description Returns the journal record of one rate update run. Requires the update-run journal to be enabled.
// @Tags updates
// @Produce json
// @Param id path string true "Run ID (UUID)" format(uuid)
// @Success 200 {object} UpdateRunResponse
// @Failure 400 {object} ErrorResponse "Invalid run ID"
// @Failure 404 {object} ErrorResponse "Unknown run"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /api/updates/{id} [get]
func HandleGetUpdateRun(svc service.RatesServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := svc.GetUpdateRun(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUpdateRunResponse(run))
	}
}

// HandleGetLatestUpdateRun godoc
// @Summary Get the latest rate update run
// @Description Returns the most recently started rate update run.
// @Tags updates
// @Produce json
// @Success 200 {object} UpdateRunResponse
// @Failure 404 {object} ErrorResponse "No runs recorded"
// @Failure 500 {object} ErrorResponse "Internal error"
// @Router /api/updates/latest [get]
func HandleGetLatestUpdateRun(svc service.RatesServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := svc.GetLatestUpdateRun(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUpdateRunResponse(run))
	}
}

func toUpdateRunResponse(run *service.UpdateRunResult) UpdateRunResponse {
	return UpdateRunResponse{
		ID:         run.ID,
		Trigger:    run.Trigger,
		Status:     run.Status,
		RatesDate:  run.RatesDate,
		Currencies: run.Currencies,
		Error:      run.ErrorMsg,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}
