package service

import (
	"time"

	"github.com/shopspring/decimal"

	"fxrates/internal/repository"
)

// Backend health values.
const (
	Healthy   = "healthy"
	Unhealthy = "unhealthy"
)

// ConversionResult is the outcome of one conversion request.
type ConversionResult struct {
	From   string
	To     string
	Amount decimal.Decimal
	Result decimal.Decimal
	Rate   decimal.Decimal
	Date   string
}

// HealthStatus reports the snapshot backend state and the last stored date.
type HealthStatus struct {
	Redis      string
	LastUpdate *string
}

// UpdateRunResult represents an update run returned by the service layer.
// Fields are populated according to the run's status:
//   - STORED:   RatesDate, Currencies and FinishedAt are set.
//   - FAILED:   ErrorMsg and FinishedAt are set.
//   - FETCHING: only the identity fields are set.
type UpdateRunResult struct {
	ID         string
	Trigger    string
	Status     string
	RatesDate  *string
	Currencies *int
	ErrorMsg   *string
	StartedAt  string
	FinishedAt *string
}

func updateRunResultFromRepo(run *repository.UpdateRun) *UpdateRunResult {
	r := &UpdateRunResult{
		ID:        run.ID,
		Trigger:   run.Trigger,
		Status:    string(run.Status),
		StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		ts := run.FinishedAt.UTC().Format(time.RFC3339)
		r.FinishedAt = &ts
	}

	switch run.Status {
	case repository.StatusStored:
		r.RatesDate = run.RatesDate
		r.Currencies = run.Currencies
	case repository.StatusFailed:
		r.ErrorMsg = run.ErrorMsg
	}

	return r
}
