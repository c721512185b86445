package api

import (
	"context"

	"fxrates/internal/rates"
	"fxrates/internal/service"
)

// mockRatesService implements service.RatesServiceInterface for testing.
type mockRatesService struct {
	getLatestRatesFunc     func(ctx context.Context, base string) (*rates.RateSet, error)
	convertFunc            func(ctx context.Context, from, to, amount string) (*service.ConversionResult, error)
	healthFunc             func(ctx context.Context) service.HealthStatus
	getUpdateRunFunc       func(ctx context.Context, id string) (*service.UpdateRunResult, error)
	getLatestUpdateRunFunc func(ctx context.Context) (*service.UpdateRunResult, error)
}

func (m *mockRatesService) GetLatestRates(ctx context.Context, base string) (*rates.RateSet, error) {
	return m.getLatestRatesFunc(ctx, base)
}

func (m *mockRatesService) Convert(ctx context.Context, from, to, amount string) (*service.ConversionResult, error) {
	return m.convertFunc(ctx, from, to, amount)
}

func (m *mockRatesService) Health(ctx context.Context) service.HealthStatus {
	return m.healthFunc(ctx)
}

func (m *mockRatesService) GetUpdateRun(ctx context.Context, id string) (*service.UpdateRunResult, error) {
	return m.getUpdateRunFunc(ctx, id)
}

func (m *mockRatesService) GetLatestUpdateRun(ctx context.Context) (*service.UpdateRunResult, error) {
	return m.getLatestUpdateRunFunc(ctx)
}
