// Package service implements the rate update pipeline and the request-level
// use cases served over HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fxrates/internal/converter"
	"fxrates/internal/metrics"
	"fxrates/internal/rates"
	"fxrates/internal/repository"
)

// RatesServiceInterface defines the read-side operations of the service.
type RatesServiceInterface interface {
	GetLatestRates(ctx context.Context, base string) (*rates.RateSet, error)
	Convert(ctx context.Context, from, to, amount string) (*ConversionResult, error)
	Health(ctx context.Context) HealthStatus
	GetUpdateRun(ctx context.Context, id string) (*UpdateRunResult, error)
	GetLatestUpdateRun(ctx context.Context) (*UpdateRunResult, error)
}

var _ RatesServiceInterface = (*RatesService)(nil)

// RatesService serves snapshot reads and conversions from the rate store.
type RatesService struct {
	store     repository.RateStore
	journal   repository.UpdateRunRepository
	validator *RequestValidator
	metrics   *metrics.Metrics
	log       *zap.SugaredLogger
}

// NewRatesService creates a new RatesService
func NewRatesService(store repository.RateStore, journal repository.UpdateRunRepository, m *metrics.Metrics, logger *zap.SugaredLogger) *RatesService {
	return &RatesService{
		store:     store,
		journal:   journal,
		validator: NewRequestValidator(),
		metrics:   m,
		log:       logger,
	}
}

// GetLatestRates returns the stored snapshot, rebased to base when base is
// given and differs from the snapshot's own base.
func (s *RatesService) GetLatestRates(ctx context.Context, base string) (*rates.RateSet, error) {
	base = strings.TrimSpace(base)
	if err := s.validator.Struct(latestRatesParams{Base: base}); err != nil {
		return nil, err
	}

	rs, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if base == "" {
		return rs, nil
	}

	rebased, err := converter.Rebase(rs, base)
	if err != nil {
		if !errors.Is(err, rates.ErrCurrencyNotFound) {
			s.log.Errorw("Rebase failed", "base", base, "date", rs.Date, "error", err)
		}
		return nil, err
	}
	return rebased, nil
}

// Convert converts amount between two currencies using the stored snapshot.
func (s *RatesService) Convert(ctx context.Context, from, to, amount string) (*ConversionResult, error) {
	params := convertParams{
		From:   strings.TrimSpace(from),
		To:     strings.TrimSpace(to),
		Amount: strings.TrimSpace(amount),
	}
	if err := s.validator.Struct(params); err != nil {
		s.metrics.ObserveConversion("invalid")
		return nil, err
	}
	value, err := parseAmount(params.Amount)
	if err != nil {
		s.metrics.ObserveConversion("invalid")
		return nil, err
	}

	rs, err := s.loadSnapshot(ctx)
	if err != nil {
		s.metrics.ObserveConversion("unavailable")
		return nil, err
	}

	result, rate, err := converter.Convert(rs, params.From, params.To, value)
	if err != nil {
		switch {
		case errors.Is(err, rates.ErrCurrencyNotFound):
			s.metrics.ObserveConversion("unknown_currency")
		default:
			s.metrics.ObserveConversion("error")
			s.log.Errorw("Conversion failed", "from", params.From, "to", params.To, "amount", value, "error", err)
		}
		return nil, err
	}

	s.metrics.ObserveConversion("ok")
	return &ConversionResult{
		From:   rates.NormalizeCode(params.From),
		To:     rates.NormalizeCode(params.To),
		Amount: value,
		Result: result,
		Rate:   rate,
		Date:   rs.Date,
	}, nil
}

// Health reports backend reachability and the last stored snapshot date.
// It never fails.
func (s *RatesService) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{Redis: Healthy}
	if err := s.store.HealthCheck(ctx); err != nil {
		s.log.Warnw("Rate store health check failed", "error", err)
		status.Redis = Unhealthy
	}

	date, ok, err := s.store.GetLastUpdateDate(ctx)
	if err != nil {
		s.log.Debugw("Could not read last update date", "error", err)
		return status
	}
	if ok {
		status.LastUpdate = &date
	}
	return status
}

// GetUpdateRun returns the journal record of one update run.
func (s *RatesService) GetUpdateRun(ctx context.Context, id string) (*UpdateRunResult, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if err := s.validator.Struct(updateRunParams{ID: id}); err != nil {
		return nil, err
	}

	run, err := s.journal.GetByID(ctx, id)
	if err != nil {
		s.log.Errorw("DB error fetching update run by ID", "run_id", id, "error", err)
		return nil, fmt.Errorf("%w: read update run", rates.ErrInternal)
	}
	if run == nil {
		return nil, ErrNotFound
	}
	return updateRunResultFromRepo(run), nil
}

// GetLatestUpdateRun returns the most recently started update run.
func (s *RatesService) GetLatestUpdateRun(ctx context.Context) (*UpdateRunResult, error) {
	run, err := s.journal.GetLatest(ctx)
	if err != nil {
		s.log.Errorw("DB error fetching latest update run", "error", err)
		return nil, fmt.Errorf("%w: read update run", rates.ErrInternal)
	}
	if run == nil {
		return nil, ErrNotFound
	}
	return updateRunResultFromRepo(run), nil
}

func (s *RatesService) loadSnapshot(ctx context.Context) (*rates.RateSet, error) {
	rs, err := s.store.GetLatest(ctx)
	if err != nil {
		s.log.Errorw("Failed to load rate snapshot", "error", err)
		return nil, err
	}
	if rs == nil {
		return nil, rates.ErrNoRatesAvailable
	}
	return rs, nil
}
