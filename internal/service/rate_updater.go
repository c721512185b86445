package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fxrates/internal/events"
	"fxrates/internal/metrics"
	"fxrates/internal/provider"
	"fxrates/internal/rates"
	"fxrates/internal/repository"
)

// RateUpdater runs the fetch-store pipeline. A run moves
// FETCHING -> STORED or FETCHING -> FAILED; a failed run leaves the
// previously stored snapshot in place.
type RateUpdater struct {
	provider  provider.RatesProvider
	store     repository.RateStore
	journal   repository.UpdateRunRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.SugaredLogger
	running   atomic.Bool
}

// NewRateUpdater creates a new RateUpdater
func NewRateUpdater(
	prov provider.RatesProvider,
	store repository.RateStore,
	journal repository.UpdateRunRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.SugaredLogger,
) *RateUpdater {
	return &RateUpdater{
		provider:  prov,
		store:     store,
		journal:   journal,
		publisher: publisher,
		metrics:   m,
		log:       logger,
	}
}

// Run executes one update. An empty runID gets a generated one. Overlapping
// calls on the same updater are rejected with ErrUpdateInProgress.
func (u *RateUpdater) Run(ctx context.Context, runID, trigger string) error {
	if !u.running.CompareAndSwap(false, true) {
		u.log.Warnw("Skipping rate update, previous run still in progress", "trigger", trigger)
		return ErrUpdateInProgress
	}
	defer u.running.Store(false)

	if runID == "" {
		runID = uuid.NewString()
	}
	start := time.Now()
	log := u.log.With("run_id", runID, "trigger", trigger)

	log.Infow("Rate update started")
	if err := u.journal.CreateRun(ctx, runID, trigger); err != nil {
		log.Warnw("Failed to journal update run", "error", err)
	}

	rs, err := u.provider.FetchRates(ctx)
	if err != nil {
		u.fail(ctx, log, runID, trigger, start, err)
		return err
	}

	if err := u.store.Store(ctx, rs); err != nil {
		u.fail(ctx, log, runID, trigger, start, err)
		return err
	}

	currencies := len(rs.Rates)
	if err := u.journal.MarkStored(ctx, runID, rs.Date, currencies); err != nil {
		log.Warnw("Failed to mark update run as STORED", "error", err)
	}
	u.metrics.ObserveUpdate(trigger, metrics.UpdateSuccess, time.Since(start), currencies)

	u.publish(ctx, log, runID, trigger, rs)

	log.Infow("Rate update stored",
		"date", rs.Date,
		"base", rs.Base,
		"currencies", currencies,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (u *RateUpdater) fail(ctx context.Context, log *zap.SugaredLogger, runID, trigger string, start time.Time, cause error) {
	log.Errorw("Rate update failed", "error", cause, "duration_ms", time.Since(start).Milliseconds())
	u.metrics.ObserveUpdate(trigger, metrics.UpdateFailure, time.Since(start), 0)

	// the run context may already be canceled; the journal write must still land
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := u.journal.MarkFailed(jctx, runID, cause.Error()); err != nil {
		log.Warnw("Failed to mark update run as FAILED", "error", err)
	}
}

func (u *RateUpdater) publish(ctx context.Context, log *zap.SugaredLogger, runID, trigger string, rs *rates.RateSet) {
	event := events.SnapshotEvent{
		RunID:      runID,
		Trigger:    trigger,
		Date:       rs.Date,
		Base:       rs.Base,
		Currencies: len(rs.Rates),
		Rates:      rs.Rates,
		StoredAt:   time.Now().UTC(),
	}
	if err := u.publisher.PublishSnapshot(ctx, event); err != nil {
		log.Warnw("Failed to publish snapshot event", "error", err)
	}
}
