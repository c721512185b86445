package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fxrates/internal/metrics"
	"fxrates/internal/rates"
	"fxrates/internal/repository"
)

func testRateSet(date string) *rates.RateSet {
	return &rates.RateSet{
		Date: date,
		Base: "EUR",
		Rates: map[string]decimal.Decimal{
			"USD": decimal.RequireFromString("1.05"),
			"GBP": decimal.RequireFromString("0.85"),
			"JPY": decimal.RequireFromString("158.2"),
		},
	}
}

func newMiniredisStore(t *testing.T) *repository.RedisRateStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return repository.NewRedisRateStore(rdb, "")
}

func TestRateUpdater_Run_Success(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := newMiniredisStore(t)
	journal := &recordingJournal{}
	publisher := &recordingPublisher{}
	m := metrics.NewMetrics()

	prov := &mockRatesProvider{fetchRatesFunc: func(context.Context) (*rates.RateSet, error) {
		return testRateSet("2024-12-04"), nil
	}}

	u := NewRateUpdater(prov, store, journal, publisher, m, logger.Sugar())
	err := u.Run(context.Background(), "run-1", repository.TriggerStartup)
	require.NoError(t, err)

	stored, err := store.GetLatest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "2024-12-04", stored.Date)

	require.Len(t, journal.calls, 2)
	assert.Equal(t, journalCall{op: "create", id: "run-1", detail: "startup"}, journal.calls[0])
	assert.Equal(t, journalCall{op: "stored", id: "run-1", detail: "2024-12-04"}, journal.calls[1])

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "run-1", publisher.events[0].RunID)
	assert.Equal(t, 3, publisher.events[0].Currencies)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateUpdatesTotal.WithLabelValues("startup", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SnapshotCurrencies))
}

func TestRateUpdater_Run_FetchFailureKeepsPreviousSnapshot(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := newMiniredisStore(t)
	require.NoError(t, store.Store(context.Background(), testRateSet("2024-12-03")))

	journal := &recordingJournal{}
	publisher := &recordingPublisher{}
	m := metrics.NewMetrics()
	prov := &mockRatesProvider{fetchRatesFunc: func(context.Context) (*rates.RateSet, error) {
		return nil, fmt.Errorf("%w: feed returned status 503", rates.ErrFetch)
	}}

	u := NewRateUpdater(prov, store, journal, publisher, m, logger.Sugar())
	err := u.Run(context.Background(), "run-2", repository.TriggerSchedule)
	require.Error(t, err)
	assert.ErrorIs(t, err, rates.ErrFetch)

	stored, err := store.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-12-03", stored.Date)

	require.Len(t, journal.calls, 2)
	assert.Equal(t, "failed", journal.calls[1].op)
	assert.Contains(t, journal.calls[1].detail, "503")
	assert.Empty(t, publisher.events)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateUpdatesTotal.WithLabelValues("schedule", "failure")))
}

func TestRateUpdater_Run_StoreFailure(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	journal := &recordingJournal{}
	publisher := &recordingPublisher{}
	prov := &mockRatesProvider{fetchRatesFunc: func(context.Context) (*rates.RateSet, error) {
		return testRateSet("2024-12-04"), nil
	}}
	store := &mockRateStore{storeFunc: func(context.Context, *rates.RateSet) error {
		return fmt.Errorf("%w: write snapshot: connection refused", rates.ErrStore)
	}}

	u := NewRateUpdater(prov, store, journal, publisher, metrics.NewMetrics(), logger.Sugar())
	err := u.Run(context.Background(), "", repository.TriggerSchedule)
	assert.ErrorIs(t, err, rates.ErrStore)

	require.Len(t, journal.calls, 2)
	assert.NotEmpty(t, journal.calls[0].id)
	assert.Equal(t, journal.calls[0].id, journal.calls[1].id)
	assert.Equal(t, "failed", journal.calls[1].op)
	assert.Empty(t, publisher.events)
}

func TestRateUpdater_Run_PublishFailureDoesNotFailRun(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	prov := &mockRatesProvider{fetchRatesFunc: func(context.Context) (*rates.RateSet, error) {
		return testRateSet("2024-12-04"), nil
	}}
	publisher := &recordingPublisher{err: errors.New("broker unavailable")}

	u := NewRateUpdater(prov, newMiniredisStore(t), &recordingJournal{}, publisher, metrics.NewMetrics(), logger.Sugar())
	assert.NoError(t, u.Run(context.Background(), "run-3", repository.TriggerSchedule))
	assert.Len(t, publisher.events, 1)
}

func TestRateUpdater_Run_RejectsOverlap(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	entered := make(chan struct{})
	release := make(chan struct{})
	prov := &mockRatesProvider{fetchRatesFunc: func(context.Context) (*rates.RateSet, error) {
		close(entered)
		<-release
		return testRateSet("2024-12-04"), nil
	}}

	u := NewRateUpdater(prov, newMiniredisStore(t), &recordingJournal{}, &recordingPublisher{}, metrics.NewMetrics(), logger.Sugar())

	done := make(chan error, 1)
	go func() { done <- u.Run(context.Background(), "first", repository.TriggerSchedule) }()
	<-entered

	err := u.Run(context.Background(), "second", repository.TriggerSchedule)
	assert.ErrorIs(t, err, ErrUpdateInProgress)

	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not finish")
	}
}
