package service

import (
	"context"
	"sync"

	"fxrates/internal/events"
	"fxrates/internal/rates"
	"fxrates/internal/repository"
)

// Mock provider
type mockRatesProvider struct {
	fetchRatesFunc func(ctx context.Context) (*rates.RateSet, error)
}

func (m *mockRatesProvider) FetchRates(ctx context.Context) (*rates.RateSet, error) {
	return m.fetchRatesFunc(ctx)
}

// Mock store
type mockRateStore struct {
	storeFunc             func(ctx context.Context, rs *rates.RateSet) error
	getLatestFunc         func(ctx context.Context) (*rates.RateSet, error)
	getLastUpdateDateFunc func(ctx context.Context) (string, bool, error)
	healthCheckFunc       func(ctx context.Context) error
}

func (m *mockRateStore) Store(ctx context.Context, rs *rates.RateSet) error {
	return m.storeFunc(ctx, rs)
}

func (m *mockRateStore) GetLatest(ctx context.Context) (*rates.RateSet, error) {
	return m.getLatestFunc(ctx)
}

func (m *mockRateStore) GetLastUpdateDate(ctx context.Context) (string, bool, error) {
	return m.getLastUpdateDateFunc(ctx)
}

func (m *mockRateStore) HealthCheck(ctx context.Context) error {
	return m.healthCheckFunc(ctx)
}

// Recording journal
type journalCall struct {
	op     string
	id     string
	detail string
}

type recordingJournal struct {
	mu     sync.Mutex
	calls  []journalCall
	getErr error
	run    *repository.UpdateRun
}

func (j *recordingJournal) record(c journalCall) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, c)
}

func (j *recordingJournal) CreateRun(_ context.Context, id, trigger string) error {
	j.record(journalCall{op: "create", id: id, detail: trigger})
	return nil
}

func (j *recordingJournal) MarkStored(_ context.Context, id, ratesDate string, _ int) error {
	j.record(journalCall{op: "stored", id: id, detail: ratesDate})
	return nil
}

func (j *recordingJournal) MarkFailed(_ context.Context, id, errorMsg string) error {
	j.record(journalCall{op: "failed", id: id, detail: errorMsg})
	return nil
}

func (j *recordingJournal) GetByID(_ context.Context, id string) (*repository.UpdateRun, error) {
	if j.getErr != nil {
		return nil, j.getErr
	}
	if j.run != nil && j.run.ID == id {
		return j.run, nil
	}
	return nil, nil
}

func (j *recordingJournal) GetLatest(context.Context) (*repository.UpdateRun, error) {
	return j.run, j.getErr
}

// Recording publisher
type recordingPublisher struct {
	events []events.SnapshotEvent
	err    error
}

func (p *recordingPublisher) PublishSnapshot(_ context.Context, event events.SnapshotEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }
