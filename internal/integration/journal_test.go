//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"fxrates/internal/repository"
)

func newJournal() repository.UpdateRunRepository {
	return repository.NewPostgresUpdateRunRepository(testDB)
}

func TestUpdateRunJournal_Stored(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	journal := newJournal()

	id := uuid.NewString()
	if err := journal.CreateRun(ctx, id, repository.TriggerSchedule); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	run, err := journal.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run == nil || run.Status != repository.StatusFetching {
		t.Fatalf("expected FETCHING run, got %+v", run)
	}

	if err := journal.MarkStored(ctx, id, "2024-12-04", 30); err != nil {
		t.Fatalf("MarkStored: %v", err)
	}

	run, err = journal.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run.Status != repository.StatusStored {
		t.Fatalf("expected STORED, got %s", run.Status)
	}
	if run.RatesDate == nil || *run.RatesDate != "2024-12-04" {
		t.Fatalf("expected rates date 2024-12-04, got %v", run.RatesDate)
	}
	if run.Currencies == nil || *run.Currencies != 30 {
		t.Fatalf("expected 30 currencies, got %v", run.Currencies)
	}
	if run.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
}

func TestUpdateRunJournal_FailedAndLatest(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	journal := newJournal()

	first := uuid.NewString()
	if err := journal.CreateRun(ctx, first, repository.TriggerStartup); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	second := uuid.NewString()
	if err := journal.CreateRun(ctx, second, repository.TriggerSchedule); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := journal.MarkFailed(ctx, second, "failed to fetch rates feed"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	latest, err := journal.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest == nil || latest.ID != second {
		t.Fatalf("expected latest run %s, got %+v", second, latest)
	}
	if latest.Status != repository.StatusFailed || latest.ErrorMsg == nil {
		t.Fatalf("expected FAILED run with error, got %+v", latest)
	}
}

func TestUpdateRunJournal_Unknown(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)

	run, err := newJournal().GetByID(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil run, got %+v", run)
	}

	if err := newJournal().MarkStored(ctx, uuid.NewString(), "2024-12-04", 1); err == nil {
		t.Fatal("expected error marking unknown run")
	}
}
