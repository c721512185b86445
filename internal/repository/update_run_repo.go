package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RunStatus represents the state of one update pipeline run.
type RunStatus string

// RunStatus values for the update run lifecycle.
const (
	StatusFetching RunStatus = "FETCHING"
	StatusStored   RunStatus = "STORED"
	StatusFailed   RunStatus = "FAILED"
)

// Trigger values name what started a run.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
)

// UpdateRun is the journal record of one pipeline run.
type UpdateRun struct {
	ID         string
	Trigger    string
	Status     RunStatus
	RatesDate  *string
	Currencies *int
	ErrorMsg   *string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// UpdateRunRepository journals update pipeline runs.
type UpdateRunRepository interface {
	CreateRun(ctx context.Context, id, trigger string) error
	MarkStored(ctx context.Context, id, ratesDate string, currencies int) error
	MarkFailed(ctx context.Context, id, errorMsg string) error
	GetByID(ctx context.Context, id string) (*UpdateRun, error)
	GetLatest(ctx context.Context) (*UpdateRun, error)
}

var _ UpdateRunRepository = (*PostgresUpdateRunRepository)(nil)

// PostgresUpdateRunRepository is an implementation of UpdateRunRepository using PostgreSQL.
type PostgresUpdateRunRepository struct {
	db *sql.DB
}

// NewPostgresUpdateRunRepository creates a new PostgresUpdateRunRepository.
func NewPostgresUpdateRunRepository(db *sql.DB) *PostgresUpdateRunRepository {
	return &PostgresUpdateRunRepository{db: db}
}

// CreateRun inserts a run in FETCHING status. Re-creating an existing id is a no-op.
func (r *PostgresUpdateRunRepository) CreateRun(ctx context.Context, id, trigger string) error {
	query := `INSERT INTO update_runs (id, trigger, status, started_at)
              VALUES ($1::uuid, $2, $3::update_run_status, NOW())
              ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, id, trigger, StatusFetching); err != nil {
		return fmt.Errorf("failed to create update run: %w", err)
	}
	return nil
}

// MarkStored moves a FETCHING run to STORED and records what was stored.
func (r *PostgresUpdateRunRepository) MarkStored(ctx context.Context, id, ratesDate string, currencies int) error {
	query := `UPDATE update_runs
				SET status=$1::update_run_status,
				    rates_date=$2::date,
				    currencies=$3,
				    finished_at=NOW()
				WHERE id=$4::uuid AND status=$5::update_run_status`

	result, err := r.db.ExecContext(ctx, query, StatusStored, ratesDate, currencies, id, StatusFetching)
	if err != nil {
		return fmt.Errorf("failed to mark run stored: %w", err)
	}
	return checkRowsAffected(result, id)
}

// MarkFailed moves a FETCHING run to FAILED with an error message.
func (r *PostgresUpdateRunRepository) MarkFailed(ctx context.Context, id, errorMsg string) error {
	query := `UPDATE update_runs
				SET status=$1::update_run_status,
				    error=$2,
				    finished_at=NOW()
				WHERE id=$3::uuid AND status=$4::update_run_status`

	result, err := r.db.ExecContext(ctx, query, StatusFailed, errorMsg, id, StatusFetching)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return checkRowsAffected(result, id)
}

func checkRowsAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("update run %s not found or already finished", id)
	}
	return nil
}

const selectUpdateRun = `SELECT id::text, trigger, status, to_char(rates_date, 'YYYY-MM-DD'), currencies, error, started_at, finished_at
              FROM update_runs`

// GetByID retrieves a run by id. It returns (nil, nil) if there is none.
func (r *PostgresUpdateRunRepository) GetByID(ctx context.Context, id string) (*UpdateRun, error) {
	row := r.db.QueryRowContext(ctx, selectUpdateRun+` WHERE id=$1::uuid`, id)
	return scanUpdateRun(row)
}

// GetLatest retrieves the most recently started run. It returns (nil, nil) if there is none.
func (r *PostgresUpdateRunRepository) GetLatest(ctx context.Context) (*UpdateRun, error) {
	row := r.db.QueryRowContext(ctx, selectUpdateRun+` ORDER BY started_at DESC LIMIT 1`)
	return scanUpdateRun(row)
}

// scanUpdateRun maps a single row into an UpdateRun, returning (nil, nil) for sql.ErrNoRows.
func scanUpdateRun(row *sql.Row) (*UpdateRun, error) {
	var run UpdateRun
	var statusStr string
	var ratesDate, errMsg sql.NullString
	var currencies sql.NullInt64
	var finishedAt sql.NullTime

	err := row.Scan(&run.ID, &run.Trigger, &statusStr, &ratesDate, &currencies, &errMsg, &run.StartedAt, &finishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	run.Status = RunStatus(statusStr)
	if ratesDate.Valid {
		run.RatesDate = &ratesDate.String
	}
	if currencies.Valid {
		n := int(currencies.Int64)
		run.Currencies = &n
	}
	if errMsg.Valid {
		run.ErrorMsg = &errMsg.String
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

var _ UpdateRunRepository = NopUpdateRunRepository{}

// NopUpdateRunRepository is used when journaling is disabled. Writes are
// dropped and reads find nothing.
type NopUpdateRunRepository struct{}

// CreateRun implements UpdateRunRepository.
func (NopUpdateRunRepository) CreateRun(context.Context, string, string) error { return nil }

// MarkStored implements UpdateRunRepository.
func (NopUpdateRunRepository) MarkStored(context.Context, string, string, int) error { return nil }

// MarkFailed implements UpdateRunRepository.
func (NopUpdateRunRepository) MarkFailed(context.Context, string, string) error { return nil }

// GetByID implements UpdateRunRepository.
func (NopUpdateRunRepository) GetByID(context.Context, string) (*UpdateRun, error) { return nil, nil }

// GetLatest implements UpdateRunRepository.
func (NopUpdateRunRepository) GetLatest(context.Context) (*UpdateRun, error) { return nil, nil }
