// Package worker schedules rate update runs and executes them inline or
// through the asynq task queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"fxrates/internal/service"
)

// TaskTypeRefreshRates is the Asynq task type for rate update runs.
const TaskTypeRefreshRates = "rates:refresh"

// RefreshRatesPayload is the payload of a rates:refresh task. Slot is the
// schedule slot the task was enqueued for, so that replicas enqueueing the
// same tick produce identical payloads.
type RefreshRatesPayload struct {
	Trigger string `json:"trigger"`
	Slot    string `json:"slot"`
}

// Updater executes one rate update run.
type Updater interface {
	Run(ctx context.Context, runID, trigger string) error
}

// NewRefreshRatesHandler returns a function to handle rates:refresh tasks.
// The asynq task id becomes the run id.
func NewRefreshRatesHandler(updater Updater, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RefreshRatesPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
			return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
		}

		runID, ok := asynq.GetTaskID(ctx)
		if !ok {
			runID = uuid.NewString()
		}

		err := updater.Run(ctx, runID, payload.Trigger)
		if errors.Is(err, service.ErrUpdateInProgress) {
			logger.Infow("Task skipped, update already in progress", "run_id", runID)
			return nil
		}
		if err != nil {
			logger.Errorw("Task processing failed", "run_id", runID, "slot", payload.Slot, "error", err)
			return err
		}

		logger.Infow("Task completed", "run_id", runID, "slot", payload.Slot)
		return nil
	}
}

// AsynqDispatcher enqueues rates:refresh tasks. Tasks are unique per schedule
// slot for uniqueTTL, so only one replica's enqueue per tick succeeds.
type AsynqDispatcher struct {
	client    *asynq.Client
	timeout   time.Duration
	uniqueTTL time.Duration
	slot      time.Duration
	log       *zap.SugaredLogger
	now       func() time.Time
}

var _ Dispatcher = (*AsynqDispatcher)(nil)

// NewAsynqDispatcher creates a new AsynqDispatcher. timeout bounds one task
// execution in the worker.
func NewAsynqDispatcher(client *asynq.Client, timeout, uniqueTTL time.Duration, logger *zap.SugaredLogger) *AsynqDispatcher {
	return &AsynqDispatcher{
		client:    client,
		timeout:   timeout,
		uniqueTTL: uniqueTTL,
		slot:      time.Minute,
		log:       logger,
		now:       time.Now,
	}
}

// Dispatch enqueues one update task. A task already enqueued for the same
// slot by another replica is not an error.
func (d *AsynqDispatcher) Dispatch(ctx context.Context, trigger string) error {
	payload := RefreshRatesPayload{
		Trigger: trigger,
		Slot:    d.now().UTC().Truncate(d.slot).Format(time.RFC3339),
	}
	task, err := NewRefreshRatesTask(payload, d.timeout, d.uniqueTTL)
	if err != nil {
		return err
	}

	info, err := d.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		d.log.Infow("Rate update already enqueued for slot", "slot", payload.Slot, "trigger", trigger)
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskTypeRefreshRates, err)
	}

	d.log.Infow("Enqueued rate update task", "task_id", info.ID, "queue", info.Queue, "slot", payload.Slot, "trigger", trigger)
	return nil
}

// NewRefreshRatesTask builds a rates:refresh task. Failed runs are not
// retried; the next tick is the retry.
func NewRefreshRatesTask(payload RefreshRatesPayload, timeout, uniqueTTL time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRefreshRates, data,
		asynq.MaxRetry(0),
		asynq.Timeout(timeout),
		asynq.Unique(uniqueTTL),
	), nil
}
