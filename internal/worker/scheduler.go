package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"fxrates/internal/repository"
	"fxrates/internal/service"
)

// stopGrace bounds how long Stop waits for a canceled run to unwind.
var stopGrace = 5 * time.Second

// Schedules accept an optional leading seconds field and descriptors such as
// @daily or @every 1h.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a 5- or 6-field cron expression or a descriptor.
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// Scheduler dispatches rate updates on a cron schedule evaluated in UTC.
// Ticks that arrive while a dispatch is still running are skipped.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher Dispatcher
	spec       string
	log        *zap.SugaredLogger

	runCtx    context.Context
	cancelRun context.CancelFunc
}

// NewScheduler creates a stopped Scheduler for spec.
func NewScheduler(spec string, dispatcher Dispatcher, logger *zap.SugaredLogger) (*Scheduler, error) {
	schedule, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}

	cl := cronLogger{log: logger}
	runCtx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		dispatcher: dispatcher,
		spec:       spec,
		log:        logger,
		runCtx:     runCtx,
		cancelRun:  cancel,
	}
	s.cron.Schedule(schedule, cron.FuncJob(s.tick))
	return s, nil
}

// Start begins evaluating the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	entries := s.cron.Entries()
	if len(entries) > 0 {
		s.log.Infow("Rate update scheduler started", "schedule", s.spec, "next_run", entries[0].Next)
	}
}

// RunNow dispatches one update immediately with the given trigger.
func (s *Scheduler) RunNow(ctx context.Context, trigger string) error {
	return s.dispatcher.Dispatch(ctx, trigger)
}

// Stop stops new ticks and waits for an in-flight dispatch. If ctx expires
// first, the in-flight dispatch is canceled, Stop waits up to stopGrace for it
// to return and ctx's error is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancelRun()
		s.log.Infow("Rate update scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancelRun()
		select {
		case <-done.Done():
			s.log.Warnw("Rate update scheduler stop timed out, in-flight run canceled")
		case <-time.After(stopGrace):
			s.log.Errorw("Rate update scheduler stop timed out, in-flight run did not return after cancel")
		}
		return ctx.Err()
	}
}

func (s *Scheduler) tick() {
	err := s.dispatcher.Dispatch(s.runCtx, repository.TriggerSchedule)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUpdateInProgress):
		s.log.Infow("Scheduled rate update skipped, another update is in progress")
	default:
		s.log.Errorw("Scheduled rate update failed", "error", err)
	}
}

// cronLogger routes cron's internal logging to zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
