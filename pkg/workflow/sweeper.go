package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/notifyplan/pkg/logger"
)

var sweepParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// StartSweeper schedules Sweep on Config.SweepSchedule until Stop is called.
func (e *Engine) StartSweeper(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cron != nil {
		return ErrSweeperRunning
	}

	c := cron.New(cron.WithParser(sweepParser))
	_, err := c.AddFunc(e.cfg.SweepSchedule, func() {
		if _, err := e.Sweep(ctx); err != nil {
			e.logger.LogAttrs(ctx, slog.LevelError, "Workflow sweep failed", logger.Error(err))
		}
	})
	if err != nil {
		return errors.Join(ErrInvalidSchedule, fmt.Errorf("schedule %q: %w", e.cfg.SweepSchedule, err))
	}

	c.Start()
	e.cron = c
	e.logger.LogAttrs(ctx, slog.LevelDebug, "Workflow sweeper started",
		slog.String("schedule", e.cfg.SweepSchedule),
		logger.Duration(e.cfg.Timeout),
	)
	return nil
}

// Stop stops the sweeper and waits for a running sweep to return.
func (e *Engine) Stop() {
	e.mu.Lock()
	c := e.cron
	e.cron = nil
	e.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Sweep removes instances started more than Config.Timeout ago and returns
// how many were removed. Evicted instances do not run their complete step.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	all, err := e.store.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := e.now().Add(-e.cfg.Timeout)
	var (
		evicted int
		errs    []error
	)
	for _, wc := range all {
		if !wc.StartedAt.Before(cutoff) {
			continue
		}
		if err := transition(ctx, wc, eventExpire); err != nil {
			e.logger.LogAttrs(ctx, slog.LevelWarn, "Expiring workflow in unexpected state",
				logger.WorkflowID(wc.WorkflowID),
				slog.String("status", string(wc.Status)),
			)
		}

		removed, err := e.store.Delete(ctx, wc.WorkflowID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if removed {
			evicted++
			e.logger.LogAttrs(ctx, slog.LevelInfo, "Workflow expired",
				logger.WorkflowID(wc.WorkflowID),
				logger.UserID(wc.RecipientID),
			)
		}
	}
	return evicted, errors.Join(errs...)
}
