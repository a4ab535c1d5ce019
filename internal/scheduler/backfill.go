// Package scheduler runs the embedding backfill: once at startup to cover
// notes that predate the index, then on a cron schedule to sweep up anything
// a detached update missed.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bowerhall/daybook/internal/logger"
	"github.com/bowerhall/daybook/pkg/daymem"
)

// standard 5-field cron expressions
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type BackfillRunner struct {
	store    *daymem.Store
	schedule cron.Schedule
}

func NewBackfillRunner(store *daymem.Store, schedule string) (*BackfillRunner, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid backfill schedule: %w", err)
	}

	return &BackfillRunner{store: store, schedule: sched}, nil
}

// Run blocks until ctx is done, firing a backfill pass immediately and then
// at each scheduled time.
func (r *BackfillRunner) Run(ctx context.Context) {
	r.pass(ctx)

	for {
		next := r.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Debug("backfill runner stopping")
			return
		case <-timer.C:
			r.pass(ctx)
		}
	}
}

func (r *BackfillRunner) pass(ctx context.Context) {
	if !r.store.HasEmbedder() {
		return
	}

	result, err := r.store.GenerateMissingEmbeddings(ctx)
	if err != nil {
		logger.Error("embedding backfill failed", "error", err)
		return
	}

	if result.Processed > 0 {
		logger.Info("embedding backfill complete",
			"processed", result.Processed,
			"succeeded", result.Succeeded,
			"failed", result.Failed)
	}
}
