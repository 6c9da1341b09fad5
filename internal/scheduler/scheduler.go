// Package scheduler drives periodic background sync from a cron
// expression, so pending drafts drain even when nothing else triggers a
// run.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"draftsync/pkg/config"
	"draftsync/pkg/engine"
	"draftsync/pkg/logger"
)

// Start starts the periodic sync scheduler if enabled and returns a
// cancel func. An invalid cron expression is a startup error.
func Start(ctx context.Context, cfg config.PeriodicConfig, eng *engine.Engine) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("periodic_sync_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		// every 15 minutes
		cronExpr = "*/15 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("periodic_sync_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid sync cron expression: %s", cfg.Cron)
	}

	ctx2, cancel := context.WithCancel(ctx)
	go run(ctx2, cronExpr, eng)
	logger.Info("periodic_sync_started", "cron", cronExpr)
	return cancel, nil
}

// run computes the next tick with gronx and sleeps until it. A tick
// that lands while a run is in flight is absorbed by the engine's guard.
func run(ctx context.Context, cronExpr string, eng *engine.Engine) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("periodic_sync_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("periodic_sync_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("periodic_sync_stopping")
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			wait = time.Second
		}
		select {
		case <-time.After(wait):
			res := eng.SyncPendingDrafts(ctx)
			logger.Info("periodic_sync_run",
				"success", res.Success,
				"synced", res.SyncedCount,
				"failed", res.FailedCount,
				"conflicts", res.ConflictCount)
		case <-ctx.Done():
			logger.Info("periodic_sync_stopping")
			return
		}
	}
}
