package worker

import (
	"context"
	"time"

	"github.com/salonloop/notifier/internal/repository"
	"github.com/salonloop/notifier/pkg/logger"
)

// RetentionWorker prunes aged audit rows so the run and attempt tables
// stay bounded. The notification ledger itself is never pruned: its
// rows back the dedup guarantee for as long as their events exist.
type RetentionWorker struct {
	runs      repository.RunLogRepository
	attempts  repository.AttemptLogRepository
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger
}

func NewRetentionWorker(
	runs repository.RunLogRepository,
	attempts repository.AttemptLogRepository,
	retention, interval time.Duration,
	logger *logger.Logger,
) *RetentionWorker {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionWorker{
		runs:      runs,
		attempts:  attempts,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Start blocks until ctx is cancelled, pruning once per interval.
func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

func (w *RetentionWorker) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-w.retention)

	attempts, err := w.attempts.PruneBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error(err, "failed to prune attempt logs")
	}
	runs, err := w.runs.PruneBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error(err, "failed to prune run logs")
	}

	if attempts > 0 || runs > 0 {
		w.logger.Info("pruned aged audit rows",
			"attempt_logs", attempts,
			"run_logs", runs,
			"cutoff", cutoff.Format("2006-01-02"),
		)
	}
}
