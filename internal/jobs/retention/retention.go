package retention

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type auditPruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job prunes audit records past the configured retention.
type Job struct {
	pruner    auditPruner
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func New(pruner auditPruner, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.pruner == nil {
		return nil
	}

	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.pruner.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune audit records: %w", err)
	}
	if deleted > 0 {
		j.logger.Info("audit retention pass completed", zap.Int64("deleted", deleted))
	}

	return nil
}

// RunLoop runs retention passes until the context is cancelled.
func (j *Job) RunLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("audit retention pass failed", zap.Error(err))
			}
		}
	}
}
