package queue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSweepInterval = time.Hour
	sweepTimeout         = 2 * time.Minute
)

// GarbageCollector sweeps the dead-letter queue on a fixed interval, dropping
// failed progress jobs older than the retention window.
type GarbageCollector struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	purged    atomic.Int64
	logger    *zap.Logger
}

// NewGarbageCollector creates a collector. A non-positive interval falls back to one hour.
func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration, logger *zap.Logger) *GarbageCollector {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GarbageCollector{purger: purger, interval: interval, retention: retention, logger: logger}
}

// Start sweeps once immediately, then on every tick until ctx is cancelled.
// Sweep failures are logged and do not stop the loop.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if gc.purger == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	gc.sweepAndLog(ctx)

	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			gc.sweepAndLog(ctx)
		}
	}
}

// Sweep runs one purge and returns how many dead-lettered jobs were removed.
func (gc *GarbageCollector) Sweep(ctx context.Context) (int, error) {
	if gc.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return 0, fmt.Errorf("failed to purge dead-letter queue: %w", err)
	}
	gc.purged.Add(int64(n))
	return n, nil
}

// Purged returns the number of jobs removed since the collector was created.
func (gc *GarbageCollector) Purged() int64 {
	return gc.purged.Load()
}

func (gc *GarbageCollector) sweepAndLog(ctx context.Context) {
	n, err := gc.Sweep(ctx)
	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		gc.logger.Error("dlq_sweep_failed", zap.Error(err))
	case n > 0:
		gc.logger.Info("dlq_sweep_purged",
			zap.Int("count", n),
			zap.Duration("retention", gc.retention),
			zap.Int64("total_purged", gc.Purged()),
		)
	}
}
