// Package expiry releases slots held by bookings whose checkout was never
// completed.
package expiry

import (
	"context"
	"log/slog"
	"time"
)

// Expirer cancels up to limit stale pending bookings and reports how many.
type Expirer interface {
	ExpireStalePending(ctx context.Context, limit int) (int, error)
}

type Worker struct {
	exp       Expirer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
}

func NewWorker(exp Expirer, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Worker{
		exp:       exp,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.Sweep(ctx)
			if err != nil {
				w.logger.Error("pending booking expiry failed", "err", err)
				continue
			}
			if n > 0 {
				w.logger.Info("pending bookings expired", "count", n)
			}
		}
	}
}

// Sweep expires batches until one comes back short.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := w.exp.ExpireStalePending(ctx, w.batchSize)
		total += n
		if err != nil {
			return total, err
		}
		if n < w.batchSize || ctx.Err() != nil {
			return total, nil
		}
	}
}
