package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type scheduleReaper interface {
	Reap(ctx context.Context, cutoff time.Time) (int, error)
}

// Reaper periodically abandons schedules stuck in RUNNING past maxAge,
// covering the case where a worker process dies mid-run after pickup
// (spec.md §4.8 "Cancellation"). Grounded on the teacher's
// ReportService.StartCleanup ticking-goroutine shape.
type Reaper struct {
	schedules scheduleReaper
	interval  time.Duration
	maxAge    time.Duration
	logger    *zap.Logger
}

// NewReaper builds a Reaper. maxAge should be a generous multiple of the
// solver's own time budget so a run that is merely slow is never reaped.
func NewReaper(schedules scheduleReaper, interval, maxAge time.Duration, logger *zap.Logger) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reaper{schedules: schedules, interval: interval, maxAge: maxAge, logger: logger}
}

// Start boots the sweep goroutine. Returns immediately; stops when ctx is
// cancelled.
func (r *Reaper) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep(ctx)
			}
		}
	}()
}

func (r *Reaper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.maxAge)
	reaped, err := r.schedules.Reap(ctx, cutoff)
	if err != nil {
		r.logger.Warn("schedule reaper sweep failed", zap.Error(err))
		return
	}
	if reaped > 0 {
		r.logger.Info("reaped abandoned schedules", zap.Int("count", reaped), zap.Time("cutoff", cutoff))
	}
}
