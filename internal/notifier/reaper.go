package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/remindkit/remindd/internal/metrics"
	"github.com/remindkit/remindd/internal/repository"
)

// Reaper recovers deliveries stuck in "sending" after a sender crash: those
// with retries left go back to pending, the rest are failed for good.
type Reaper struct {
	deliveries       repository.DeliveryRepository
	logger           *slog.Logger
	interval         time.Duration
	heartbeatTimeout time.Duration
}

func NewReaper(deliveries repository.DeliveryRepository, logger *slog.Logger, interval, heartbeatTimeout time.Duration) *Reaper {
	return &Reaper{
		deliveries:       deliveries,
		logger:           logger.With("component", "reaper"),
		interval:         interval,
		heartbeatTimeout: heartbeatTimeout,
	}
}

func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reaper started", "interval", r.interval, "heartbeat_timeout", r.heartbeatTimeout)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper shut down")
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

func (r *Reaper) reap(ctx context.Context) {
	start := time.Now()
	staleCutoff := time.Now().Add(-r.heartbeatTimeout)

	rescheduled, err := r.deliveries.RescheduleStale(ctx, staleCutoff, 100)
	if err != nil {
		r.logger.Error("reschedule stale deliveries", "error", err)
	} else if rescheduled > 0 {
		metrics.ReaperRescuedTotal.WithLabelValues("rescheduled").Add(float64(rescheduled))
		r.logger.Info("rescheduled stale deliveries", "count", rescheduled)
	}

	failed, err := r.deliveries.FailStale(ctx, staleCutoff, 100)
	if err != nil {
		r.logger.Error("fail stale deliveries", "error", err)
	} else if failed > 0 {
		metrics.ReaperRescuedTotal.WithLabelValues("failed").Add(float64(failed))
		r.logger.Info("permanently failed stale deliveries", "count", failed, "reason", "max retries exceeded")
	}

	metrics.ReaperCycleDuration.Observe(time.Since(start).Seconds())
}
