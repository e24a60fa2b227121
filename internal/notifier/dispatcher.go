package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/remindkit/remindd/internal/domain"
	"github.com/remindkit/remindd/internal/metrics"
	"github.com/remindkit/remindd/internal/recurrence"
	"github.com/remindkit/remindd/internal/repository"
)

// Dispatcher fires due reminders: each cycle it claims reminders whose
// next_fire_at has passed, turns them into pending deliveries, and advances
// them to their next occurrence.
type Dispatcher struct {
	reminders repository.ReminderRepository
	logger    *slog.Logger
	interval  time.Duration
}

func NewDispatcher(reminders repository.ReminderRepository, logger *slog.Logger, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		reminders: reminders,
		logger:    logger.With("component", "dispatcher"),
		interval:  interval,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("dispatcher started", "interval", d.interval)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher shut down")
			return
		case <-ticker.C:
			d.dispatch(ctx)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context) {
	start := time.Now()

	results, err := d.reminders.ClaimAndFire(ctx, 100, d.computeNext)
	if err != nil {
		d.logger.Error("dispatcher claim and fire", "error", err)
		return
	}

	metrics.DispatchCycleDuration.Observe(time.Since(start).Seconds())

	var fired, deduped, paused int
	for _, res := range results {
		switch {
		case res.Paused:
			paused++
			metrics.RemindersFiredTotal.WithLabelValues("paused").Inc()
		case res.Delivery == nil:
			deduped++
			metrics.RemindersFiredTotal.WithLabelValues("deduped").Inc()
		default:
			fired++
			metrics.RemindersFiredTotal.WithLabelValues("fired").Inc()
		}
	}

	if len(results) > 0 {
		d.logger.Info("dispatcher fired reminders", "fired", fired, "deduped", deduped, "paused", paused)
	}
}

// computeNext returns the next future occurrence for the reminder. Missed
// occurrences are skipped implicitly: the rule carries no anchor, so
// searching forward from now yields the same instant as replaying every
// missed fire. Not-ok means the rule is malformed or produced nothing within
// the one-year horizon; the repository pauses the reminder in that case.
func (d *Dispatcher) computeNext(rem *domain.Reminder) (time.Time, bool) {
	next, ok := recurrence.Next(rem.Rule, time.Now())
	if !ok {
		// Rules are recognized on create; this should never happen.
		d.logger.Error("reminder rule yields no occurrence, pausing",
			"reminder_id", rem.ID, "rule", rem.Rule)
		return time.Time{}, false
	}
	return next, true
}
