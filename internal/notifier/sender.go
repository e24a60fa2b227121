package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/remindkit/remindd/internal/domain"
	"github.com/remindkit/remindd/internal/email"
	"github.com/remindkit/remindd/internal/metrics"
	"github.com/remindkit/remindd/internal/repository"
)

const sendTimeout = 30 * time.Second

// Sender polls for pending deliveries and mails them out, a bounded number
// at a time. Crashed sends are recovered by the reaper via the heartbeat.
type Sender struct {
	id           string
	deliveries   repository.DeliveryRepository
	users        repository.UserRepository
	mailer       email.Sender
	logger       *slog.Logger
	pollInterval time.Duration
	concurrency  int
	sem          chan struct{}
}

func NewSender(
	deliveries repository.DeliveryRepository,
	users repository.UserRepository,
	mailer email.Sender,
	logger *slog.Logger,
	pollInterval time.Duration,
	concurrency int,
) *Sender {
	hostname, _ := os.Hostname()
	id := fmt.Sprintf("%s-%d", hostname, os.Getpid())
	return &Sender{
		id:           id,
		deliveries:   deliveries,
		users:        users,
		mailer:       mailer,
		logger:       logger.With("sender_id", id),
		pollInterval: pollInterval,
		concurrency:  concurrency,
		sem:          make(chan struct{}, concurrency),
	}
}

func (s *Sender) Start(ctx context.Context) {
	metrics.SenderStartTime.SetToCurrentTime()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.logger.Info("sender started", "concurrency", s.concurrency)

	for {
		select {
		case <-ctx.Done():
			metrics.SenderShutdownsTotal.Inc()
			s.logger.Info("sender shut down")
			return
		case <-ticker.C:
			s.processBatch(ctx)
		}
	}
}

func (s *Sender) processBatch(ctx context.Context) {
	available := cap(s.sem) - len(s.sem)
	if available == 0 {
		return
	}

	deliveries, err := s.deliveries.Claim(ctx, s.id, available)
	if err != nil {
		s.logger.Error("claim deliveries", "error", err)
		return
	}

	if len(deliveries) == 0 {
		return
	}

	s.logger.Info("claimed deliveries", "count", len(deliveries), "slots_used", len(s.sem)+len(deliveries), "slots_total", cap(s.sem))

	for _, delivery := range deliveries {
		s.sem <- struct{}{}
		go func(d *domain.Delivery) {
			metrics.DeliveriesInFlight.Inc()
			defer metrics.DeliveriesInFlight.Dec()
			defer func() { <-s.sem }()
			s.send(ctx, d)
		}(delivery)
	}
}

func (s *Sender) send(ctx context.Context, d *domain.Delivery) {
	metrics.DeliveryPickupLatency.Observe(time.Since(d.CreatedAt).Seconds())

	heartbeatCtx, cancelHeartbeat := context.WithCancel(ctx)
	defer cancelHeartbeat()
	go s.heartbeat(heartbeatCtx, d.ID)

	user, err := s.users.FindByID(ctx, d.UserID)
	if err != nil {
		// Without a recipient address nothing can be sent; retry in case the
		// DB hiccuped, fail once retries are spent.
		s.finishFailed(ctx, d, fmt.Sprintf("resolve recipient: %v", err))
		return
	}

	s.logger.Info("sending reminder", "delivery_id", d.ID, "reminder_id", d.ReminderID, "to", user.Email)

	start := time.Now()
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	err = s.mailer.Send(sendCtx, user.Email, d.Subject, d.Body)
	cancel()
	duration := time.Since(start)

	if err == nil {
		metrics.DeliverySendDuration.WithLabelValues("success").Observe(duration.Seconds())
		metrics.DeliveriesCompletedTotal.WithLabelValues("success").Inc()
		if err := s.deliveries.Complete(ctx, d.ID); err != nil {
			s.logger.Error("mark delivery sent", "delivery_id", d.ID, "error", err)
		}
		s.logger.Info("delivery sent", "delivery_id", d.ID, "duration", duration)
		return
	}

	metrics.DeliverySendDuration.WithLabelValues("failure").Observe(duration.Seconds())
	s.finishFailed(ctx, d, err.Error())
}

func (s *Sender) finishFailed(ctx context.Context, d *domain.Delivery, errMsg string) {
	if d.RetryCount < d.MaxRetries {
		retryAt := time.Now().Add(retryDelay(d.RetryCount))
		if err := s.deliveries.Reschedule(ctx, d.ID, errMsg, retryAt); err != nil {
			s.logger.Error("reschedule delivery", "delivery_id", d.ID, "error", err)
		}
		metrics.DeliveriesCompletedTotal.WithLabelValues("retry").Inc()
		s.logger.Warn("delivery failed, will retry",
			"delivery_id", d.ID,
			"error", errMsg,
			"attempt", d.RetryCount+1,
			"max_retries", d.MaxRetries,
			"retry_at", retryAt,
		)
	} else {
		if err := s.deliveries.Fail(ctx, d.ID, errMsg); err != nil {
			s.logger.Error("mark delivery failed", "delivery_id", d.ID, "error", err)
		}
		metrics.DeliveriesCompletedTotal.WithLabelValues("failed").Inc()
		s.logger.Warn("delivery permanently failed", "delivery_id", d.ID, "error", errMsg)
	}
}

func (s *Sender) heartbeat(ctx context.Context, deliveryID string) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.deliveries.UpdateHeartbeat(ctx, deliveryID); err != nil {
				s.logger.Warn("heartbeat failed", "delivery_id", deliveryID, "error", err)
			}
		}
	}
}

// retryDelay backs off exponentially from 30s, capped at an hour, with
// ±25% jitter so retries from one bad cycle don't land together.
func retryDelay(retryCount int) time.Duration {
	base := 30 * time.Second
	delay := time.Duration(float64(base) * math.Pow(2, float64(retryCount)))
	delay = min(delay, time.Hour)
	jitter := time.Duration(rand.Int63n(int64(delay/2))) - delay/4
	return delay + jitter
}
