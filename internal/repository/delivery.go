package repository

import (
	"context"
	"time"

	"github.com/remindkit/remindd/internal/domain"
)

type ListDeliveriesInput struct {
	ReminderID string
	Status     domain.Status // empty = all statuses
	CursorTime *time.Time    // nil = first page
	CursorID   string        // used only when CursorTime is non-nil
	Limit      int
}

type DeliveryRepository interface {
	ListByReminderID(ctx context.Context, input ListDeliveriesInput) ([]*domain.Delivery, error)

	// Sender loop: poll-claim a batch, then report the outcome per delivery.
	Claim(ctx context.Context, senderID string, limit int) ([]*domain.Delivery, error)
	UpdateHeartbeat(ctx context.Context, deliveryID string) error
	Complete(ctx context.Context, deliveryID string) error
	Fail(ctx context.Context, deliveryID string, lastError string) error
	Reschedule(ctx context.Context, deliveryID string, lastError string, retryAt time.Time) error

	// Reaper methods — recover deliveries from crashed senders.
	RescheduleStale(ctx context.Context, staleCutoff time.Time, limit int) (int, error)
	FailStale(ctx context.Context, staleCutoff time.Time, limit int) (int, error)
}
