package repository

import (
	"context"
	"time"

	"github.com/remindkit/remindd/internal/domain"
)

type ListRemindersInput struct {
	UserID     string
	CursorTime *time.Time // cursor on (created_at DESC, id DESC); nil = first page
	CursorID   string
	Limit      int
}

// FireResult is what ClaimAndFire decided for one due reminder.
type FireResult struct {
	Delivery *domain.Delivery // nil when the fire was deduplicated
	Paused   bool             // true when the rule produced no further occurrence
}

type ReminderRepository interface {
	Create(ctx context.Context, r *domain.Reminder) (*domain.Reminder, error)
	GetByID(ctx context.Context, id, userID string) (*domain.Reminder, error)
	List(ctx context.Context, input ListRemindersInput) ([]*domain.Reminder, error)
	SetPaused(ctx context.Context, id, userID string, paused bool) error
	// ResumeAt unpauses the reminder and resets next_fire_at in one statement.
	ResumeAt(ctx context.Context, id, userID string, nextFireAt time.Time) error
	Delete(ctx context.Context, id, userID string) error

	// Atomic: claim due reminders, create deliveries, advance next_fire_at —
	// all in one tx. computeNext reports ok = false when the reminder's rule
	// yields no occurrence within the search horizon; the reminder is then
	// paused instead of advanced.
	ClaimAndFire(ctx context.Context, limit int, computeNext func(*domain.Reminder) (time.Time, bool)) ([]FireResult, error)
}
