package domain

import (
	"errors"
	"time"
)

var (
	ErrDeliveryNotFound  = errors.New("delivery not found")
	ErrDuplicateDelivery = errors.New("delivery with this idempotency key already exists")
	ErrInvalidStatus     = errors.New("invalid delivery status")
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Delivery is one fired occurrence of a reminder on its way to the user's
// inbox. The idempotency key ties it to the (reminder, occurrence) pair so a
// double fire cannot produce two emails.
type Delivery struct {
	ID             string
	ReminderID     string
	UserID         string
	IdempotencyKey string
	Subject        string
	Body           string

	Status      Status
	ScheduledAt time.Time

	RetryCount int
	MaxRetries int

	ClaimedAt   *time.Time
	ClaimedBy   *string // sender ID
	HeartbeatAt *time.Time
	CompletedAt *time.Time
	LastError   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
