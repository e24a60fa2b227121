package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/remindkit/remindd/internal/domain"
	"github.com/remindkit/remindd/internal/repository"
)

type DeliveryRepository struct {
	pool *pgxpool.Pool
}

func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

const deliveryColumns = `id, reminder_id, user_id, idempotency_key, subject, body,
	       status, scheduled_at, retry_count, max_retries,
	       claimed_at, claimed_by, heartbeat_at, completed_at,
	       last_error, created_at, updated_at`

func (r *DeliveryRepository) ListByReminderID(ctx context.Context, input repository.ListDeliveriesInput) ([]*domain.Delivery, error) {
	args := []any{input.ReminderID}
	where := []string{"reminder_id = $1"}

	if input.Status != "" {
		args = append(args, input.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(scheduled_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM deliveries
		WHERE %s
		ORDER BY scheduled_at DESC, id DESC
		LIMIT $%d`,
		deliveryColumns, strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*domain.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, nil
}

func (r *DeliveryRepository) Claim(ctx context.Context, senderID string, limit int) ([]*domain.Delivery, error) {
	// FOR UPDATE SKIP LOCKED prevents double-sending across senders.
	query := fmt.Sprintf(`
		UPDATE deliveries
		SET    status       = 'sending',
		       claimed_at   = NOW(),
		       claimed_by   = $1,
		       heartbeat_at = NOW(),
		       updated_at   = NOW()
		WHERE id IN (
			SELECT id FROM deliveries
			WHERE  status       = 'pending'
			  AND  scheduled_at <= NOW()
			ORDER BY scheduled_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %s`, deliveryColumns)

	rows, err := r.pool.Query(ctx, query, senderID, limit)
	if err != nil {
		return nil, fmt.Errorf("claim deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*domain.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, nil
}

func (r *DeliveryRepository) UpdateHeartbeat(ctx context.Context, deliveryID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE deliveries SET heartbeat_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'sending'`, deliveryID)
	return err
}

func (r *DeliveryRepository) Complete(ctx context.Context, deliveryID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE deliveries SET status = 'sent', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1`, deliveryID)
	return err
}

func (r *DeliveryRepository) Fail(ctx context.Context, deliveryID string, lastError string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE deliveries SET status = 'failed', last_error = $2, updated_at = NOW()
		WHERE id = $1`, deliveryID, lastError)
	return err
}

func (r *DeliveryRepository) Reschedule(ctx context.Context, deliveryID string, lastError string, retryAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE deliveries
		SET    status       = 'pending',
		       retry_count  = retry_count + 1,
		       last_error   = $2,
		       scheduled_at = $3,
		       claimed_at   = NULL,
		       claimed_by   = NULL,
		       heartbeat_at = NULL,
		       updated_at   = NOW()
		WHERE id = $1`, deliveryID, lastError, retryAt)
	return err
}

func (r *DeliveryRepository) RescheduleStale(ctx context.Context, staleCutoff time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE deliveries
		SET    status       = 'pending',
		       retry_count  = retry_count + 1,
		       last_error   = 'sender timeout',
		       claimed_at   = NULL,
		       claimed_by   = NULL,
		       heartbeat_at = NULL,
		       updated_at   = NOW()
		WHERE id IN (
			SELECT id FROM deliveries
			WHERE  status       = 'sending'
			  AND  heartbeat_at < $1
			  AND  retry_count  < max_retries
			ORDER BY heartbeat_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`, staleCutoff, limit)
	return int(tag.RowsAffected()), err
}

func (r *DeliveryRepository) FailStale(ctx context.Context, staleCutoff time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE deliveries
		SET    status      = 'failed',
		       last_error  = 'sender timeout: max retries exceeded',
		       updated_at  = NOW()
		WHERE id IN (
			SELECT id FROM deliveries
			WHERE  status       = 'sending'
			  AND  heartbeat_at < $1
			  AND  retry_count  >= max_retries
			ORDER BY heartbeat_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`, staleCutoff, limit)
	return int(tag.RowsAffected()), err
}

// pgx.Row and pgx.Rows both implement this.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDelivery(row rowScanner) (*domain.Delivery, error) {
	var d domain.Delivery
	err := row.Scan(
		&d.ID, &d.ReminderID, &d.UserID, &d.IdempotencyKey, &d.Subject, &d.Body,
		&d.Status, &d.ScheduledAt, &d.RetryCount, &d.MaxRetries,
		&d.ClaimedAt, &d.ClaimedBy, &d.HeartbeatAt, &d.CompletedAt,
		&d.LastError, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("scan delivery: %w", err)
	}
	return &d, nil
}
