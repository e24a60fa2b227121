package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/remindkit/remindd/internal/domain"
	"github.com/remindkit/remindd/internal/repository"
)

// deliveryMaxRetries bounds how often the sender retries one occurrence
// before the delivery is marked failed.
const deliveryMaxRetries = 3

type ReminderRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewReminderRepository(pool *pgxpool.Pool, logger *slog.Logger) *ReminderRepository {
	return &ReminderRepository{pool: pool, logger: logger.With("component", "reminder_repo")}
}

func (r *ReminderRepository) Create(ctx context.Context, rem *domain.Reminder) (*domain.Reminder, error) {
	query := `
		INSERT INTO reminders (
			user_id, name, schedule, rule, message, paused, next_fire_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, name, schedule, rule, message, paused,
		          next_fire_at, last_fired_at, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query,
		rem.UserID, rem.Name, rem.Schedule, rem.Rule, rem.Message, rem.Paused, rem.NextFireAt,
	)

	created, err := scanReminder(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrReminderNameConflict
		}
		return nil, err
	}
	return created, nil
}

func (r *ReminderRepository) GetByID(ctx context.Context, id, userID string) (*domain.Reminder, error) {
	query := `
		SELECT id, user_id, name, schedule, rule, message, paused,
		       next_fire_at, last_fired_at, created_at, updated_at
		FROM reminders
		WHERE id = $1 AND user_id = $2`

	row := r.pool.QueryRow(ctx, query, id, userID)
	return scanReminder(row)
}

func (r *ReminderRepository) List(ctx context.Context, input repository.ListRemindersInput) ([]*domain.Reminder, error) {
	args := []any{input.UserID}
	where := []string{"user_id = $1"}

	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT id, user_id, name, schedule, rule, message, paused,
		       next_fire_at, last_fired_at, created_at, updated_at
		FROM reminders
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`,
		strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*domain.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, nil
}

func (r *ReminderRepository) SetPaused(ctx context.Context, id, userID string, paused bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE reminders SET paused = $3, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND paused = $4`,
		id, userID, paused, !paused)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish not-found vs already-in-desired-state
		if _, err := r.GetByID(ctx, id, userID); err != nil {
			return err // ErrReminderNotFound
		}
		if paused {
			return domain.ErrReminderAlreadyPaused
		}
		return domain.ErrReminderNotPaused
	}
	return nil
}

func (r *ReminderRepository) ResumeAt(ctx context.Context, id, userID string, nextFireAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE reminders SET paused = FALSE, next_fire_at = $3, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND paused`,
		id, userID, nextFireAt)
	if err != nil {
		return fmt.Errorf("resume reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id, userID); err != nil {
			return err
		}
		return domain.ErrReminderNotPaused
	}
	return nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM reminders WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

// ClaimAndFire atomically claims due reminders, inserts a delivery for each,
// and advances next_fire_at. All operations happen in a single transaction —
// no partial state on crash. A reminder whose rule yields no occurrence
// within the search horizon is paused instead of advanced.
func (r *ReminderRepository) ClaimAndFire(ctx context.Context, limit int, computeNext func(*domain.Reminder) (time.Time, bool)) ([]repository.FireResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Claim due reminders — FOR UPDATE SKIP LOCKED prevents double-firing across replicas.
	rows, err := tx.Query(ctx, `
		SELECT id, user_id, name, schedule, rule, message, paused,
		       next_fire_at, last_fired_at, created_at, updated_at
		FROM reminders
		WHERE next_fire_at <= NOW() AND NOT paused
		ORDER BY next_fire_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim reminders: %w", err)
	}

	var reminders []*domain.Reminder
	for rows.Next() {
		var rem *domain.Reminder
		rem, err = scanReminder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}

	var results []repository.FireResult

	for _, rem := range reminders {
		next, hasNext := computeNext(rem)
		if !hasNext {
			// Malformed rule or a year without occurrences — same outcome
			// either way, so park the reminder rather than spin on it.
			if _, err = tx.Exec(ctx,
				`UPDATE reminders SET paused = TRUE, updated_at = NOW() WHERE id = $1`,
				rem.ID,
			); err != nil {
				return nil, fmt.Errorf("pause dead reminder %s: %w", rem.ID, err)
			}
			results = append(results, repository.FireResult{Paused: true})
			continue
		}

		idempotencyKey := fmt.Sprintf("rem:%s:%d", rem.ID, rem.NextFireAt.Unix())
		subject := fmt.Sprintf("Reminder: %s", rem.Name)

		// Insert the delivery — idempotency key guards against any edge-case duplicate fire.
		var d domain.Delivery
		scanErr := tx.QueryRow(ctx, `
			INSERT INTO deliveries (
				reminder_id, user_id, idempotency_key, subject, body,
				status, scheduled_at, max_retries
			) VALUES ($1, $2, $3, $4, $5, 'pending', NOW(), $6)
			RETURNING id, reminder_id, user_id, idempotency_key, subject, body,
			          status, scheduled_at, retry_count, max_retries,
			          claimed_at, claimed_by, heartbeat_at, completed_at,
			          last_error, created_at, updated_at`,
			rem.ID, rem.UserID, idempotencyKey, subject, rem.Message, deliveryMaxRetries,
		).Scan(
			&d.ID, &d.ReminderID, &d.UserID, &d.IdempotencyKey, &d.Subject, &d.Body,
			&d.Status, &d.ScheduledAt, &d.RetryCount, &d.MaxRetries,
			&d.ClaimedAt, &d.ClaimedBy, &d.HeartbeatAt, &d.CompletedAt,
			&d.LastError, &d.CreatedAt, &d.UpdatedAt,
		)

		result := repository.FireResult{}
		if scanErr != nil {
			var pgErr *pgconn.PgError
			if errors.As(scanErr, &pgErr) && pgErr.Code == "23505" {
				// Duplicate idempotency key — should never happen with SKIP LOCKED, but handle gracefully.
				r.logger.Warn("duplicate delivery for reminder, skipping",
					"reminder_id", rem.ID,
					"idempotency_key", idempotencyKey,
				)
				// Still advance next_fire_at so the reminder progresses.
			} else {
				err = fmt.Errorf("insert delivery for reminder %s: %w", rem.ID, scanErr)
				return nil, err
			}
		} else {
			result.Delivery = &d
		}

		// Advance next_fire_at and record last_fired_at.
		if _, err = tx.Exec(ctx,
			`UPDATE reminders SET next_fire_at = $2, last_fired_at = NOW(), updated_at = NOW() WHERE id = $1`,
			rem.ID, next,
		); err != nil {
			return nil, fmt.Errorf("advance reminder %s: %w", rem.ID, err)
		}

		results = append(results, result)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return results, nil
}

func scanReminder(row rowScanner) (*domain.Reminder, error) {
	var rem domain.Reminder
	err := row.Scan(
		&rem.ID, &rem.UserID, &rem.Name, &rem.Schedule, &rem.Rule, &rem.Message, &rem.Paused,
		&rem.NextFireAt, &rem.LastFiredAt, &rem.CreatedAt, &rem.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReminderNotFound
		}
		return nil, fmt.Errorf("scan reminder: %w", err)
	}
	return &rem, nil
}
