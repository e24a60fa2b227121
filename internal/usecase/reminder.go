package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/remindkit/remindd/internal/domain"
	"github.com/remindkit/remindd/internal/recurrence"
	"github.com/remindkit/remindd/internal/repository"
)

type ReminderUsecase struct {
	repo       repository.ReminderRepository
	deliveries repository.DeliveryRepository
}

func NewReminderUsecase(repo repository.ReminderRepository, deliveries repository.DeliveryRepository) *ReminderUsecase {
	return &ReminderUsecase{repo: repo, deliveries: deliveries}
}

type CreateReminderInput struct {
	UserID   string
	Name     string
	Schedule string
	Message  string
}

func (u *ReminderUsecase) CreateReminder(ctx context.Context, input CreateReminderInput) (*domain.Reminder, error) {
	rule, ok := recurrence.Recognize(input.Schedule)
	if !ok {
		return nil, domain.ErrUnrecognizedSchedule
	}

	// Every rule the recognizer emits fires within a year, so a none-found
	// here means the clock or the rule table is broken, not the user input.
	nextFireAt, ok := recurrence.Next(rule, time.Now())
	if !ok {
		return nil, domain.ErrUnrecognizedSchedule
	}

	if input.Message == "" {
		input.Message = input.Name
	}

	r := &domain.Reminder{
		UserID:     input.UserID,
		Name:       input.Name,
		Schedule:   input.Schedule,
		Rule:       rule,
		Message:    input.Message,
		Paused:     false,
		NextFireAt: nextFireAt,
	}

	created, err := u.repo.Create(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	return created, nil
}

// SchedulePreview is a dry run of the recognizer plus the occurrence search:
// the canonical rule and the next few instants it would fire.
type SchedulePreview struct {
	Rule        string
	Occurrences []time.Time
}

const previewOccurrences = 3

func (u *ReminderUsecase) PreviewSchedule(schedule string) (SchedulePreview, error) {
	rule, ok := recurrence.Recognize(schedule)
	if !ok {
		return SchedulePreview{}, domain.ErrUnrecognizedSchedule
	}

	occurrences := make([]time.Time, 0, previewOccurrences)
	cur := time.Now()
	for i := 0; i < previewOccurrences; i++ {
		next, ok := recurrence.Next(rule, cur)
		if !ok {
			break
		}
		occurrences = append(occurrences, next)
		cur = next
	}

	return SchedulePreview{Rule: rule, Occurrences: occurrences}, nil
}

func (u *ReminderUsecase) GetReminder(ctx context.Context, id, userID string) (*domain.Reminder, error) {
	r, err := u.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

type ListRemindersInput struct {
	UserID string
	Cursor string
	Limit  int
}

type ListRemindersResult struct {
	Reminders  []*domain.Reminder
	NextCursor *string
}

type listCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

func decodeCursor(s string) (*time.Time, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}
	var c listCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, "", fmt.Errorf("unmarshal cursor: %w", err)
	}
	return &c.CreatedAt, c.ID, nil
}

func encodeCursor(createdAt time.Time, id string) string {
	b, _ := json.Marshal(listCursor{CreatedAt: createdAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(b)
}

func (u *ReminderUsecase) ListReminders(ctx context.Context, input ListRemindersInput) (ListRemindersResult, error) {
	limit := clampLimit(input.Limit)

	repoInput := repository.ListRemindersInput{
		UserID: input.UserID,
		Limit:  limit + 1,
	}

	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeCursor(input.Cursor)
		if err != nil {
			return ListRemindersResult{}, domain.ErrInvalidCursor
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	reminders, err := u.repo.List(ctx, repoInput)
	if err != nil {
		return ListRemindersResult{}, fmt.Errorf("list reminders: %w", err)
	}

	var nextCursor *string
	if len(reminders) == limit+1 {
		last := reminders[limit]
		s := encodeCursor(last.CreatedAt, last.ID)
		nextCursor = &s
		reminders = reminders[:limit]
	}

	return ListRemindersResult{Reminders: reminders, NextCursor: nextCursor}, nil
}

func (u *ReminderUsecase) PauseReminder(ctx context.Context, id, userID string) error {
	if err := u.repo.SetPaused(ctx, id, userID, true); err != nil {
		return fmt.Errorf("pause reminder: %w", err)
	}
	return nil
}

// ResumeReminder unpauses the reminder and recomputes next_fire_at from now,
// so occurrences missed while paused are skipped rather than fired in a burst.
func (u *ReminderUsecase) ResumeReminder(ctx context.Context, id, userID string) error {
	r, err := u.repo.GetByID(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("get reminder: %w", err)
	}
	if !r.Paused {
		return domain.ErrReminderNotPaused
	}

	nextFireAt, ok := recurrence.Next(r.Rule, time.Now())
	if !ok {
		// Rule yields nothing within a year — the reminder stays paused.
		return domain.ErrUnrecognizedSchedule
	}

	if err := u.repo.ResumeAt(ctx, id, userID, nextFireAt); err != nil {
		return fmt.Errorf("resume reminder: %w", err)
	}
	return nil
}

func (u *ReminderUsecase) DeleteReminder(ctx context.Context, id, userID string) error {
	if err := u.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

type ListDeliveriesInput struct {
	ReminderID string
	UserID     string
	Status     domain.Status
	Cursor     string
	Limit      int
}

type ListDeliveriesResult struct {
	Deliveries []*domain.Delivery
	NextCursor *string
}

func (u *ReminderUsecase) ListDeliveries(ctx context.Context, input ListDeliveriesInput) (ListDeliveriesResult, error) {
	// Verify ownership before exposing delivery history.
	if _, err := u.repo.GetByID(ctx, input.ReminderID, input.UserID); err != nil {
		return ListDeliveriesResult{}, fmt.Errorf("get reminder: %w", err)
	}

	limit := clampLimit(input.Limit)

	repoInput := repository.ListDeliveriesInput{
		ReminderID: input.ReminderID,
		Status:     input.Status,
		Limit:      limit + 1,
	}

	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeCursor(input.Cursor)
		if err != nil {
			return ListDeliveriesResult{}, domain.ErrInvalidCursor
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	deliveries, err := u.deliveries.ListByReminderID(ctx, repoInput)
	if err != nil {
		return ListDeliveriesResult{}, fmt.Errorf("list deliveries: %w", err)
	}

	var nextCursor *string
	if len(deliveries) == limit+1 {
		last := deliveries[limit]
		s := encodeCursor(last.ScheduledAt, last.ID)
		nextCursor = &s
		deliveries = deliveries[:limit]
	}

	return ListDeliveriesResult{Deliveries: deliveries, NextCursor: nextCursor}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
