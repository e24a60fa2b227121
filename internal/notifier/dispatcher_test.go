package notifier

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/remindkit/remindd/internal/domain"
	"github.com/remindkit/remindd/internal/repository"
)

type fakeReminderRepo struct {
	claimAndFire func(ctx context.Context, limit int, computeNext func(*domain.Reminder) (time.Time, bool)) ([]repository.FireResult, error)
}

func (r *fakeReminderRepo) Create(context.Context, *domain.Reminder) (*domain.Reminder, error) {
	panic("not used")
}
func (r *fakeReminderRepo) GetByID(context.Context, string, string) (*domain.Reminder, error) {
	panic("not used")
}
func (r *fakeReminderRepo) List(context.Context, repository.ListRemindersInput) ([]*domain.Reminder, error) {
	panic("not used")
}
func (r *fakeReminderRepo) SetPaused(context.Context, string, string, bool) error { panic("not used") }
func (r *fakeReminderRepo) ResumeAt(context.Context, string, string, time.Time) error {
	panic("not used")
}
func (r *fakeReminderRepo) Delete(context.Context, string, string) error { panic("not used") }

func (r *fakeReminderRepo) ClaimAndFire(ctx context.Context, limit int, computeNext func(*domain.Reminder) (time.Time, bool)) ([]repository.FireResult, error) {
	return r.claimAndFire(ctx, limit, computeNext)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_ComputeNextAdvancesValidRule(t *testing.T) {
	var captured func(*domain.Reminder) (time.Time, bool)
	repo := &fakeReminderRepo{
		claimAndFire: func(_ context.Context, _ int, computeNext func(*domain.Reminder) (time.Time, bool)) ([]repository.FireResult, error) {
			captured = computeNext
			return nil, nil
		},
	}

	d := NewDispatcher(repo, discardLogger(), time.Second)
	d.dispatch(context.Background())

	if captured == nil {
		t.Fatal("dispatch did not pass computeNext to the repository")
	}

	rem := &domain.Reminder{ID: "rem-1", Rule: "0 * * * *", NextFireAt: time.Now().Add(-time.Hour)}
	next, ok := captured(rem)
	if !ok {
		t.Fatal("computeNext reported no occurrence for a valid rule")
	}
	if !next.After(time.Now()) {
		t.Errorf("computeNext = %s, want a future instant (missed runs skipped)", next)
	}
	if next.Minute() != 0 {
		t.Errorf("computeNext = %s, want minute 0 for an hourly rule", next)
	}
}

func TestDispatcher_ComputeNextPausesDeadRule(t *testing.T) {
	var captured func(*domain.Reminder) (time.Time, bool)
	repo := &fakeReminderRepo{
		claimAndFire: func(_ context.Context, _ int, computeNext func(*domain.Reminder) (time.Time, bool)) ([]repository.FireResult, error) {
			captured = computeNext
			return nil, nil
		},
	}

	d := NewDispatcher(repo, discardLogger(), time.Second)
	d.dispatch(context.Background())

	for _, rule := range []string{"garbage", "0 9 31 2 *"} {
		if _, ok := captured(&domain.Reminder{ID: "rem-1", Rule: rule}); ok {
			t.Errorf("computeNext(%q) reported an occurrence, want none", rule)
		}
	}
}
