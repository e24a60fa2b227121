package domain

import (
	"errors"
	"time"
)

var (
	ErrReminderNotFound      = errors.New("reminder not found")
	ErrUnrecognizedSchedule  = errors.New("schedule phrase not recognized")
	ErrReminderAlreadyPaused = errors.New("reminder is already paused")
	ErrReminderNotPaused     = errors.New("reminder is not paused")
	ErrReminderNameConflict  = errors.New("reminder with this name already exists")
	ErrInvalidCursor         = errors.New("invalid pagination cursor")
)

// Reminder is a standing order: a recurring reminder backed by a canonical
// five-field recurrence rule. Schedule keeps the phrase the user typed;
// Rule is what the dispatcher actually evaluates.
type Reminder struct {
	ID          string
	UserID      string
	Name        string
	Schedule    string
	Rule        string
	Message     string
	Paused      bool
	NextFireAt  time.Time
	LastFiredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
