package handler

const (
	errInternalServer        = "Internal server error"
	errReminderNotFound      = "Reminder not found"
	errUnrecognizedSchedule  = "Schedule phrase not recognized"
	errReminderNameConflict  = "Reminder with this name already exists"
	errReminderAlreadyPaused = "Reminder is already paused"
	errReminderNotPaused     = "Reminder is not paused"
	errInvalidCursor         = "Invalid pagination cursor"
)
