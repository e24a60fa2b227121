package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/remindkit/remindd/internal/domain"
	"github.com/remindkit/remindd/internal/usecase"
)

type ReminderHandler struct {
	uc     *usecase.ReminderUsecase
	logger *slog.Logger
}

func NewReminderHandler(uc *usecase.ReminderUsecase, logger *slog.Logger) *ReminderHandler {
	return &ReminderHandler{uc: uc, logger: logger.With("component", "reminder_handler")}
}

type createReminderRequest struct {
	Name     string `json:"name"     binding:"required,max=256"`
	Schedule string `json:"schedule" binding:"required,max=256"`
	Message  string `json:"message"  binding:"omitempty,max=2048"`
}

type reminderResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Rule        string     `json:"rule"`
	Message     string     `json:"message"`
	Paused      bool       `json:"paused"`
	NextFireAt  time.Time  `json:"next_fire_at"`
	LastFiredAt *time.Time `json:"last_fired_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toReminderResponse(r *domain.Reminder) reminderResponse {
	return reminderResponse{
		ID:          r.ID,
		Name:        r.Name,
		Schedule:    r.Schedule,
		Rule:        r.Rule,
		Message:     r.Message,
		Paused:      r.Paused,
		NextFireAt:  r.NextFireAt,
		LastFiredAt: r.LastFiredAt,
		CreatedAt:   r.CreatedAt,
	}
}

func (h *ReminderHandler) Create(ctx *gin.Context) {
	var req createReminderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.uc.CreateReminder(ctx.Request.Context(), usecase.CreateReminderInput{
		UserID:   ctx.GetString("userID"),
		Name:     req.Name,
		Schedule: req.Schedule,
		Message:  req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnrecognizedSchedule):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errUnrecognizedSchedule})
		case errors.Is(err, domain.ErrReminderNameConflict):
			ctx.JSON(http.StatusConflict, gin.H{"error": errReminderNameConflict})
		default:
			h.logger.Error("create reminder", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.JSON(http.StatusCreated, toReminderResponse(r))
}

type previewRequest struct {
	Schedule string `json:"schedule" binding:"required,max=256"`
}

func (h *ReminderHandler) Preview(ctx *gin.Context) {
	var req previewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	preview, err := h.uc.PreviewSchedule(req.Schedule)
	if err != nil {
		if errors.Is(err, domain.ErrUnrecognizedSchedule) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errUnrecognizedSchedule})
			return
		}
		h.logger.Error("preview schedule", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"rule":        preview.Rule,
		"occurrences": preview.Occurrences,
	})
}

func (h *ReminderHandler) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	result, err := h.uc.ListReminders(ctx.Request.Context(), usecase.ListRemindersInput{
		UserID: ctx.GetString("userID"),
		Cursor: ctx.Query("cursor"),
		Limit:  limit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCursor) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCursor})
			return
		}
		h.logger.Error("list reminders", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]reminderResponse, len(result.Reminders))
	for i, r := range result.Reminders {
		items[i] = toReminderResponse(r)
	}
	ctx.JSON(http.StatusOK, gin.H{
		"reminders":   items,
		"next_cursor": result.NextCursor,
	})
}

func (h *ReminderHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	r, err := h.uc.GetReminder(ctx.Request.Context(), id, ctx.GetString("userID"))
	if err != nil {
		if errors.Is(err, domain.ErrReminderNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errReminderNotFound})
			return
		}
		h.logger.Error("get reminder", "reminder_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, toReminderResponse(r))
}

func (h *ReminderHandler) Pause(ctx *gin.Context) {
	id := ctx.Param("id")

	err := h.uc.PauseReminder(ctx.Request.Context(), id, ctx.GetString("userID"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReminderNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errReminderNotFound})
		case errors.Is(err, domain.ErrReminderAlreadyPaused):
			ctx.JSON(http.StatusConflict, gin.H{"error": errReminderAlreadyPaused})
		default:
			h.logger.Error("pause reminder", "reminder_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ReminderHandler) Resume(ctx *gin.Context) {
	id := ctx.Param("id")

	err := h.uc.ResumeReminder(ctx.Request.Context(), id, ctx.GetString("userID"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReminderNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errReminderNotFound})
		case errors.Is(err, domain.ErrReminderNotPaused):
			ctx.JSON(http.StatusConflict, gin.H{"error": errReminderNotPaused})
		default:
			h.logger.Error("resume reminder", "reminder_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *ReminderHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	err := h.uc.DeleteReminder(ctx.Request.Context(), id, ctx.GetString("userID"))
	if err != nil {
		if errors.Is(err, domain.ErrReminderNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errReminderNotFound})
			return
		}
		h.logger.Error("delete reminder", "reminder_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.Status(http.StatusNoContent)
}

type deliveryItem struct {
	ID          string        `json:"id"`
	Status      domain.Status `json:"status"`
	Subject     string        `json:"subject"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	RetryCount  int           `json:"retry_count"`
	LastError   *string       `json:"last_error,omitempty"`
}

func (h *ReminderHandler) ListDeliveries(ctx *gin.Context) {
	id := ctx.Param("id")
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	result, err := h.uc.ListDeliveries(ctx.Request.Context(), usecase.ListDeliveriesInput{
		ReminderID: id,
		UserID:     ctx.GetString("userID"),
		Status:     domain.Status(ctx.Query("status")),
		Cursor:     ctx.Query("cursor"),
		Limit:      limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReminderNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errReminderNotFound})
		case errors.Is(err, domain.ErrInvalidCursor):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCursor})
		default:
			h.logger.Error("list deliveries", "reminder_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	items := make([]deliveryItem, len(result.Deliveries))
	for i, d := range result.Deliveries {
		items[i] = deliveryItem{
			ID:          d.ID,
			Status:      d.Status,
			Subject:     d.Subject,
			ScheduledAt: d.ScheduledAt,
			CompletedAt: d.CompletedAt,
			RetryCount:  d.RetryCount,
			LastError:   d.LastError,
		}
	}
	ctx.JSON(http.StatusOK, gin.H{
		"deliveries":  items,
		"next_cursor": result.NextCursor,
	})
}
