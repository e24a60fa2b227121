package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/remindkit/remindd/internal/transport/http/handler"
	"github.com/remindkit/remindd/internal/transport/http/middleware"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(
	logger *slog.Logger,
	authHandler *handler.AuthHandler,
	reminderHandler *handler.ReminderHandler,
	jwtKey []byte,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	// Sign-in flow is the only unauthenticated surface.
	r.POST("/auth/magic-link", authHandler.RequestMagicLink)
	r.GET("/auth/verify", authHandler.Verify)

	authMW := middleware.Auth(jwtKey)

	reminders := r.Group("/v1/reminders", authMW)
	reminders.POST("", reminderHandler.Create)
	reminders.GET("", reminderHandler.List)
	reminders.GET("/:id", reminderHandler.GetByID)
	reminders.POST("/:id/pause", reminderHandler.Pause)
	reminders.POST("/:id/resume", reminderHandler.Resume)
	reminders.DELETE("/:id", reminderHandler.Delete)
	reminders.GET("/:id/deliveries", reminderHandler.ListDeliveries)

	// Dry run: recognize a phrase and show its next occurrences.
	r.POST("/v1/schedule/preview", authMW, reminderHandler.Preview)

	return r
}
