package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-reminder-delivery/internal/app"
)

type ReminderHandler struct {
	useCase app.ReminderUseCase
}

func NewReminderHandler(useCase app.ReminderUseCase) *ReminderHandler {
	return &ReminderHandler{
		useCase: useCase,
	}
}

func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	slog.InfoContext(c.Request.Context(), "handling create reminder request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)

	var req CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)

		return
	}

	input := app.CreateReminderInput{
		UserID:          req.UserID,
		CalendarEventID: req.CalendarEventID,
		Title:           req.Title,
		Message:         req.Message,
		Channel:         req.Channel,
		ScheduledFor:    req.ScheduledFor,
		OffsetMinutes:   req.OffsetMinutes,
		IncludeTraffic:  req.IncludeTraffic,
		IncludeWeather:  req.IncludeWeather,
	}

	if req.Recurrence != nil {
		interval := req.Recurrence.Interval
		if interval == 0 {
			interval = 1
		}

		input.Recurrence = &app.RecurrenceInput{
			Type:     req.Recurrence.Type,
			Interval: interval,
			EndsAt:   req.Recurrence.EndsAt,
		}
	}

	output, err := h.useCase.CreateReminder(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)

		return
	}

	slog.InfoContext(c.Request.Context(), "reminder created successfully",
		"reminder_id", output.ID,
		"scheduled_for", output.ScheduledFor,
	)
	c.JSON(http.StatusCreated, FromDTO(output))
}

func (h *ReminderHandler) ListReminders(c *gin.Context) {
	var req ListRemindersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)

		return
	}

	output, err := h.useCase.ListReminders(c.Request.Context(), app.ListRemindersInput{
		UserID:          req.UserID,
		Status:          req.Status,
		CalendarEventID: req.EventID,
	})
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusOK, FromDTOs(output))
}

func (h *ReminderHandler) GetReminder(c *gin.Context) {
	output, err := h.useCase.GetReminder(c.Request.Context(), app.GetReminderInput{ID: c.Param("id")})
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusOK, FromDTO(output))
}

func (h *ReminderHandler) CancelReminder(c *gin.Context) {
	id := c.Param("id")

	slog.InfoContext(c.Request.Context(), "handling cancel reminder request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"reminder_id", id,
	)

	output, err := h.useCase.CancelReminder(c.Request.Context(), app.CancelReminderInput{ID: id})
	if err != nil {
		h.handleError(c, err)

		return
	}

	slog.InfoContext(c.Request.Context(), "reminder cancelled successfully",
		"reminder_id", id,
	)
	c.JSON(http.StatusOK, FromDTO(output))
}

func (h *ReminderHandler) ListSuggestions(c *gin.Context) {
	var req ListSuggestionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)

		return
	}

	output, err := h.useCase.ListSuggestions(c.Request.Context(), app.ListSuggestionsInput{
		UserID:      req.UserID,
		HorizonDays: req.HorizonDays,
	})
	if err != nil {
		h.handleError(c, err)

		return
	}

	c.JSON(http.StatusOK, FromSuggestionsDTO(output))
}

// RunDueReminders lets an external scheduler drive a dispatch pass instead of
// the in-process cron trigger.
func (h *ReminderHandler) RunDueReminders(c *gin.Context) {
	report, err := h.useCase.RunDueReminders(c.Request.Context())
	if err != nil {
		h.handleError(c, err)

		return
	}

	slog.InfoContext(c.Request.Context(), "dispatch pass completed",
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
	c.JSON(http.StatusOK, FromBatchReport(report))
}

func (h *ReminderHandler) bindError(c *gin.Context, err error) {
	slog.WarnContext(c.Request.Context(), "request validation failed",
		"error", err,
		"path", c.Request.URL.Path,
	)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
		Field:   "",
	})
}

func (h *ReminderHandler) handleError(c *gin.Context, err error) {
	var validationErr *app.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Message,
			Field:   validationErr.Field,
		})

		return
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "resource not found",
		})
	case errors.Is(err, app.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: "reminder is no longer in a state that allows this operation",
		})
	case errors.Is(err, app.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "a required dependency is unavailable, retry later",
		})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			"error", err,
			"path", c.Request.URL.Path,
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an internal error occurred",
		})
	}
}

func (h *ReminderHandler) RegisterRoutes(router *gin.RouterGroup) {
	reminders := router.Group("/reminders")
	{
		reminders.POST("", h.CreateReminder)
		reminders.GET("", h.ListReminders)
		reminders.GET("/suggestions", h.ListSuggestions)
		reminders.POST("/dispatch", h.RunDueReminders)
		reminders.GET("/:id", h.GetReminder)
		reminders.POST("/:id/cancel", h.CancelReminder)
	}
}
