package reminder

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthmate/api/internal/handler"
	"github.com/healthmate/api/internal/middleware"
	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/service/reminder"
)

type Handler struct {
	service *reminder.Service
}

func NewHandler(service *reminder.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	reminders := r.Group("/reminders")
	{
		reminders.POST("", h.CreateReminder)
		reminders.GET("", h.ListReminders)
		reminders.PATCH("/:id", middleware.ValidateUUIDParams("id"), h.ToggleReminder)
		reminders.DELETE("/:id", middleware.ValidateUUIDParams("id"), h.DeleteReminder)
	}
}

func (h *Handler) CreateReminder(c *gin.Context) {
	var req model.CreateReminderRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	rem, err := h.service.Create(c.Request.Context(), middleware.Subject(c), req)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusCreated, rem)
}

func (h *Handler) ListReminders(c *gin.Context) {
	reminders, err := h.service.List(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, reminders)
}

func (h *Handler) ToggleReminder(c *gin.Context) {
	var req model.ToggleReminderRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	rem, err := h.service.Toggle(c.Request.Context(), middleware.Subject(c), c.Param("id"), req)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, rem)
}

func (h *Handler) DeleteReminder(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.Subject(c), c.Param("id")); err != nil {
		handler.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
