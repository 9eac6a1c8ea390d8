package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthmate/api/internal/handler"
	"github.com/healthmate/api/internal/middleware"
	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/service/doctor"
	"github.com/healthmate/api/pkg/errors"
)

type Handler struct {
	service *doctor.Service
}

func NewHandler(service *doctor.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:id", middleware.ValidateUUIDParams("id"), h.GetDoctor)
	}
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", h.CreateDoctor)
		doctors.PUT("/:id", middleware.ValidateUUIDParams("id"), h.UpdateDoctor)
		doctors.DELETE("/:id", middleware.ValidateUUIDParams("id"), h.DeleteDoctor)
		doctors.POST("/:id/slots", middleware.ValidateUUIDParams("id"), h.CreateSlots)
		doctors.POST("/:id/slots/generate", middleware.ValidateUUIDParams("id"), h.GenerateSlots)
	}
	r.DELETE("/slots/:id", middleware.ValidateUUIDParams("id"), h.DeleteSlot)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	var filter model.DoctorFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.RespondWithError(c, errors.BadRequest("invalid query", err))
		return
	}

	doctors, err := h.service.ListDoctors(c.Request.Context(), filter)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, doctors)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	d, err := h.service.GetDoctor(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, d)
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.CreateDoctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	d, err := h.service.CreateDoctor(c.Request.Context(), req)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusCreated, d)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	var req model.UpdateDoctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	d, err := h.service.UpdateDoctor(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	if err := h.service.DeleteDoctor(c.Request.Context(), c.Param("id")); err != nil {
		handler.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateSlots(c *gin.Context) {
	var req model.CreateSlotsRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	slots, err := h.service.CreateSlots(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusCreated, slots)
}

func (h *Handler) GenerateSlots(c *gin.Context) {
	var req model.GenerateSlotsRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	slots, err := h.service.GenerateDaySlots(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusCreated, slots)
}

func (h *Handler) DeleteSlot(c *gin.Context) {
	if err := h.service.DeleteSlot(c.Request.Context(), c.Param("id")); err != nil {
		handler.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
