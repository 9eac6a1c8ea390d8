package record

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthmate/api/internal/handler"
	"github.com/healthmate/api/internal/middleware"
	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/service/medical"
)

type Handler struct {
	service *medical.Service
}

func NewHandler(service *medical.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	records := r.Group("/records")
	{
		records.POST("", h.CreateRecord)
		records.GET("", h.ListRecords)
		records.GET("/:id", middleware.ValidateUUIDParams("id"), h.GetRecord)
		records.DELETE("/:id", middleware.ValidateUUIDParams("id"), h.DeleteRecord)
	}
}

func (h *Handler) CreateRecord(c *gin.Context) {
	var req model.CreateMedicalRecordRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.Create(c.Request.Context(), middleware.Subject(c), req)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusCreated, rec)
}

func (h *Handler) ListRecords(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, records)
}

func (h *Handler) GetRecord(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), middleware.Subject(c), c.Param("id"))
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.Subject(c), c.Param("id")); err != nil {
		handler.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
