package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthmate/api/internal/handler"
	"github.com/healthmate/api/internal/middleware"
	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/service/patient"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.GetProfile)
	r.PUT("/profile", h.UpsertProfile)
}

func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.service.GetProfile(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) UpsertProfile(c *gin.Context) {
	var req model.UpsertProfileRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpsertProfile(c.Request.Context(), middleware.Subject(c), req)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, p)
}
