package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthmate/api/internal/handler"
	"github.com/healthmate/api/internal/middleware"
	"github.com/healthmate/api/internal/service/dashboard"
)

type Handler struct {
	service   *dashboard.Service
	homeLimit int
}

func NewHandler(service *dashboard.Service, homeLimit int) *Handler {
	return &Handler{service: service, homeLimit: homeLimit}
}

func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard/home", h.PatientHome)
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard/today", h.AdminToday)
}

func (h *Handler) PatientHome(c *gin.Context) {
	home, err := h.service.PatientHome(c.Request.Context(), middleware.Subject(c), h.homeLimit)
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, home)
}

func (h *Handler) AdminToday(c *gin.Context) {
	today, err := h.service.AdminToday(c.Request.Context())
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, today)
}
