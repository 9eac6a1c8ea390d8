package booking

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthmate/api/internal/handler"
	"github.com/healthmate/api/internal/middleware"
	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/service/booking"
)

type Service interface {
	ListSlots(ctx context.Context, doctorID string) ([]*model.Slot, error)
	BookSlot(ctx context.Context, req booking.BookRequest) (*booking.BookingResult, error)
	CancelAppointment(ctx context.Context, req booking.CancelRequest) (*model.Appointment, error)
	PatientAppointments(ctx context.Context, patientID string) ([]*model.Appointment, error)
	AutoUpdateStatuses(ctx context.Context, patientID string) (int, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes adds the routes open to any signed-in caller.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/doctors/:id/slots", middleware.ValidateUUIDParams("id"), h.ListSlots)
	r.POST("/appointments/:id/cancel", middleware.ValidateUUIDParams("id"), h.CancelAppointment)
}

func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.BookSlot)
		appointments.GET("", h.ListAppointments)
	}
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/appointments/sweep", h.Sweep)
}

func (h *Handler) ListSlots(c *gin.Context) {
	slots, err := h.service.ListSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, slots)
}

// BookSlot answers 201 with the appointment, or 409 with the conflict and
// the suggested fallback slot.
func (h *Handler) BookSlot(c *gin.Context) {
	var req model.BookAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.service.BookSlot(c.Request.Context(), booking.BookRequest{
		DoctorID:  req.DoctorID,
		SlotID:    req.SlotID,
		PatientID: middleware.Subject(c),
	})
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}

	if result.Conflict {
		c.JSON(http.StatusConflict, &handler.Response{
			Status:  "error",
			Message: "slot is already booked",
			Data:    result,
		})
		return
	}
	handler.RespondWithSuccess(c, http.StatusCreated, result.Appointment)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	appts, err := h.service.PatientAppointments(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, appts)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	var req model.CancelAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	appt, err := h.service.CancelAppointment(c.Request.Context(), booking.CancelRequest{
		AppointmentID: c.Param("id"),
		SlotID:        req.SlotID,
		PatientID:     middleware.Subject(c),
		Admin:         middleware.IsAdmin(c),
	})
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, appt)
}

// Sweep runs the status pass for every patient.
func (h *Handler) Sweep(c *gin.Context) {
	changed, err := h.service.AutoUpdateStatuses(c.Request.Context(), "")
	if err != nil {
		handler.RespondWithError(c, err)
		return
	}
	handler.RespondWithSuccess(c, http.StatusOK, gin.H{"completed": changed})
}
