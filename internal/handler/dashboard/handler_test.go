package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/api/internal/middleware"
	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository/repotest"
	"github.com/healthmate/api/internal/service/dashboard"
)

func TestDashboards(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := repotest.New()
	store.Put(
		&model.Appointment{ID: "a1", PatientID: "patient-1", Date: "2024-05-10", Time: "02:00 PM", Status: model.AppointmentStatusConfirmed},
		&model.Appointment{ID: "a2", PatientID: "patient-1", Date: "2024-05-10", Time: "09:00 AM", Status: model.AppointmentStatusConfirmed},
		&model.Appointment{ID: "a3", PatientID: "patient-2", Date: "2024-05-10", Time: "11:00 AM", Status: model.AppointmentStatusCancelled},
		&model.Appointment{ID: "a4", PatientID: "patient-1", Date: "2024-05-09", Time: "09:00 AM", Status: model.AppointmentStatusConfirmed},
	)

	svc := dashboard.NewService(store.Appointments(), store.Reminders(), store.Slots(), time.UTC, 0)
	svc.SetClock(func() time.Time { return time.Date(2024, 5, 10, 7, 0, 0, 0, time.UTC) })
	h := NewHandler(svc, 3)

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.ContextSubject, "patient-1")
		c.Next()
	})
	h.RegisterPatientRoutes(api)
	h.RegisterAdminRoutes(api.Group("/admin"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/home", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var home struct {
		Data dashboard.PatientHome `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &home))
	require.Len(t, home.Data.Upcoming, 2)
	assert.Equal(t, "a2", home.Data.Upcoming[0].ID)
	assert.Equal(t, "a1", home.Data.Upcoming[1].ID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard/today", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var today struct {
		Data dashboard.AdminToday `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &today))
	assert.Equal(t, "2024-05-10", today.Data.Date)
	require.Len(t, today.Data.Appointments, 2)
	assert.Equal(t, "a2", today.Data.Appointments[0].ID)
	assert.Equal(t, 2, today.Data.Counts[model.AppointmentStatusConfirmed])
	assert.Equal(t, 1, today.Data.Counts[model.AppointmentStatusCancelled])
}
