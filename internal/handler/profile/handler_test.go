package profile

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/api/internal/middleware"
	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository/repotest"
	"github.com/healthmate/api/internal/service/patient"
)

func TestProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := repotest.New()
	h := NewHandler(patient.NewService(store.Patients()))

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.ContextSubject, "patient-1")
		c.Next()
	})
	h.RegisterPatientRoutes(api)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	body, _ := json.Marshal(gin.H{"name": "Priya", "email": "Priya@Example.com", "phone": "+14155550100"})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data model.PatientProfile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "patient-1", env.Data.ID)
	assert.Equal(t, "priya@example.com", env.Data.Email)
}

func TestProfileRejectsBadEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(patient.NewService(repotest.New().Patients()))
	r := gin.New()
	h.RegisterPatientRoutes(r.Group("", func(c *gin.Context) {
		c.Set(middleware.ContextSubject, "patient-1")
		c.Next()
	}))

	body, _ := json.Marshal(gin.H{"name": "Priya", "email": "not-an-email"})
	req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
