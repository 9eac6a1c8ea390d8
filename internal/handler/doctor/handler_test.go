package doctor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository/repotest"
	"github.com/healthmate/api/internal/service/doctor"
	"github.com/healthmate/api/pkg/cdn"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*gin.Engine, *repotest.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repotest.New()
	h := NewHandler(doctor.NewService(store.Doctors(), store.Slots(), cdn.NewBuilder("https://res.cloudinary.com", "healthmate")))

	r := gin.New()
	api := r.Group("/api/v1")
	h.RegisterRoutes(api)
	h.RegisterAdminRoutes(api.Group("/admin"))
	return r, store
}

func do(r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func createDoctor(t *testing.T, r *gin.Engine, name, specialization string) model.Doctor {
	t.Helper()
	w, env := do(r, http.MethodPost, "/api/v1/admin/doctors", gin.H{
		"name":             name,
		"specialization":   specialization,
		"experience_years": 12,
		"image_public_id":  "doctors/" + name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var d model.Doctor
	require.NoError(t, json.Unmarshal(env.Data, &d))
	return d
}

func TestDoctorLifecycle(t *testing.T) {
	r, _ := setup(t)
	d := createDoctor(t, r, "Asha", "Cardiology")
	createDoctor(t, r, "Ken", "Dermatology")
	assert.Contains(t, d.ImageURL, "doctors/Asha")

	w, env := do(r, http.MethodGet, "/api/v1/doctors?specialization=Cardiology", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Doctor
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, d.ID, list[0].ID)

	w, _ = do(r, http.MethodPut, "/api/v1/admin/doctors/"+d.ID, gin.H{"education": "MBBS"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(r, http.MethodGet, "/api/v1/doctors/"+d.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got model.Doctor
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "MBBS", got.Education)

	w, _ = do(r, http.MethodDelete, "/api/v1/admin/doctors/"+d.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(r, http.MethodGet, "/api/v1/doctors/"+d.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateDoctorValidation(t *testing.T) {
	r, _ := setup(t)

	w, env := do(r, http.MethodPost, "/api/v1/admin/doctors", gin.H{"name": " ", "specialization": "Cardiology"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", env.Status)
}

func TestSlotAdministration(t *testing.T) {
	r, store := setup(t)
	d := createDoctor(t, r, "Asha", "Cardiology")

	w, env := do(r, http.MethodPost, "/api/v1/admin/doctors/"+d.ID+"/slots", gin.H{
		"date":  "2024-05-10",
		"times": []string{"10:00 AM", "10:30 AM"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var slots []model.Slot
	require.NoError(t, json.Unmarshal(env.Data, &slots))
	require.Len(t, slots, 2)

	w, env = do(r, http.MethodPost, "/api/v1/admin/doctors/"+d.ID+"/slots/generate", gin.H{
		"date":  "2024-05-11",
		"start": "09:00",
		"end":   "10:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var generated []model.Slot
	require.NoError(t, json.Unmarshal(env.Data, &generated))
	assert.Len(t, generated, 2)

	// A booked slot cannot be removed.
	require.NoError(t, store.Appointments().Book(context.Background(), &model.Appointment{
		ID: "appt-1", PatientID: "p1", DoctorID: d.ID, SlotID: slots[0].ID, Status: model.AppointmentStatusConfirmed,
	}))
	w, _ = do(r, http.MethodDelete, "/api/v1/admin/slots/"+slots[0].ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(r, http.MethodDelete, "/api/v1/admin/slots/"+slots[1].ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(r, http.MethodDelete, "/api/v1/admin/doctors/"+d.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateSlotsUnknownDoctor(t *testing.T) {
	r, _ := setup(t)

	w, _ := do(r, http.MethodPost, "/api/v1/admin/doctors/5b0b8c3e-5d0e-4f43-9a55-0f6f2b1f0aff/slots", gin.H{
		"date":  "2024-05-10",
		"times": []string{"10:00 AM"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
