package record

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

	"github.com/healthmate/api/internal/middleware"
	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository/repotest"
	"github.com/healthmate/api/internal/service/medical"
	"github.com/healthmate/api/pkg/cdn"
	"github.com/healthmate/api/pkg/security"
)

func setup(t *testing.T, store *repotest.Store, subject string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	enc, err := security.NewPassphraseEncryptor("test-passphrase", "salt", "records")
	require.NoError(t, err)
	h := NewHandler(medical.NewService(store.Records(), enc, cdn.NewBuilder("https://res.cloudinary.com", "healthmate")))

	r := gin.New()
	h.RegisterPatientRoutes(r.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.ContextSubject, subject)
		c.Next()
	}))
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecordLifecycle(t *testing.T) {
	store := repotest.New()
	r := setup(t, store, "patient-1")

	w := do(r, http.MethodPost, "/api/v1/records", gin.H{
		"title":          "Blood panel",
		"record_type":    "lab_report",
		"file_public_id": "records/panel-1",
		"notes":          "fasting glucose high",
		"record_date":    "2024-05-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data model.MedicalRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Contains(t, created.Data.FileURL, "records/panel-1")

	stored, err := store.Records().Get(context.Background(), created.Data.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "fasting glucose high", stored.Notes)

	w = do(r, http.MethodGet, "/api/v1/records/"+created.Data.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Data model.MedicalRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "fasting glucose high", got.Data.Notes)

	other := setup(t, store, "patient-2")
	w = do(other, http.MethodGet, "/api/v1/records/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodDelete, "/api/v1/records/"+created.Data.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecordRejectsUnknownType(t *testing.T) {
	r := setup(t, repotest.New(), "patient-1")

	w := do(r, http.MethodPost, "/api/v1/records", gin.H{
		"title":          "X-ray",
		"record_type":    "photo",
		"file_public_id": "records/x",
		"record_date":    "2024-05-01",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
