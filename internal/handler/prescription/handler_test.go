package prescription

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/rehab-api/internal/model"
	"github.com/jwalitptl/rehab-api/internal/repository/memory"
	prescriptionService "github.com/jwalitptl/rehab-api/internal/service/prescription"
	"github.com/jwalitptl/rehab-api/pkg/messaging"
	"github.com/jwalitptl/rehab-api/pkg/metrics"
)

var (
	testProviderID = uuid.MustParse("7f8a9b0c-1d2e-4f3a-8b4c-5d6e7f8a9b0c")
	testPatientID  = uuid.MustParse("1e2f3a4b-5c6d-4e7f-8a9b-0c1d2e3f4a5b")
	testTemplateID = uuid.MustParse("4b5c6d7e-8f9a-4b0c-8d1e-2f3a4b5c6d7e")
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpl := &model.Template{
		ID:              testTemplateID,
		Name:            "Hip Mobility Basics",
		Category:        "hip",
		DifficultyLevel: model.DifficultyBeginner,
		Exercises: []model.TemplateExercise{
			{Name: "Hip Circles", Difficulty: model.DifficultyBeginner, Sets: 2, Reps: model.FixedReps(10), TimesPerWeek: 3},
		},
	}
	svc := prescriptionService.NewService(
		memory.NewPrescriptionRepository(),
		memory.NewTemplateRepository(tmpl),
		messaging.NoopPublisher{},
		metrics.New("test"),
		prescriptionService.DefaultConfig(),
	)

	router := gin.New()
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createViaAPI(t *testing.T, router *gin.Engine) uuid.UUID {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/prescriptions", gin.H{
		"provider_id": testProviderID,
		"patient_id":  testPatientID,
		"template_id": testTemplateID,
		"start_date":  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data model.Prescription `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ID
}

func TestCreateAndGetPrescription(t *testing.T) {
	router := newTestRouter(t)
	id := createViaAPI(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/prescriptions/"+id.String(), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status string             `json:"status"`
		Data   model.Prescription `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, model.PrescriptionStatusDraft, resp.Data.Status)
	require.Len(t, resp.Data.Exercises, 1)
}

func TestListPatientPrescriptions(t *testing.T) {
	router := newTestRouter(t)
	createViaAPI(t, router)
	createViaAPI(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/patients/"+testPatientID.String()+"/prescriptions", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []model.Prescription `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)

	w = doJSON(t, router, http.MethodGet, "/api/v1/patients/"+uuid.NewString()+"/prescriptions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
}

func TestGetPrescriptionNotFound(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/prescriptions/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPrescriptionInvalidID(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/prescriptions/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivateEndpoint(t *testing.T) {
	router := newTestRouter(t)
	id := createViaAPI(t, router)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/activate", id), gin.H{
		"provider_id":      testProviderID,
		"expected_version": 0,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data model.Prescription `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.PrescriptionStatusActive, resp.Data.Status)
	assert.EqualValues(t, 1, resp.Data.Version)
}

func TestIllegalTransitionReturnsConflictWithCurrentState(t *testing.T) {
	router := newTestRouter(t)
	id := createViaAPI(t, router)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/pause", id), gin.H{
		"provider_id":      testProviderID,
		"expected_version": 0,
	})

	require.Equal(t, http.StatusConflict, w.Code)
	var resp struct {
		Status  string             `json:"status"`
		Current model.Prescription `json:"current"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, model.PrescriptionStatusDraft, resp.Current.Status)
}

func TestTransitionWrongProviderIsForbidden(t *testing.T) {
	router := newTestRouter(t)
	id := createViaAPI(t, router)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/activate", id), gin.H{
		"provider_id":      uuid.New(),
		"expected_version": 0,
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdjustmentsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	id := createViaAPI(t, router)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/activate", id), gin.H{
		"provider_id":      testProviderID,
		"expected_version": 0,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var activated struct {
		Data model.Prescription `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &activated))
	exerciseID := activated.Data.Exercises[0].ID

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/adjustments", id), gin.H{
		"provider_id":      testProviderID,
		"expected_version": activated.Data.Version,
		"adjustments": []gin.H{{
			"exercise_id": exerciseID,
			"type":        "increase_difficulty",
			"parameters":  gin.H{"reps_increase": 2},
			"reason":      "Two clean weeks",
		}},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data model.Prescription `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.Data.Exercise(exerciseID).Reps.Upper())
}

func TestAdjustmentsRequireNonEmptyBatch(t *testing.T) {
	router := newTestRouter(t)
	id := createViaAPI(t, router)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/prescriptions/%s/adjustments", id), gin.H{
		"provider_id":      testProviderID,
		"expected_version": 0,
		"adjustments":      []gin.H{},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
