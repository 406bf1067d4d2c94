package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/kubemedic/kubemedic/db"
	"github.com/kubemedic/kubemedic/internal/models"
	"github.com/kubemedic/kubemedic/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupHandlerTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}, &models.Incident{}, &models.Executor{}))

	db.DB = conn
	Setup(nil, registry.New(conn, zap.NewNop()), zap.NewNop())

	r := gin.New()
	r.GET("/api/incidents", ListIncidents)
	r.POST("/api/incidents", IngestIncident)
	return r
}

func seedIncidents(t *testing.T) {
	t.Helper()

	incidents := []models.Incident{
		{IncidentID: "evt-1", Type: "Warning", Reason: "BackOff", Message: "Back-off restarting failed container", InvolvedObjectKind: "Pod", InvolvedObjectName: "web-0", Namespace: "default"},
		{IncidentID: "evt-2", Type: "Warning", Reason: "FailedScheduling", Message: "0/3 nodes are available", InvolvedObjectKind: "Pod", InvolvedObjectName: "api-1", Namespace: "prod"},
		{IncidentID: "evt-3", Type: "Normal", Reason: "Pulled", Message: "Container image pulled", InvolvedObjectKind: "Pod", InvolvedObjectName: "web-1", Namespace: "default", IsResolved: true},
	}

	for i := range incidents {
		require.NoError(t, db.DB.Create(&incidents[i]).Error)
	}
}

type listResponse struct {
	Incidents []models.Incident `json:"incidents"`
	Total     int64             `json:"total"`
}

func doListRequest(t *testing.T, r *gin.Engine, query string) (int, listResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/incidents"+query, nil)
	r.ServeHTTP(w, req)

	var body listResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}

	return w.Code, body
}

func TestListIncidents(t *testing.T) {
	r := setupHandlerTest(t)
	seedIncidents(t)

	code, body := doListRequest(t, r, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body.Total)
	assert.Len(t, body.Incidents, 3)
}

func TestListIncidentsFilterByType(t *testing.T) {
	r := setupHandlerTest(t)
	seedIncidents(t)

	code, body := doListRequest(t, r, "?incident_type=Warning")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body.Total)
	for _, incident := range body.Incidents {
		assert.Equal(t, "Warning", incident.Type)
	}
}

func TestListIncidentsFilterByNamespaceAndResolved(t *testing.T) {
	r := setupHandlerTest(t)
	seedIncidents(t)

	code, body := doListRequest(t, r, "?namespace=default&resolved=false")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body.Total)
	require.Len(t, body.Incidents, 1)
	assert.Equal(t, "evt-1", body.Incidents[0].IncidentID)
}

func TestListIncidentsInvalidResolvedFilter(t *testing.T) {
	r := setupHandlerTest(t)

	code, _ := doListRequest(t, r, "?resolved=maybe")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListIncidentsPagination(t *testing.T) {
	r := setupHandlerTest(t)
	seedIncidents(t)

	code, body := doListRequest(t, r, "?page=2&per_page=2")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body.Total)
	assert.Len(t, body.Incidents, 1)
}

func TestListIncidentsSearchOnlyFiltersCurrentPage(t *testing.T) {
	r := setupHandlerTest(t)
	seedIncidents(t)

	// Search is applied after pagination, so total keeps the structured count.
	code, body := doListRequest(t, r, "?search=scheduling")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body.Total)
	require.Len(t, body.Incidents, 1)
	assert.Equal(t, "FailedScheduling", body.Incidents[0].Reason)
}

func TestListIncidentsSearchIsCaseInsensitive(t *testing.T) {
	r := setupHandlerTest(t)
	seedIncidents(t)

	code, body := doListRequest(t, r, "?search=BACKOFF")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body.Incidents, 1)
	assert.Equal(t, "evt-1", body.Incidents[0].IncidentID)
}

func TestIngestIncidentCreates(t *testing.T) {
	r := setupHandlerTest(t)

	payload := `{
		"type": "Warning",
		"reason": "OOMKilled",
		"message": "Container exceeded memory limit",
		"involved_object_kind": "Pod",
		"involved_object_name": "worker-0",
		"namespace": "jobs",
		"labels": {"app": "worker"}
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/incidents", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var incident models.Incident
	require.NoError(t, db.DB.Where("reason = ?", "OOMKilled").First(&incident).Error)
	assert.NotEmpty(t, incident.IncidentID)
	assert.Equal(t, 1, incident.Count)
	assert.JSONEq(t, `{"app":"worker"}`, string(incident.Labels))
}

func TestIngestIncidentBumpsExistingOccurrence(t *testing.T) {
	r := setupHandlerTest(t)
	seedIncidents(t)

	payload := `{
		"incident_id": "evt-1",
		"type": "Warning",
		"reason": "BackOff",
		"involved_object_kind": "Pod",
		"involved_object_name": "web-0",
		"namespace": "default"
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/incidents", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var incident models.Incident
	require.NoError(t, db.DB.Where("incident_id = ?", "evt-1").First(&incident).Error)
	assert.Equal(t, 2, incident.Count)
	assert.NotNil(t, incident.LastTimestamp)
	assert.False(t, incident.IsResolved)
	assert.Equal(t, 0, incident.ResolutionAttempts)
}

func TestIngestIncidentRejectsUnknownType(t *testing.T) {
	r := setupHandlerTest(t)

	payload := `{
		"type": "Critical",
		"reason": "BackOff",
		"involved_object_kind": "Pod",
		"involved_object_name": "web-0"
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/incidents", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
