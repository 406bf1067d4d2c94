package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kubemedic/kubemedic/internal/handlers"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handlers.Setup(nil, nil, zap.NewNop())
	return NewRouter()
}

func protectedRoutes() []struct {
	method string
	path   string
} {
	return []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/health"},
		{http.MethodGet, "/api/incidents"},
		{http.MethodPost, "/api/incidents"},
		{http.MethodPost, "/api/incidents/1/remediate"},
		{http.MethodPost, "/api/incidents/1/execute"},
		{http.MethodGet, "/api/executors"},
		{http.MethodPost, "/api/initialize"},
		{http.MethodPost, "/api/executors/1/activate"},
		{http.MethodGet, "/api/ws/executions"},
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	r := newTestRouter()

	for _, route := range protectedRoutes() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(route.method, route.path, nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestProtectedRoutesRejectMalformedToken(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
