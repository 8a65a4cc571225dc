package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(checker *Checker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	checker.RegisterRoutes(router)
	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthHandler(t *testing.T) {
	checker := NewChecker(Info{Name: "app", Version: "1.2.3"}, nil)
	checker.RegisterCheck("upstream", staticCheck(StatusUnhealthy, "connection refused"))
	router := newRouter(checker)

	w := get(router, PathHealth)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Equal(t, "app", resp.Name)
	assert.Equal(t, "connection refused", resp.Checks["upstream"].Message)
}

func TestGTGHandler(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		wantCode int
		wantBody string
	}{
		{name: "healthy", status: StatusHealthy, wantCode: http.StatusOK, wantBody: "OK"},
		{name: "degraded", status: StatusDegraded, wantCode: http.StatusOK, wantBody: "OK"},
		{name: "unhealthy", status: StatusUnhealthy, wantCode: http.StatusServiceUnavailable, wantBody: "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(Info{Name: "app"}, nil)
			checker.RegisterCheck("c", staticCheck(tt.status, ""))

			w := get(newRouter(checker), PathGTG)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
		})
	}
}

func TestAboutHandler(t *testing.T) {
	checker := NewChecker(Info{
		Name:      "next-article",
		Version:   "1.2.3",
		Commit:    "abc123",
		BuildTime: "2026-01-01T00:00:00Z",
	}, nil)

	w := get(newRouter(checker), PathAbout)
	assert.Equal(t, http.StatusOK, w.Code)

	var info Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "article", info.Name)
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc123", info.Commit)
}

func TestHTTPCheck(t *testing.T) {
	t.Parallel()

	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	check := HTTPCheck(server.Client(), server.URL+"/__gtg")
	assert.Equal(t, StatusHealthy, check(context.Background()).Status)

	status.Store(http.StatusServiceUnavailable)
	result := check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Equal(t, "status 503", result.Message)

	unreachable := HTTPCheck(nil, "http://127.0.0.1:1/")
	assert.Equal(t, StatusUnhealthy, unreachable(context.Background()).Status)

	invalid := HTTPCheck(nil, "://bad")
	assert.Equal(t, StatusUnhealthy, invalid(context.Background()).Status)
}
