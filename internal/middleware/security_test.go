package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDefaultSecurityConfig(t *testing.T) {
	config := DefaultSecurityConfig()

	assert.Equal(t, "strict-origin-when-cross-origin", config.ReferrerPolicy)
	assert.Equal(t, "nosniff", config.XContentTypeOptions)
	assert.Equal(t, "noopen", config.XDownloadOptions)
	assert.Equal(t, "SAMEORIGIN", config.XFrameOptions)
	assert.Equal(t, "1; mode=block", config.XXSSProtection)
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	router.GET("/denied", func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	})

	for _, path := range []string{"/ok", "/denied", "/missing"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "noopen", w.Header().Get("X-Download-Options"))
			assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
			assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
		})
	}
}

func TestSecurityHeadersWithConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		config  *SecurityConfig
		present map[string]string
		absent  []string
	}{
		{
			name:    "nil config uses defaults",
			config:  nil,
			present: map[string]string{"X-Frame-Options": "SAMEORIGIN"},
		},
		{
			name:    "empty values are not sent",
			config:  &SecurityConfig{XFrameOptions: "DENY"},
			present: map[string]string{"X-Frame-Options": "DENY"},
			absent:  []string{"Referrer-Policy", "X-XSS-Protection"},
		},
		{
			name: "custom headers",
			config: &SecurityConfig{
				CustomHeaders: map[string]string{"Permissions-Policy": "interest-cohort=()"},
			},
			present: map[string]string{"Permissions-Policy": "interest-cohort=()"},
			absent:  []string{"X-Frame-Options"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(SecurityHeadersWithConfig(tt.config))
			router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			for name, value := range tt.present {
				assert.Equal(t, value, w.Header().Get(name))
			}
			for _, name := range tt.absent {
				assert.Empty(t, w.Header().Get(name))
			}
		})
	}
}
