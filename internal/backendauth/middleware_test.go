package backendauth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

func newTestRouter(ev Evaluator, opts ...MiddlewareOption) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Middleware(ev, opts...))
	router.GET("/content", func(c *gin.Context) {
		c.String(http.StatusOK, "content")
	})
	router.GET("/__about", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": "app"})
	})
	return router
}

func serve(router http.Handler, path, remoteAddr string, kv ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	for i := 0; i+1 < len(kv); i += 2 {
		req.Header.Set(kv[i], kv[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_KeyRotationScenario(t *testing.T) {
	g := newTestGuard(t, Config{Enabled: true, Keys: []string{"k2", "k1"}})
	router := newTestRouter(g)

	t.Run("old key is accepted", func(t *testing.T) {
		w := serve(router, "/content", "", HeaderBackendKey, "k1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "content", w.Body.String())
		assert.Equal(t, "true", w.Header().Get(HeaderAuditResult))
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		w := serve(router, "/content", "", HeaderBackendKey, "wrong")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, DeniedBody, w.Body.String())
		assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "false", w.Header().Get(HeaderAuditResult))
	})

	t.Run("exempt route needs no key", func(t *testing.T) {
		w := serve(router, "/__about", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "false", w.Header().Get(HeaderAuditResult))
	})
}

func TestMiddleware_OldestRetiredKey(t *testing.T) {
	router := newTestRouter(newTestGuard(t, Config{Enabled: true, Keys: []string{"k3", "k2", "k1"}}))

	for _, header := range []string{HeaderBackendKey, HeaderLegacyBackendKey} {
		w := serve(router, "/content", "", header, "k1")
		assert.Equal(t, http.StatusOK, w.Code, header)
		assert.Equal(t, "true", w.Header().Get(HeaderAuditResult), header)
	}
}

func TestMiddleware_DeniedStopsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)

	g := newTestGuard(t, Config{Enabled: true, Keys: []string{"k1"}})

	reached := false
	router := gin.New()
	router.Use(Middleware(g))
	router.Use(func(c *gin.Context) {
		reached = true
		c.Next()
	})
	router.GET("/content", func(c *gin.Context) {
		c.String(http.StatusOK, "content")
	})

	w := serve(router, "/content", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestMiddleware_AllowlistUsesResolver(t *testing.T) {
	g := newTestGuard(t, Config{Enabled: true, Keys: []string{"k1"}, Allowlist: []string{"10.0.0.0/8"}})

	t.Run("default resolver strips port", func(t *testing.T) {
		router := newTestRouter(g)
		w := serve(router, "/content", "10.1.2.3:54321")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true", w.Header().Get(HeaderAuditResult))
	})

	t.Run("default resolver ignores forwarding headers", func(t *testing.T) {
		router := newTestRouter(g)
		w := serve(router, "/content", "192.0.2.1:1234", "X-Forwarded-For", "10.1.2.3")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("custom resolver", func(t *testing.T) {
		resolver := AddrResolverFunc(func(*http.Request) string { return "10.9.9.9" })
		router := newTestRouter(g, WithAddrResolver(resolver))
		w := serve(router, "/content", "192.0.2.1:1234")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMiddleware_DisabledAllowsEverything(t *testing.T) {
	g := newTestGuard(t, Config{Enabled: false, Keys: []string{"k1"}})
	router := newTestRouter(g)

	w := serve(router, "/content", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "false", w.Header().Get(HeaderAuditResult))

	w = serve(router, "/content", "", HeaderLegacyBackendKey, "k1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get(HeaderAuditResult))
}

func TestMiddleware_StoresDecision(t *testing.T) {
	gin.SetMode(gin.TestMode)

	g := newTestGuard(t, Config{Enabled: true, Keys: []string{"k2", "k1"}})

	var got Decision
	var found bool
	router := gin.New()
	router.Use(Middleware(g))
	router.GET("/content", func(c *gin.Context) {
		got, found = DecisionFromContext(c)
		c.Status(http.StatusNoContent)
	})

	serve(router, "/content", "", HeaderBackendKeyOld, "k2")
	require.True(t, found)
	assert.Equal(t, ReasonValidCurrentKey, got.Reason)
	assert.Equal(t, HeaderBackendKeyOld, got.Header)
}

func TestDecisionFromContext_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := DecisionFromContext(c)
	assert.False(t, ok)
}

func TestMiddleware_MetricsAndDenialLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := observability.NewLoggerFromZap(zap.New(core))
	metrics := NewMetrics("test")

	g := newTestGuard(t, Config{Enabled: true, Keys: []string{"k2", "k1"}})
	router := newTestRouter(g, WithMetrics(metrics), WithMiddlewareLogger(logger))

	serve(router, "/content", "", HeaderBackendKey, "k2")
	serve(router, "/content", "", HeaderBackendKey, "k1")
	serve(router, "/content", "", HeaderBackendKey, "nope")
	serve(router, "/content", "")
	serve(router, "/__about", "")

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.decisionsTotal.WithLabelValues("valid_current_key")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.decisionsTotal.WithLabelValues("valid_old_key")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.decisionsTotal.WithLabelValues("denied")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.decisionsTotal.WithLabelValues("bypassed_route")), 0)

	denials := logs.FilterMessage("backend authentication denied")
	require.Equal(t, 2, denials.Len())
	assert.Equal(t, zapcore.DebugLevel, denials.All()[0].Level)
	assert.Equal(t, "/content", denials.All()[0].ContextMap()["path"])
}

func TestMiddleware_DenialSpikeAlert(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := observability.NewLoggerFromZap(zap.New(core))
	metrics := NewMetrics("test")
	alerter := NewDenialAlerter(AlertConfig{Rate: 0.001, Burst: 2}, logger, metrics)

	g := newTestGuard(t, Config{Enabled: true, Keys: []string{"k1"}})
	router := newTestRouter(g, WithDenialAlerter(alerter))

	for range 10 {
		w := serve(router, "/content", "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	assert.Equal(t, 1, logs.FilterMessage("backend authentication denial rate exceeded").Len())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.denialAlerts), 0)
}

func TestAddrResolverFunc(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:8080"
	assert.Equal(t, "::1", remoteAddr.Extract(req))

	req.RemoteAddr = "127.0.0.1"
	assert.Equal(t, "127.0.0.1", remoteAddr.Extract(req))
}
