package main

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avaguard/internal/health"
	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// newAdminServer builds the listener for scrapes and probes. It is never
// behind the guard, so monitoring keeps working while keys rotate.
func newAdminServer(
	port int,
	metricsPath string,
	metrics *observability.Metrics,
	checker *health.Checker,
) *http.Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET(metricsPath, gin.WrapH(metrics.Handler()))
	if checker != nil {
		checker.RegisterRoutes(engine)
	}

	return &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// startAdminServer starts the admin listener when metrics are enabled.
func startAdminServer(app *application, logger observability.Logger) {
	m := app.config.Spec.Observability.Metrics
	if m == nil || !m.Enabled {
		return
	}

	server := newAdminServer(m.Port, m.Path, app.metrics, app.healthChecker)
	app.metricsServer = server
	logger.Info("starting admin server",
		observability.String("address", server.Addr),
		observability.String("metrics_path", m.Path),
	)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server error", observability.Error(err))
		}
	}()
}
