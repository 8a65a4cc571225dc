package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Operational route paths.
const (
	PathHealth = "/__health"
	PathGTG    = "/__gtg"
	PathAbout  = "/__about"
)

// HealthHandler returns a handler for the detailed health report. The
// report is always served with 200; the status lives in the body.
func (c *Checker) HealthHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("Cache-Control", "no-store")
		ctx.JSON(http.StatusOK, c.Health(ctx.Request.Context()))
	}
}

// GTGHandler returns a handler for the good-to-go probe.
func (c *Checker) GTGHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("Cache-Control", "no-store")
		if !c.GoodToGo(ctx.Request.Context()) {
			ctx.String(http.StatusServiceUnavailable, "Service Unavailable")
			return
		}
		ctx.String(http.StatusOK, "OK")
	}
}

// AboutHandler returns a handler describing the running build.
func (c *Checker) AboutHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, c.info)
	}
}

// RegisterRoutes registers the operational routes on r.
func (c *Checker) RegisterRoutes(r gin.IRoutes) {
	r.GET(PathHealth, c.HealthHandler())
	r.GET(PathGTG, c.GTGHandler())
	r.GET(PathAbout, c.AboutHandler())
}
