package backendauth

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

const (
	// DeniedBody is the response body for a denied request.
	DeniedBody = "Invalid Backend Authentication"

	// deniedContentType is the content type of a denied response.
	deniedContentType = "text/plain; charset=utf-8"

	// DecisionKey is the gin context key holding the request's Decision.
	DecisionKey = "backendauth.decision"
)

// AddrResolver resolves the client address of a request.
type AddrResolver interface {
	Extract(r *http.Request) string
}

// AddrResolverFunc adapts a function to AddrResolver.
type AddrResolverFunc func(r *http.Request) string

// Extract calls f(r).
func (f AddrResolverFunc) Extract(r *http.Request) string {
	return f(r)
}

// remoteAddr is the default resolver: the peer address without its port.
var remoteAddr = AddrResolverFunc(func(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
})

type middlewareOptions struct {
	logger   observability.Logger
	metrics  *Metrics
	alerter  *DenialAlerter
	resolver AddrResolver
}

// MiddlewareOption is a functional option for Middleware.
type MiddlewareOption func(*middlewareOptions)

// WithMiddlewareLogger sets the logger used for denial logs.
func WithMiddlewareLogger(logger observability.Logger) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the decision metrics.
func WithMetrics(metrics *Metrics) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.metrics = metrics
	}
}

// WithDenialAlerter sets the denial spike alerter.
func WithDenialAlerter(alerter *DenialAlerter) MiddlewareOption {
	return func(o *middlewareOptions) {
		o.alerter = alerter
	}
}

// WithAddrResolver sets how the client address is resolved. The default
// uses the connection's remote address and ignores forwarding headers.
func WithAddrResolver(resolver AddrResolver) MiddlewareOption {
	return func(o *middlewareOptions) {
		if resolver != nil {
			o.resolver = resolver
		}
	}
}

// Middleware returns a gin middleware enforcing ev's decisions. Every
// response carries the audit header; denied requests get a plain text 401
// and the chain is aborted.
func Middleware(ev Evaluator, opts ...MiddlewareOption) gin.HandlerFunc {
	o := &middlewareOptions{
		logger:   observability.NopLogger(),
		resolver: remoteAddr,
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(c *gin.Context) {
		clientAddr := o.resolver.Extract(c.Request)
		decision := ev.Evaluate(Request{
			Path:       c.Request.URL.Path,
			Header:     c.Request.Header,
			ClientAddr: clientAddr,
		})

		c.Header(HeaderAuditResult, decision.AuditValue())
		c.Set(DecisionKey, decision)
		o.metrics.RecordDecision(decision)

		if decision.Allowed {
			c.Next()
			return
		}

		o.logger.WithContext(c.Request.Context()).Debug("backend authentication denied",
			observability.String("path", c.Request.URL.Path),
			observability.String("client_addr", clientAddr),
			observability.String("reason", decision.Reason.String()),
		)
		o.alerter.RecordDenial()

		c.Data(http.StatusUnauthorized, deniedContentType, []byte(DeniedBody))
		c.Abort()
	}
}

// DecisionFromContext returns the decision stored by Middleware.
func DecisionFromContext(c *gin.Context) (Decision, bool) {
	v, exists := c.Get(DecisionKey)
	if !exists {
		return Decision{}, false
	}
	d, ok := v.(Decision)
	return d, ok
}
